package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/netbill/isp-billing/pkg/config"
	"github.com/netbill/isp-billing/pkg/db"
	"github.com/netbill/isp-billing/pkg/db/models"
	pkgerrors "github.com/netbill/isp-billing/pkg/errors"
	"github.com/netbill/isp-billing/pkg/security"
	"gorm.io/gorm"
)

type userRepository interface {
	CreateWithTx(ctx context.Context, tx *gorm.DB, user *models.User) error
	ExistsWithTx(ctx context.Context, tx *gorm.DB, username, email string) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RegisterService creates administrator accounts.
type RegisterService interface {
	Register(ctx context.Context, input CreateInput) (*UserDTO, error)
}

// RegisterServiceParams names the dependencies for admin registration.
type RegisterServiceParams struct {
	Repo           userRepository
	Tx             txRunner
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	repo        userRepository
	tx          txRunner
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds the admin registration service.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.Repo == nil {
		return nil, errors.New("user repository required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner required")
	}
	return &registerService{repo: params.Repo, tx: params.Tx, passwordCfg: params.PasswordConfig}, nil
}

// Register stores a new administrator with an Argon2id password hash. It
// fails with a conflict when the username or email is already taken.
func (s *registerService) Register(ctx context.Context, input CreateInput) (*UserDTO, error) {
	input = input.normalized()
	if err := input.validate(); err != nil {
		return nil, err
	}
	username, email := input.Username, input.Email

	passwordHash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		exists, err := s.repo.ExistsWithTx(ctx, tx, username, email)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing user")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, "username or email already registered")
		}
		if err := s.repo.CreateWithTx(ctx, tx, user); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "username or email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}
