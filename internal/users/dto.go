package users

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/netbill/isp-billing/pkg/db/models"
	pkgerrors "github.com/netbill/isp-billing/pkg/errors"
)

const minPasswordLength = 8

var inputRules = validator.New()

// UserDTO is an administrator as returned to clients; the password hash never leaves the service.
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CreateInput is what the create-user command collects.
type CreateInput struct {
	Username string `validate:"required,max=64"`
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=8,max=256"`
}

// normalized trims the identity fields and lowercases the email so lookups are case-insensitive.
func (in CreateInput) normalized() CreateInput {
	return CreateInput{
		Username: strings.TrimSpace(in.Username),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Password: in.Password,
	}
}

func (in CreateInput) validate() error {
	err := inputRules.Struct(in)
	var fieldErrs validator.ValidationErrors
	if err == nil || !errors.As(err, &fieldErrs) {
		return err
	}
	fe := fieldErrs[0]
	switch {
	case fe.Field() == "Password" && fe.Tag() == "min":
		return pkgerrors.Newf(pkgerrors.CodeValidation, "password must be at least %d characters", minPasswordLength)
	case fe.Field() == "Email":
		return pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	case fe.Tag() == "required":
		return pkgerrors.Newf(pkgerrors.CodeValidation, "%s is required", strings.ToLower(fe.Field()))
	}
	return pkgerrors.Newf(pkgerrors.CodeValidation, "%s is invalid", strings.ToLower(fe.Field()))
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}
