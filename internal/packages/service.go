package packages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/netbill/isp-billing/pkg/db"
	"github.com/netbill/isp-billing/pkg/db/models"
	pkgerrors "github.com/netbill/isp-billing/pkg/errors"
	"github.com/netbill/isp-billing/pkg/logger"
	"gorm.io/gorm"
)

type packageRepository interface {
	Create(ctx context.Context, pkg *models.ServicePackage) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ServicePackage, error)
	List(ctx context.Context) ([]models.ServicePackage, error)
	Update(ctx context.Context, pkg *models.ServicePackage) error
	DetachCustomersWithTx(tx *gorm.DB, id uuid.UUID) (int64, error)
	DeleteWithTx(tx *gorm.DB, id uuid.UUID) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Input captures the mutable package fields.
type Input struct {
	Name      string
	SpeedMbps int
	Price     int64
}

func (in Input) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if in.SpeedMbps <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "speed_mbps must be positive")
	}
	if in.Price <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	return nil
}

// Service exposes service package operations.
type Service interface {
	Create(ctx context.Context, input Input) (*models.ServicePackage, error)
	Get(ctx context.Context, id uuid.UUID) (*models.ServicePackage, error)
	List(ctx context.Context) ([]models.ServicePackage, error)
	Update(ctx context.Context, id uuid.UUID, input Input) (*models.ServicePackage, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ServiceParams groups dependencies for the package service.
type ServiceParams struct {
	Repo   packageRepository
	Tx     txRunner
	Logger *logger.Logger
}

type service struct {
	repo packageRepository
	tx   txRunner
	logg *logger.Logger
}

// NewService builds a package service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, errors.New("package repository required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	return &service{repo: params.Repo, tx: params.Tx, logg: params.Logger}, nil
}

func (s *service) Create(ctx context.Context, input Input) (*models.ServicePackage, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	pkg := &models.ServicePackage{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(input.Name),
		SpeedMbps: input.SpeedMbps,
		Price:     input.Price,
	}
	if err := s.repo.Create(ctx, pkg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create package")
	}
	return pkg, nil
}

// Get loads one package.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.ServicePackage, error) {
	pkg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "package not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load package")
	}
	return pkg, nil
}

// List returns all packages ordered by name.
func (s *service) List(ctx context.Context) ([]models.ServicePackage, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list packages")
	}
	return rows, nil
}

// Update edits a package. Invoices already generated keep their amount.
func (s *service) Update(ctx context.Context, id uuid.UUID, input Input) (*models.ServicePackage, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	pkg, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	pkg.Name = strings.TrimSpace(input.Name)
	pkg.SpeedMbps = input.SpeedMbps
	pkg.Price = input.Price
	if err := s.repo.Update(ctx, pkg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update package")
	}
	return pkg, nil
}

// Delete detaches subscribed customers and removes the package in one transaction.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	var detached int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := s.repo.DetachCustomersWithTx(tx, id)
		if err != nil {
			return fmt.Errorf("detach customers: %w", err)
		}
		detached = n
		deleted, err := s.repo.DeleteWithTx(tx, id)
		if err != nil {
			return fmt.Errorf("delete package: %w", err)
		}
		if deleted == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "package not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete package")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"package_id":         id.String(),
		"customers_detached": detached,
	})
	s.logg.Info(logCtx, "package deleted")
	return nil
}
