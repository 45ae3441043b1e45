package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/netbill/isp-billing/pkg/db"
	"github.com/netbill/isp-billing/pkg/db/models"
	"github.com/netbill/isp-billing/pkg/enums"
	pkgerrors "github.com/netbill/isp-billing/pkg/errors"
	"github.com/netbill/isp-billing/pkg/logger"
	"gorm.io/gorm"
)

type customerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, q ListQuery) ([]CustomerRow, error)
	Update(ctx context.Context, customer *models.Customer) error
	PackageExists(ctx context.Context, id uuid.UUID) (bool, error)
	CountByStatus(ctx context.Context, status enums.CustomerStatus) (int64, error)
	DeleteInvoicesWithTx(tx *gorm.DB, customerID uuid.UUID) (int64, error)
	DeleteWithTx(tx *gorm.DB, id uuid.UUID) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes customer operations.
type Service interface {
	Create(ctx context.Context, input Input) (*models.Customer, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, q ListQuery) ([]CustomerRow, error)
	Update(ctx context.Context, id uuid.UUID, input Input) (*models.Customer, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountActive(ctx context.Context) (int64, error)
}

// ServiceParams groups dependencies for the customer service.
type ServiceParams struct {
	Repo   customerRepository
	Tx     txRunner
	Logger *logger.Logger
	Now    func() time.Time
}

type service struct {
	repo customerRepository
	tx   txRunner
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds a customer service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, errors.New("customer repository required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: params.Repo, tx: params.Tx, logg: params.Logger, now: now}, nil
}

func (s *service) Create(ctx context.Context, input Input) (*models.Customer, error) {
	if err := s.prepare(ctx, &input); err != nil {
		return nil, err
	}
	customer := &models.Customer{ID: uuid.New()}
	apply(customer, input)
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, mapWriteError(err, "create customer")
	}
	return customer, nil
}

// Get loads one customer or returns a not-found error.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

// List returns customers with their package names, filtered by status when set.
func (s *service) List(ctx context.Context, q ListQuery) ([]CustomerRow, error) {
	if q.Status != nil && !q.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	rows, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	return rows, nil
}

// Update replaces the editable fields. A zero join date or empty status keeps the stored value.
func (s *service) Update(ctx context.Context, id uuid.UUID, input Input) (*models.Customer, error) {
	customer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.JoinedAt.IsZero() {
		input.JoinedAt = customer.JoinedAt
	}
	if input.Status == "" {
		input.Status = customer.Status
	}
	if err := s.prepare(ctx, &input); err != nil {
		return nil, err
	}
	apply(customer, input)
	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, mapWriteError(err, "update customer")
	}
	return customer, nil
}

// Delete removes the customer's invoices and then the customer in one transaction.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	var invoicesDeleted int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := s.repo.DeleteInvoicesWithTx(tx, id)
		if err != nil {
			return fmt.Errorf("delete invoices: %w", err)
		}
		invoicesDeleted = n
		deleted, err := s.repo.DeleteWithTx(tx, id)
		if err != nil {
			return fmt.Errorf("delete customer: %w", err)
		}
		if deleted == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete customer")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"customer_id":      id.String(),
		"invoices_deleted": invoicesDeleted,
	})
	s.logg.Info(logCtx, "customer deleted")
	return nil
}

func (s *service) CountActive(ctx context.Context) (int64, error) {
	count, err := s.repo.CountByStatus(ctx, enums.CustomerStatusActive)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active customers")
	}
	return count, nil
}

func (s *service) prepare(ctx context.Context, input *Input) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Address = strings.TrimSpace(input.Address)
	input.Phone = strings.TrimSpace(input.Phone)

	switch {
	case input.Name == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	case input.Address == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	case input.Phone == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}

	if input.Status == "" {
		input.Status = enums.CustomerStatusActive
	}
	if !input.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid status").
			WithDetails(map[string]any{"status": input.Status})
	}
	if input.JoinedAt.IsZero() {
		input.JoinedAt = s.now()
	}
	input.JoinedAt = truncateToDay(input.JoinedAt)

	if input.PackageID != nil {
		if *input.PackageID == uuid.Nil {
			input.PackageID = nil
			return nil
		}
		ok, err := s.repo.PackageExists(ctx, *input.PackageID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup package")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "package not found").
				WithDetails(map[string]any{"package_id": input.PackageID.String()})
		}
	}
	return nil
}

func apply(customer *models.Customer, input Input) {
	customer.Name = input.Name
	customer.Address = input.Address
	customer.Phone = input.Phone
	customer.PackageID = input.PackageID
	customer.Status = input.Status
	customer.JoinedAt = input.JoinedAt
}

func mapWriteError(err error, action string) error {
	if db.IsUniqueViolation(err, "phone") {
		return pkgerrors.New(pkgerrors.CodeConflict, "phone number already registered")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

// truncateToDay keeps the calendar date of t as midnight UTC.
func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
