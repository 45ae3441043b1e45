package expenses

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/netbill/isp-billing/pkg/db"
	"github.com/netbill/isp-billing/pkg/db/models"
	"github.com/netbill/isp-billing/pkg/enums"
	pkgerrors "github.com/netbill/isp-billing/pkg/errors"
	"github.com/netbill/isp-billing/pkg/types"
)

type expenseRepository interface {
	Create(ctx context.Context, expense *models.Expense) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Expense, error)
	List(ctx context.Context, period *types.Period) ([]models.Expense, error)
	Update(ctx context.Context, expense *models.Expense) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

// Input captures the mutable expense fields. A zero SpentAt means today.
type Input struct {
	Description string
	Amount      int64
	Category    enums.ExpenseCategory
	SpentAt     time.Time
}

// Service exposes expense operations.
type Service interface {
	Create(ctx context.Context, input Input) (*models.Expense, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Expense, error)
	List(ctx context.Context, period *types.Period) ([]models.Expense, error)
	Update(ctx context.Context, id uuid.UUID, input Input) (*models.Expense, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo expenseRepository
	now  func() time.Time
}

// NewService builds an expense service.
func NewService(repo expenseRepository, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, errors.New("expense repository required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now}, nil
}

func (s *service) Create(ctx context.Context, input Input) (*models.Expense, error) {
	if err := s.prepare(&input); err != nil {
		return nil, err
	}
	expense := &models.Expense{ID: uuid.New()}
	apply(expense, input)
	if err := s.repo.Create(ctx, expense); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create expense")
	}
	return expense, nil
}

// Get loads one expense.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Expense, error) {
	expense, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "expense not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load expense")
	}
	return expense, nil
}

// List returns expenses, limited to the period when one is given.
func (s *service) List(ctx context.Context, period *types.Period) ([]models.Expense, error) {
	if period != nil {
		if err := period.Validate(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid period")
		}
	}
	rows, err := s.repo.List(ctx, period)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expenses")
	}
	return rows, nil
}

// Update replaces the expense fields. A zero SpentAt or empty category keeps the stored value.
func (s *service) Update(ctx context.Context, id uuid.UUID, input Input) (*models.Expense, error) {
	expense, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.SpentAt.IsZero() {
		input.SpentAt = expense.SpentAt
	}
	if input.Category == "" {
		input.Category = expense.Category
	}
	if err := s.prepare(&input); err != nil {
		return nil, err
	}
	apply(expense, input)
	if err := s.repo.Update(ctx, expense); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update expense")
	}
	return expense, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete expense")
	}
	if n == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "expense not found")
	}
	return nil
}

func (s *service) prepare(input *Input) error {
	input.Description = strings.TrimSpace(input.Description)
	if input.Description == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	if input.Amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if input.Category == "" {
		input.Category = enums.ExpenseCategoryOperational
	}
	if !input.Category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid category").
			WithDetails(map[string]any{"category": input.Category})
	}
	if input.SpentAt.IsZero() {
		input.SpentAt = s.now()
	}
	y, m, d := input.SpentAt.Date()
	input.SpentAt = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return nil
}

func apply(expense *models.Expense, input Input) {
	expense.Description = input.Description
	expense.Amount = input.Amount
	expense.Category = input.Category
	expense.SpentAt = input.SpentAt
}
