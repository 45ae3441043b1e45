package expenses

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/netbill/isp-billing/internal/repo"
	"github.com/netbill/isp-billing/pkg/db/models"
	"github.com/netbill/isp-billing/pkg/types"
	"gorm.io/gorm"
)

// Repository handles expense persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to expense operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create persists a new expense row.
func (r *Repository) Create(ctx context.Context, expense *models.Expense) error {
	if expense == nil {
		return fmt.Errorf("expense is required")
	}
	return r.DB(ctx).Create(expense).Error
}

// FindByID loads an expense by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Expense, error) {
	var expense models.Expense
	if err := r.DB(ctx).Where("id = ?", id).First(&expense).Error; err != nil {
		return nil, err
	}
	return &expense, nil
}

// List returns expenses newest first, optionally restricted to one period.
func (r *Repository) List(ctx context.Context, period *types.Period) ([]models.Expense, error) {
	query := r.DB(ctx).Model(&models.Expense{})
	if period != nil {
		query = query.Scopes(repo.DatedWithin("spent_at", *period))
	}
	var rows []models.Expense
	if err := query.Order("spent_at DESC").Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update saves the provided expense.
func (r *Repository) Update(ctx context.Context, expense *models.Expense) error {
	if expense == nil {
		return fmt.Errorf("expense is required")
	}
	return r.DB(ctx).Save(expense).Error
}

// Delete removes an expense and reports how many rows were affected.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.Expense{})
	return res.RowsAffected, res.Error
}
