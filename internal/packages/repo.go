package packages

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/netbill/isp-billing/internal/repo"
	"github.com/netbill/isp-billing/pkg/db/models"
	"gorm.io/gorm"
)

// Repository handles service package persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to package operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create persists a new package row.
func (r *Repository) Create(ctx context.Context, pkg *models.ServicePackage) error {
	if pkg == nil {
		return fmt.Errorf("package is required")
	}
	return r.DB(ctx).Create(pkg).Error
}

// FindByID loads a package by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ServicePackage, error) {
	var pkg models.ServicePackage
	if err := r.DB(ctx).Where("id = ?", id).First(&pkg).Error; err != nil {
		return nil, err
	}
	return &pkg, nil
}

// List returns all packages ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.ServicePackage, error) {
	var rows []models.ServicePackage
	if err := r.DB(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update saves the provided package.
func (r *Repository) Update(ctx context.Context, pkg *models.ServicePackage) error {
	if pkg == nil {
		return fmt.Errorf("package is required")
	}
	return r.DB(ctx).Save(pkg).Error
}

// DetachCustomersWithTx clears package_id on every customer subscribed to id.
func (r *Repository) DetachCustomersWithTx(tx *gorm.DB, id uuid.UUID) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	res := tx.Model(&models.Customer{}).Where("package_id = ?", id).Update("package_id", nil)
	return res.RowsAffected, res.Error
}

// DeleteWithTx removes the package row inside tx.
func (r *Repository) DeleteWithTx(tx *gorm.DB, id uuid.UUID) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	res := tx.Where("id = ?", id).Delete(&models.ServicePackage{})
	return res.RowsAffected, res.Error
}
