package customers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/netbill/isp-billing/internal/repo"
	"github.com/netbill/isp-billing/pkg/db/models"
	"github.com/netbill/isp-billing/pkg/enums"
	"gorm.io/gorm"
)

// ListQuery filters the customer listing.
type ListQuery struct {
	Search string
	Status *enums.CustomerStatus
}

// Repository handles customer persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to customer operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create persists a new customer row.
func (r *Repository) Create(ctx context.Context, customer *models.Customer) error {
	if customer == nil {
		return fmt.Errorf("customer is required")
	}
	return r.DB(ctx).Create(customer).Error
}

// FindByID loads a customer by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.DB(ctx).Where("id = ?", id).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// List returns customers ordered by name, optionally filtered by a
// case-insensitive search over name and address.
func (r *Repository) List(ctx context.Context, q ListQuery) ([]CustomerRow, error) {
	query := r.DB(ctx).
		Table("customers AS c").
		Select("c.id, c.name, c.address, c.phone, c.package_id, c.status, c.joined_at, p.name AS package_name, p.price AS package_price").
		Joins("LEFT JOIN service_packages AS p ON p.id = c.package_id")

	if term := strings.TrimSpace(q.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where("LOWER(c.name) LIKE ? OR LOWER(c.address) LIKE ?", like, like)
	}
	if q.Status != nil {
		query = query.Where("c.status = ?", *q.Status)
	}

	var rows []CustomerRow
	if err := query.Order("c.name ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update saves the provided customer.
func (r *Repository) Update(ctx context.Context, customer *models.Customer) error {
	if customer == nil {
		return fmt.Errorf("customer is required")
	}
	return r.DB(ctx).Save(customer).Error
}

// PackageExists reports whether a service package with id exists.
func (r *Repository) PackageExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.DB(ctx).Model(&models.ServicePackage{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByStatus counts customers in the given status.
func (r *Repository) CountByStatus(ctx context.Context, status enums.CustomerStatus) (int64, error) {
	var count int64
	if err := r.DB(ctx).Model(&models.Customer{}).Where("status = ?", status).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteInvoicesWithTx removes every invoice owned by the customer.
func (r *Repository) DeleteInvoicesWithTx(tx *gorm.DB, customerID uuid.UUID) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	res := tx.Where("customer_id = ?", customerID).Delete(&models.Invoice{})
	return res.RowsAffected, res.Error
}

// DeleteWithTx removes the customer row.
func (r *Repository) DeleteWithTx(tx *gorm.DB, id uuid.UUID) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	res := tx.Where("id = ?", id).Delete(&models.Customer{})
	return res.RowsAffected, res.Error
}
