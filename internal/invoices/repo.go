package invoices

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/netbill/isp-billing/internal/repo"
	"github.com/netbill/isp-billing/pkg/db/models"
	"github.com/netbill/isp-billing/pkg/enums"
	"github.com/netbill/isp-billing/pkg/types"
	"gorm.io/gorm"
)

const rowColumns = "invoices.id, invoices.customer_id, customers.name AS customer_name, invoices.month, invoices.year, " +
	"invoices.amount, invoices.status, invoices.paid_at, invoices.receipt_path, invoices.created_at"

// Repository handles invoice persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to invoice operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// EligibleCustomers returns active customers whose join date is on or before
// the first day of the period, with their package price when assigned.
func (r *Repository) EligibleCustomers(ctx context.Context, p types.Period) ([]eligibleCustomer, error) {
	var rows []eligibleCustomer
	err := r.DB(ctx).
		Table("customers").
		Select("customers.id AS customer_id, customers.name AS customer_name, customers.package_id, service_packages.price AS package_price").
		Joins("LEFT JOIN service_packages ON service_packages.id = customers.package_id").
		Where("customers.status = ?", enums.CustomerStatusActive).
		Where("customers.joined_at < ?", p.Start().AddDate(0, 0, 1).Format(types.DateLayout)).
		Order("customers.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ExistsForPeriod reports whether the customer already has an invoice for p.
func (r *Repository) ExistsForPeriod(ctx context.Context, customerID uuid.UUID, p types.Period) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Invoice{}).
		Where("customer_id = ?", customerID).
		Scopes(repo.InPeriod("", p)).
		Count(&count).Error
	return count > 0, err
}

// Create inserts a new invoice.
func (r *Repository) Create(ctx context.Context, invoice *models.Invoice) error {
	if invoice == nil {
		return fmt.Errorf("invoice is required")
	}
	return r.DB(ctx).Create(invoice).Error
}

// FindByID loads one invoice joined with its customer's name.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*InvoiceRow, error) {
	var rows []InvoiceRow
	err := r.rows(ctx).Where("invoices.id = ?", id).Limit(1).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

// List returns invoices newest period first, resuming after q.After when set.
func (r *Repository) List(ctx context.Context, q ListQuery) ([]InvoiceRow, error) {
	query := r.rows(ctx)
	if q.Period != nil {
		query = query.Scopes(repo.InPeriod("invoices", *q.Period))
	}
	if q.Status != nil {
		query = query.Where("invoices.status = ?", *q.Status)
	}
	if c := q.After; c != nil {
		query = query.Where(
			"invoices.year < ? OR (invoices.year = ? AND invoices.month < ?)"+
				" OR (invoices.year = ? AND invoices.month = ? AND invoices.created_at < ?)"+
				" OR (invoices.year = ? AND invoices.month = ? AND invoices.created_at = ? AND invoices.id < ?)",
			c.Year,
			c.Year, c.Month,
			c.Year, c.Month, c.CreatedAt,
			c.Year, c.Month, c.CreatedAt, c.ID,
		)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	var rows []InvoiceRow
	err := query.
		Order("invoices.year DESC").
		Order("invoices.month DESC").
		Order("invoices.created_at DESC").
		Order("invoices.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkPaid flips the invoice to paid and records the receipt path when given.
func (r *Repository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time, receiptPath *string) (int64, error) {
	updates := map[string]any{
		"status":     enums.InvoiceStatusPaid,
		"paid_at":    paidAt,
		"updated_at": time.Now().UTC(),
	}
	if receiptPath != nil {
		updates["receipt_path"] = *receiptPath
	}
	res := r.DB(ctx).Model(&models.Invoice{}).Where("id = ?", id).Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *Repository) rows(ctx context.Context) *gorm.DB {
	return r.DB(ctx).
		Table("invoices").
		Select(rowColumns).
		Joins("JOIN customers ON customers.id = invoices.customer_id")
}
