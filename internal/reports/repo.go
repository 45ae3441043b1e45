package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/netbill/isp-billing/internal/repo"
	"github.com/netbill/isp-billing/pkg/db/models"
	"github.com/netbill/isp-billing/pkg/enums"
	"github.com/netbill/isp-billing/pkg/types"
	"gorm.io/gorm"
)

// RecentInvoice is a dashboard row.
type RecentInvoice struct {
	ID           uuid.UUID           `json:"id"`
	CustomerName string              `json:"customer_name"`
	Month        int                 `json:"month"`
	Year         int                 `json:"year"`
	Amount       int64               `json:"amount"`
	Status       enums.InvoiceStatus `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
}

// Repository runs the read-only aggregate queries behind reports.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to report queries.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// PaidRevenue lists the paid invoices billed for the period.
func (r *Repository) PaidRevenue(ctx context.Context, p types.Period) ([]RevenueLine, error) {
	var rows []RevenueLine
	err := r.DB(ctx).
		Table("invoices").
		Select("invoices.id AS invoice_id, customers.name AS customer_name, invoices.amount, invoices.paid_at").
		Joins("JOIN customers ON customers.id = invoices.customer_id").
		Scopes(repo.InPeriod("invoices", p)).
		Where("invoices.status = ?", enums.InvoiceStatusPaid).
		Order("invoices.paid_at ASC").
		Order("customers.name ASC").
		Scan(&rows).Error
	return rows, err
}

// ExpensesIn lists the expenses dated within the period.
func (r *Repository) ExpensesIn(ctx context.Context, p types.Period) ([]ExpenseLine, error) {
	var rows []ExpenseLine
	err := r.DB(ctx).
		Model(&models.Expense{}).
		Select("id, description, category, amount, spent_at").
		Scopes(repo.DatedWithin("spent_at", p)).
		Order("spent_at ASC").
		Order("created_at ASC").
		Scan(&rows).Error
	return rows, err
}

// SumInvoices totals invoice amounts for the period with the given status.
func (r *Repository) SumInvoices(ctx context.Context, p types.Period, status enums.InvoiceStatus) (int64, error) {
	var total int64
	err := r.DB(ctx).
		Model(&models.Invoice{}).
		Select("COALESCE(SUM(amount), 0)").
		Scopes(repo.InPeriod("", p)).
		Where("status = ?", status).
		Scan(&total).Error
	return total, err
}

// SumExpenses totals expenses dated within the period.
func (r *Repository) SumExpenses(ctx context.Context, p types.Period) (int64, error) {
	var total int64
	err := r.DB(ctx).
		Model(&models.Expense{}).
		Select("COALESCE(SUM(amount), 0)").
		Scopes(repo.DatedWithin("spent_at", p)).
		Scan(&total).Error
	return total, err
}

// CountCustomers counts customers with the given status.
func (r *Repository) CountCustomers(ctx context.Context, status enums.CustomerStatus) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Customer{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// RecentInvoices returns the most recently created invoices.
func (r *Repository) RecentInvoices(ctx context.Context, limit int) ([]RecentInvoice, error) {
	var rows []RecentInvoice
	err := r.DB(ctx).
		Table("invoices").
		Select("invoices.id, customers.name AS customer_name, invoices.month, invoices.year, invoices.amount, invoices.status, invoices.created_at").
		Joins("JOIN customers ON customers.id = invoices.customer_id").
		Order("invoices.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
