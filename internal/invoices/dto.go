package invoices

import (
	"time"

	"github.com/google/uuid"
	"github.com/netbill/isp-billing/pkg/enums"
	"github.com/netbill/isp-billing/pkg/pagination"
	"github.com/netbill/isp-billing/pkg/types"
)

// InvoiceRow is an invoice joined with the billed customer's name.
type InvoiceRow struct {
	ID           uuid.UUID           `json:"id"`
	CustomerID   uuid.UUID           `json:"customer_id"`
	CustomerName string              `json:"customer_name"`
	Month        int                 `json:"month"`
	Year         int                 `json:"year"`
	Amount       int64               `json:"amount"`
	Status       enums.InvoiceStatus `json:"status"`
	PaidAt       *time.Time          `json:"paid_at,omitempty"`
	ReceiptPath  *string             `json:"receipt_path,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

// eligibleCustomer is one row of the generation candidate query. A nil
// PackagePrice means the customer has no package assigned.
type eligibleCustomer struct {
	CustomerID   uuid.UUID
	CustomerName string
	PackageID    *uuid.UUID
	PackagePrice *int64
}

// ListQuery filters invoice listings. Limit and After are set by Page; a
// zero Limit returns every matching row.
type ListQuery struct {
	Period *types.Period
	Status *enums.InvoiceStatus
	Limit  int
	After  *pagination.PeriodCursor
}

// Page is one slice of the invoice listing. NextCursor is empty on the last page.
type Page struct {
	Items      []InvoiceRow `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

func (r InvoiceRow) cursor() pagination.PeriodCursor {
	return pagination.PeriodCursor{Year: r.Year, Month: r.Month, CreatedAt: r.CreatedAt, ID: r.ID}
}

// GenerateResult reports the outcome of one generation run.
type GenerateResult struct {
	Period                types.Period `json:"period"`
	Created               int          `json:"created"`
	SkippedDuplicate      int          `json:"skipped_duplicate"`
	SkippedMissingPackage int          `json:"skipped_missing_package"`
}
