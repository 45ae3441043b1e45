package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/netbill/isp-billing/pkg/enums"
)

// Invoice bills one customer for one period. Amount is the package price at
// generation time and is never recomputed.
type Invoice struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey"`
	CustomerID  uuid.UUID           `gorm:"type:uuid;column:customer_id;not null;uniqueIndex:idx_invoices_customer_period"`
	Month       int                 `gorm:"column:month;not null;uniqueIndex:idx_invoices_customer_period"`
	Year        int                 `gorm:"column:year;not null;uniqueIndex:idx_invoices_customer_period"`
	Amount      int64               `gorm:"column:amount;not null"`
	Status      enums.InvoiceStatus `gorm:"column:status;not null;default:unpaid"`
	PaidAt      *time.Time          `gorm:"column:paid_at"`
	ReceiptPath *string             `gorm:"column:receipt_path"`
	CreatedAt   time.Time           `gorm:"column:created_at;not null"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
