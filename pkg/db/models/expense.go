package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/netbill/isp-billing/pkg/enums"
)

// Expense is an operating cost attributed to the month of SpentAt.
type Expense struct {
	ID          uuid.UUID             `gorm:"type:uuid;primaryKey"`
	Description string                `gorm:"column:description;not null"`
	Amount      int64                 `gorm:"column:amount;not null"`
	Category    enums.ExpenseCategory `gorm:"column:category;not null;default:operational"`
	SpentAt     time.Time             `gorm:"column:spent_at;not null"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
