package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/netbill/isp-billing/pkg/enums"
)

// Customer is a subscriber that may be billed monthly.
type Customer struct {
	ID        uuid.UUID            `gorm:"type:uuid;primaryKey"`
	Name      string               `gorm:"column:name;not null"`
	Address   string               `gorm:"column:address;not null"`
	Phone     string               `gorm:"column:phone;not null;uniqueIndex"`
	PackageID *uuid.UUID           `gorm:"type:uuid;column:package_id"`
	Status    enums.CustomerStatus `gorm:"column:status;not null;default:active"`
	JoinedAt  time.Time            `gorm:"column:joined_at;not null"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
