package models

import (
	"time"

	"github.com/google/uuid"
)

// ServicePackage is a bandwidth tier with a monthly price.
type ServicePackage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	SpeedMbps int       `gorm:"column:speed_mbps;not null"`
	Price     int64     `gorm:"column:price;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
