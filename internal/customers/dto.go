package customers

import (
	"time"

	"github.com/google/uuid"
	"github.com/netbill/isp-billing/pkg/enums"
)

// CustomerRow is a customer joined with its package for listings.
type CustomerRow struct {
	ID           uuid.UUID            `json:"id"`
	Name         string               `json:"name"`
	Address      string               `json:"address"`
	Phone        string               `json:"phone"`
	PackageID    *uuid.UUID           `json:"package_id,omitempty"`
	Status       enums.CustomerStatus `json:"status"`
	JoinedAt     time.Time            `json:"joined_at"`
	PackageName  *string              `json:"package_name,omitempty"`
	PackagePrice *int64               `json:"package_price,omitempty"`
}

// Input captures the mutable customer fields. A zero JoinedAt means today.
type Input struct {
	Name      string
	Address   string
	Phone     string
	PackageID *uuid.UUID
	Status    enums.CustomerStatus
	JoinedAt  time.Time
}
