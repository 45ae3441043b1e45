package repo

import (
	"context"

	"github.com/netbill/isp-billing/pkg/types"
	"gorm.io/gorm"
)

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Conn prefers the caller's transaction and falls back to the base connection.
func (b Base) Conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		if ctx == nil {
			return tx
		}
		return tx.WithContext(ctx)
	}
	return b.DB(ctx)
}

// InPeriod filters rows carrying month/year columns on the given table alias.
func InPeriod(table string, p types.Period) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(qualify(table, "month")+" = ? AND "+qualify(table, "year")+" = ?", p.Month, p.Year)
	}
}

// DatedWithin filters rows whose date column falls inside the period as a
// half-open range. Bounds are calendar dates so Postgres compares DATE to DATE
// regardless of the session time zone.
func DatedWithin(column string, p types.Period) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(column+" >= ? AND "+column+" < ?", p.StartDate(), p.EndDate())
	}
}

func qualify(table, column string) string {
	if table == "" {
		return column
	}
	return table + "." + column
}
