package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	pkgerrors "github.com/netbill/isp-billing/pkg/errors"
	"github.com/netbill/isp-billing/pkg/pagination"
	"github.com/netbill/isp-billing/pkg/types"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParsePeriod reads month and year query parameters, defaulting to fallback.
func ParsePeriod(r *http.Request, fallback types.Period) (types.Period, error) {
	month, err := ParseQueryInt(r, "month", fallback.Month, 1, 12)
	if err != nil {
		return types.Period{}, err
	}
	year, err := ParseQueryInt(r, "year", fallback.Year, 1, 9999)
	if err != nil {
		return types.Period{}, err
	}
	return types.Period{Month: month, Year: year}, nil
}

// ParseOptionalPeriod returns nil unless both month and year are supplied.
func ParseOptionalPeriod(r *http.Request) (*types.Period, error) {
	q := r.URL.Query()
	if strings.TrimSpace(q.Get("month")) == "" && strings.TrimSpace(q.Get("year")) == "" {
		return nil, nil
	}
	if strings.TrimSpace(q.Get("month")) == "" || strings.TrimSpace(q.Get("year")) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "month and year must be supplied together")
	}
	p, err := ParsePeriod(r, types.Period{})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ParsePageParams reads ?limit= and ?cursor=. Both absent means no paging.
func ParsePageParams(r *http.Request) (pagination.Params, error) {
	limit, err := ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Limit: limit, Cursor: strings.TrimSpace(r.URL.Query().Get("cursor"))}, nil
}

// ParseUUIDParam parses a path segment as a UUID.
func ParseUUIDParam(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid identifier").WithDetails(map[string]any{"field": field})
	}
	return id, nil
}
