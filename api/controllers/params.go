package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/netbill/isp-billing/api/validators"
	pkgerrors "github.com/netbill/isp-billing/pkg/errors"
)

const dateLayout = "2006-01-02"

func idParam(r *http.Request) (uuid.UUID, error) {
	return validators.ParseUUIDParam(chi.URLParam(r, "id"), "id")
}

// parseDate accepts a calendar date or an RFC3339 timestamp. Blank input yields the zero time.
func parseDate(raw, field string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid date").
			WithDetails(map[string]any{"field": field, "layout": dateLayout})
	}
	return t, nil
}

func optionalUUID(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil {
		return nil, nil
	}
	if strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := validators.ParseUUIDParam(*raw, field)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}
