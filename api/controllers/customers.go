package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/netbill/isp-billing/api/responses"
	"github.com/netbill/isp-billing/api/validators"
	"github.com/netbill/isp-billing/internal/customers"
	"github.com/netbill/isp-billing/pkg/db/models"
	"github.com/netbill/isp-billing/pkg/enums"
	pkgerrors "github.com/netbill/isp-billing/pkg/errors"
	"github.com/netbill/isp-billing/pkg/logger"
)

type customerRequest struct {
	Name      string  `json:"name" validate:"required,max=255"`
	Address   string  `json:"address" validate:"required"`
	Phone     string  `json:"phone" validate:"required,max=32"`
	PackageID *string `json:"package_id"`
	Status    string  `json:"status" validate:"omitempty,oneof=active inactive suspended"`
	JoinedAt  string  `json:"joined_at" validate:"omitempty,datetime=2006-01-02"`
}

func (req customerRequest) input() (customers.Input, error) {
	packageID, err := optionalUUID(req.PackageID, "package_id")
	if err != nil {
		return customers.Input{}, err
	}
	joinedAt, err := parseDate(req.JoinedAt, "joined_at")
	if err != nil {
		return customers.Input{}, err
	}
	return customers.Input{
		Name:      validators.SanitizeString(req.Name, 255),
		Address:   validators.SanitizeString(req.Address, 1024),
		Phone:     validators.SanitizeString(req.Phone, 32),
		PackageID: packageID,
		Status:    enums.CustomerStatus(req.Status),
		JoinedAt:  joinedAt,
	}, nil
}

type customerResponse struct {
	ID        uuid.UUID            `json:"id"`
	Name      string               `json:"name"`
	Address   string               `json:"address"`
	Phone     string               `json:"phone"`
	PackageID *uuid.UUID           `json:"package_id,omitempty"`
	Status    enums.CustomerStatus `json:"status"`
	JoinedAt  string               `json:"joined_at"`
	CreatedAt time.Time            `json:"created_at"`
}

func customerFromModel(c *models.Customer) customerResponse {
	return customerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Address:   c.Address,
		Phone:     c.Phone,
		PackageID: c.PackageID,
		Status:    c.Status,
		JoinedAt:  formatDate(c.JoinedAt),
		CreatedAt: c.CreatedAt,
	}
}

// CustomerList supports ?search= over name and address and an optional ?status= filter.
func CustomerList(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		query := customers.ListQuery{Search: validators.SanitizeString(r.URL.Query().Get("search"), 255)}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseCustomerStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			query.Status = &status
		}

		rows, err := svc.List(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if rows == nil {
			rows = []customers.CustomerRow{}
		}
		responses.WriteSuccess(w, rows)
	}
}

func CustomerGet(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customer, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customerFromModel(customer))
	}
}

func CustomerCreate(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body customerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.input()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customer, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, customerFromModel(customer))
	}
}

func CustomerUpdate(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body customerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.input()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customer, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customerFromModel(customer))
	}
}

// CustomerDelete removes the customer together with its invoices.
func CustomerDelete(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
