package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/netbill/isp-billing/api/responses"
	"github.com/netbill/isp-billing/api/validators"
	"github.com/netbill/isp-billing/internal/expenses"
	"github.com/netbill/isp-billing/pkg/db/models"
	"github.com/netbill/isp-billing/pkg/enums"
	"github.com/netbill/isp-billing/pkg/logger"
)

type expenseRequest struct {
	Description string `json:"description" validate:"required,max=500"`
	Amount      int64  `json:"amount" validate:"gt=0"`
	Category    string `json:"category" validate:"omitempty,oneof=operational equipment payroll other"`
	SpentAt     string `json:"spent_at" validate:"omitempty,datetime=2006-01-02"`
}

func (req expenseRequest) input() (expenses.Input, error) {
	spentAt, err := parseDate(req.SpentAt, "spent_at")
	if err != nil {
		return expenses.Input{}, err
	}
	return expenses.Input{
		Description: validators.SanitizeString(req.Description, 500),
		Amount:      req.Amount,
		Category:    enums.ExpenseCategory(req.Category),
		SpentAt:     spentAt,
	}, nil
}

type expenseResponse struct {
	ID          uuid.UUID             `json:"id"`
	Description string                `json:"description"`
	Amount      int64                 `json:"amount"`
	Category    enums.ExpenseCategory `json:"category"`
	SpentAt     string                `json:"spent_at"`
}

func expenseFromModel(e *models.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount,
		Category:    e.Category,
		SpentAt:     formatDate(e.SpentAt),
	}
}

// ExpenseList accepts an optional ?month=&year= pair.
func ExpenseList(svc expenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		period, err := validators.ParseOptionalPeriod(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), period)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]expenseResponse, 0, len(list))
		for i := range list {
			out = append(out, expenseFromModel(&list[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func ExpenseGet(svc expenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		expense, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, expenseFromModel(expense))
	}
}

func ExpenseCreate(svc expenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body expenseRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.input()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		expense, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, expenseFromModel(expense))
	}
}

func ExpenseUpdate(svc expenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body expenseRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.input()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		expense, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, expenseFromModel(expense))
	}
}

func ExpenseDelete(svc expenses.Service, logg *logger.Logger) http.HandlerFunc {
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
