package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/netbill/isp-billing/api/responses"
	"github.com/netbill/isp-billing/api/validators"
	"github.com/netbill/isp-billing/internal/invoices"
	"github.com/netbill/isp-billing/pkg/enums"
	pkgerrors "github.com/netbill/isp-billing/pkg/errors"
	"github.com/netbill/isp-billing/pkg/logger"
	"github.com/netbill/isp-billing/pkg/types"
)

const (
	receiptField     = "receipt"
	nextCursorHeader = "X-Next-Cursor"
)

// InvoiceGenerate bills every eligible customer for ?month=&year=, defaulting to the current period.
func InvoiceGenerate(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}
		period, err := validators.ParsePeriod(r, types.PeriodOf(time.Now()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Generate(r.Context(), period)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// InvoiceList filters by an optional period and ?status=. With ?limit= or
// ?cursor= it returns one page and sets X-Next-Cursor when more rows follow.
func InvoiceList(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		period, err := validators.ParseOptionalPeriod(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query := invoices.ListQuery{Period: period}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseInvoiceStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			query.Status = &status
		}

		page, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if page.Enabled() {
			result, err := svc.Page(r.Context(), query, page)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if result.NextCursor != "" {
				w.Header().Set(nextCursorHeader, result.NextCursor)
			}
			responses.WriteSuccess(w, result.Items)
			return
		}

		rows, err := svc.List(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if rows == nil {
			rows = []invoices.InvoiceRow{}
		}
		responses.WriteSuccess(w, rows)
	}
}

func InvoiceGet(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// InvoicePay accepts a multipart form with an optional paid_at field and an
// optional receipt file.
func InvoicePay(svc invoices.Service, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := validators.ParseMultipartForm(w, r, maxUploadBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		paidAt, err := parseDate(r.FormValue("paid_at"), "paid_at")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		file, err := validators.OptionalFile(r, receiptField)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer file.Close()

		var receipt *invoices.Receipt
		if file != nil {
			receipt = &invoices.Receipt{Filename: file.Filename, Content: file.Reader()}
		}

		row, err := svc.MarkPaid(r.Context(), id, paidAt, receipt)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}
