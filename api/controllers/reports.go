package controllers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/netbill/isp-billing/api/responses"
	"github.com/netbill/isp-billing/api/validators"
	"github.com/netbill/isp-billing/internal/reports"
	pkgerrors "github.com/netbill/isp-billing/pkg/errors"
	"github.com/netbill/isp-billing/pkg/logger"
	"github.com/netbill/isp-billing/pkg/types"
)

// ReportGet returns the financial report for ?month=&year=, defaulting to the current period.
func ReportGet(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, ok := loadReport(w, r, svc, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// ReportExport streams the same report as an XLSX download.
func ReportExport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, ok := loadReport(w, r, svc, logg)
		if !ok {
			return
		}
		var buf bytes.Buffer
		if err := reports.WriteXLSX(&buf, report); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render report"))
			return
		}
		responses.WriteAttachment(w, reports.XLSXMIMEType, reports.FileName(report.Period), buf.Bytes())
	}
}

func Dashboard(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dash, err := svc.Dashboard(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dash)
	}
}

// FinancialSummary returns monthly revenue and expense totals, oldest first.
func FinancialSummary(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		months, err := validators.ParseQueryInt(r, "months", 0, 0, 24)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		points, err := svc.Summary(r.Context(), months)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, points)
	}
}

func loadReport(w http.ResponseWriter, r *http.Request, svc reports.Service, logg *logger.Logger) (*reports.Report, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
		return nil, false
	}
	period, err := validators.ParsePeriod(r, types.PeriodOf(time.Now()))
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	report, err := svc.Report(r.Context(), period)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	return report, true
}
