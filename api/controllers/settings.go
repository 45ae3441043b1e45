package controllers

import (
	"net/http"

	"github.com/netbill/isp-billing/api/responses"
	"github.com/netbill/isp-billing/api/validators"
	"github.com/netbill/isp-billing/internal/settings"
	"github.com/netbill/isp-billing/pkg/logger"
	"github.com/shopspring/decimal"
)

// settingsRequest carries every recognized setting. The two percentages are
// independent and are not required to sum to 100.
type settingsRequest struct {
	TargetRevenue        int64   `json:"target_revenue" validate:"gte=0"`
	BudgetAllocation     int64   `json:"budget_allocation" validate:"gte=0"`
	CapitalReturn        int64   `json:"capital_return" validate:"gte=0"`
	SharePercentOperator float64 `json:"share_percent_operator" validate:"gte=0,lte=100"`
	SharePercentInvestor float64 `json:"share_percent_investor" validate:"gte=0,lte=100"`
}

func (req settingsRequest) values() settings.Values {
	return settings.Values{
		TargetRevenue:        req.TargetRevenue,
		BudgetAllocation:     req.BudgetAllocation,
		CapitalReturn:        req.CapitalReturn,
		SharePercentOperator: decimal.NewFromFloat(req.SharePercentOperator),
		SharePercentInvestor: decimal.NewFromFloat(req.SharePercentInvestor),
	}
}

type settingsResponse struct {
	Values settings.Values   `json:"values"`
	Raw    map[string]string `json:"raw"`
}

func SettingsGet(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := svc.Raw(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		values, err := svc.Load(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settingsResponse{Values: values, Raw: raw})
	}
}

func SettingsUpdate(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body settingsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		values := body.values()
		if err := svc.Save(r.Context(), values); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settingsResponse{Values: values, Raw: values.Map()})
	}
}
