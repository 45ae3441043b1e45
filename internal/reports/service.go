package reports

import (
	"context"
	"errors"
	"time"

	"github.com/netbill/isp-billing/internal/settings"
	"github.com/netbill/isp-billing/pkg/enums"
	pkgerrors "github.com/netbill/isp-billing/pkg/errors"
	"github.com/netbill/isp-billing/pkg/types"
)

const (
	defaultSummaryMonths = 6
	recentInvoiceLimit   = 5
)

type reportRepository interface {
	PaidRevenue(ctx context.Context, p types.Period) ([]RevenueLine, error)
	ExpensesIn(ctx context.Context, p types.Period) ([]ExpenseLine, error)
	SumInvoices(ctx context.Context, p types.Period, status enums.InvoiceStatus) (int64, error)
	SumExpenses(ctx context.Context, p types.Period) (int64, error)
	CountCustomers(ctx context.Context, status enums.CustomerStatus) (int64, error)
	RecentInvoices(ctx context.Context, limit int) ([]RecentInvoice, error)
}

type settingsLoader interface {
	Load(ctx context.Context) (settings.Values, error)
}

// Dashboard summarizes the current billing period.
type Dashboard struct {
	Period          types.Period    `json:"period"`
	Label           string          `json:"label"`
	RevenuePaid     int64           `json:"revenue_current_month"`
	RevenueUnpaid   int64           `json:"unpaid_current_month"`
	Expenses        int64           `json:"expense_current_month"`
	ActiveCustomers int64           `json:"active_customers"`
	RecentInvoices  []RecentInvoice `json:"recent_invoices"`
}

// SummaryPoint is one month of the revenue/expense trend.
type SummaryPoint struct {
	Period  types.Period `json:"period"`
	Label   string       `json:"label"`
	Revenue int64        `json:"revenue"`
	Expense int64        `json:"expense"`
}

// Service loads report inputs and aggregates.
type Service interface {
	Report(ctx context.Context, p types.Period) (*Report, error)
	Dashboard(ctx context.Context) (*Dashboard, error)
	Summary(ctx context.Context, months int) ([]SummaryPoint, error)
}

// ServiceParams groups dependencies for the report service.
type ServiceParams struct {
	Repo          reportRepository
	Settings      settingsLoader
	SummaryMonths int
	Now           func() time.Time
}

type service struct {
	repo          reportRepository
	settings      settingsLoader
	summaryMonths int
	now           func() time.Time
}

// NewService builds a report service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, errors.New("report repository required")
	}
	if params.Settings == nil {
		return nil, errors.New("settings loader required")
	}
	months := params.SummaryMonths
	if months <= 0 {
		months = defaultSummaryMonths
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: params.Repo, settings: params.Settings, summaryMonths: months, now: now}, nil
}

func (s *service) Report(ctx context.Context, p types.Period) (*Report, error) {
	if err := p.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid period")
	}
	values, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.repo.PaidRevenue(ctx, p)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load revenue")
	}
	expenses, err := s.repo.ExpensesIn(ctx, p)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load expenses")
	}
	report := Compute(p, values, revenue, expenses)
	return &report, nil
}

func (s *service) Dashboard(ctx context.Context) (*Dashboard, error) {
	p := types.PeriodOf(s.now())
	d := &Dashboard{Period: p, Label: p.Label()}

	var err error
	if d.RevenuePaid, err = s.repo.SumInvoices(ctx, p, enums.InvoiceStatusPaid); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum paid invoices")
	}
	if d.RevenueUnpaid, err = s.repo.SumInvoices(ctx, p, enums.InvoiceStatusUnpaid); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum unpaid invoices")
	}
	if d.Expenses, err = s.repo.SumExpenses(ctx, p); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum expenses")
	}
	if d.ActiveCustomers, err = s.repo.CountCustomers(ctx, enums.CustomerStatusActive); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active customers")
	}
	if d.RecentInvoices, err = s.repo.RecentInvoices(ctx, recentInvoiceLimit); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recent invoices")
	}
	if d.RecentInvoices == nil {
		d.RecentInvoices = []RecentInvoice{}
	}
	return d, nil
}

// Summary returns paid revenue and expenses for the trailing months, oldest
// first, ending with the current period. months <= 0 uses the configured window.
func (s *service) Summary(ctx context.Context, months int) ([]SummaryPoint, error) {
	if months <= 0 {
		months = s.summaryMonths
	}
	if months > 24 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "summary window is limited to 24 months")
	}
	current := types.PeriodOf(s.now())
	points := make([]SummaryPoint, 0, months)
	for i := months - 1; i >= 0; i-- {
		p := current.AddMonths(-i)
		revenue, err := s.repo.SumInvoices(ctx, p, enums.InvoiceStatusPaid)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum revenue")
		}
		expense, err := s.repo.SumExpenses(ctx, p)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum expenses")
		}
		points = append(points, SummaryPoint{Period: p, Label: p.ShortLabel(), Revenue: revenue, Expense: expense})
	}
	return points, nil
}
