package reports

import (
	"time"

	"github.com/google/uuid"
	"github.com/netbill/isp-billing/internal/settings"
	"github.com/netbill/isp-billing/pkg/enums"
	"github.com/netbill/isp-billing/pkg/types"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RevenueLine is one paid invoice counted as revenue.
type RevenueLine struct {
	InvoiceID    uuid.UUID  `json:"invoice_id"`
	CustomerName string     `json:"customer_name"`
	Amount       int64      `json:"amount"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`
}

// ExpenseLine is one expense dated inside the period.
type ExpenseLine struct {
	ID          uuid.UUID             `json:"id"`
	Description string                `json:"description"`
	Category    enums.ExpenseCategory `json:"category"`
	Amount      int64                 `json:"amount"`
	SpentAt     time.Time             `json:"spent_at"`
}

// Split is the profit distribution, present only once revenue reaches target.
type Split struct {
	BudgetAllocation     int64           `json:"budget_allocation"`
	CapitalReturn        int64           `json:"capital_return"`
	Distributable        int64           `json:"distributable"`
	SharePercentOperator decimal.Decimal `json:"share_percent_operator"`
	SharePercentInvestor decimal.Decimal `json:"share_percent_investor"`
	OperatorShare        decimal.Decimal `json:"operator_share"`
	InvestorShare        decimal.Decimal `json:"investor_share"`
}

// Report is the monthly financial statement.
type Report struct {
	Period        types.Period  `json:"period"`
	Label         string        `json:"label"`
	GrossRevenue  int64         `json:"gross_revenue"`
	TotalExpense  int64         `json:"total_expense"`
	TargetRevenue int64         `json:"target_revenue"`
	TargetReached bool          `json:"target_reached"`
	Revenue       []RevenueLine `json:"revenue"`
	Expenses      []ExpenseLine `json:"expenses"`
	Split         *Split        `json:"split,omitempty"`
}

// Compute builds the report for a period from already loaded rows. Revenue
// lines must be the period's paid invoices and expense lines the expenses
// dated within it.
//
// The split is produced when gross revenue is at or above the target.
// Distributable profit is gross revenue minus budget allocation and capital
// return and may be negative; each share applies its own percentage to it.
func Compute(p types.Period, values settings.Values, revenue []RevenueLine, expenses []ExpenseLine) Report {
	if revenue == nil {
		revenue = []RevenueLine{}
	}
	if expenses == nil {
		expenses = []ExpenseLine{}
	}

	r := Report{
		Period:        p,
		Label:         p.Label(),
		TargetRevenue: values.TargetRevenue,
		Revenue:       revenue,
		Expenses:      expenses,
	}
	for _, line := range revenue {
		r.GrossRevenue += line.Amount
	}
	for _, line := range expenses {
		r.TotalExpense += line.Amount
	}

	if r.GrossRevenue < values.TargetRevenue {
		return r
	}
	r.TargetReached = true

	distributable := r.GrossRevenue - values.BudgetAllocation - values.CapitalReturn
	base := decimal.NewFromInt(distributable)
	r.Split = &Split{
		BudgetAllocation:     values.BudgetAllocation,
		CapitalReturn:        values.CapitalReturn,
		Distributable:        distributable,
		SharePercentOperator: values.SharePercentOperator,
		SharePercentInvestor: values.SharePercentInvestor,
		OperatorShare:        base.Mul(values.SharePercentOperator).Div(hundred),
		InvestorShare:        base.Mul(values.SharePercentInvestor).Div(hundred),
	}
	return r
}
