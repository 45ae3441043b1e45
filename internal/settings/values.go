package settings

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Recognized setting keys.
const (
	KeyTargetRevenue        = "target_revenue"
	KeyBudgetAllocation     = "budget_allocation"
	KeyCapitalReturn        = "capital_return"
	KeySharePercentOperator = "share_percent_operator"
	KeySharePercentInvestor = "share_percent_investor"
)

// Defaults are substituted for any recognized key that is not persisted.
var Defaults = map[string]string{
	KeyTargetRevenue:        "6500000",
	KeyBudgetAllocation:     "3000000",
	KeyCapitalReturn:        "2500000",
	KeySharePercentOperator: "80.0",
	KeySharePercentInvestor: "20.0",
}

// Keys lists the recognized settings in display order.
var Keys = []string{
	KeyTargetRevenue,
	KeyBudgetAllocation,
	KeyCapitalReturn,
	KeySharePercentOperator,
	KeySharePercentInvestor,
}

// Values is the typed view of the settings consumed by the report calculator.
// The two percentages are independent and are never normalized to 100.
type Values struct {
	TargetRevenue        int64           `json:"target_revenue"`
	BudgetAllocation     int64           `json:"budget_allocation"`
	CapitalReturn        int64           `json:"capital_return"`
	SharePercentOperator decimal.Decimal `json:"share_percent_operator"`
	SharePercentInvestor decimal.Decimal `json:"share_percent_investor"`
}

// DefaultValues returns the typed defaults.
func DefaultValues() Values {
	v, err := ParseValues(Defaults)
	if err != nil {
		panic(fmt.Sprintf("settings defaults are malformed: %v", err))
	}
	return v
}

// ParseValues converts a raw key/value mapping into Values. Every recognized
// key must be present.
func ParseValues(raw map[string]string) (Values, error) {
	var (
		v   Values
		err error
	)
	if v.TargetRevenue, err = parseAmount(raw, KeyTargetRevenue); err != nil {
		return Values{}, err
	}
	if v.BudgetAllocation, err = parseAmount(raw, KeyBudgetAllocation); err != nil {
		return Values{}, err
	}
	if v.CapitalReturn, err = parseAmount(raw, KeyCapitalReturn); err != nil {
		return Values{}, err
	}
	if v.SharePercentOperator, err = parsePercent(raw, KeySharePercentOperator); err != nil {
		return Values{}, err
	}
	if v.SharePercentInvestor, err = parsePercent(raw, KeySharePercentInvestor); err != nil {
		return Values{}, err
	}
	return v, nil
}

// Map string-encodes the values for persistence.
func (v Values) Map() map[string]string {
	return map[string]string{
		KeyTargetRevenue:        strconv.FormatInt(v.TargetRevenue, 10),
		KeyBudgetAllocation:     strconv.FormatInt(v.BudgetAllocation, 10),
		KeyCapitalReturn:        strconv.FormatInt(v.CapitalReturn, 10),
		KeySharePercentOperator: formatPercent(v.SharePercentOperator),
		KeySharePercentInvestor: formatPercent(v.SharePercentInvestor),
	}
}

func parseAmount(raw map[string]string, key string) (int64, error) {
	value, ok := raw[key]
	if !ok {
		return 0, fmt.Errorf("setting %s is missing", key)
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("setting %s: %q is not an integer amount", key, value)
	}
	return n, nil
}

func parsePercent(raw map[string]string, key string) (decimal.Decimal, error) {
	value, ok := raw[key]
	if !ok {
		return decimal.Zero, fmt.Errorf("setting %s is missing", key)
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("setting %s: %q is not a number", key, value)
	}
	return d, nil
}

// formatPercent keeps at least one fractional digit so stored values read like "80.0".
func formatPercent(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return d.StringFixed(1)
	}
	return d.String()
}
