package enums

import "fmt"

// ExpenseCategory groups operating expenses on the financial report.
type ExpenseCategory string

const (
	ExpenseCategoryOperational ExpenseCategory = "operational"
	ExpenseCategoryEquipment   ExpenseCategory = "equipment"
	ExpenseCategoryPayroll     ExpenseCategory = "payroll"
	ExpenseCategoryOther       ExpenseCategory = "other"
)

var validExpenseCategories = []ExpenseCategory{
	ExpenseCategoryOperational,
	ExpenseCategoryEquipment,
	ExpenseCategoryPayroll,
	ExpenseCategoryOther,
}

// String implements fmt.Stringer.
func (c ExpenseCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ExpenseCategory.
func (c ExpenseCategory) IsValid() bool {
	for _, candidate := range validExpenseCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseExpenseCategory converts raw input into an ExpenseCategory.
func ParseExpenseCategory(value string) (ExpenseCategory, error) {
	for _, candidate := range validExpenseCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid expense category %q", value)
}
