package reports

import (
	"fmt"
	"io"

	"github.com/netbill/isp-billing/pkg/types"
	"github.com/xuri/excelize/v2"
)

const (
	sheetName    = "Report"
	dateLayout   = "2006-01-02"
	XLSXMIMEType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// FileName is the download name of the exported report.
func FileName(p types.Period) string {
	return fmt.Sprintf("report_%d_%d.xlsx", p.Month, p.Year)
}

type sheetWriter struct {
	f    *excelize.File
	row  int
	bold int
	err  error
}

func (w *sheetWriter) line(bold bool, values ...any) {
	w.row++
	if w.err != nil || len(values) == 0 {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(sheetName, cell, &values); err != nil {
		w.err = err
		return
	}
	if bold {
		last, err := excelize.CoordinatesToCellName(len(values), w.row)
		if err != nil {
			w.err = err
			return
		}
		w.err = w.f.SetCellStyle(sheetName, cell, last, w.bold)
	}
}

// WriteXLSX renders the report as a single-sheet workbook. The split section
// appears only when the report carries one.
func WriteXLSX(out io.Writer, r *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	if err := f.SetColWidth(sheetName, "A", "D", 24); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	w := &sheetWriter{f: f, bold: bold}
	w.line(true, "Financial Report "+r.Label)
	w.line(false)
	w.line(false, "Gross Revenue", r.GrossRevenue)
	w.line(false, "Total Expenses", r.TotalExpense)
	w.line(false, "Target Revenue", r.TargetRevenue)

	if r.Split != nil {
		w.line(false)
		w.line(true, "Profit Split")
		w.line(false, "Budget Allocation", r.Split.BudgetAllocation)
		w.line(false, "Capital Return", r.Split.CapitalReturn)
		w.line(false, "Distributable Profit", r.Split.Distributable)
		w.line(false, fmt.Sprintf("Operator Share (%s%%)", r.Split.SharePercentOperator.String()), r.Split.OperatorShare.InexactFloat64())
		w.line(false, fmt.Sprintf("Investor Share (%s%%)", r.Split.SharePercentInvestor.String()), r.Split.InvestorShare.InexactFloat64())
	}

	w.line(false)
	w.line(true, "Revenue Details")
	w.line(true, "Paid Date", "Customer", "Amount")
	for _, line := range r.Revenue {
		paid := ""
		if line.PaidAt != nil {
			paid = line.PaidAt.UTC().Format(dateLayout)
		}
		w.line(false, paid, line.CustomerName, line.Amount)
	}

	w.line(false)
	w.line(true, "Expense Details")
	w.line(true, "Date", "Description", "Category", "Amount")
	for _, line := range r.Expenses {
		w.line(false, line.SpentAt.UTC().Format(dateLayout), line.Description, line.Category.String(), line.Amount)
	}

	if w.err != nil {
		return fmt.Errorf("write report sheet: %w", w.err)
	}
	if err := f.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
