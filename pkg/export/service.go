package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/propdeskhq/propdesk/pkg/expenses"
)

// Service generates downloadable expense reports.
type Service struct {
	expenses    *expenses.Service
	storagePath string
}

// NewService creates a new export service
func NewService(expenseService *expenses.Service, storagePath string) *Service {
	os.MkdirAll(storagePath, 0755)

	return &Service{
		expenses:    expenseService,
		storagePath: storagePath,
	}
}

// exportLimit caps how many rows one report holds.
const exportLimit = 10000

// ExpenseReport writes an XLSX expense report to local storage and returns
// its absolute path.
func (s *Service) ExpenseReport(ctx context.Context, filter expenses.Filter) (string, error) {
	rows, err := s.expenses.List(ctx, filter, exportLimit, 0)
	if err != nil {
		return "", fmt.Errorf("failed to list expenses: %w", err)
	}

	filename := fmt.Sprintf("expenses_%s.xlsx", time.Now().Format("20060102_150405"))
	path := filepath.Join(s.storagePath, filename)

	if err := writeExpenseWorkbook(path, rows); err != nil {
		return "", err
	}
	return path, nil
}

func writeExpenseWorkbook(path string, rows []*expenses.Expense) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Expenses"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	headers := []string{"ID", "Property ID", "Work Order ID", "Category", "Description", "Amount", "Incurred At"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	total := 0.0
	for rowIdx, e := range rows {
		row := rowIdx + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), e.ID)
		if e.PropertyID != nil {
			f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), *e.PropertyID)
		}
		if e.WorkOrderID != nil {
			f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), *e.WorkOrderID)
		}
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), e.Category)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), e.Description)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), e.Amount)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), e.IncurredAt.Format("2006-01-02"))
		total += e.Amount
	}

	// Total row under the data
	totalRow := len(rows) + 2
	f.SetCellValue(sheetName, fmt.Sprintf("E%d", totalRow), "Total")
	f.SetCellValue(sheetName, fmt.Sprintf("F%d", totalRow), total)
	f.SetCellStyle(sheetName, fmt.Sprintf("E%d", totalRow), fmt.Sprintf("F%d", totalRow), headerStyle)

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
