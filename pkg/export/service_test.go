package export

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/propdeskhq/propdesk/pkg/expenses"
)

type fakeExpenseStore struct {
	rows []*expenses.Expense
}

func (f *fakeExpenseStore) CreateExpense(ctx context.Context, e *expenses.Expense) (*expenses.Expense, error) {
	f.rows = append(f.rows, e)
	return e, nil
}

func (f *fakeExpenseStore) GetExpense(ctx context.Context, id int) (*expenses.Expense, error) {
	for _, e := range f.rows {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, expenses.ErrExpenseNotFound
}

func (f *fakeExpenseStore) ListExpenses(ctx context.Context, filter expenses.Filter, limit, offset int) ([]*expenses.Expense, error) {
	return f.rows, nil
}

func (f *fakeExpenseStore) DeleteExpense(ctx context.Context, id int) error {
	return nil
}

func intPtr(v int) *int { return &v }

func TestExpenseReport(t *testing.T) {
	store := &fakeExpenseStore{rows: []*expenses.Expense{
		{
			ID:          1,
			PropertyID:  intPtr(12),
			Category:    "maintenance",
			Description: "HVAC repair",
			Amount:      450.00,
			IncurredAt:  time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:          2,
			Category:    "utilities",
			Description: "Water bill",
			Amount:      89.50,
			IncurredAt:  time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC),
		},
	}}
	svc := NewService(expenses.NewService(store), t.TempDir())

	path, err := svc.ExpenseReport(context.Background(), expenses.Filter{})
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("Expenses", "A1")
	require.NoError(t, err)
	assert.Equal(t, "ID", header)

	desc, err := f.GetCellValue("Expenses", "E2")
	require.NoError(t, err)
	assert.Equal(t, "HVAC repair", desc)

	propertyID, err := f.GetCellValue("Expenses", "B2")
	require.NoError(t, err)
	assert.Equal(t, "12", propertyID)

	// Second row's property column stays empty when no property is linked.
	empty, err := f.GetCellValue("Expenses", "B3")
	require.NoError(t, err)
	assert.Empty(t, empty)

	totalLabel, err := f.GetCellValue("Expenses", "E4")
	require.NoError(t, err)
	assert.Equal(t, "Total", totalLabel)

	total, err := f.GetCellValue("Expenses", "F4")
	require.NoError(t, err)
	assert.Equal(t, "539.5", total)
}

func TestExpenseReportEmpty(t *testing.T) {
	svc := NewService(expenses.NewService(&fakeExpenseStore{}), t.TempDir())

	path, err := svc.ExpenseReport(context.Background(), expenses.Filter{})
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	total, err := f.GetCellValue("Expenses", "F2")
	require.NoError(t, err)
	assert.Equal(t, "0", total)
}
