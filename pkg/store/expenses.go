package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/propdeskhq/propdesk/pkg/expenses"
)

// ExpenseStore implements expenses.Store.
type ExpenseStore struct {
	db *sql.DB
}

const expenseColumns = `id, property_id, work_order_id, category, description, amount, incurred_at, created_at`

func (s *ExpenseStore) CreateExpense(ctx context.Context, e *expenses.Expense) (*expenses.Expense, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO expenses (property_id, work_order_id, category, description, amount, incurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+expenseColumns,
		nullInt(e.PropertyID), nullInt(e.WorkOrderID), e.Category, e.Description,
		e.Amount, e.IncurredAt)
	return scanExpense(row)
}

func (s *ExpenseStore) GetExpense(ctx context.Context, id int) (*expenses.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, expenses.ErrExpenseNotFound
	}
	return e, err
}

func (s *ExpenseStore) ListExpenses(ctx context.Context, f expenses.Filter, limit, offset int) ([]*expenses.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE TRUE`
	args := []any{}

	if f.PropertyID != nil {
		args = append(args, *f.PropertyID)
		query += fmt.Sprintf(" AND property_id = $%d", len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		query += fmt.Sprintf(" AND incurred_at >= $%d", len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		query += fmt.Sprintf(" AND incurred_at <= $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY incurred_at DESC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*expenses.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *ExpenseStore) DeleteExpense(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, expenses.ErrExpenseNotFound)
}

func scanExpense(row rowScanner) (*expenses.Expense, error) {
	var e expenses.Expense
	var propertyID, workOrderID sql.NullInt64
	err := row.Scan(&e.ID, &propertyID, &workOrderID, &e.Category, &e.Description,
		&e.Amount, &e.IncurredAt, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.PropertyID = intPtr(propertyID)
	e.WorkOrderID = intPtr(workOrderID)
	return &e, nil
}
