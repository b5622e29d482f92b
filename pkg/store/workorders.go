package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/propdeskhq/propdesk/pkg/workorders"
)

// WorkOrderStore implements workorders.Store.
type WorkOrderStore struct {
	db *sql.DB
}

const workOrderColumns = `id, property_id, lead_id, title, description, priority, status, assigned_to, created_at, updated_at`

func (s *WorkOrderStore) CreateWorkOrder(ctx context.Context, w *workorders.WorkOrder) (*workorders.WorkOrder, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO work_orders (property_id, lead_id, title, description, priority, status, assigned_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+workOrderColumns,
		nullInt(w.PropertyID), nullInt(w.LeadID), w.Title, w.Description,
		w.Priority, w.Status, w.AssignedTo)
	return scanWorkOrder(row)
}

func (s *WorkOrderStore) UpdateWorkOrder(ctx context.Context, w *workorders.WorkOrder) (*workorders.WorkOrder, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE work_orders SET property_id = $2, lead_id = $3, title = $4,
			description = $5, priority = $6, status = $7, assigned_to = $8,
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+workOrderColumns,
		w.ID, nullInt(w.PropertyID), nullInt(w.LeadID), w.Title, w.Description,
		w.Priority, w.Status, w.AssignedTo)
	wo, err := scanWorkOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, workorders.ErrWorkOrderNotFound
	}
	return wo, err
}

func (s *WorkOrderStore) GetWorkOrder(ctx context.Context, id int) (*workorders.WorkOrder, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+workOrderColumns+` FROM work_orders WHERE id = $1`, id)
	wo, err := scanWorkOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, workorders.ErrWorkOrderNotFound
	}
	return wo, err
}

func (s *WorkOrderStore) ListWorkOrders(ctx context.Context, status workorders.Status, limit, offset int) ([]*workorders.WorkOrder, error) {
	query := `SELECT ` + workOrderColumns + ` FROM work_orders`
	args := []any{limit, offset}
	if status != "" {
		query += ` WHERE status = $3`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*workorders.WorkOrder
	for rows.Next() {
		wo, err := scanWorkOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, wo)
	}
	return out, rows.Err()
}

func (s *WorkOrderStore) AppendWorkOrderTimeline(ctx context.Context, workOrderID int, entry string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO work_order_timeline (work_order_id, entry) VALUES ($1, $2)`,
		workOrderID, entry)
	return err
}

func (s *WorkOrderStore) ListTimeline(ctx context.Context, workOrderID, limit int) ([]*workorders.TimelineEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, work_order_id, entry, created_at FROM work_order_timeline
		WHERE work_order_id = $1 ORDER BY created_at DESC LIMIT $2`, workOrderID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*workorders.TimelineEntry
	for rows.Next() {
		var e workorders.TimelineEntry
		if err := rows.Scan(&e.ID, &e.WorkOrderID, &e.Entry, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func scanWorkOrder(row rowScanner) (*workorders.WorkOrder, error) {
	var w workorders.WorkOrder
	var propertyID, leadID sql.NullInt64
	err := row.Scan(&w.ID, &propertyID, &leadID, &w.Title, &w.Description,
		&w.Priority, &w.Status, &w.AssignedTo, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	w.PropertyID = intPtr(propertyID)
	w.LeadID = intPtr(leadID)
	return &w, nil
}
