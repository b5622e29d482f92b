package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/propdeskhq/propdesk/pkg/leads"
)

// LeadStore implements leads.Store.
type LeadStore struct {
	db *sql.DB
}

const leadColumns = `id, name, email, phone, property_id, stage, source, notes, archived, created_at, updated_at`

func (s *LeadStore) CreateLead(ctx context.Context, l *leads.Lead) (*leads.Lead, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO leads (name, email, phone, property_id, stage, source, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+leadColumns,
		l.Name, l.Email, l.Phone, nullInt(l.PropertyID), l.Stage, l.Source, l.Notes)
	return scanLead(row)
}

func (s *LeadStore) UpdateLead(ctx context.Context, l *leads.Lead) (*leads.Lead, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE leads SET name = $2, email = $3, phone = $4, property_id = $5,
			stage = $6, source = $7, notes = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING `+leadColumns,
		l.ID, l.Name, l.Email, l.Phone, nullInt(l.PropertyID), l.Stage, l.Source, l.Notes)
	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, leads.ErrLeadNotFound
	}
	return lead, err
}

func (s *LeadStore) GetLead(ctx context.Context, id int) (*leads.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, leads.ErrLeadNotFound
	}
	return lead, err
}

func (s *LeadStore) ListLeads(ctx context.Context, limit, offset int) ([]*leads.Lead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE NOT archived
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*leads.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *LeadStore) ArchiveLead(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET archived = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, leads.ErrLeadNotFound)
}

func (s *LeadStore) ListTimeline(ctx context.Context, leadID, limit int) ([]*leads.TimelineEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, lead_id, entry, created_at FROM lead_timeline
		WHERE lead_id = $1 ORDER BY created_at DESC LIMIT $2`, leadID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*leads.TimelineEntry
	for rows.Next() {
		var e leads.TimelineEntry
		if err := rows.Scan(&e.ID, &e.LeadID, &e.Entry, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func scanLead(row rowScanner) (*leads.Lead, error) {
	var l leads.Lead
	var propertyID sql.NullInt64
	err := row.Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &propertyID,
		&l.Stage, &l.Source, &l.Notes, &l.Archived, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.PropertyID = intPtr(propertyID)
	return &l, nil
}
