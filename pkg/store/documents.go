package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/propdeskhq/propdesk/pkg/signing"
)

// DocumentStore implements signing.Store.
type DocumentStore struct {
	db *sql.DB
}

const documentColumns = `id, lead_id, name, external_id, status, created_at, updated_at`

func (s *DocumentStore) CreateDocument(ctx context.Context, doc *signing.Document) (*signing.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO documents (lead_id, name, external_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING `+documentColumns,
		nullInt(doc.LeadID), doc.Name, doc.ExternalID, doc.Status)
	return scanDocument(row)
}

func (s *DocumentStore) GetByExternalID(ctx context.Context, externalID string) (*signing.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE external_id = $1`, externalID)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, signing.ErrDocumentNotFound
	}
	return doc, err
}

func (s *DocumentStore) UpdateStatus(ctx context.Context, id int, status signing.Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	return requireRow(res, signing.ErrDocumentNotFound)
}

func (s *DocumentStore) ListByLead(ctx context.Context, leadID int) ([]*signing.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents
		 WHERE lead_id = $1 ORDER BY created_at DESC`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*signing.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func scanDocument(row rowScanner) (*signing.Document, error) {
	var d signing.Document
	var leadID sql.NullInt64
	err := row.Scan(&d.ID, &leadID, &d.Name, &d.ExternalID, &d.Status,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.LeadID = intPtr(leadID)
	return &d, nil
}
