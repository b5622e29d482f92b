package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/propdeskhq/propdesk/pkg/owners"
)

// OwnerStore implements owners.Store.
type OwnerStore struct {
	db *sql.DB
}

const ownerColumns = `id, name, email, phone, company, stripe_customer_id, archived, created_at, updated_at`

func (s *OwnerStore) CreateOwner(ctx context.Context, o *owners.Owner) (*owners.Owner, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO owners (name, email, phone, company)
		VALUES ($1, $2, $3, $4)
		RETURNING `+ownerColumns,
		o.Name, o.Email, o.Phone, o.Company)
	return scanOwner(row)
}

func (s *OwnerStore) UpdateOwner(ctx context.Context, o *owners.Owner) (*owners.Owner, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE owners SET name = $2, email = $3, phone = $4, company = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING `+ownerColumns,
		o.ID, o.Name, o.Email, o.Phone, o.Company)
	owner, err := scanOwner(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, owners.ErrOwnerNotFound
	}
	return owner, err
}

func (s *OwnerStore) GetOwner(ctx context.Context, id int) (*owners.Owner, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+ownerColumns+` FROM owners WHERE id = $1`, id)
	owner, err := scanOwner(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, owners.ErrOwnerNotFound
	}
	return owner, err
}

func (s *OwnerStore) ListOwners(ctx context.Context, limit, offset int) ([]*owners.Owner, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ownerColumns+` FROM owners WHERE NOT archived
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*owners.Owner
	for rows.Next() {
		o, err := scanOwner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *OwnerStore) ArchiveOwner(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE owners SET archived = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, owners.ErrOwnerNotFound)
}

func scanOwner(row rowScanner) (*owners.Owner, error) {
	var o owners.Owner
	err := row.Scan(&o.ID, &o.Name, &o.Email, &o.Phone, &o.Company,
		&o.StripeCustomerID, &o.Archived, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
