package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/propdeskhq/propdesk/pkg/properties"
)

// PropertyStore implements properties.Store.
type PropertyStore struct {
	db *sql.DB
}

const propertyColumns = `id, owner_id, address, unit, city, state, zip, bedrooms, bathrooms, rent, status, archived, created_at, updated_at`

func (s *PropertyStore) CreateProperty(ctx context.Context, p *properties.Property) (*properties.Property, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO properties (owner_id, address, unit, city, state, zip, bedrooms, bathrooms, rent, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+propertyColumns,
		nullInt(p.OwnerID), p.Address, p.Unit, p.City, p.State, p.Zip,
		p.Bedrooms, p.Bathrooms, p.Rent, p.Status)
	return scanProperty(row)
}

func (s *PropertyStore) UpdateProperty(ctx context.Context, p *properties.Property) (*properties.Property, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE properties SET owner_id = $2, address = $3, unit = $4, city = $5,
			state = $6, zip = $7, bedrooms = $8, bathrooms = $9, rent = $10,
			status = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING `+propertyColumns,
		p.ID, nullInt(p.OwnerID), p.Address, p.Unit, p.City, p.State, p.Zip,
		p.Bedrooms, p.Bathrooms, p.Rent, p.Status)
	prop, err := scanProperty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, properties.ErrPropertyNotFound
	}
	return prop, err
}

func (s *PropertyStore) GetProperty(ctx context.Context, id int) (*properties.Property, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id)
	prop, err := scanProperty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, properties.ErrPropertyNotFound
	}
	return prop, err
}

func (s *PropertyStore) ListProperties(ctx context.Context, limit, offset int) ([]*properties.Property, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE NOT archived
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanProperties(rows)
}

func (s *PropertyStore) ListByOwner(ctx context.Context, ownerID int) ([]*properties.Property, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+propertyColumns+` FROM properties
		 WHERE owner_id = $1 AND NOT archived ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	return scanProperties(rows)
}

func (s *PropertyStore) ArchiveProperty(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE properties SET archived = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, properties.ErrPropertyNotFound)
}

func scanProperty(row rowScanner) (*properties.Property, error) {
	var p properties.Property
	var ownerID sql.NullInt64
	err := row.Scan(&p.ID, &ownerID, &p.Address, &p.Unit, &p.City, &p.State,
		&p.Zip, &p.Bedrooms, &p.Bathrooms, &p.Rent, &p.Status, &p.Archived,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.OwnerID = intPtr(ownerID)
	return &p, nil
}

func scanProperties(rows *sql.Rows) ([]*properties.Property, error) {
	defer rows.Close()

	var out []*properties.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
