package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/propdeskhq/propdesk/pkg/comms"
	"github.com/propdeskhq/propdesk/pkg/phone"
)

// CommunicationStore implements comms.Store, comms.TimelineStore and
// tone.MessageSource.
type CommunicationStore struct {
	db *sql.DB
}

const commColumns = `id, lead_id, owner_id, user_id, work_order_id, communication_type,
	direction, body, subject, from_address, to_address, external_id, status,
	delivery_status, is_read, archived, metadata, created_at, updated_at`

// UpsertRecord inserts a communication keyed by (type, external_id). A
// conflicting insert is a webhook redelivery: the existing row is returned
// untouched and inserted is false.
func (s *CommunicationStore) UpsertRecord(ctx context.Context, rec *comms.Record) (*comms.Record, bool, error) {
	var metadata any
	if rec.Metadata != nil {
		raw, err := json.Marshal(rec.Metadata)
		if err != nil {
			return nil, false, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadata = raw
	}

	// Backfilled records (provider sync) carry the provider's timestamp so
	// the inbox orders them where they actually happened; live webhooks
	// leave CreatedAt zero and take NOW().
	var createdAt any
	if !rec.CreatedAt.IsZero() {
		createdAt = rec.CreatedAt
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO communications (id, lead_id, owner_id, user_id, work_order_id,
			communication_type, direction, body, subject, from_address, to_address,
			external_id, status, delivery_status, is_read, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			COALESCE($17::timestamptz, NOW()))
		ON CONFLICT (communication_type, external_id) DO NOTHING
		RETURNING `+commColumns,
		rec.ID, nullInt(rec.LeadID), nullInt(rec.OwnerID), nullInt(rec.UserID),
		nullInt(rec.WorkOrderID), rec.Type, rec.Direction, rec.Body, rec.Subject,
		rec.FromAddress, rec.ToAddress, rec.ExternalID, rec.Status,
		rec.DeliveryStatus, rec.IsRead, metadata, createdAt)

	saved, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		existing, err := s.GetByExternalID(ctx, rec.Type, rec.ExternalID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return saved, true, nil
}

func (s *CommunicationStore) GetRecord(ctx context.Context, id string) (*comms.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+commColumns+` FROM communications WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, comms.ErrRecordNotFound
	}
	return rec, err
}

func (s *CommunicationStore) GetByExternalID(ctx context.Context, t comms.Type, externalID string) (*comms.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+commColumns+` FROM communications
		 WHERE communication_type = $1 AND external_id = $2`, t, externalID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, comms.ErrRecordNotFound
	}
	return rec, err
}

func (s *CommunicationStore) ListByLead(ctx context.Context, leadID, limit, offset int) ([]*comms.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+commColumns+` FROM communications
		 WHERE lead_id = $1 AND NOT archived
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, leadID, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

func (s *CommunicationStore) ListAll(ctx context.Context, limit, offset int) ([]*comms.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+commColumns+` FROM communications
		 WHERE NOT archived
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

// Thread returns the conversation with one contact, oldest first. Phone
// contacts match on the last ten digits of either address; email contacts
// match case-insensitively.
func (s *CommunicationStore) Thread(ctx context.Context, contact string, limit int) ([]*comms.Record, error) {
	var where string
	var key string
	if strings.Contains(contact, "@") {
		where = `LOWER(from_address) = $1 OR LOWER(to_address) = $1`
		key = strings.ToLower(contact)
	} else {
		where = `RIGHT(REGEXP_REPLACE(from_address, '\D', '', 'g'), 10) = $1
			OR RIGHT(REGEXP_REPLACE(to_address, '\D', '', 'g'), 10) = $1`
		key = phone.LastTen(contact)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+commColumns+` FROM (
			SELECT `+commColumns+` FROM communications
			WHERE NOT archived AND (`+where+`)
			ORDER BY created_at DESC LIMIT $2
		) recent ORDER BY created_at ASC`, key, limit)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

func (s *CommunicationStore) MarkRead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE communications SET is_read = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, comms.ErrRecordNotFound)
}

func (s *CommunicationStore) MarkThreadRead(ctx context.Context, contact string) error {
	var where string
	var key string
	if strings.Contains(contact, "@") {
		where = `LOWER(from_address) = $1 OR LOWER(to_address) = $1`
		key = strings.ToLower(contact)
	} else {
		where = `RIGHT(REGEXP_REPLACE(from_address, '\D', '', 'g'), 10) = $1
			OR RIGHT(REGEXP_REPLACE(to_address, '\D', '', 'g'), 10) = $1`
		key = phone.LastTen(contact)
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE communications SET is_read = TRUE, updated_at = NOW()
		WHERE NOT is_read AND (`+where+`)`, key)
	return err
}

func (s *CommunicationStore) Archive(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE communications SET archived = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, comms.ErrRecordNotFound)
}

func (s *CommunicationStore) UpdateDelivery(ctx context.Context, t comms.Type, externalID string, status comms.Status, deliveryStatus string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE communications SET status = $3, delivery_status = $4, updated_at = NOW()
		WHERE communication_type = $1 AND external_id = $2`, t, externalID, status, deliveryStatus)
	if err != nil {
		return err
	}
	return requireRow(res, comms.ErrRecordNotFound)
}

// AppendLeadTimeline implements comms.TimelineStore.
func (s *CommunicationStore) AppendLeadTimeline(ctx context.Context, leadID int, entry string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lead_timeline (lead_id, entry) VALUES ($1, $2)`, leadID, entry)
	return err
}

// AppendWorkOrderTimeline implements comms.TimelineStore.
func (s *CommunicationStore) AppendWorkOrderTimeline(ctx context.Context, workOrderID int, entry string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO work_order_timeline (work_order_id, entry) VALUES ($1, $2)`, workOrderID, entry)
	return err
}

// RecentOutboundBodies implements tone.MessageSource: the user's latest
// outbound message bodies, newest first.
func (s *CommunicationStore) RecentOutboundBodies(ctx context.Context, userID, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT body FROM communications
		WHERE user_id = $1 AND direction = 'outbound' AND body <> ''
		ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bodies []string
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		bodies = append(bodies, body)
	}
	return bodies, rows.Err()
}

func scanRecord(row rowScanner) (*comms.Record, error) {
	var rec comms.Record
	var leadID, ownerID, userID, workOrderID sql.NullInt64
	var metadata []byte

	err := row.Scan(&rec.ID, &leadID, &ownerID, &userID, &workOrderID, &rec.Type,
		&rec.Direction, &rec.Body, &rec.Subject, &rec.FromAddress, &rec.ToAddress,
		&rec.ExternalID, &rec.Status, &rec.DeliveryStatus, &rec.IsRead, &rec.Archived,
		&metadata, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rec.LeadID = intPtr(leadID)
	rec.OwnerID = intPtr(ownerID)
	rec.UserID = intPtr(userID)
	rec.WorkOrderID = intPtr(workOrderID)

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]*comms.Record, error) {
	defer rows.Close()

	var recs []*comms.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

