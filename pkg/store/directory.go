package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/propdeskhq/propdesk/pkg/billing"
	"github.com/propdeskhq/propdesk/pkg/logger"
	"github.com/propdeskhq/propdesk/pkg/phone"
	"github.com/propdeskhq/propdesk/pkg/webhooks"
)

// DirectoryStore implements identity.Directory, webhooks.AssignmentSyncer
// and billing.ContactStore.
type DirectoryStore struct {
	db  *sql.DB
	log logger.Logger
}

// findOne runs a single-id lookup and folds sql.ErrNoRows into (0, false).
func (s *DirectoryStore) findOne(ctx context.Context, query string, arg any) (int, bool, error) {
	var id int
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (s *DirectoryStore) FindLeadByPhone(ctx context.Context, lastTen string) (int, bool, error) {
	return s.findOne(ctx, `
		SELECT id FROM leads
		WHERE NOT archived AND RIGHT(REGEXP_REPLACE(phone, '\D', '', 'g'), 10) = $1
		ORDER BY id LIMIT 1`, lastTen)
}

func (s *DirectoryStore) FindOwnerByPhone(ctx context.Context, lastTen string) (int, bool, error) {
	return s.findOne(ctx, `
		SELECT id FROM owners
		WHERE NOT archived AND RIGHT(REGEXP_REPLACE(phone, '\D', '', 'g'), 10) = $1
		ORDER BY id LIMIT 1`, lastTen)
}

// FindUserByPhone consults active phone assignments only, never the users
// table. A number nobody is assigned stays unmatched.
func (s *DirectoryStore) FindUserByPhone(ctx context.Context, lastTen string) (int, bool, error) {
	return s.findOne(ctx, `
		SELECT user_id FROM phone_assignments
		WHERE active AND phone_last10 = $1
		ORDER BY id LIMIT 1`, lastTen)
}

func (s *DirectoryStore) FindLeadByEmail(ctx context.Context, email string) (int, bool, error) {
	return s.findOne(ctx, `
		SELECT id FROM leads
		WHERE NOT archived AND LOWER(email) = $1 AND email <> ''
		ORDER BY id LIMIT 1`, strings.ToLower(email))
}

func (s *DirectoryStore) FindOwnerByEmail(ctx context.Context, email string) (int, bool, error) {
	return s.findOne(ctx, `
		SELECT id FROM owners
		WHERE NOT archived AND LOWER(email) = $1 AND email <> ''
		ORDER BY id LIMIT 1`, strings.ToLower(email))
}

func (s *DirectoryStore) FindUserByEmail(ctx context.Context, email string) (int, bool, error) {
	return s.findOne(ctx, `
		SELECT id FROM users
		WHERE active AND LOWER(email) = $1
		ORDER BY id LIMIT 1`, strings.ToLower(email))
}

// SyncAssignments replaces the entire active phone-number assignment set.
// Assignments whose email matches no user account are skipped, not failed:
// the upstream system knows about people who never log in here.
func (s *DirectoryStore) SyncAssignments(ctx context.Context, assignments []webhooks.PhoneAssignment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM phone_assignments`); err != nil {
		return fmt.Errorf("failed to clear assignments: %w", err)
	}

	for _, a := range assignments {
		lastTen := phone.LastTen(a.PhoneNumber)
		if lastTen == "" {
			continue
		}

		var userID int
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM users WHERE LOWER(email) = $1`,
			strings.ToLower(a.Email)).Scan(&userID)
		if errors.Is(err, sql.ErrNoRows) {
			s.log.Warn("phone assignment for unknown user skipped", "email", a.Email)
			continue
		}
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO phone_assignments (user_id, phone_last10, active)
			VALUES ($1, $2, $3)
			ON CONFLICT (phone_last10) DO UPDATE SET user_id = EXCLUDED.user_id, active = EXCLUDED.active`,
			userID, lastTen, a.Active); err != nil {
			return fmt.Errorf("failed to insert assignment: %w", err)
		}
	}

	return tx.Commit()
}

// GetContact implements billing.ContactStore over the leads and owners tables.
func (s *DirectoryStore) GetContact(ctx context.Context, kind billing.ContactKind, id int) (*billing.Contact, error) {
	table, err := contactTable(kind)
	if err != nil {
		return nil, err
	}

	var c billing.Contact
	err = s.db.QueryRowContext(ctx,
		`SELECT id, name, email, stripe_customer_id FROM `+table+` WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Email, &c.StripeCustomerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, billing.ErrContactNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *DirectoryStore) SaveCustomerID(ctx context.Context, kind billing.ContactKind, id int, customerID string) error {
	table, err := contactTable(kind)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE `+table+` SET stripe_customer_id = $2, updated_at = NOW() WHERE id = $1`,
		id, customerID)
	if err != nil {
		return err
	}
	return requireRow(res, billing.ErrContactNotFound)
}

// SaveDefaultPaymentMethod records the payment method against whichever
// contact owns the Stripe customer.
func (s *DirectoryStore) SaveDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	for _, table := range []string{"leads", "owners"} {
		res, err := s.db.ExecContext(ctx,
			`UPDATE `+table+` SET default_payment_method = $2, updated_at = NOW()
			 WHERE stripe_customer_id = $1`, customerID, paymentMethodID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			return nil
		}
	}
	return billing.ErrContactNotFound
}

func contactTable(kind billing.ContactKind) (string, error) {
	switch kind {
	case billing.ContactLead:
		return "leads", nil
	case billing.ContactOwner:
		return "owners", nil
	default:
		return "", fmt.Errorf("unknown contact kind %q", kind)
	}
}
