package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/propdeskhq/propdesk/pkg/logger"
)

// Store is the Postgres persistence layer. Each service depends on its own
// small interface; the per-domain sub-stores returned here satisfy them over
// one shared *sql.DB.
type Store struct {
	db  *sql.DB
	log logger.Logger
}

// New creates a store over an open database handle.
func New(db *sql.DB, log logger.Logger) *Store {
	if log == nil {
		log = logger.Default()
	}
	return &Store{db: db, log: log}
}

// Migrate applies the schema. Statements are idempotent so this runs on
// every startup.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	s.log.Info("database schema applied")
	return nil
}

func (s *Store) Communications() *CommunicationStore {
	return &CommunicationStore{db: s.db}
}

func (s *Store) Directory() *DirectoryStore {
	return &DirectoryStore{db: s.db, log: s.log}
}

func (s *Store) Users() *UserStore {
	return &UserStore{db: s.db}
}

func (s *Store) Leads() *LeadStore {
	return &LeadStore{db: s.db}
}

func (s *Store) Owners() *OwnerStore {
	return &OwnerStore{db: s.db}
}

func (s *Store) Properties() *PropertyStore {
	return &PropertyStore{db: s.db}
}

func (s *Store) WorkOrders() *WorkOrderStore {
	return &WorkOrderStore{db: s.db}
}

func (s *Store) Expenses() *ExpenseStore {
	return &ExpenseStore{db: s.db}
}

func (s *Store) Documents() *DocumentStore {
	return &DocumentStore{db: s.db}
}

func (s *Store) Notifications() *NotificationStore {
	return &NotificationStore{db: s.db}
}

func (s *Store) Snippets() *SnippetStore {
	return &SnippetStore{db: s.db}
}

func (s *Store) ToneProfiles() *ToneStore {
	return &ToneStore{db: s.db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// nullInt converts an optional foreign key for query parameters.
func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// intPtr converts a scanned nullable column back to an optional int.
func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
