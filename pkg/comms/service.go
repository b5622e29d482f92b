package comms

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/propdeskhq/propdesk/pkg/cache"
	"github.com/propdeskhq/propdesk/pkg/logger"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
	cacheTTL        = 2 * time.Minute
)

// Service exposes the inbox read/mutation surface. Reads go through the
// named Redis query caches that the realtime fan-out invalidates; a cache
// miss falls back to the store and repopulates.
type Service struct {
	store Store
	cache *cache.Client
	log   logger.Logger
}

// NewService creates a new inbox service. cacheClient may be nil; caching is
// then skipped entirely.
func NewService(store Store, cacheClient *cache.Client, log logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		store: store,
		cache: cacheClient,
		log:   log,
	}
}

// ListAll returns the unified inbox, newest first.
func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]*Record, error) {
	limit = clampLimit(limit)

	cacheKey := fmt.Sprintf("%s:%d:%d", cache.KeyAllCommunications, limit, offset)
	if recs, ok := s.cachedList(ctx, cacheKey); ok {
		return recs, nil
	}

	recs, err := s.store.ListAll(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list communications: %w", err)
	}

	s.cacheList(ctx, cacheKey, recs)
	return recs, nil
}

// ListByLead returns all communications tied to one lead, newest first.
func (s *Service) ListByLead(ctx context.Context, leadID, limit, offset int) ([]*Record, error) {
	limit = clampLimit(limit)

	cacheKey := fmt.Sprintf("%s:%d:%d:%d", cache.KeyLeadCommunications, leadID, limit, offset)
	if recs, ok := s.cachedList(ctx, cacheKey); ok {
		return recs, nil
	}

	recs, err := s.store.ListByLead(ctx, leadID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list lead communications: %w", err)
	}

	s.cacheList(ctx, cacheKey, recs)
	return recs, nil
}

// Thread returns the conversation with one contact (phone or email),
// oldest first, capped at limit.
func (s *Service) Thread(ctx context.Context, contact string, limit int) ([]*Record, error) {
	limit = clampLimit(limit)

	cacheKey := fmt.Sprintf("%s:%s", cache.KeyConversationThread, contact)
	if recs, ok := s.cachedList(ctx, cacheKey); ok {
		return recs, nil
	}

	recs, err := s.store.Thread(ctx, contact, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation thread: %w", err)
	}

	s.cacheList(ctx, cacheKey, recs)
	return recs, nil
}

// MarkRead flags a single communication as read.
func (s *Service) MarkRead(ctx context.Context, id string) error {
	if err := s.store.MarkRead(ctx, id); err != nil {
		return fmt.Errorf("failed to mark communication read: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

// MarkThreadRead flags every communication with a contact as read.
func (s *Service) MarkThreadRead(ctx context.Context, contact string) error {
	if err := s.store.MarkThreadRead(ctx, contact); err != nil {
		return fmt.Errorf("failed to mark thread read: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

// Archive soft-deletes a communication. Records are never hard-deleted.
func (s *Service) Archive(ctx context.Context, id string) error {
	if err := s.store.Archive(ctx, id); err != nil {
		return fmt.Errorf("failed to archive communication: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

// Get returns a single communication by id.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	rec, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) cachedList(ctx context.Context, key string) ([]*Record, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil || raw == "" {
		return nil, false
	}
	var recs []*Record
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		return nil, false
	}
	return recs, true
}

func (s *Service) cacheList(ctx context.Context, key string, recs []*Record) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(recs)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), cacheTTL); err != nil {
		s.log.Debug("failed to cache inbox query", "key", key, "error", err)
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateInboxCaches(ctx); err != nil {
		s.log.Warn("failed to invalidate inbox caches", "error", err)
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}
