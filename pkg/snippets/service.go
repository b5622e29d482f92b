package snippets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrSnippetNotFound is returned when a snippet doesn't exist
	ErrSnippetNotFound = errors.New("snippet not found")
	// ErrShortcutTaken is returned when the shortcut already exists for the user
	ErrShortcutTaken = errors.New("shortcut already in use")
	// ErrInvalidShortcut is returned for empty or whitespace shortcuts
	ErrInvalidShortcut = errors.New("invalid shortcut")
)

// Snippet is a reusable text template expanded by its shortcut.
type Snippet struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Shortcut  string    `json:"shortcut"`
	Content   string    `json:"content"`
	UseCount  int       `json:"use_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the persistence contract for snippets. Shortcuts are unique per
// user, enforced by the store.
type Store interface {
	CreateSnippet(ctx context.Context, s *Snippet) (*Snippet, error)
	UpdateSnippet(ctx context.Context, s *Snippet) (*Snippet, error)
	DeleteSnippet(ctx context.Context, id, userID int) error
	GetByShortcut(ctx context.Context, userID int, shortcut string) (*Snippet, error)
	// ListByUser returns snippets ordered by use_count desc.
	ListByUser(ctx context.Context, userID int) ([]*Snippet, error)
	IncrementUseCount(ctx context.Context, id int) error
}

// Service manages per-user text snippets.
type Service struct {
	store Store
}

// NewService creates a new snippet service
func NewService(store Store) *Service {
	return &Service{store: store}
}

// normalizeShortcut lowercases and trims a shortcut so "/Thanks" and
// "/thanks" are the same key.
func normalizeShortcut(shortcut string) string {
	return strings.ToLower(strings.TrimSpace(shortcut))
}

// Create registers a new snippet for the user.
func (s *Service) Create(ctx context.Context, userID int, shortcut, content string) (*Snippet, error) {
	shortcut = normalizeShortcut(shortcut)
	if shortcut == "" {
		return nil, ErrInvalidShortcut
	}

	if _, err := s.store.GetByShortcut(ctx, userID, shortcut); err == nil {
		return nil, ErrShortcutTaken
	} else if !errors.Is(err, ErrSnippetNotFound) {
		return nil, fmt.Errorf("failed to check shortcut: %w", err)
	}

	created, err := s.store.CreateSnippet(ctx, &Snippet{
		UserID:   userID,
		Shortcut: shortcut,
		Content:  content,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create snippet: %w", err)
	}
	return created, nil
}

// Update changes a snippet's shortcut or content.
func (s *Service) Update(ctx context.Context, userID, id int, shortcut, content string) (*Snippet, error) {
	shortcut = normalizeShortcut(shortcut)
	if shortcut == "" {
		return nil, ErrInvalidShortcut
	}

	if existing, err := s.store.GetByShortcut(ctx, userID, shortcut); err == nil && existing.ID != id {
		return nil, ErrShortcutTaken
	} else if err != nil && !errors.Is(err, ErrSnippetNotFound) {
		return nil, fmt.Errorf("failed to check shortcut: %w", err)
	}

	updated, err := s.store.UpdateSnippet(ctx, &Snippet{
		ID:       id,
		UserID:   userID,
		Shortcut: shortcut,
		Content:  content,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update snippet: %w", err)
	}
	return updated, nil
}

// Delete removes a snippet.
func (s *Service) Delete(ctx context.Context, userID, id int) error {
	return s.store.DeleteSnippet(ctx, id, userID)
}

// List returns the user's snippets, most used first.
func (s *Service) List(ctx context.Context, userID int) ([]*Snippet, error) {
	return s.store.ListByUser(ctx, userID)
}

// Expand resolves a shortcut to its content and counts the use. The count
// update is best-effort; a failed increment never blocks the expansion.
func (s *Service) Expand(ctx context.Context, userID int, shortcut string) (string, error) {
	snippet, err := s.store.GetByShortcut(ctx, userID, normalizeShortcut(shortcut))
	if err != nil {
		return "", err
	}

	_ = s.store.IncrementUseCount(ctx, snippet.ID)
	return snippet.Content, nil
}
