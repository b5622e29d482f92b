package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/propdeskhq/propdesk/pkg/snippets"
)

// SnippetStore implements snippets.Store. The per-user shortcut uniqueness
// lives in the unique index; a violation maps to ErrShortcutTaken.
type SnippetStore struct {
	db *sql.DB
}

const snippetColumns = `id, user_id, shortcut, content, use_count, created_at, updated_at`

func (s *SnippetStore) CreateSnippet(ctx context.Context, sn *snippets.Snippet) (*snippets.Snippet, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO snippets (user_id, shortcut, content)
		VALUES ($1, $2, $3)
		RETURNING `+snippetColumns,
		sn.UserID, sn.Shortcut, sn.Content)
	created, err := scanSnippet(row)
	if isUniqueViolation(err) {
		return nil, snippets.ErrShortcutTaken
	}
	return created, err
}

func (s *SnippetStore) UpdateSnippet(ctx context.Context, sn *snippets.Snippet) (*snippets.Snippet, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE snippets SET shortcut = $3, content = $4, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+snippetColumns,
		sn.ID, sn.UserID, sn.Shortcut, sn.Content)
	updated, err := scanSnippet(row)
	if isUniqueViolation(err) {
		return nil, snippets.ErrShortcutTaken
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, snippets.ErrSnippetNotFound
	}
	return updated, err
}

func (s *SnippetStore) DeleteSnippet(ctx context.Context, id, userID int) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM snippets WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	return requireRow(res, snippets.ErrSnippetNotFound)
}

func (s *SnippetStore) GetByShortcut(ctx context.Context, userID int, shortcut string) (*snippets.Snippet, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE user_id = $1 AND shortcut = $2`,
		userID, shortcut)
	sn, err := scanSnippet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, snippets.ErrSnippetNotFound
	}
	return sn, err
}

func (s *SnippetStore) ListByUser(ctx context.Context, userID int) ([]*snippets.Snippet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets
		 WHERE user_id = $1 ORDER BY use_count DESC, shortcut ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*snippets.Snippet
	for rows.Next() {
		sn, err := scanSnippet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sn)
	}
	return out, rows.Err()
}

func (s *SnippetStore) IncrementUseCount(ctx context.Context, id int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE snippets SET use_count = use_count + 1, updated_at = NOW() WHERE id = $1`, id)
	return err
}

func scanSnippet(row rowScanner) (*snippets.Snippet, error) {
	var sn snippets.Snippet
	err := row.Scan(&sn.ID, &sn.UserID, &sn.Shortcut, &sn.Content, &sn.UseCount,
		&sn.CreatedAt, &sn.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sn, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
