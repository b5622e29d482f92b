package store

import (
	"context"
	"database/sql"

	"github.com/propdeskhq/propdesk/pkg/notifications"
)

// NotificationStore implements notifications.Store.
type NotificationStore struct {
	db *sql.DB
}

func (s *NotificationStore) CreateNotification(ctx context.Context, n *notifications.Notification) (*notifications.Notification, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO notifications (user_id, type, title, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, type, title, message, is_read, created_at`,
		n.UserID, n.Type, n.Title, n.Message)

	var created notifications.Notification
	err := row.Scan(&created.ID, &created.UserID, &created.Type, &created.Title,
		&created.Message, &created.IsRead, &created.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *NotificationStore) ListByUser(ctx context.Context, userID, limit int) ([]*notifications.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, type, title, message, is_read, created_at
		FROM notifications WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*notifications.Notification
	for rows.Next() {
		var n notifications.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message,
			&n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (s *NotificationStore) UnreadCount(ctx context.Context, userID int) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`,
		userID).Scan(&count)
	return count, err
}

func (s *NotificationStore) MarkRead(ctx context.Context, id, userID int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	return requireRow(res, notifications.ErrNotificationNotFound)
}

func (s *NotificationStore) MarkAllRead(ctx context.Context, userID int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE user_id = $1 AND NOT is_read`, userID)
	return err
}
