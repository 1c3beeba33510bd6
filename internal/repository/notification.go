package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/devcircle/devcircle-go/internal/model"
)

// NotificationRepository stores notifications. At most one notification exists
// per (kind, sender, receiver).
type NotificationRepository struct {
	db dbtx
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) withTx(tx *sqlx.Tx) *NotificationRepository {
	return &NotificationRepository{db: tx}
}

// RecordFollow records that senderID followed receiverID. Recording the same
// follow twice refreshes its timestamp.
func (r *NotificationRepository) RecordFollow(ctx context.Context, senderID, receiverID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (id, kind, sender_id, receiver_id, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE created_at = VALUES(created_at)`,
		uuid.NewString(), model.NotificationFollow, senderID, receiverID, now(),
	)
	if err != nil {
		return fmt.Errorf("recording follow notification: %w", err)
	}
	return nil
}

// RemoveFollow deletes the follow notification from senderID to receiverID, if any.
func (r *NotificationRepository) RemoveFollow(ctx context.Context, senderID, receiverID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE kind = ? AND sender_id = ? AND receiver_id = ?`,
		model.NotificationFollow, senderID, receiverID,
	)
	if err != nil {
		return fmt.Errorf("removing follow notification: %w", err)
	}
	return nil
}

// ListForUser returns the newest notifications addressed to userID.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	notifications := []model.Notification{}
	if err := sqlx.SelectContext(ctx, r.db, &notifications,
		`SELECT id, kind, sender_id, receiver_id, created_at FROM notifications
		WHERE receiver_id = ? ORDER BY created_at DESC, id LIMIT ?`,
		userID, limit,
	); err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return notifications, nil
}
