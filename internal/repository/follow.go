package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ErrSelfFollow is returned when a user tries to follow or unfollow themselves.
var ErrSelfFollow = errors.New("cannot follow yourself")

// FollowRepository maintains the follow graph. One row in follows is one
// edge: follower_id appears in followee_id's followers and followee_id in
// follower_id's following. Every edge change also records or retracts the
// matching follow notification in the same transaction.
type FollowRepository struct {
	db            *sqlx.DB
	notifications *NotificationRepository
}

// NewFollowRepository creates a new FollowRepository.
func NewFollowRepository(db *sqlx.DB) *FollowRepository {
	return &FollowRepository{db: db, notifications: NewNotificationRepository(db)}
}

// Follow adds the edge followerID -> followeeID. Following an already
// followed user changes nothing and is not an error.
func (r *FollowRepository) Follow(ctx context.Context, followerID, followeeID string) error {
	return r.mutate(ctx, followerID, followeeID, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT IGNORE INTO follows (follower_id, followee_id) VALUES (?, ?)`,
			followerID, followeeID,
		); err != nil {
			return fmt.Errorf("inserting follow: %w", err)
		}
		return r.notifications.withTx(tx).RecordFollow(ctx, followerID, followeeID)
	})
}

// Unfollow removes the edge followerID -> followeeID if present.
func (r *FollowRepository) Unfollow(ctx context.Context, followerID, followeeID string) error {
	return r.mutate(ctx, followerID, followeeID, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM follows WHERE follower_id = ? AND followee_id = ?`,
			followerID, followeeID,
		); err != nil {
			return fmt.Errorf("deleting follow: %w", err)
		}
		return r.notifications.withTx(tx).RemoveFollow(ctx, followerID, followeeID)
	})
}

func (r *FollowRepository) mutate(ctx context.Context, followerID, followeeID string, fn func(tx *sqlx.Tx) error) error {
	if followerID == followeeID {
		return ErrSelfFollow
	}
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		n, err := countUsers(ctx, tx, followerID, followeeID)
		if err != nil {
			return err
		}
		if n != 2 {
			return ErrUserNotFound
		}
		return fn(tx)
	})
}

func followingOf(ctx context.Context, q dbtx, userID string) ([]string, error) {
	ids := []string{}
	if err := sqlx.SelectContext(ctx, q, &ids,
		`SELECT followee_id FROM follows WHERE follower_id = ? ORDER BY created_at, followee_id`, userID,
	); err != nil {
		return nil, fmt.Errorf("querying following: %w", err)
	}
	return ids, nil
}

func followersOf(ctx context.Context, q dbtx, userID string) ([]string, error) {
	ids := []string{}
	if err := sqlx.SelectContext(ctx, q, &ids,
		`SELECT follower_id FROM follows WHERE followee_id = ? ORDER BY created_at, follower_id`, userID,
	); err != nil {
		return nil, fmt.Errorf("querying followers: %w", err)
	}
	return ids, nil
}
