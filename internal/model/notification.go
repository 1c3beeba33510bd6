package model

import "time"

// NotificationKind identifies what a notification is about.
type NotificationKind string

const (
	NotificationFollow NotificationKind = "follow"
)

// Notification records that sender did something that concerns receiver.
type Notification struct {
	ID         string           `db:"id" json:"id"`
	Kind       NotificationKind `db:"kind" json:"kind"`
	SenderID   string           `db:"sender_id" json:"sender"`
	ReceiverID string           `db:"receiver_id" json:"receiver"`
	CreatedAt  time.Time        `db:"created_at" json:"createdAt"`
}

// NotificationsResponse lists notifications for a user.
type NotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
}
