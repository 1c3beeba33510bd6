package service

import (
	"context"

	"github.com/devcircle/devcircle-go/internal/identity"
	"github.com/devcircle/devcircle-go/internal/model"
)

// UserStore is the user directory.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetWithRelations(ctx context.Context, id string) (*model.User, error)
	FollowedTags(ctx context.Context, userID string) ([]model.Tag, error)
	Update(ctx context.Context, id string, upd model.UserUpdate) (*model.User, error)
}

// FollowGraph mutates follow edges together with their notifications.
type FollowGraph interface {
	Follow(ctx context.Context, followerID, followeeID string) error
	Unfollow(ctx context.Context, followerID, followeeID string) error
}

// NotificationStore lists stored notifications.
type NotificationStore interface {
	ListForUser(ctx context.Context, userID string, limit int) ([]model.Notification, error)
}

// PostStore persists posts.
type PostStore interface {
	Create(ctx context.Context, post *model.Post, tagNames []string) error
}

// TagStore reads tags and maintains the tags users follow.
type TagStore interface {
	GetByName(ctx context.Context, name string, postLimit int) (*model.Tag, []model.Post, error)
	List(ctx context.Context, names []string) ([]model.Tag, error)
	PostsByTag(ctx context.Context, tagID string, limit int) ([]model.Post, error)
	Follow(ctx context.Context, userID, name string) error
	Unfollow(ctx context.Context, userID, name string) error
	FollowedTags(ctx context.Context, userID string) ([]model.Tag, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

// TokenIssuer signs identity tokens.
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}

// IdentityVerifier validates a federated provider's ID token.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*identity.Identity, error)
}

// ImageUploader stores an image and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, prefix string, data []byte) (string, error)
}

// Sanitizer cleans user-supplied text.
type Sanitizer interface {
	Text(in string) string
	HTML(in string) string
}

// Recorder receives domain events for metrics.
type Recorder interface {
	RecordSignup(provider string)
	RecordLogin(provider, result string)
	RecordFollow(action string, ok bool)
	RecordPostCreated()
}

type nopRecorder struct{}

func (nopRecorder) RecordSignup(string)        {}
func (nopRecorder) RecordLogin(string, string) {}
func (nopRecorder) RecordFollow(string, bool)  {}
func (nopRecorder) RecordPostCreated()         {}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
