package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/devcircle/devcircle-go/internal/metrics"
	"github.com/devcircle/devcircle-go/internal/model"
	"github.com/devcircle/devcircle-go/internal/repository"
)

const notificationLimit = 50

// UserDeps are the collaborators of a UserService.
type UserDeps struct {
	Users         UserStore
	Graph         FollowGraph
	Notifications NotificationStore
	Uploader      ImageUploader
	Sanitizer     Sanitizer
	Metrics       Recorder
}

// UserService handles profiles, the follow graph and notifications.
type UserService struct {
	users         UserStore
	graph         FollowGraph
	notifications NotificationStore
	uploader      ImageUploader
	sanitizer     Sanitizer
	metrics       Recorder
}

// NewUserService creates a new UserService.
func NewUserService(d UserDeps) *UserService {
	return &UserService{
		users:         d.Users,
		graph:         d.Graph,
		notifications: d.Notifications,
		uploader:      d.Uploader,
		sanitizer:     d.Sanitizer,
		metrics:       recorderOrNop(d.Metrics),
	}
}

// GetUser returns the user with following, followers, followed tags and posts populated.
func (s *UserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetWithRelations(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return user, nil
}

// UpdateUser applies the provided fields and returns the stored result.
// avatar holds a replacement image and may be empty.
func (s *UserService) UpdateUser(ctx context.Context, userID string, req model.UpdateUserRequest, avatar []byte) (*model.User, error) {
	var upd model.UserUpdate
	if req.Name != nil {
		name := s.sanitizer.Text(*req.Name)
		if name == "" {
			return nil, ErrInvalidInput
		}
		upd.Name = &name
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email == "" {
			return nil, ErrInvalidInput
		}
		upd.Email = &email
	}
	if req.Bio != nil {
		bio := s.sanitizer.Text(*req.Bio)
		upd.Bio = &bio
	}
	if len(avatar) > 0 {
		url, err := uploadImage(ctx, s.uploader, avatarPrefix, avatar)
		if err != nil {
			return nil, err
		}
		upd.Avatar = &url
	}

	user, err := s.users.Update(ctx, userID, upd)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("updating user: %w", err)
	}
	return user, nil
}

// Follow makes userID follow followID and returns the follower's updated record.
// Every failure of the mutation, including unknown ids and self-follow, is ErrFollowFailed.
func (s *UserService) Follow(ctx context.Context, userID, followID string) (*model.User, error) {
	err := mutateEdge(ctx, userID, followID, s.graph.Follow)
	s.metrics.RecordFollow(metrics.FollowActionFollow, err == nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFollowFailed, err)
	}
	return s.reload(ctx, userID)
}

// Unfollow removes the edge userID -> followID and returns the follower's updated record.
func (s *UserService) Unfollow(ctx context.Context, userID, followID string) (*model.User, error) {
	err := mutateEdge(ctx, userID, followID, s.graph.Unfollow)
	s.metrics.RecordFollow(metrics.FollowActionUnfollow, err == nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnfollowFailed, err)
	}
	return s.reload(ctx, userID)
}

func mutateEdge(ctx context.Context, userID, followID string, mutate func(context.Context, string, string) error) error {
	if userID == "" || followID == "" {
		return ErrInvalidInput
	}
	return mutate(ctx, userID, followID)
}

// reload reads the follower back after a committed mutation. Its failure is
// not a follow failure: the edge is already stored.
func (s *UserService) reload(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetWithRelations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reloading user: %w", err)
	}
	return user, nil
}

// Notifications returns the newest notifications addressed to userID.
func (s *UserService) Notifications(ctx context.Context, userID string) ([]model.Notification, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}

	list, err := s.notifications.ListForUser(ctx, userID, notificationLimit)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return list, nil
}
