package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/devcircle/devcircle-go/internal/model"
	"github.com/devcircle/devcircle-go/internal/repository"
)

const tagPostLimit = 20

// TagService serves tag pages and the tags users follow.
type TagService struct {
	tags TagStore
}

// NewTagService creates a new TagService.
func NewTagService(tags TagStore) *TagService {
	return &TagService{tags: tags}
}

// Get returns the named tag with its newest posts.
func (s *TagService) Get(ctx context.Context, name string) (model.TagWithPosts, error) {
	name = normalizeTag(name)
	if name == "" {
		return model.TagWithPosts{}, ErrTagNotFound
	}

	tag, posts, err := s.tags.GetByName(ctx, name, tagPostLimit)
	if err != nil {
		if errors.Is(err, repository.ErrTagNotFound) {
			return model.TagWithPosts{}, ErrTagNotFound
		}
		return model.TagWithPosts{}, fmt.Errorf("getting tag: %w", err)
	}
	return model.TagWithPosts{ID: tag.ID, Name: tag.Name, Posts: model.PostsToResponse(posts)}, nil
}

// List returns tags with their newest posts. A non-empty names restricts the
// result to those tags; unknown names are skipped.
func (s *TagService) List(ctx context.Context, names []string) ([]model.TagWithPosts, error) {
	var filter []string
	for _, n := range names {
		if n = normalizeTag(n); n != "" {
			filter = append(filter, n)
		}
	}

	tags, err := s.tags.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	out := make([]model.TagWithPosts, 0, len(tags))
	for _, t := range tags {
		posts, err := s.tags.PostsByTag(ctx, t.ID, tagPostLimit)
		if err != nil {
			return nil, fmt.Errorf("listing posts for tag %q: %w", t.Name, err)
		}
		out = append(out, model.TagWithPosts{ID: t.ID, Name: t.Name, Posts: model.PostsToResponse(posts)})
	}
	return out, nil
}

// Follow adds the named tag to the user's followed tags and returns the full list.
func (s *TagService) Follow(ctx context.Context, userID, name string) ([]model.Tag, error) {
	return s.mutate(ctx, userID, name, s.tags.Follow)
}

// Unfollow removes the named tag from the user's followed tags and returns the full list.
func (s *TagService) Unfollow(ctx context.Context, userID, name string) ([]model.Tag, error) {
	return s.mutate(ctx, userID, name, s.tags.Unfollow)
}

func (s *TagService) mutate(ctx context.Context, userID, name string, fn func(context.Context, string, string) error) ([]model.Tag, error) {
	name = normalizeTag(name)
	if name == "" {
		return nil, ErrTagNotFound
	}

	if err := fn(ctx, userID, name); err != nil {
		switch {
		case errors.Is(err, repository.ErrTagNotFound):
			return nil, ErrTagNotFound
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("updating followed tags: %w", err)
	}

	tags, err := s.tags.FollowedTags(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading followed tags: %w", err)
	}
	return tags, nil
}
