package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/devcircle/devcircle-go/internal/model"
	"github.com/devcircle/devcircle-go/internal/repository"
)

const (
	postImagePrefix = "posts"
	maxPostTags     = 4
)

// PostService creates posts.
type PostService struct {
	posts     PostStore
	uploader  ImageUploader
	sanitizer Sanitizer
	metrics   Recorder
}

// NewPostService creates a new PostService.
func NewPostService(posts PostStore, uploader ImageUploader, sanitizer Sanitizer, rec Recorder) *PostService {
	return &PostService{
		posts:     posts,
		uploader:  uploader,
		sanitizer: sanitizer,
		metrics:   recorderOrNop(rec),
	}
}

// Create stores a post written by authorID. Tags are lowercased and
// deduplicated; image holds the optional cover image bytes.
func (s *PostService) Create(ctx context.Context, authorID string, req model.CreatePostRequest, image []byte) (*model.Post, error) {
	title := s.sanitizer.Text(req.Title)
	body := strings.TrimSpace(s.sanitizer.HTML(req.Body))
	if title == "" || body == "" {
		return nil, ErrInvalidInput
	}

	tags, err := NormalizeTags(req.Tags)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		AuthorID: authorID,
		Title:    title,
		Body:     body,
	}
	if len(image) > 0 {
		if post.Image, err = uploadImage(ctx, s.uploader, postImagePrefix, image); err != nil {
			return nil, err
		}
	}

	if err := s.posts.Create(ctx, post, tags); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.metrics.RecordPostCreated()
	return post, nil
}

// NormalizeTags trims, lowercases and deduplicates tag names, keeping first
// occurrence order. Empty names are dropped.
func NormalizeTags(names []string) ([]string, error) {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = normalizeTag(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	if len(out) > maxPostTags {
		return nil, fmt.Errorf("%w: at most %d tags", ErrInvalidInput, maxPostTags)
	}
	return out, nil
}

func normalizeTag(name string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), "#")))
}
