package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/devcircle/devcircle-go/internal/model"
)

const postColumns = `id, author_id, title, body, image, created_at, updated_at`

// PostRepository handles post persistence operations.
type PostRepository struct {
	db *sqlx.DB
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(db *sqlx.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a post and links it to the named tags, creating tags that do
// not exist yet. The post's ID, timestamps and Tags are set on success.
func (r *PostRepository) Create(ctx context.Context, post *model.Post, tagNames []string) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	ts := now()
	post.CreatedAt, post.UpdatedAt = ts, ts

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `INSERT INTO posts (` + postColumns + `)
			VALUES (:id, :author_id, :title, :body, :image, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, post); err != nil {
			if isForeignKeyError(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("inserting post: %w", err)
		}

		tags, err := ensureTags(ctx, tx, tagNames)
		if err != nil {
			return err
		}
		for _, tag := range tags {
			if _, err := tx.ExecContext(ctx,
				`INSERT IGNORE INTO post_tags (post_id, tag_id) VALUES (?, ?)`, post.ID, tag.ID,
			); err != nil {
				return fmt.Errorf("linking post tag: %w", err)
			}
		}
		post.Tags = tags
		return nil
	})
}

func postsByAuthor(ctx context.Context, q dbtx, authorID string) ([]model.Post, error) {
	posts := []model.Post{}
	if err := sqlx.SelectContext(ctx, q, &posts,
		`SELECT `+postColumns+` FROM posts WHERE author_id = ? ORDER BY created_at DESC, id`, authorID,
	); err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	if err := attachTags(ctx, q, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func postsByTag(ctx context.Context, q dbtx, tagID string, limit int) ([]model.Post, error) {
	posts := []model.Post{}
	if err := sqlx.SelectContext(ctx, q, &posts,
		`SELECT p.id, p.author_id, p.title, p.body, p.image, p.created_at, p.updated_at
		FROM posts p JOIN post_tags pt ON pt.post_id = p.id
		WHERE pt.tag_id = ? ORDER BY p.created_at DESC, p.id LIMIT ?`, tagID, limit,
	); err != nil {
		return nil, fmt.Errorf("querying tag posts: %w", err)
	}
	if err := attachTags(ctx, q, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

type postTagRow struct {
	PostID string `db:"post_id"`
	ID     string `db:"id"`
	Name   string `db:"name"`
}

// attachTags loads the tags of all posts with a single query.
func attachTags(ctx context.Context, q dbtx, posts []model.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]string, len(posts))
	byID := make(map[string]int, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
		byID[posts[i].ID] = i
		posts[i].Tags = []model.Tag{}
	}

	query, args, err := sqlx.In(
		`SELECT pt.post_id, t.id, t.name FROM post_tags pt JOIN tags t ON t.id = pt.tag_id
		WHERE pt.post_id IN (?) ORDER BY t.name`, ids)
	if err != nil {
		return err
	}
	var rows []postTagRow
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return fmt.Errorf("querying post tags: %w", err)
	}
	for _, row := range rows {
		if i, ok := byID[row.PostID]; ok {
			posts[i].Tags = append(posts[i].Tags, model.Tag{ID: row.ID, Name: row.Name})
		}
	}
	return nil
}
