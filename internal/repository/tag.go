package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/devcircle/devcircle-go/internal/model"
)

// mysqlNoReferencedRow is the server error number for a failed foreign key insert.
const mysqlNoReferencedRow = 1452

var ErrTagNotFound = errors.New("tag not found")

// TagRepository handles tags, their posts and the tags users follow.
type TagRepository struct {
	db *sqlx.DB
}

// NewTagRepository creates a new TagRepository.
func NewTagRepository(db *sqlx.DB) *TagRepository {
	return &TagRepository{db: db}
}

// GetByName returns the tag with the given name and up to postLimit of its newest posts.
func (r *TagRepository) GetByName(ctx context.Context, name string, postLimit int) (*model.Tag, []model.Post, error) {
	tag := &model.Tag{}
	if err := sqlx.GetContext(ctx, r.db, tag, `SELECT id, name FROM tags WHERE name = ?`, name); err != nil {
		if isNoRows(err) {
			return nil, nil, ErrTagNotFound
		}
		return nil, nil, fmt.Errorf("querying tag: %w", err)
	}
	posts, err := postsByTag(ctx, r.db, tag.ID, postLimit)
	if err != nil {
		return nil, nil, err
	}
	return tag, posts, nil
}

// List returns tags ordered by name. A non-empty names restricts the result to those tags.
func (r *TagRepository) List(ctx context.Context, names []string) ([]model.Tag, error) {
	tags := []model.Tag{}
	if len(names) == 0 {
		if err := sqlx.SelectContext(ctx, r.db, &tags, `SELECT id, name FROM tags ORDER BY name`); err != nil {
			return nil, fmt.Errorf("listing tags: %w", err)
		}
		return tags, nil
	}

	query, args, err := sqlx.In(`SELECT id, name FROM tags WHERE name IN (?) ORDER BY name`, names)
	if err != nil {
		return nil, err
	}
	if err := sqlx.SelectContext(ctx, r.db, &tags, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	return tags, nil
}

// PostsByTag returns up to limit of the newest posts carrying the tag.
func (r *TagRepository) PostsByTag(ctx context.Context, tagID string, limit int) ([]model.Post, error) {
	return postsByTag(ctx, r.db, tagID, limit)
}

// Follow makes userID follow the named tag. Following a tag twice is not an error.
// INSERT IGNORE would downgrade the foreign key error for an unknown user to a warning,
// so duplicates are absorbed with ON DUPLICATE KEY instead.
func (r *TagRepository) Follow(ctx context.Context, userID, name string) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO user_followed_tags (user_id, tag_id)
		SELECT ?, id FROM tags WHERE name = ?
		ON DUPLICATE KEY UPDATE tag_id = tag_id`, userID, name,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("following tag: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return r.requireTag(ctx, name)
	}
	return nil
}

// Unfollow removes the named tag from the tags userID follows.
func (r *TagRepository) Unfollow(ctx context.Context, userID, name string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE uft FROM user_followed_tags uft JOIN tags t ON t.id = uft.tag_id
		WHERE uft.user_id = ? AND t.name = ?`, userID, name,
	)
	if err != nil {
		return fmt.Errorf("unfollowing tag: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return r.requireTag(ctx, name)
	}
	return nil
}

// requireTag distinguishes a no-op mutation from a missing tag.
func (r *TagRepository) requireTag(ctx context.Context, name string) error {
	var exists int
	if err := sqlx.GetContext(ctx, r.db, &exists, `SELECT COUNT(*) FROM tags WHERE name = ?`, name); err != nil {
		return fmt.Errorf("querying tag: %w", err)
	}
	if exists == 0 {
		return ErrTagNotFound
	}
	return nil
}

// FollowedTags returns the tags userID follows, ordered by name.
func (r *TagRepository) FollowedTags(ctx context.Context, userID string) ([]model.Tag, error) {
	return followedTags(ctx, r.db, userID)
}

func followedTags(ctx context.Context, q dbtx, userID string) ([]model.Tag, error) {
	tags := []model.Tag{}
	if err := sqlx.SelectContext(ctx, q, &tags,
		`SELECT t.id, t.name FROM tags t JOIN user_followed_tags uft ON uft.tag_id = t.id
		WHERE uft.user_id = ? ORDER BY t.name`, userID,
	); err != nil {
		return nil, fmt.Errorf("querying followed tags: %w", err)
	}
	return tags, nil
}

// ensureTags creates any missing tags and returns all of them in the order given.
func ensureTags(ctx context.Context, tx *sqlx.Tx, names []string) ([]model.Tag, error) {
	if len(names) == 0 {
		return []model.Tag{}, nil
	}
	for _, name := range names {
		if _, err := tx.ExecContext(ctx,
			`INSERT IGNORE INTO tags (id, name) VALUES (?, ?)`, uuid.NewString(), name,
		); err != nil {
			return nil, fmt.Errorf("creating tag: %w", err)
		}
	}

	query, args, err := sqlx.In(`SELECT id, name FROM tags WHERE name IN (?)`, names)
	if err != nil {
		return nil, err
	}
	var found []model.Tag
	if err := sqlx.SelectContext(ctx, tx, &found, tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}

	byName := make(map[string]model.Tag, len(found))
	for _, t := range found {
		byName[t.Name] = t
	}
	tags := make([]model.Tag, 0, len(names))
	for _, name := range names {
		if t, ok := byName[name]; ok {
			tags = append(tags, t)
		}
	}
	return tags, nil
}

func isForeignKeyError(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlNoReferencedRow
}
