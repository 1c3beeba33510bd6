package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/devcircle/devcircle-go/internal/model"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

const userColumns = `id, name, email, password, bio, avatar, created_at, updated_at`

// UserRepository handles user persistence operations.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user. An empty ID is replaced by a fresh UUID and the
// timestamps are set on the user struct.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	ts := now()
	user.CreatedAt, user.UpdatedAt = ts, ts

	query := `INSERT INTO users (` + userColumns + `)
		VALUES (:id, :name, :email, :password, :bio, :avatar, :created_at, :updated_at)`

	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return getUser(ctx, r.db, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return getUser(ctx, r.db, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetWithRelations retrieves a user by ID with following, followers, followed
// tags and authored posts populated.
func (r *UserRepository) GetWithRelations(ctx context.Context, id string) (*model.User, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if user.Following, err = followingOf(ctx, r.db, id); err != nil {
		return nil, err
	}
	if user.Followers, err = followersOf(ctx, r.db, id); err != nil {
		return nil, err
	}
	if user.FollowedTags, err = followedTags(ctx, r.db, id); err != nil {
		return nil, err
	}
	if user.Posts, err = postsByAuthor(ctx, r.db, id); err != nil {
		return nil, err
	}
	return user, nil
}

// FollowedTags returns the tags the user follows, ordered by name.
func (r *UserRepository) FollowedTags(ctx context.Context, userID string) ([]model.Tag, error) {
	return followedTags(ctx, r.db, userID)
}

// Update applies the non-nil fields of upd and returns the user as stored
// afterwards. The write and the read happen in one transaction. An empty
// update only reads the user.
func (r *UserRepository) Update(ctx context.Context, id string, upd model.UserUpdate) (*model.User, error) {
	if upd.Empty() {
		return r.GetByID(ctx, id)
	}

	var updated *model.User
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		sets, args := updateAssignments(upd)
		sets = append(sets, "updated_at = ?")
		args = append(args, now(), id)
		query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isDuplicateEntryError(err) {
				return ErrDuplicateEmail
			}
			return fmt.Errorf("updating user: %w", err)
		}

		u, err := getUser(ctx, tx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
		if err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func updateAssignments(upd model.UserUpdate) ([]string, []any) {
	var (
		sets []string
		args []any
	)
	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *upd.Email)
	}
	if upd.Bio != nil {
		sets = append(sets, "bio = ?")
		args = append(args, *upd.Bio)
	}
	if upd.Avatar != nil {
		sets = append(sets, "avatar = ?")
		args = append(args, *upd.Avatar)
	}
	return sets, args
}

func getUser(ctx context.Context, q dbtx, query string, arg any) (*model.User, error) {
	user := &model.User{}
	if err := sqlx.GetContext(ctx, q, user, query, arg); err != nil {
		if isNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return user, nil
}

// countUsers returns how many of the given ids exist.
func countUsers(ctx context.Context, q dbtx, ids ...string) (int, error) {
	query, args, err := sqlx.In(`SELECT COUNT(*) FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return 0, err
	}
	var n int
	if err := sqlx.GetContext(ctx, q, &n, q.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}
