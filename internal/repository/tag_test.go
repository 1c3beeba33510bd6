package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devcircle/devcircle-go/internal/model"
)

func TestTagRepositoryGetByNameNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTagRepository(db)

	mock.ExpectQuery("SELECT id, name FROM tags WHERE name = \\?").
		WithArgs("rust").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, _, err := repo.GetByName(context.Background(), "rust", 10)
	assert.ErrorIs(t, err, ErrTagNotFound)
}

func TestTagRepositoryGetByName(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTagRepository(db)
	ts := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, name FROM tags WHERE name = \\?").
		WithArgs("go").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("t1", "go"))
	mock.ExpectQuery("JOIN post_tags pt ON pt.post_id = p.id").
		WithArgs("t1", 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "author_id", "title", "body", "image", "created_at", "updated_at"}).
			AddRow("p1", "u1", "Hello", "body", "", ts, ts))
	mock.ExpectQuery("FROM post_tags pt JOIN tags t").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"post_id", "id", "name"}).AddRow("p1", "t1", "go"))

	tag, posts, err := repo.GetByName(context.Background(), "go", 10)
	require.NoError(t, err)
	assert.Equal(t, &model.Tag{ID: "t1", Name: "go"}, tag)
	require.Len(t, posts, 1)
	assert.Equal(t, []model.Tag{{ID: "t1", Name: "go"}}, posts[0].Tags)
}

func TestTagRepositoryListByNames(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTagRepository(db)

	mock.ExpectQuery("SELECT id, name FROM tags WHERE name IN \\(\\?, \\?\\)").
		WithArgs("news", "webdev").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("t2", "news"))

	tags, err := repo.List(context.Background(), []string{"news", "webdev"})
	require.NoError(t, err)
	assert.Equal(t, []model.Tag{{ID: "t2", Name: "news"}}, tags)
}

const followTagExec = "INSERT INTO user_followed_tags \\(user_id, tag_id\\)\\s+SELECT \\?, id FROM tags WHERE name = \\?\\s+ON DUPLICATE KEY UPDATE tag_id = tag_id"

func TestTagRepositoryFollow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTagRepository(db)

	mock.ExpectExec(followTagExec).
		WithArgs("u1", "go").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Follow(context.Background(), "u1", "go"))
}

func TestTagRepositoryFollowUnknownTag(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTagRepository(db)

	mock.ExpectExec(followTagExec).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM tags WHERE name = \\?").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	assert.ErrorIs(t, repo.Follow(context.Background(), "u1", "nope"), ErrTagNotFound)
}

func TestTagRepositoryFollowUnknownUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTagRepository(db)

	mock.ExpectExec(followTagExec).
		WillReturnError(&mysql.MySQLError{Number: 1452})

	assert.ErrorIs(t, repo.Follow(context.Background(), "ghost", "go"), ErrUserNotFound)
}

func TestTagRepositoryFollowTwiceIsNoop(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTagRepository(db)

	mock.ExpectExec(followTagExec).
		WithArgs("u1", "go").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM tags WHERE name = \\?").
		WithArgs("go").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	require.NoError(t, repo.Follow(context.Background(), "u1", "go"))
}

func TestTagRepositoryUnfollowNotFollowedIsNoop(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTagRepository(db)

	mock.ExpectExec("DELETE uft FROM user_followed_tags").
		WithArgs("u1", "go").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM tags WHERE name = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	require.NoError(t, repo.Unfollow(context.Background(), "u1", "go"))
}
