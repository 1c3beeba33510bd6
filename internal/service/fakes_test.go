package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/devcircle/devcircle-go/internal/identity"
	"github.com/devcircle/devcircle-go/internal/model"
	"github.com/devcircle/devcircle-go/internal/repository"
)

type edge struct{ from, to string }

// memStore is an in-memory user directory, follow graph and notification store.
type memStore struct {
	mu            sync.Mutex
	users         map[string]*model.User
	follows       map[edge]time.Time
	notifications map[edge]model.Notification
	followedTags  map[string][]model.Tag
	creates       int
	failFollow    error
	failRelations error
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[string]*model.User{},
		follows:       map[edge]time.Time{},
		notifications: map[edge]model.Notification{},
		followedTags:  map[string][]model.Tag{},
	}
}

func (m *memStore) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	m.users[user.ID] = &cp
	m.creates++
	return nil
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memStore) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetWithRelations(ctx context.Context, id string) (*model.User, error) {
	if m.failRelations != nil {
		return nil, m.failRelations
	}
	u, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Following, u.Followers = []string{}, []string{}
	for e := range m.follows {
		if e.from == id {
			u.Following = append(u.Following, e.to)
		}
		if e.to == id {
			u.Followers = append(u.Followers, e.from)
		}
	}
	sort.Strings(u.Following)
	sort.Strings(u.Followers)
	u.FollowedTags = append([]model.Tag{}, m.followedTags[id]...)
	u.Posts = []model.Post{}
	return u, nil
}

func (m *memStore) FollowedTags(_ context.Context, userID string) ([]model.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Tag{}, m.followedTags[userID]...), nil
}

func (m *memStore) Update(_ context.Context, id string, upd model.UserUpdate) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	if upd.Email != nil {
		for _, other := range m.users {
			if other.ID != id && other.Email == *upd.Email {
				return nil, repository.ErrDuplicateEmail
			}
		}
		u.Email = *upd.Email
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	if upd.Avatar != nil {
		u.Avatar = *upd.Avatar
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) Follow(_ context.Context, followerID, followeeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkEdge(followerID, followeeID); err != nil {
		return err
	}
	e := edge{followerID, followeeID}
	if _, ok := m.follows[e]; !ok {
		m.follows[e] = time.Now()
	}
	m.notifications[e] = model.Notification{
		ID:         uuid.NewString(),
		Kind:       model.NotificationFollow,
		SenderID:   followerID,
		ReceiverID: followeeID,
		CreatedAt:  time.Now().UTC(),
	}
	return nil
}

func (m *memStore) Unfollow(_ context.Context, followerID, followeeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkEdge(followerID, followeeID); err != nil {
		return err
	}
	e := edge{followerID, followeeID}
	delete(m.follows, e)
	delete(m.notifications, e)
	return nil
}

func (m *memStore) checkEdge(followerID, followeeID string) error {
	if m.failFollow != nil {
		return m.failFollow
	}
	if followerID == followeeID {
		return repository.ErrSelfFollow
	}
	if m.users[followerID] == nil || m.users[followeeID] == nil {
		return repository.ErrUserNotFound
	}
	return nil
}

func (m *memStore) ListForUser(_ context.Context, userID string, limit int) ([]model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Notification{}
	for _, n := range m.notifications {
		if n.ReceiverID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) addUser(name, email string) *model.User {
	u := &model.User{Name: name, Email: email, Password: "x"}
	if err := m.Create(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Verify(ctx context.Context, idToken string) (*identity.Identity, error) {
	args := m.Called(ctx, idToken)
	id, _ := args.Get(0).(*identity.Identity)
	return id, args.Error(1)
}

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) Upload(ctx context.Context, prefix string, data []byte) (string, error) {
	args := m.Called(ctx, prefix, data)
	return args.String(0), args.Error(1)
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordSignup(provider string)        { m.Called(provider) }
func (m *mockRecorder) RecordLogin(provider, result string) { m.Called(provider, result) }
func (m *mockRecorder) RecordFollow(action string, ok bool) { m.Called(action, ok) }
func (m *mockRecorder) RecordPostCreated()                  { m.Called() }
