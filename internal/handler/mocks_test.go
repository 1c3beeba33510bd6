package handler

import (
	"context"
	"errors"

	"github.com/stretchr/testify/mock"

	"github.com/devcircle/devcircle-go/internal/model"
)

type mockAuth struct {
	mock.Mock
}

func (m *mockAuth) Signup(ctx context.Context, req model.SignupRequest, avatar []byte) (model.AuthUser, error) {
	args := m.Called(ctx, req, avatar)
	return args.Get(0).(model.AuthUser), args.Error(1)
}

func (m *mockAuth) Login(ctx context.Context, req model.LoginRequest) (model.LoginUser, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.LoginUser), args.Error(1)
}

func (m *mockAuth) GoogleLogin(ctx context.Context, idToken string) (model.AuthUser, error) {
	args := m.Called(ctx, idToken)
	return args.Get(0).(model.AuthUser), args.Error(1)
}

type mockUsers struct {
	mock.Mock
}

func userResult(args mock.Arguments) (*model.User, error) {
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockUsers) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return userResult(m.Called(ctx, userID))
}

func (m *mockUsers) UpdateUser(ctx context.Context, userID string, req model.UpdateUserRequest, avatar []byte) (*model.User, error) {
	return userResult(m.Called(ctx, userID, req, avatar))
}

func (m *mockUsers) Follow(ctx context.Context, userID, followID string) (*model.User, error) {
	return userResult(m.Called(ctx, userID, followID))
}

func (m *mockUsers) Unfollow(ctx context.Context, userID, followID string) (*model.User, error) {
	return userResult(m.Called(ctx, userID, followID))
}

func (m *mockUsers) Notifications(ctx context.Context, userID string) ([]model.Notification, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]model.Notification)
	return list, args.Error(1)
}

type mockPosts struct {
	mock.Mock
}

func (m *mockPosts) Create(ctx context.Context, authorID string, req model.CreatePostRequest, image []byte) (*model.Post, error) {
	args := m.Called(ctx, authorID, req, image)
	p, _ := args.Get(0).(*model.Post)
	return p, args.Error(1)
}

type mockTags struct {
	mock.Mock
}

func (m *mockTags) Get(ctx context.Context, name string) (model.TagWithPosts, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(model.TagWithPosts), args.Error(1)
}

func (m *mockTags) List(ctx context.Context, names []string) ([]model.TagWithPosts, error) {
	args := m.Called(ctx, names)
	list, _ := args.Get(0).([]model.TagWithPosts)
	return list, args.Error(1)
}

func (m *mockTags) Follow(ctx context.Context, userID, name string) ([]model.Tag, error) {
	args := m.Called(ctx, userID, name)
	list, _ := args.Get(0).([]model.Tag)
	return list, args.Error(1)
}

func (m *mockTags) Unfollow(ctx context.Context, userID, name string) ([]model.Tag, error) {
	args := m.Called(ctx, userID, name)
	list, _ := args.Get(0).([]model.Tag)
	return list, args.Error(1)
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

var errBoom = errors.New("boom")
