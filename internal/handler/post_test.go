package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/devcircle/devcircle-go/internal/model"
	"github.com/devcircle/devcircle-go/internal/service"
)

func TestHandleCreatePost(t *testing.T) {
	svc := &mockPosts{}
	img := pngBytes()
	want := model.CreatePostRequest{Title: "Hello", Body: "<p>World</p>", Tags: []string{"go", "web"}}
	svc.On("Create", mock.Anything, userA, want, img).Return(&model.Post{
		ID:        "p1",
		AuthorID:  userA,
		Title:     "Hello",
		Body:      "<p>World</p>",
		Image:     "https://cdn.example/posts/p1.png",
		Tags:      []model.Tag{{ID: "t1", Name: "go"}, {ID: "t2", Name: "web"}},
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}, nil)
	h := NewPostHandler(svc, testMaxUpload)

	req := asUser(multipartRequest(t, http.MethodPost, "/posts",
		map[string]string{"title": "Hello", "body": "<p>World</p>", "tags": "go, web", "author": userA},
		formFile{field: "image", name: "p.png", data: img},
	), userA)
	rr := serve("/posts", http.MethodPost, h.HandleCreatePost, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	post := decodeBody(t, rr)["post"].(map[string]any)
	assert.Equal(t, "p1", post["id"])
	assert.Equal(t, userA, post["author"])
	assert.Equal(t, "https://cdn.example/posts/p1.png", post["image"])
	assert.Len(t, post["tags"], 2)
	svc.AssertExpectations(t)
}

func TestHandleCreatePost_Rejections(t *testing.T) {
	fields := map[string]string{"title": "Hello", "body": "World"}

	tests := []struct {
		name       string
		req        func(t *testing.T) *http.Request
		wantStatus int
	}{
		{
			name: "unauthenticated",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, http.MethodPost, "/posts", fields)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "json body",
			req: func(t *testing.T) *http.Request {
				return asUser(jsonRequest(t, http.MethodPost, "/posts", fields), userA)
			},
			wantStatus: http.StatusUnsupportedMediaType,
		},
		{
			name: "someone else's author id",
			req: func(t *testing.T) *http.Request {
				return asUser(multipartRequest(t, http.MethodPost, "/posts",
					map[string]string{"title": "Hello", "body": "World", "author": userB}), userA)
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name: "too many tags",
			req: func(t *testing.T) *http.Request {
				return asUser(multipartRequest(t, http.MethodPost, "/posts",
					map[string]string{"title": "Hello", "body": "World", "tags": "a,b,c,d,e"}), userA)
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "missing title",
			req: func(t *testing.T) *http.Request {
				return asUser(multipartRequest(t, http.MethodPost, "/posts",
					map[string]string{"body": "World"}), userA)
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "image too large",
			req: func(t *testing.T) *http.Request {
				return asUser(multipartRequest(t, http.MethodPost, "/posts", fields,
					formFile{field: "image", name: "big.png", data: make([]byte, testMaxUpload+1)}), userA)
			},
			wantStatus: http.StatusRequestEntityTooLarge,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockPosts{}
			h := NewPostHandler(svc, testMaxUpload)

			rr := serve("/posts", http.MethodPost, h.HandleCreatePost, tt.req(t))

			assert.Equal(t, tt.wantStatus, rr.Code)
			svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandleCreatePost_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid", service.ErrInvalidInput, http.StatusUnprocessableEntity},
		{"ghost author", service.ErrUserNotFound, http.StatusNotFound},
		{"internal", errBoom, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockPosts{}
			svc.On("Create", mock.Anything, userA, mock.Anything, mock.Anything).Return(nil, tt.err)
			h := NewPostHandler(svc, testMaxUpload)

			req := asUser(multipartRequest(t, http.MethodPost, "/posts",
				map[string]string{"title": "Hello", "body": "World"}), userA)
			rr := serve("/posts", http.MethodPost, h.HandleCreatePost, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}
