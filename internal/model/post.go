package model

import "time"

// Post represents a blog post in the database.
type Post struct {
	ID        string    `db:"id"`
	AuthorID  string    `db:"author_id"`
	Title     string    `db:"title"`
	Body      string    `db:"body"`
	Image     string    `db:"image"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	Tags []Tag
}

// CreatePostRequest represents a new post submitted by the authenticated author.
type CreatePostRequest struct {
	Title string   `validate:"required,min=3,max=200"`
	Body  string   `validate:"required,max=100000"`
	Tags  []string `validate:"max=4,dive,min=1,max=30"`
}

// PostResponse is the public view of a post.
type PostResponse struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Image     string    `json:"image,omitempty"`
	Tags      []Tag     `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewPostResponse builds the public view of p.
func NewPostResponse(p *Post) PostResponse {
	return PostResponse{
		ID:        p.ID,
		Author:    p.AuthorID,
		Title:     p.Title,
		Body:      p.Body,
		Image:     p.Image,
		Tags:      nonNilTags(p.Tags),
		CreatedAt: p.CreatedAt,
	}
}

// PostsToResponse converts a slice of Post to a slice of PostResponse.
func PostsToResponse(posts []Post) []PostResponse {
	result := make([]PostResponse, len(posts))
	for i := range posts {
		result[i] = NewPostResponse(&posts[i])
	}
	return result
}
