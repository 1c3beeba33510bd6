package model

// Tag represents a topic label shared by posts.
type Tag struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// TagWithPosts is a tag together with the posts carrying it, newest first.
type TagWithPosts struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Posts []PostResponse `json:"posts"`
}

// TagResponse wraps a single tag lookup.
type TagResponse struct {
	Tag TagWithPosts `json:"tag"`
}

// TagListResponse wraps a list of tags.
type TagListResponse struct {
	Tags []TagWithPosts `json:"tags"`
}

// FollowedTagsResponse lists the tags a user follows.
type FollowedTagsResponse struct {
	Tags []Tag `json:"tags"`
}
