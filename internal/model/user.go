package model

import "time"

// User represents a user in the database.
type User struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Password  string    `db:"password"`
	Bio       string    `db:"bio"`
	Avatar    string    `db:"avatar"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	// Relations, populated only by lookups that ask for them.
	Following    []string
	Followers    []string
	FollowedTags []Tag
	Posts        []Post
}

// UserUpdate carries the fields of a partial profile update. Nil fields are left untouched.
type UserUpdate struct {
	Name   *string
	Email  *string
	Bio    *string
	Avatar *string
}

// Empty reports whether the update sets no field at all.
func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.Email == nil && u.Bio == nil && u.Avatar == nil
}

// SignupRequest represents a local account registration.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// GoogleLoginRequest carries the ID token obtained by the client from Google Sign-In.
type GoogleLoginRequest struct {
	TokenID string `json:"tokenId" validate:"required"`
}

// UpdateUserRequest represents a partial profile update. Password changes are not accepted here.
type UpdateUserRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Email *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Bio   *string `json:"bio,omitempty" validate:"omitempty,max=2000"`
}

// FollowRequest names the acting user and the user to (un)follow.
type FollowRequest struct {
	UserID   string `json:"userId" validate:"required,uuid"`
	FollowID string `json:"followId" validate:"required,uuid"`
}

// AuthUser is the user payload returned by signup, login and google-login.
// It never includes the password hash.
type AuthUser struct {
	Name   string `json:"name"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Token  string `json:"token"`
	Bio    string `json:"bio"`
	Avatar string `json:"avatar"`
}

// AuthResponse wraps the authenticated user.
type AuthResponse struct {
	User AuthUser `json:"user"`
}

// LoginUser is the login payload: the authenticated user plus the tags they follow.
type LoginUser struct {
	AuthUser
	Tags []Tag `json:"tags"`
}

// LoginResponse wraps a LoginUser.
type LoginResponse struct {
	User LoginUser `json:"user"`
}

// ProfileResponse is returned by a profile update.
type ProfileResponse struct {
	User UserSummary `json:"user"`
}

// UserSummary is the subset of a user returned after an update.
type UserSummary struct {
	Name   string `json:"name"`
	UserID string `json:"userId"`
	Bio    string `json:"bio"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

// UserDetail is the full public view of a user with its relations populated.
type UserDetail struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Bio          string         `json:"bio"`
	Avatar       string         `json:"avatar"`
	Following    []string       `json:"following"`
	Followers    []string       `json:"followers"`
	FollowedTags []Tag          `json:"followedTags"`
	Posts        []PostResponse `json:"posts"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// UserDetailResponse wraps a UserDetail.
type UserDetailResponse struct {
	User UserDetail `json:"user"`
}

// NewUserDetail builds the public view of u. Nil relation slices become empty arrays.
func NewUserDetail(u *User) UserDetail {
	posts := make([]PostResponse, len(u.Posts))
	for i := range u.Posts {
		posts[i] = NewPostResponse(&u.Posts[i])
	}
	return UserDetail{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Bio:          u.Bio,
		Avatar:       u.Avatar,
		Following:    nonNilStrings(u.Following),
		Followers:    nonNilStrings(u.Followers),
		FollowedTags: nonNilTags(u.FollowedTags),
		Posts:        posts,
		CreatedAt:    u.CreatedAt,
	}
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilTags(t []Tag) []Tag {
	if t == nil {
		return []Tag{}
	}
	return t
}
