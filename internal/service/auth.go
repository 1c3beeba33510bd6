package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/devcircle/devcircle-go/internal/metrics"
	"github.com/devcircle/devcircle-go/internal/model"
	"github.com/devcircle/devcircle-go/internal/repository"
	"github.com/devcircle/devcircle-go/internal/storage"
)

const avatarPrefix = "avatars"

// AuthDeps are the collaborators of an AuthService.
type AuthDeps struct {
	Users            UserStore
	Hasher           PasswordHasher
	Tokens           TokenIssuer
	Verifier         IdentityVerifier
	Uploader         ImageUploader
	Sanitizer        Sanitizer
	Metrics          Recorder
	DefaultAvatarURL string
}

// AuthService handles signup, local login and Google login.
type AuthService struct {
	users         UserStore
	hasher        PasswordHasher
	tokens        TokenIssuer
	verifier      IdentityVerifier
	uploader      ImageUploader
	sanitizer     Sanitizer
	metrics       Recorder
	defaultAvatar string
}

// NewAuthService creates a new AuthService.
func NewAuthService(d AuthDeps) *AuthService {
	return &AuthService{
		users:         d.Users,
		hasher:        d.Hasher,
		tokens:        d.Tokens,
		verifier:      d.Verifier,
		uploader:      d.Uploader,
		sanitizer:     d.Sanitizer,
		metrics:       recorderOrNop(d.Metrics),
		defaultAvatar: d.DefaultAvatarURL,
	}
}

// Signup creates a local account and returns it with a fresh token.
// avatar holds the uploaded image bytes and may be empty.
func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest, avatar []byte) (model.AuthUser, error) {
	name := s.sanitizer.Text(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return model.AuthUser{}, ErrInvalidInput
	}

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return model.AuthUser{}, ErrEmailTaken
	case !errors.Is(err, repository.ErrUserNotFound):
		return model.AuthUser{}, fmt.Errorf("looking up email: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.AuthUser{}, err
	}

	avatarURL, err := s.avatarURL(ctx, avatar)
	if err != nil {
		return model.AuthUser{}, err
	}

	user := &model.User{
		Name:     name,
		Email:    email,
		Password: hash,
		Avatar:   avatarURL,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.AuthUser{}, ErrEmailTaken
		}
		return model.AuthUser{}, err
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return model.AuthUser{}, fmt.Errorf("issuing token: %w", err)
	}

	s.metrics.RecordSignup(metrics.LoginProviderLocal)
	return newAuthUser(user, token), nil
}

// Login authenticates a local account. An unknown email and a wrong password
// are reported as different errors.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.LoginUser, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.RecordLogin(metrics.LoginProviderLocal, metrics.LoginUnknownEmail)
			return model.LoginUser{}, ErrUnknownEmail
		}
		s.metrics.RecordLogin(metrics.LoginProviderLocal, metrics.LoginError)
		return model.LoginUser{}, fmt.Errorf("looking up email: %w", err)
	}

	match, err := s.hasher.Verify(req.Password, user.Password)
	if err != nil {
		s.metrics.RecordLogin(metrics.LoginProviderLocal, metrics.LoginError)
		return model.LoginUser{}, err
	}
	if !match {
		s.metrics.RecordLogin(metrics.LoginProviderLocal, metrics.LoginWrongPassword)
		return model.LoginUser{}, ErrWrongPassword
	}

	tags, err := s.users.FollowedTags(ctx, user.ID)
	if err != nil {
		s.metrics.RecordLogin(metrics.LoginProviderLocal, metrics.LoginError)
		return model.LoginUser{}, fmt.Errorf("loading followed tags: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.metrics.RecordLogin(metrics.LoginProviderLocal, metrics.LoginError)
		return model.LoginUser{}, fmt.Errorf("issuing token: %w", err)
	}

	s.metrics.RecordLogin(metrics.LoginProviderLocal, metrics.LoginSuccess)
	return model.LoginUser{AuthUser: newAuthUser(user, token), Tags: nonNilTags(tags)}, nil
}

// GoogleLogin signs in with a Google ID token, creating the account on first use.
// Tokens that fail verification or carry an unverified email are rejected.
func (s *AuthService) GoogleLogin(ctx context.Context, idToken string) (model.AuthUser, error) {
	id, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		s.metrics.RecordLogin(metrics.LoginProviderGoogle, metrics.LoginError)
		return model.AuthUser{}, fmt.Errorf("%w: %w", ErrIdentityUnverified, err)
	}
	email := normalizeEmail(id.Email)
	if !id.EmailVerified || email == "" {
		s.metrics.RecordLogin(metrics.LoginProviderGoogle, metrics.LoginError)
		return model.AuthUser{}, ErrIdentityUnverified
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		user, err = s.createGoogleUser(ctx, email, id.Name, id.Picture)
	}
	if err != nil {
		s.metrics.RecordLogin(metrics.LoginProviderGoogle, metrics.LoginError)
		return model.AuthUser{}, err
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.metrics.RecordLogin(metrics.LoginProviderGoogle, metrics.LoginError)
		return model.AuthUser{}, fmt.Errorf("issuing token: %w", err)
	}

	s.metrics.RecordLogin(metrics.LoginProviderGoogle, metrics.LoginSuccess)
	return newAuthUser(user, token), nil
}

func (s *AuthService) createGoogleUser(ctx context.Context, email, name, picture string) (*model.User, error) {
	name = s.sanitizer.Text(name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	// Google accounts never log in with a password; this one only fills the column.
	hash, err := s.hasher.Hash(email + name + email)
	if err != nil {
		return nil, err
	}

	avatar := picture
	if avatar == "" {
		avatar = s.defaultAvatar
	}

	user := &model.User{
		Name:     name,
		Email:    email,
		Password: hash,
		Avatar:   avatar,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// Lost a race with a concurrent first login.
			return s.users.GetByEmail(ctx, email)
		}
		return nil, err
	}

	s.metrics.RecordSignup(metrics.LoginProviderGoogle)
	return user, nil
}

func (s *AuthService) avatarURL(ctx context.Context, avatar []byte) (string, error) {
	if len(avatar) == 0 {
		return s.defaultAvatar, nil
	}
	return uploadImage(ctx, s.uploader, avatarPrefix, avatar)
}

// uploadImage stores data and maps rejected images to ErrInvalidInput.
func uploadImage(ctx context.Context, uploader ImageUploader, prefix string, data []byte) (string, error) {
	url, err := uploader.Upload(ctx, prefix, data)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImage) || errors.Is(err, storage.ErrEmptyImage) {
			return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return "", fmt.Errorf("uploading image: %w", err)
	}
	return url, nil
}

func newAuthUser(u *model.User, token string) model.AuthUser {
	return model.AuthUser{
		Name:   u.Name,
		UserID: u.ID,
		Email:  u.Email,
		Token:  token,
		Bio:    u.Bio,
		Avatar: u.Avatar,
	}
}

func nonNilTags(tags []model.Tag) []model.Tag {
	if tags == nil {
		return []model.Tag{}
	}
	return tags
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
