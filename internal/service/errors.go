package service

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("email already taken")
	ErrUnknownEmail       = errors.New("no user with that email")
	ErrWrongPassword      = errors.New("wrong password")
	ErrIdentityUnverified = errors.New("identity could not be verified")
	ErrFollowFailed       = errors.New("follow failed")
	ErrUnfollowFailed     = errors.New("unfollow failed")
	ErrUserNotFound       = errors.New("user not found")
	ErrTagNotFound        = errors.New("tag not found")
)
