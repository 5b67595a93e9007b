package storage

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrPollNotFound      = errors.New("poll not found")
	ErrOptionNotFound    = errors.New("option not found")
	ErrAlreadyVoted      = errors.New("vote already recorded for this poll")
	ErrTokenNotFound     = errors.New("token not found")
)
