package usecase

import "errors"

var (
	ErrToolUnavailable = errors.New("video tool unavailable")
	ErrNoValidImages   = errors.New("no valid images")
	ErrNoValidAudio    = errors.New("no valid audio")
	ErrLengthMismatch  = errors.New("images and durations differ in length")
	ErrNoScenes        = errors.New("story produced no scenes")
	ErrEmptyStory      = errors.New("story is empty after cleaning")
)
