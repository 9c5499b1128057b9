package models

import "errors"

// Program errors raised by account state transitions.
var (
	ErrImageNotFound        = errors.New("image not found")
	ErrTooManyImages        = errors.New("too many images")
	ErrInvalidDeepfakeValue = errors.New("invalid deepfake value")
	ErrPostNotFound         = errors.New("post not found")
	ErrTooManyPosts         = errors.New("too many posts")
)

// Persistence errors shared by every OutputHandler implementation.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountInUse        = errors.New("account already in use")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAlreadyProcessed    = errors.New("transaction already processed")
)
