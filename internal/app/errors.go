package app

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionNotOpen      = errors.New("session no longer accepts documents")
	ErrSessionNotRetryable = errors.New("session cannot be revalidated in its current state")
)
