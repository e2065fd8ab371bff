package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrProbeFailed  = errors.New("could not fetch video information")
	ErrNoFormats    = errors.New("no suitable formats found")
)
