package repository

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrNotFound     = errors.New("entity not found")
	ErrDuplicateKey = errors.New("duplicate catalog key")
	ErrEmptyKey     = errors.New("empty catalog key")
)
