package suppliers

import "errors"

var (
	ErrNotFound     = errors.New("supplier not found")
	ErrInvalidInput = errors.New("invalid supplier input")
)
