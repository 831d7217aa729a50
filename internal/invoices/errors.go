package invoices

import "errors"

var (
	ErrNotFound          = errors.New("invoice not found")
	ErrDuplicateDocument = errors.New("invoice already exists for document")
)
