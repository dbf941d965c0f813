package customers

import "errors"

var (
	ErrNotFound         = errors.New("customer not found")
	ErrDuplicateEmail   = errors.New("email already in use")
	ErrInvalidSortField = errors.New("invalid sort field")
	ErrInvalidSortOrder = errors.New("invalid sort order")
	ErrInvalidBulkCount = errors.New("count must be between 1 and 1000")
)
