// Package pagination slices ordered result sets into fixed-size pages.
package pagination

import "errors"

// PerPage is the fixed page size of every list endpoint.
const PerPage = 10

var (
	ErrInvalidPage = errors.New("page must be a positive integer")
	ErrEmptyPage   = errors.New("page is empty")
)

// Page returns the 1-indexed page of items. Pages past the populated range
// return ErrEmptyPage; a page below 1 returns ErrInvalidPage.
func Page[T any](items []T, page int) ([]T, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}

	start := (page - 1) * PerPage
	if start >= len(items) {
		return nil, ErrEmptyPage
	}

	end := start + PerPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], nil
}
