package calendar

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork means the calendar page could not be fetched or answered
	// with a non-success status.
	ErrNetwork = errors.New("calendar unavailable")
	// ErrNotPublished means the page for an academic year does not exist
	// (yet). It matches ErrNetwork under errors.Is.
	ErrNotPublished = fmt.Errorf("%w: calendar not published", ErrNetwork)
	// ErrParse means the page did not have the expected table layout.
	ErrParse = errors.New("calendar layout not recognized")
	// ErrStore wraps failures of the key-value store behind the cache.
	ErrStore = errors.New("calendar cache store failure")
)
