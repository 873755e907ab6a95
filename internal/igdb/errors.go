package igdb

import "errors"

var (
	// ErrUpstreamUnavailable covers network failures, timeouts and non-2xx
	// responses from the catalog, including a second auth failure after a
	// token refresh.
	ErrUpstreamUnavailable = errors.New("catalog upstream unavailable")

	// ErrNotFound is returned when a single-game lookup matches nothing.
	ErrNotFound = errors.New("game not found")
)
