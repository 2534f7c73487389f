package domain

import "errors"

var (
	// ErrNetworkFailure is returned when a recipe API call is rejected or times out
	ErrNetworkFailure = errors.New("recipe API request failed")

	// ErrPersistenceReadFailure is returned when a stored collection cannot be read or parsed
	ErrPersistenceReadFailure = errors.New("persisted collection could not be read")

	// ErrPersistenceWriteFailure is returned when a collection cannot be written to its slot
	ErrPersistenceWriteFailure = errors.New("persisted collection could not be written")

	// ErrRecipeNotFound is returned when a recipe id is unknown
	ErrRecipeNotFound = errors.New("recipe not found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrSessionNotFound is returned when no live session exists for an id
	ErrSessionNotFound = errors.New("session not found")

	// ErrQuotaExceeded is returned when the recipe API daily quota is used up
	ErrQuotaExceeded = errors.New("recipe API quota exceeded")

	// ErrRateLimited is returned when the inbound rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)
