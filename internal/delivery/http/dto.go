package http

import "github.com/mealquest/backend/internal/usecase"

// OpenSessionRequest optionally names the session to resume
type OpenSessionRequest struct {
	SessionID string `json:"sessionId"`
}

// SessionResponse carries a session id with its current state
type SessionResponse struct {
	SessionID string        `json:"sessionId"`
	State     usecase.State `json:"state"`
}

// SearchRequest is the body of search and replay requests
type SearchRequest struct {
	Term string `json:"term" binding:"required"`
}

// FiltersRequest is the body of a filter change
type FiltersRequest struct {
	Vegetarian bool   `json:"vegetarian"`
	Vegan      bool   `json:"vegan"`
	GlutenFree bool   `json:"glutenFree"`
	Sort       string `json:"sort"`
}

// ToggleFavoriteRequest names the recipe to toggle
type ToggleFavoriteRequest struct {
	ID int `json:"id" binding:"required"`
}

// ToggleFavoriteResponse reports the new membership along with the state
type ToggleFavoriteResponse struct {
	SessionResponse
	Favorite bool `json:"favorite"`
}

// ErrorResponse is returned for every non-2xx JSON response
type ErrorResponse struct {
	Error string `json:"error"`
}
