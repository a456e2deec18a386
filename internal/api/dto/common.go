package dto

import "time"

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// ListResponse wraps a page of items
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// NewListResponse builds a ListResponse from items
func NewListResponse[T any](items []T) *ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return &ListResponse[T]{Items: items, Total: len(items)}
}

// HealthResponse reports liveness and the server clock, which callers use to
// check which billing day the engine believes it is
type HealthResponse struct {
	Status string    `json:"status"`
	Mode   string    `json:"mode"`
	Time   time.Time `json:"time"`
}
