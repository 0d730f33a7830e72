package kafka

import (
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/product-concierge/internal/models"
)

// SearchEvent is the wire format of a search request published by the
// chat platform. Events with other patterns share the topic and are
// ignored.
type SearchEvent struct {
	Pattern string               `json:"pattern"`
	Data    models.SearchRequest `json:"data"`
}

// PatternSearchRequested marks events this consumer processes.
const PatternSearchRequested = "product.search.requested"

// ErrRetry represents a retryable error with a delay
type ErrRetry struct {
	Err   error
	Delay time.Duration
}

func (e *ErrRetry) Error() string {
	return fmt.Sprintf("retry after %v: %v", e.Delay, e.Err)
}

func (e *ErrRetry) Unwrap() error {
	return e.Err
}

// NewRetryError creates a new retryable error
func NewRetryError(err error, delay time.Duration) *ErrRetry {
	return &ErrRetry{
		Err:   err,
		Delay: delay,
	}
}
