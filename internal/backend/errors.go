package backend

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/neexbeast/travel-vibes/internal/itinerary"
)

var (
	// ErrTimeout is returned when a request exceeds its deadline.
	ErrTimeout = errors.New("request timed out")
	// ErrNetwork is returned when the server could not be reached.
	ErrNetwork = errors.New("network error")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
	Errors  []itinerary.FieldError
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// errorBody is the server's error envelope.
type errorBody struct {
	Message string                 `json:"message"`
	Errors  []itinerary.FieldError `json:"errors,omitempty"`
}

// classifyTransport wraps a transport failure in ErrTimeout or ErrNetwork.
func classifyTransport(op string, err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrNetwork, err)
}

// UserMessage turns any error from this package into text fit for a toast.
// Server messages are passed through verbatim.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	var verr itinerary.ValidationError
	switch {
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fmt.Sprintf("Request failed with status %d.", apiErr.Status)
	case errors.As(err, &verr):
		if len(verr) > 0 {
			return verr[0].Message
		}
		return "Please check the form and try again."
	case errors.Is(err, ErrTimeout):
		return "The request timed out. Please try again."
	case errors.Is(err, ErrNetwork):
		return "Could not reach the server. Check your connection and try again."
	case errors.Is(err, context.Canceled):
		return "The request was cancelled."
	default:
		return "Something went wrong. Please try again."
	}
}
