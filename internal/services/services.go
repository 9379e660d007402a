// package services implements HTTP clients for the WordPress REST API and the Contentful Content Management API
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/wpx/internal/shared"
	"golang.org/x/time/rate"
)

// Service is implemented by every remote API client.
type Service interface {
	// Name returns the name of the service (e.g., "WordPress", "Contentful")
	Name() string
}

// StatusError reports a response with an unexpected HTTP status code.
//
// It unwraps to [shared.ErrAPIRequest], and additionally to [shared.ErrNotFound] for 404 responses.
type StatusError struct {
	Service    string
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s API error: %s %s: status %d", e.Service, e.Method, e.URL, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *StatusError) Unwrap() []error {
	if e.StatusCode == http.StatusNotFound {
		return []error{shared.ErrAPIRequest, shared.ErrNotFound}
	}
	return []error{shared.ErrAPIRequest}
}

// IsStatus reports whether err is a [StatusError] with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// newLimiter returns a limiter allowing rps requests per second, or nil when rps is not positive.
func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

func waitLimiter(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	if err := l.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// maxErrorBody bounds how much of an error response is kept in a [StatusError].
const maxErrorBody = 512

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody]) + "..."
	}
	return string(b)
}
