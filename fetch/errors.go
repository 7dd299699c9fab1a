package fetch

import (
	"errors"
	"fmt"
	"strings"
)

// Category classifies a fetch failure for user-facing messages.
type Category string

const (
	// CategoryConnectivity covers network-level failures: the request
	// never completed (DNS, refused connection, timeout, CORS block).
	CategoryConnectivity Category = "connectivity"
	// CategoryEmptyPayload marks a successful response with no body.
	CategoryEmptyPayload Category = "empty-payload"
	// CategoryForbidden marks an HTTP 403 or an S3 access denial.
	CategoryForbidden Category = "access-forbidden"
	// CategoryContentType labels the mismatch warning; a mismatch alone
	// never fails a fetch.
	CategoryContentType Category = "content-type-mismatch"
	// CategoryGeneric is everything else.
	CategoryGeneric Category = "generic"
)

// Error is a categorized download failure.
type Error struct {
	URL      string
	Status   int // HTTP status when a response was received
	Category Category
	Relay    bool // the failure happened on the relay retry
	Err      error
}

func (e *Error) Error() string {
	via := ""
	if e.Relay {
		via = " (via relay)"
	}
	switch e.Category {
	case CategoryForbidden:
		return fmt.Sprintf("fetch %s%s: access forbidden (HTTP %d)", e.URL, via, e.Status)
	case CategoryEmptyPayload:
		return fmt.Sprintf("fetch %s%s: server returned an empty response", e.URL, via)
	case CategoryConnectivity:
		return fmt.Sprintf("fetch %s%s: network failure, possibly a cross-origin restriction: %v", e.URL, via, e.Err)
	default:
		if e.Status != 0 {
			return fmt.Sprintf("fetch %s%s: HTTP %d", e.URL, via, e.Status)
		}
		return fmt.Sprintf("fetch %s%s: %v", e.URL, via, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Categorize extracts the failure category from any error produced by
// this package, falling back to keyword inspection for foreign errors.
func Categorize(err error) Category {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Category
	}

	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "forbidden") || strings.Contains(s, "access denied") || strings.Contains(s, "403"):
		return CategoryForbidden
	case strings.Contains(s, "empty"):
		return CategoryEmptyPayload
	case strings.Contains(s, "connection") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "no such host") ||
		strings.Contains(s, "network"):
		return CategoryConnectivity
	default:
		return CategoryGeneric
	}
}
