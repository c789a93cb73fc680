package verify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Category names a class of model invocation failure. It is safe to show to callers.
type Category string

const (
	CategoryTimeout        Category = "timeout"
	CategoryCanceled       Category = "canceled"
	CategoryRateLimited    Category = "rate limited"
	CategoryAuth           Category = "authentication failed"
	CategoryUnavailable    Category = "provider unavailable"
	CategoryInvalidRequest Category = "invalid request"
	CategoryBlocked        Category = "content blocked"
	CategoryEmptyResponse  Category = "empty response"
	CategoryUnknown        Category = "provider error"
)

var (
	ErrEmptyResponse = errors.New("model returned an empty response")
	ErrMissingAPIKey = errors.New("api key is empty")
)

// Retryable reports whether another attempt could plausibly succeed.
func (c Category) Retryable() bool {
	switch c {
	case CategoryTimeout, CategoryRateLimited, CategoryUnavailable, CategoryUnknown:
		return true
	}
	return false
}

// ProviderError wraps a failed model call with its category.
type ProviderError struct {
	Category Category
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return string(e.Category)
	}
	return fmt.Sprintf("%s: %v", e.Category, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Explanation is the caller-facing text for a fallback result; it never includes Err.
func (e *ProviderError) Explanation() string {
	return "Verification unavailable: " + string(e.Category) + "."
}

// AsProviderError returns err as a *ProviderError, classifying it when needed.
func AsProviderError(err error) *ProviderError {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr
	}
	return &ProviderError{Category: Classify(err), Err: err}
}

// Classify maps an arbitrary provider error to a Category.
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Category
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return CategoryTimeout
	case errors.Is(err, context.Canceled):
		return CategoryCanceled
	case errors.Is(err, ErrEmptyResponse):
		return CategoryEmptyResponse
	case errors.Is(err, ErrMissingAPIKey):
		return CategoryAuth
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if c, ok := categoryFromHTTP(gerr.Code); ok {
			return c
		}
	}
	if st, ok := status.FromError(err); ok {
		if c, ok := categoryFromGRPC(st.Code()); ok {
			return c
		}
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return CategoryTimeout
	}
	return categoryFromMessage(strings.ToLower(err.Error()))
}

func categoryFromHTTP(code int) (Category, bool) {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return CategoryAuth, true
	case code == http.StatusTooManyRequests:
		return CategoryRateLimited, true
	case code == http.StatusRequestTimeout, code == http.StatusGatewayTimeout:
		return CategoryTimeout, true
	case code >= 500:
		return CategoryUnavailable, true
	case code >= 400:
		return CategoryInvalidRequest, true
	}
	return "", false
}

func categoryFromGRPC(code codes.Code) (Category, bool) {
	switch code {
	case codes.DeadlineExceeded:
		return CategoryTimeout, true
	case codes.Canceled:
		return CategoryCanceled, true
	case codes.ResourceExhausted:
		return CategoryRateLimited, true
	case codes.Unauthenticated, codes.PermissionDenied:
		return CategoryAuth, true
	case codes.Unavailable, codes.Internal, codes.Aborted:
		return CategoryUnavailable, true
	case codes.InvalidArgument, codes.NotFound, codes.FailedPrecondition, codes.OutOfRange:
		return CategoryInvalidRequest, true
	}
	return "", false
}

var messagePatterns = []struct {
	category Category
	needles  []string
}{
	{CategoryRateLimited, []string{"rate limit", "too many requests", "quota", "resource exhausted", "429"}},
	{CategoryAuth, []string{"api key", "unauthorized", "unauthenticated", "permission denied", "401", "403"}},
	{CategoryTimeout, []string{"timeout", "timed out", "deadline exceeded"}},
	{CategoryUnavailable, []string{"unavailable", "overloaded", "try again later", "500", "502", "503"}},
	{CategoryBlocked, []string{"blocked", "safety"}},
}

func categoryFromMessage(msg string) Category {
	for _, p := range messagePatterns {
		for _, n := range p.needles {
			if strings.Contains(msg, n) {
				return p.category
			}
		}
	}
	return CategoryUnknown
}
