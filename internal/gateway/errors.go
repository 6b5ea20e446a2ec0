package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

var (
	ErrNotFound          = errors.New("gateway: not found")
	ErrUnauthorized      = errors.New("gateway: unauthorized")
	ErrConflict          = errors.New("gateway: conflict")
	ErrUnavailable       = errors.New("gateway: unavailable")
	ErrMalformedResponse = errors.New("gateway: malformed response")
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("backend error %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound || e.Code == "PGRST116"
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case ErrConflict:
		return e.Status == http.StatusConflict || e.Code == "23505"
	case ErrUnavailable:
		return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
	}
	return false
}

// FunctionError is a function answer whose envelope reports failure.
type FunctionError struct {
	Function string
	Message  string
}

func (e *FunctionError) Error() string {
	return fmt.Sprintf("function %s failed: %s", e.Function, e.Message)
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status}
	if !gjson.ValidBytes(body) {
		e.Message = http.StatusText(status)
		return e
	}

	code := gjson.GetBytes(body, "code")
	if code.Exists() {
		e.Code = code.String()
	} else if ec := gjson.GetBytes(body, "error_code"); ec.Exists() {
		e.Code = ec.String()
	}

	e.Message = firstString(body, "message", "msg", "error_description", "error.message", "error")
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	e.Details = gjson.GetBytes(body, "details").String()
	return e
}

func firstString(body []byte, paths ...string) string {
	for _, p := range paths {
		r := gjson.GetBytes(body, p)
		if r.Type == gjson.String && r.Str != "" {
			return r.Str
		}
	}
	return ""
}
