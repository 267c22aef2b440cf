package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// Common domain errors
	ErrNotFound          = errors.New("entity not found")
	ErrAlreadyExists     = errors.New("entity already exists")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrMalformedResponse = errors.New("malformed upstream response")
	ErrCallbackTooLong   = errors.New("callback data exceeds 64 bytes")
	ErrNoActiveOrder     = errors.New("no active order session")
)

// UpstreamError is returned by the shop client when the API answers with a
// status code other than the one the operation expects. Fields holds every
// top-level key of the JSON error body flattened to a list of strings.
type UpstreamError struct {
	StatusCode int
	Fields     map[string][]string
}

func (e *UpstreamError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("upstream status %d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("upstream status %d", e.StatusCode)
}

// Field returns the messages reported for one field.
func (e *UpstreamError) Field(name string) []string {
	if e == nil || e.Fields == nil {
		return nil
	}
	return e.Fields[name]
}

// Message returns the generic "message" entry joined by newlines.
func (e *UpstreamError) Message() string {
	return strings.Join(e.Field("message"), "\n")
}

// Detail returns the "detail" entry used by the API for 404 and auth errors.
func (e *UpstreamError) Detail() string {
	return strings.Join(e.Field("detail"), "\n")
}

// NonField returns "non_field_errors" joined by newlines.
func (e *UpstreamError) NonField() string {
	return strings.Join(e.Field("non_field_errors"), "\n")
}

// Flatten renders every field error, one per line, ordered by field name.
// Generic keys are rendered without their name.
func (e *UpstreamError) Flatten() string {
	if e == nil || len(e.Fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, msg := range e.Fields[k] {
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			switch k {
			case "message", "detail", "non_field_errors":
				b.WriteString(msg)
			default:
				b.WriteString(k)
				b.WriteString(": ")
				b.WriteString(msg)
			}
		}
	}
	return b.String()
}

// IsUpstreamStatus reports whether err is an upstream rejection with code.
func IsUpstreamStatus(err error, code int) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.StatusCode == code
}

// ProcessorError carries a payment processor failure (Stripe error object).
type ProcessorError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *ProcessorError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("payment processor %s (%s): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("payment processor %s: %s", e.Type, e.Message)
}
