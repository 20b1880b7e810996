package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent sourcing failures that are not tied to a
// particular request. Request-level failures are RequestError values.
var (
	// ErrNotFound indicates a requested node does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown node kind or store type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrMissingCredentials indicates shopName or accessToken is empty.
	ErrMissingCredentials = errors.New("missing shop credentials")

	// ErrConnectionNotFound indicates the response had no connection at
	// the expected path. This is a query/response mismatch, not an API error.
	ErrConnectionNotFound = errors.New("connection not found in response")

	// ErrMalformedEntity indicates an entity lacks a field its kind requires.
	ErrMalformedEntity = errors.New("malformed entity")

	// ErrSourcingFailed wraps the API error that failed a sourcing run.
	ErrSourcingFailed = errors.New("sourcing failed")
)

// GraphQLError is one entry of a GraphQL response's errors array.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// RequestError is a failed GraphQL request. It carries the query and
// variables so the failure can be reported with its request context.
// It covers both transport failures and GraphQL-level errors.
type RequestError struct {
	// Query is the GraphQL document that was sent.
	Query string

	// Variables are the variables sent with the query.
	Variables map[string]any

	// StatusCode is the HTTP status, 0 if no response was received.
	StatusCode int

	// Errors holds the GraphQL errors array, if the server returned one.
	Errors []GraphQLError

	// Err is the underlying transport error, if any.
	Err error
}

func (e *RequestError) Error() string {
	switch {
	case len(e.Errors) > 0:
		msgs := make([]string, 0, len(e.Errors))
		for _, ge := range e.Errors {
			msgs = append(msgs, ge.Message)
		}
		return fmt.Sprintf("graphql: %s", strings.Join(msgs, "; "))
	case e.Err != nil:
		return fmt.Sprintf("graphql request: %v", e.Err)
	default:
		return fmt.Sprintf("graphql request: unexpected status %d", e.StatusCode)
	}
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Detail renders the error payload as indented JSON for diagnostics.
func (e *RequestError) Detail() string {
	if len(e.Errors) == 0 {
		return e.Error()
	}
	b, err := json.MarshalIndent(e.Errors, "", "  ")
	if err != nil {
		return e.Error()
	}
	return string(b)
}

// AsRequestError extracts a RequestError from an error chain.
func AsRequestError(err error) (*RequestError, bool) {
	var re *RequestError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// RequestErrors collects every RequestError in an error tree, following
// both single and joined wrapping, in depth-first order.
func RequestErrors(err error) []*RequestError {
	switch e := err.(type) {
	case nil:
		return nil
	case *RequestError:
		return []*RequestError{e}
	case interface{ Unwrap() []error }:
		var out []*RequestError
		for _, inner := range e.Unwrap() {
			out = append(out, RequestErrors(inner)...)
		}
		return out
	case interface{ Unwrap() error }:
		return RequestErrors(e.Unwrap())
	default:
		return nil
	}
}
