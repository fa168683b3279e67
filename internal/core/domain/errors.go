package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexNotFound is returned when the search index for a collection does not exist.
	ErrIndexNotFound = errors.New("index not found")
	// ErrCollectionNotFound is returned when the collection metadata cannot be found.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrNoIndexSchema is returned when a collection carries no index:schema attribute.
	ErrNoIndexSchema = errors.New("no index:schema attribute in collection metadata")
	// ErrMalformedResponse is returned when a remote service answers with an unexpected body.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrAlreadyExists is returned when a create-if-absent call finds an existing object.
	ErrAlreadyExists = errors.New("already exists")
)

// QueryError is a search query rejected by the index as malformed.
type QueryError struct {
	Message string
	Details map[string]any
}

func (e *QueryError) Error() string {
	return "invalid query: " + e.Message
}

// StatusError is an unexpected HTTP status from a remote service.
type StatusError struct {
	Service string
	Status  int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Service, e.Status, e.Body)
}
