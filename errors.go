package main

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable is returned when the catalog file cannot be read.
	ErrSourceUnavailable = errors.New("book register file unavailable")

	// ErrBookNotFound is returned when no record matches a lookup.
	ErrBookNotFound = errors.New("book not found")

	// ErrISBNMismatch is returned when an edit tries to change the record key.
	ErrISBNMismatch = errors.New("isbn mismatch")

	// ErrDuplicateISBN is returned by Add when unique isbns are enforced.
	ErrDuplicateISBN = errors.New("isbn already registered")

	// ErrMalformedStanza is returned when a stanza is truncated or badly delimited.
	ErrMalformedStanza = errors.New("malformed stanza")

	// ErrSessionAborted is returned when the shell input ends before a save.
	ErrSessionAborted = errors.New("session aborted before save")

	// ErrInputFailed is returned when the shell input cannot be read.
	ErrInputFailed = errors.New("session input failed")
)

// ParseError describes a stanza line which could not be decoded.
type ParseError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: invalid %s %q: %v", e.Line, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UnknownGenreError is returned when a genre name is not one of the known genres.
type UnknownGenreError struct {
	Line  int
	Value string
}

func (e *UnknownGenreError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: unknown genre %q", e.Line, e.Value)
	}
	return fmt.Sprintf("unknown genre %q", e.Value)
}
