package types

import "errors"

// Sentinel errors for common error conditions.
var (
	// ErrGrammarNotFound is returned when no grammar description exists
	// for the requested language.
	ErrGrammarNotFound = errors.New("grammar not found")

	// ErrGrammarMalformed is returned when a grammar description fails
	// to parse.
	ErrGrammarMalformed = errors.New("grammar malformed")

	// ErrParseTimeout is returned when parsing a file exceeds the
	// configured parse timeout.
	ErrParseTimeout = errors.New("parse timed out")

	// ErrMaxDepthExceeded is returned when a syntax tree is deeper than
	// the configured limit.
	ErrMaxDepthExceeded = errors.New("max tree depth exceeded")

	// ErrNoCapabilities is returned when a governor is built without any
	// model capability.
	ErrNoCapabilities = errors.New("no model capabilities")

	// ErrFileTooLarge is returned when a file exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrTooManyChunks is returned when chunking a file would exceed the
	// per-file chunk limit.
	ErrTooManyChunks = errors.New("too many chunks")

	// ErrEmptyContent is returned when a chunker receives empty input.
	ErrEmptyContent = errors.New("empty content")

	// ErrUnknownStrategy is returned when the router is asked for a
	// strategy name that was never registered.
	ErrUnknownStrategy = errors.New("unknown chunking strategy")

	// ErrInvalidConfig is returned when configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrStoreClosed is returned when a dedup store is used after Close.
	ErrStoreClosed = errors.New("store closed")
)
