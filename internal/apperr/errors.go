// Package apperr defines the sentinel errors shared across the engine.
package apperr

import "errors"

var (
	// ErrMalformedFrontMatter marks a file whose front-matter block cannot
	// be parsed. The file is excluded from the corpus but its body is kept
	// so the healer can reconstruct it.
	ErrMalformedFrontMatter = errors.New("malformed front-matter")

	// ErrMissingRequiredField marks a document lacking one of the required
	// front-matter keys. Never fatal; feeds the health dimensions.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrBrokenCrossReference marks a cross-reference that resolves to no
	// document in the corpus.
	ErrBrokenCrossReference = errors.New("broken cross-reference")

	// ErrEncoderUnavailable means the sentence encoder cannot be reached.
	// Fatal for the embedding pass; queries degrade to keyword search when
	// configured, otherwise surface this error.
	ErrEncoderUnavailable = errors.New("encoder unavailable")

	// ErrIndexStale means the persisted artifacts do not match the current
	// runtime configuration and a rebuild is required.
	ErrIndexStale = errors.New("persisted index stale")

	// ErrCorpusEmpty means no documents are loaded. Queries return an
	// empty result list rather than failing.
	ErrCorpusEmpty = errors.New("corpus empty")

	// ErrNotFound is returned for lookups of unknown documents.
	ErrNotFound = errors.New("not found")
)
