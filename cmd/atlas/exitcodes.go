package main

import (
	"errors"

	"github.com/researchatlas/atlas/internal/config"
	"github.com/researchatlas/atlas/internal/embedding"
	"github.com/researchatlas/atlas/internal/importer"
	"github.com/researchatlas/atlas/internal/semantic"
)

// Exit codes
const (
	ExitSuccess       = 0 // Success
	ExitError         = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError   = 2 // Configuration error (invalid config, missing API key, index not found)
	ExitDataError     = 3 // Data error (no documents, embedding service unavailable)
	ExitPartial       = 4 // Fetch finished but some subfields failed
	ExitModelNotFound = 5 // Embedding model not found
	ExitIndexStale    = 6 // Vector index is stale or incomplete
)

// exitCodeFor maps an error to the exit code of its most specific cause.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, config.ErrMissingAPIKey), errors.Is(err, semantic.ErrIndexNotFound):
		return ExitConfigError
	case errors.Is(err, embedding.ErrModelNotFound):
		return ExitModelNotFound
	case errors.Is(err, semantic.ErrIndexStale), errors.Is(err, semantic.ErrIncompleteIndex):
		return ExitIndexStale
	case errors.Is(err, semantic.ErrNoDocuments),
		errors.Is(err, importer.ErrDataDirNotFound),
		errors.Is(err, embedding.ErrUnavailable):
		return ExitDataError
	default:
		return ExitError
	}
}
