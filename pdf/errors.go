package pdf

import "errors"

// Operation-level failures. Per-image decode/encode errors are absorbed
// inside the page loop and never reach callers.
var (
	// ErrInputNotFound means the input path does not exist.
	ErrInputNotFound = errors.New("input file not found")

	// ErrOpenDocument means the input exists but is not a readable document.
	ErrOpenDocument = errors.New("cannot open document")

	// ErrWriteDocument means the output could not be persisted.
	ErrWriteDocument = errors.New("cannot write document")

	// ErrSizeUnavailable means a file size could not be read after saving,
	// so the compression report cannot be produced.
	ErrSizeUnavailable = errors.New("cannot determine file size")
)
