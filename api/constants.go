package api

import "time"

const (
	// FileCleanupDelay is the delay before cleaning up temp files after the response is sent
	FileCleanupDelay = 2 * time.Second

	// DefaultFilePermissions for temp directory creation
	DefaultFilePermissions = 0755

	// MaxErrorMessageLength truncates operation errors returned to clients
	MaxErrorMessageLength = 200
)
