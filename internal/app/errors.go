package app

import "errors"

// Structural errors: these abort the whole call. Per-item reconciliation
// failures never surface here; they accumulate into the report's error list.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrFileNotFound        = errors.New("file not found")
	ErrFileMissingOnDisk   = errors.New("file missing on disk")
	ErrIndexNotFound       = errors.New("index not found")
	ErrIndexNotPublished   = errors.New("index has no remote collection")
	ErrAlreadyAttached     = errors.New("file already attached to index")
	ErrConnectionNotFound  = errors.New("provider connection not found")
	ErrConnectionDisabled  = errors.New("provider connection disabled")
	ErrMissingCredentials  = errors.New("provider connection has no credentials")
	ErrNoRemoteID          = errors.New("provider returned no id")
	ErrInvalidCredential   = errors.New("invalid username or password")
)
