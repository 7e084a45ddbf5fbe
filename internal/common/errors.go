// Package common defines shared sentinel errors used across the client,
// backends and server layers of secretsync. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Local validation errors, raised before any remote call.
	ErrPathNotFound  = errors.New("tracked path not found")
	ErrEmptyRegistry = errors.New("no tracked paths")
	ErrNotTracked    = errors.New("path is not tracked")

	// ErrDecryption unifies wrong passphrase and corrupted or truncated
	// ciphertext. The two cases are intentionally indistinguishable.
	ErrDecryption = errors.New("wrong passphrase or corrupted data")

	// Remote errors.
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")

	// ErrChunkBudgetExceeded means the encoded archive needs more chunks
	// than the backend will hold. Raised before any remote write.
	ErrChunkBudgetExceeded = errors.New("archive exceeds backend chunk budget")
)
