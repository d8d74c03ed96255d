package repositories

import "errors"

var (
	// ErrNotFound covers absent rows and owner-filtered misses alike, so a
	// caller cannot distinguish "not yours" from "does not exist".
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a version-guarded write loses the race:
	// the expected version no longer matches the stored row.
	ErrConflict = errors.New("version conflict")
)
