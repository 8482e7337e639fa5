package errors

import "errors"

var (
	// Collection errors
	ErrCollection       = errors.New("metric collection failed")
	ErrNotConfigured    = errors.New("collector is not configured")
	ErrUnknownCollector = errors.New("unknown collector")

	// Store errors
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrPersistence      = errors.New("batch write failed")
)
