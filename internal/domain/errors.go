package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrTierTooLow       = errors.New("tier too low")
	ErrQuotaExceeded    = errors.New("quota exceeded")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrNotConfigured    = errors.New("not configured")
)
