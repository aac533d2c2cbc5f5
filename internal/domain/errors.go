package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrThrottleExceeded = errors.New("submission limit reached for this session")
	ErrAuth             = errors.New("invalid credentials")
	ErrStoreIO          = errors.New("review store unavailable")
)
