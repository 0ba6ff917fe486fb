package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")
	ErrTooMany      = errors.New("too many requests")
	ErrInternal     = errors.New("internal")

	ErrRevoked           = errors.New("revoked")
	ErrExpired           = errors.New("expired")
	ErrStorageMissing    = errors.New("storage path missing")
	ErrSignedURL         = errors.New("signed url generation failed")
	ErrWrongPassword     = errors.New("wrong password")
	ErrPasswordRequired  = errors.New("password required")
	ErrDownloadForbidden = errors.New("download not allowed")
	ErrAIUnavailable     = errors.New("ai unavailable")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsShareTerminal reports whether err ends a guest access attempt for good.
func IsShareTerminal(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrRevoked),
		errors.Is(err, ErrExpired),
		errors.Is(err, ErrStorageMissing),
		errors.Is(err, ErrSignedURL):
		return true
	}
	return false
}
