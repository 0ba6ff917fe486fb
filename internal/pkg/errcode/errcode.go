package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrUnauthorized
	ErrForbidden
	ErrNotFound
	ErrInvalid
	ErrConflict
	ErrTooMany
	ErrInternal
	ErrInvalidFile
	ErrUploadFailed
	ErrAIUnavailable
	ErrShareRevoked
	ErrShareExpired
	ErrStorageMissing
	ErrSignedURL
	ErrWrongPassword
	ErrPasswordRequired
	ErrDownloadForbidden
)
