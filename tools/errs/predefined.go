package errs

import "net/http"

var (
	ErrArgs              = NewCodeError(http.StatusBadRequest, "invalid request")
	ErrUnauthorized      = NewCodeError(http.StatusUnauthorized, "unauthorized")
	ErrTokenExpired      = NewCodeError(http.StatusUnauthorized, "token invalid or expired")
	ErrForbidden         = NewCodeError(http.StatusForbidden, "forbidden")
	ErrNotFound          = NewCodeError(http.StatusNotFound, "not found")
	ErrDuplicate         = NewCodeError(http.StatusBadRequest, "already exists")
	ErrInternal          = NewCodeError(http.StatusInternalServerError, "internal server error")
	ErrUploadFailed      = NewCodeError(http.StatusInternalServerError, "upload failed")
	ErrInvalidCredential = NewCodeError(http.StatusBadRequest, "Invalid Credentials")
)
