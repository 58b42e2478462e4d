package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrShareCanceled = errors.New("share canceled")
)
