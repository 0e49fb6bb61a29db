package errors

import "errors"

// Re-exported so callers only ever import this package.
var (
	As  = errors.As
	Is  = errors.Is
	New = errors.New
)

var (
	ErrNotFound     = errors.New("resource could not be found")
	ErrDuplicateUrl = errors.New("bookmark already exists for this link")
	ErrInvalidUrl   = errors.New("url is invalid")
	ErrEmailTaken   = errors.New("email address is already in use")
)
