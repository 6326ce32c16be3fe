package images

import "errors"

var (
	ErrNotFound      = errors.New("image not found")
	ErrNoImage       = errors.New("no image provided")
	ErrInvalidBase64 = errors.New("invalid base64 format")
	ErrEmptyImage    = errors.New("invalid image data")
	ErrTooLarge      = errors.New("image too large")
	ErrInvalidBody   = errors.New("invalid request body")
)
