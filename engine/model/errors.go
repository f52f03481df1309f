package model

import "errors"

// Errors returned when constructing data model values.
var (
	ErrInvalidChannel  = errors.New("invalid channel kind")
	ErrInvalidTrack    = errors.New("invalid track")
	ErrInvalidClip     = errors.New("invalid animation clip")
	ErrInvalidSkeleton = errors.New("invalid skeleton")
)
