package service

import "errors"

// Validation rejections. They never reach the network and leave state untouched.
var (
	ErrEmptySearch       = errors.New("search terms are empty")
	ErrNoCoursesSelected = errors.New("no courses selected")
	ErrNothingSelected   = errors.New("no sessions selected")
	ErrBusy              = errors.New("operation already in progress")
)

// ErrStaleResponse is returned when a newer request or a range switch
// superseded the call; its response was discarded.
var ErrStaleResponse = errors.New("response superseded by a newer request")

// IsValidation reports whether err is a local precondition failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptySearch) ||
		errors.Is(err, ErrNoCoursesSelected) ||
		errors.Is(err, ErrNothingSelected) ||
		errors.Is(err, ErrBusy)
}
