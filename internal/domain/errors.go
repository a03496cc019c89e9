package domain

import "errors"

// Sentinel errors shared by the store and the use cases.
// Wrap them with fmt.Errorf("...: %w", Err...) and match with errors.Is.
var (
	ErrMissingArgument = errors.New("missing argument")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrAccessDenied    = errors.New("access denied")
	ErrConflict        = errors.New("conflict")
	ErrStoreFailure    = errors.New("store failure")
)

// ErrorKind is the stable name of an error class exposed to callers
type ErrorKind string

const (
	KindMissingArgument ErrorKind = "MissingArgument"
	KindInvalidArgument ErrorKind = "InvalidArgument"
	KindNotFound        ErrorKind = "NotFound"
	KindAccessDenied    ErrorKind = "AccessDenied"
	KindConflict        ErrorKind = "Conflict"
	KindStoreFailure    ErrorKind = "StoreFailure"
	KindUnknown         ErrorKind = "Unknown"
)

// KindOf classifies err. The first matching sentinel wins, so an access
// check wrapped around a store failure is still reported as AccessDenied.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingArgument):
		return KindMissingArgument
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrAccessDenied):
		return KindAccessDenied
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrStoreFailure):
		return KindStoreFailure
	default:
		return KindUnknown
	}
}
