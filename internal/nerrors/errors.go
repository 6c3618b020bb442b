// Package nerrors defines the error kinds shared by the naming server and
// storage server, mirroring the teacher's RepositoryError/ErrorCode split:
// a small machine-checkable code plus a human message and, where relevant,
// the path that triggered it.
package nerrors

import "fmt"

// Code is the category of a core error. Protocol-facing callers translate
// a Code into whatever status representation their transport favors; the
// core itself never branches on anything but Code.
type Code int

const (
	// NullArg indicates a required path or endpoint argument was absent.
	NullArg Code = iota

	// InvalidPath indicates a path string failed to parse.
	InvalidPath

	// NotFound indicates the target path, or a required ancestor, is not
	// present in the index or on disk.
	NotFound

	// NoStorages indicates no storage server is registered when one was
	// required to service the request.
	NoStorages

	// AlreadyRegistered indicates the endpoint pair is already known to
	// the naming server.
	AlreadyRegistered

	// IllegalArgument indicates unlock was called for a request that is
	// not currently held.
	IllegalArgument

	// IndexOutOfBounds indicates a read/write offset or length was invalid.
	IndexOutOfBounds

	// Transport indicates the underlying RPC call failed (network, timeout).
	Transport

	// IO indicates a local filesystem error at a storage server.
	IO
)

func (c Code) String() string {
	switch c {
	case NullArg:
		return "NullArg"
	case InvalidPath:
		return "InvalidPath"
	case NotFound:
		return "NotFound"
	case NoStorages:
		return "NoStorages"
	case AlreadyRegistered:
		return "AlreadyRegistered"
	case IllegalArgument:
		return "IllegalArgument"
	case IndexOutOfBounds:
		return "IndexOutOfBounds"
	case Transport:
		return "Transport"
	case IO:
		return "IO"
	default:
		return "Unknown"
	}
}

// Error is a core domain error: a Code plus a human-readable message and
// the path it concerns, if any.
type Error struct {
	Code    Code
	Message string
	Path    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New builds an *Error with no associated path.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithPath builds an *Error naming the offending path.
func WithPath(code Code, message, path string) *Error {
	return &Error{Code: code, Message: message, Path: path}
}

// Is reports whether err is an *Error carrying the given Code.
func Is(err error, code Code) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Code == code
}
