package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotDecoded is returned when canonical data is requested from a
	// stream whose filter chain has not been applied yet.
	ErrNotDecoded = errors.New("stream data is not decoded")

	// ErrUnsupported is returned by operations that exist on the API but
	// are not implemented, such as encoding and serialization.
	ErrUnsupported = errors.New("operation not supported")

	// ErrUnknownFilter is wrapped by a FilterError when no codec is
	// registered for a filter name.
	ErrUnknownFilter = errors.New("unknown filter")

	// ErrDecodedSizeExceeded is wrapped by a FilterError when a filter's
	// output is larger than the configured limit.
	ErrDecodedSizeExceeded = errors.New("decoded size exceeds limit")
)

// MissingKeyError reports a required dictionary entry that is absent.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("missing required key /%s", e.Key)
}

// TypeMismatchError reports an object whose type does not match the type
// a conversion expected.
type TypeMismatchError struct {
	Want string
	Got  Object
}

func (e *TypeMismatchError) Error() string {
	if e.Got == nil {
		return fmt.Sprintf("type mismatch: expected %s, got nothing", e.Want)
	}
	return fmt.Sprintf("type mismatch: expected %s, got %s", e.Want, e.Got.Type())
}

// LengthMismatchError reports a stream whose /Length disagrees with the
// number of raw bytes it carries.
type LengthMismatchError struct {
	Declared int
	Actual   int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("stream /Length is %d but %d bytes are present", e.Declared, e.Actual)
}

// FilterError reports a filter in a decode chain that failed. Err is the
// codec's own error.
type FilterError struct {
	Index  int
	Filter Name
	Err    error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("filter %d (%s) failed: %v", e.Index, string(e.Filter), e.Err)
}

func (e *FilterError) Unwrap() error { return e.Err }

// OutOfBoundsError reports an object stream index outside the offset table.
type OutOfBoundsError struct {
	Index int
	Count int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("object index %d out of range [0, %d)", e.Index, e.Count)
}

// MalformedTokenStreamError reports an object stream header that does not
// hold the declared number of integer pairs. Pair is the zero-based pair
// being read when the problem was found.
type MalformedTokenStreamError struct {
	Pair   int
	Reason string
	Err    error
}

func (e *MalformedTokenStreamError) Error() string {
	msg := fmt.Sprintf("malformed object stream header at pair %d: %s", e.Pair, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedTokenStreamError) Unwrap() error { return e.Err }

// InvalidOffsetError reports an offset table entry that resolves to a
// byte range outside the decoded object stream.
type InvalidOffsetError struct {
	Index int
	Start int
	End   int
	Len   int
}

func (e *InvalidOffsetError) Error() string {
	return fmt.Sprintf("object %d spans [%d, %d) outside decoded data of %d bytes", e.Index, e.Start, e.End, e.Len)
}
