package filters

import (
	"errors"
	"fmt"
	"io"
)

// ErrOutputLimit is returned when a decoder would produce more bytes than
// the limit it was given.
var ErrOutputLimit = errors.New("decoded output exceeds limit")

// readAllLimit reads r to EOF. With a positive limit it stops reading one
// byte past the limit and fails, so the output never grows beyond limit+1.
func readAllLimit(r io.Reader, limit int) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	out, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, err
	}
	if len(out) > limit {
		return nil, fmt.Errorf("%w of %d bytes", ErrOutputLimit, limit)
	}
	return out, nil
}
