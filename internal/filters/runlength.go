package filters

import "fmt"

// RunLengthDecode expands PackBits-style run-length data. A length byte
// L in 0..127 copies the next L+1 bytes literally, 129..255 repeats the
// next byte 257-L times, and 128 ends the data.
func RunLengthDecode(data []byte) ([]byte, error) {
	return RunLengthDecodeLimit(data, 0)
}

// RunLengthDecodeLimit is RunLengthDecode with the output capped at limit
// bytes.
func RunLengthDecodeLimit(data []byte, limit int) ([]byte, error) {
	out := make([]byte, 0, len(data)*2)
	for i := 0; i < len(data); {
		n := int(data[i])
		i++
		switch {
		case n == 128:
			return out, nil
		case n < 128:
			end := i + n + 1
			if end > len(data) {
				return nil, fmt.Errorf("literal run of %d bytes at offset %d overruns input", n+1, i-1)
			}
			if limit > 0 && len(out)+n+1 > limit {
				return nil, fmt.Errorf("%w of %d bytes", ErrOutputLimit, limit)
			}
			out = append(out, data[i:end]...)
			i = end
		default:
			if i >= len(data) {
				return nil, fmt.Errorf("repeat run at offset %d has no byte to repeat", i-1)
			}
			if limit > 0 && len(out)+257-n > limit {
				return nil, fmt.Errorf("%w of %d bytes", ErrOutputLimit, limit)
			}
			b := data[i]
			for k := 0; k < 257-n; k++ {
				out = append(out, b)
			}
			i++
		}
	}
	return out, nil
}
