package filters

import "fmt"

// ASCIIHexDecode decodes ASCII hexadecimal data. Whitespace is ignored,
// '>' ends the data, and a trailing odd digit is treated as if followed
// by 0.
func ASCIIHexDecode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)/2)
	var (
		high    byte
		pending bool
	)
	for i, c := range data {
		if isWhitespace(c) {
			continue
		}
		if c == '>' {
			break
		}
		v, ok := hexValue(c)
		if !ok {
			return nil, fmt.Errorf("invalid hex digit %q at offset %d", c, i)
		}
		if pending {
			out = append(out, high<<4|v)
			pending = false
		} else {
			high = v
			pending = true
		}
	}
	if pending {
		out = append(out, high<<4)
	}
	return out, nil
}

// ASCII85Decode decodes ASCII base-85 data. Groups of five characters in
// '!'..'u' encode four bytes, 'z' stands for four zero bytes, and "~>"
// ends the data. A leading "<~" is accepted.
func ASCII85Decode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)*4/5+4)
	var (
		group [5]byte
		n     int
	)

	i := 0
	if len(data) >= 2 && data[0] == '<' && data[1] == '~' {
		i = 2
	}
	for ; i < len(data); i++ {
		c := data[i]
		switch {
		case isWhitespace(c):
			continue
		case c == '~':
			if i+1 < len(data) && data[i+1] == '>' {
				return flush85(out, group, n), nil
			}
			return nil, fmt.Errorf("'~' not followed by '>' at offset %d", i)
		case c == 'z' && n == 0:
			out = append(out, 0, 0, 0, 0)
		case c >= '!' && c <= 'u':
			group[n] = c - '!'
			n++
			if n == 5 {
				out = flush85(out, group, 5)
				n = 0
			}
		default:
			return nil, fmt.Errorf("invalid ASCII85 character %q at offset %d", c, i)
		}
	}
	return flush85(out, group, n), nil
}

// flush85 appends the bytes encoded by the first n digits of group. A
// partial group of n digits is padded with 'u' and yields n-1 bytes.
func flush85(out []byte, group [5]byte, n int) []byte {
	if n < 2 {
		return out
	}
	for k := n; k < 5; k++ {
		group[k] = 84
	}
	var v uint32
	for _, d := range group {
		v = v*85 + uint32(d)
	}
	word := [4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	return append(out, word[:n-1]...)
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	default:
		return 0, false
	}
}

// isWhitespace reports whether c is a PDF whitespace character.
func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}
