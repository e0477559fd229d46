package core

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// FileSpec identifies a file holding a stream's data outside the PDF.
// Only the names are interpreted; the bytes are never fetched.
type FileSpec struct {
	Name   string // preferred file name (/UF, then /F, or the string form)
	System Name   // file system (/FS), usually empty or /URL
	Dict   Dict   // the full specification dictionary, nil for the string form
}

var (
	utf16be = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	utf16le = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
)

// ParseFileSpec reads a file specification given either as a string or as
// a dictionary. A missing or null object yields nil.
func ParseFileSpec(obj Object, r ReferenceResolver) (*FileSpec, error) {
	resolved, err := Resolve(obj, r)
	if err != nil {
		return nil, err
	}

	switch v := resolved.(type) {
	case nil, Null:
		return nil, nil
	case String:
		return &FileSpec{Name: decodeTextString(string(v))}, nil
	case Dict:
		fs := &FileSpec{Dict: v}
		if system, ok := v.GetName("FS"); ok {
			fs.System = system
		}
		for _, key := range []string{"UF", "F"} {
			name, err := Resolve(v.Get(key), r)
			if err != nil {
				return nil, err
			}
			if s, ok := name.(String); ok {
				fs.Name = decodeTextString(string(s))
				break
			}
		}
		return fs, nil
	default:
		return nil, &TypeMismatchError{Want: "String or Dict", Got: resolved}
	}
}

// decodeTextString converts a PDF text string to UTF-8. Strings starting
// with a UTF-16 byte order mark are transcoded; anything else is returned
// as is.
func decodeTextString(s string) string {
	var enc = utf16be
	switch {
	case strings.HasPrefix(s, "\xfe\xff"):
	case strings.HasPrefix(s, "\xff\xfe"):
		enc = utf16le
	default:
		return s
	}
	out, err := enc.NewDecoder().String(s)
	if err != nil {
		return s
	}
	return out
}
