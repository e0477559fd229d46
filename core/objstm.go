package core

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
)

// ObjStmInfo holds the entries specific to an object stream (Type /ObjStm).
type ObjStmInfo struct {
	N       int          // number of objects packed in the stream
	First   int          // byte offset in the decoded data of the first object
	Extends *IndirectRef // optional object stream this one extends
}

// UnmarshalObject reads /N, /First and /Extends from the stream
// dictionary. /Type may be absent, but if present it must be /ObjStm.
func (info *ObjStmInfo) UnmarshalObject(obj Object, r ReferenceResolver) error {
	dict, err := ToDict(obj, r)
	if err != nil {
		return err
	}
	dict = dict.Clone()

	if typeObj, ok := dict.Remove("Type"); ok {
		typ, err := ToName(typeObj, r)
		if err != nil {
			return fmt.Errorf("object stream /Type: %w", err)
		}
		if typ != "ObjStm" {
			return &TypeMismatchError{Want: "ObjStm", Got: typ}
		}
	}

	nObj, err := TakeKey(dict, "N")
	if err != nil {
		return err
	}
	n, err := ToInt(nObj, r)
	if err != nil {
		return fmt.Errorf("object stream /N: %w", err)
	}
	if n < 0 {
		return fmt.Errorf("invalid object stream /N value: %d", n)
	}

	firstObj, err := TakeKey(dict, "First")
	if err != nil {
		return err
	}
	first, err := ToInt(firstObj, r)
	if err != nil {
		return fmt.Errorf("object stream /First: %w", err)
	}
	if first < 0 {
		return fmt.Errorf("invalid object stream /First value: %d", first)
	}

	extendsObj, _ := dict.Remove("Extends")
	extends, err := ToIndirectRef(extendsObj)
	if err != nil {
		return fmt.Errorf("object stream /Extends: %w", err)
	}

	*info = ObjStmInfo{N: n, First: first, Extends: extends}
	return nil
}

// Serialize is not supported.
func (info *ObjStmInfo) Serialize(w io.Writer) error {
	return fmt.Errorf("serialize object stream info: %w", ErrUnsupported)
}

// ObjectStream is a decoded object stream with its offset table. Object
// streams, introduced in PDF 1.5, pack several objects into one stream.
//
// An ObjectStream is immutable once built and safe for concurrent reads.
type ObjectStream struct {
	id      int
	stream  *Stream[ObjStmInfo]
	objNums []int
	offsets []int
}

// ParseObjectStream builds the object stream with object number id from a
// stream object. The stream is decoded immediately and its header of N
// "objNum offset" integer pairs is read into the offset table.
//
// By default the header must fit before /First; see WithStrictHeader.
func ParseObjectStream(id int, obj Object, r ReferenceResolver, opts ...DecodeOption) (*ObjectStream, error) {
	stream, err := ParseStream[ObjStmInfo](obj, r)
	if err != nil {
		return nil, err
	}
	if err := stream.Decode(opts...); err != nil {
		return nil, err
	}

	cfg := newDecodeConfig(opts)
	info := stream.Info()
	data := stream.RawData()

	header := data
	if cfg.strictHeader {
		if info.First > len(data) {
			return nil, &MalformedTokenStreamError{
				Reason: fmt.Sprintf("/First %d is past the end of %d decoded bytes", info.First, len(data)),
			}
		}
		header = data[:info.First]
	}

	objNums, offsets, err := readOffsetTable(header, info.N)
	if err != nil {
		return nil, err
	}

	cfg.logger.Debug("object stream parsed",
		slog.Int("id", id),
		slog.Int("objects", info.N),
		slog.Int("first", info.First),
		slog.Int("bytes", len(data)))

	return &ObjectStream{
		id:      id,
		stream:  stream,
		objNums: objNums,
		offsets: offsets,
	}, nil
}

// readOffsetTable lexes n pairs of non-negative integers from header.
func readOffsetTable(header []byte, n int) (objNums, offsets []int, err error) {
	lexer := NewLexer(bytes.NewReader(header))
	next := func(pair int, what string) (int, error) {
		for {
			tok, err := lexer.NextToken()
			if err != nil {
				return 0, &MalformedTokenStreamError{Pair: pair, Reason: "reading " + what, Err: err}
			}
			switch tok.Type {
			case TokenComment:
				continue
			case TokenEOF:
				return 0, &MalformedTokenStreamError{Pair: pair, Reason: what + ": unexpected end of header"}
			case TokenInteger:
				v, err := strconv.Atoi(string(tok.Value))
				if err != nil {
					return 0, &MalformedTokenStreamError{Pair: pair, Reason: fmt.Sprintf("%s %q", what, tok.Value), Err: err}
				}
				if v < 0 {
					return 0, &MalformedTokenStreamError{Pair: pair, Reason: fmt.Sprintf("negative %s %d", what, v)}
				}
				return v, nil
			default:
				return 0, &MalformedTokenStreamError{Pair: pair, Reason: fmt.Sprintf("%s: expected integer, got %v", what, tok.Type)}
			}
		}
	}

	// A pair takes at least four header bytes.
	size := min(n, len(header)/4+1)
	objNums = make([]int, 0, size)
	offsets = make([]int, 0, size)
	for i := 0; i < n; i++ {
		num, err := next(i, "object number")
		if err != nil {
			return nil, nil, err
		}
		off, err := next(i, "offset")
		if err != nil {
			return nil, nil, err
		}
		objNums = append(objNums, num)
		offsets = append(offsets, off)
	}
	return objNums, offsets, nil
}

// ID returns the object number of the stream itself.
func (os *ObjectStream) ID() int {
	return os.id
}

// NObjects returns the number of objects in the offset table.
func (os *ObjectStream) NObjects() int {
	return len(os.offsets)
}

// Info returns the stream's /N, /First and /Extends entries.
func (os *ObjectStream) Info() ObjStmInfo {
	return os.stream.Info()
}

// Extends returns the object stream this one extends, or nil.
func (os *ObjectStream) Extends() *IndirectRef {
	return os.stream.Info().Extends
}

// Offsets returns a copy of the offset table. Offsets are relative to
// /First.
func (os *ObjectStream) Offsets() []int {
	return append([]int(nil), os.offsets...)
}

// ObjectNumbers returns a copy of the object numbers in header order.
func (os *ObjectStream) ObjectNumbers() []int {
	return append([]int(nil), os.objNums...)
}

// Data returns the whole decoded payload, header included.
func (os *ObjectStream) Data() []byte {
	return os.stream.RawData()
}

// ObjectSlice returns the bytes of the object at index. The slice shares
// memory with the stream and must not be modified.
func (os *ObjectStream) ObjectSlice(index int) ([]byte, error) {
	count := len(os.offsets)
	if index < 0 || index >= count {
		return nil, &OutOfBoundsError{Index: index, Count: count}
	}

	data := os.stream.RawData()
	first := os.stream.Info().First

	start := addOffset(first, os.offsets[index])
	end := len(data)
	if index+1 < count {
		end = addOffset(first, os.offsets[index+1])
	}
	if start > end || end > len(data) {
		return nil, &InvalidOffsetError{Index: index, Start: start, End: end, Len: len(data)}
	}
	return data[start:end:end], nil
}

// addOffset adds two non-negative ints, saturating at math.MaxInt.
func addOffset(first, off int) int {
	if off > math.MaxInt-first {
		return math.MaxInt
	}
	return first + off
}

// GetObjectByIndex parses the object at index. It returns the object and
// its object number.
func (os *ObjectStream) GetObjectByIndex(index int) (Object, int, error) {
	slice, err := os.ObjectSlice(index)
	if err != nil {
		return nil, 0, err
	}
	obj, err := NewParser(bytes.NewReader(slice)).ParseObject()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse object at index %d: %w", index, err)
	}
	return obj, os.objNums[index], nil
}

// GetObjectByNumber finds and parses the object with number objNum. It
// returns the object and its index in the stream.
func (os *ObjectStream) GetObjectByNumber(objNum int) (Object, int, error) {
	for i, num := range os.objNums {
		if num == objNum {
			obj, _, err := os.GetObjectByIndex(i)
			return obj, i, err
		}
	}
	return nil, 0, fmt.Errorf("object %d not found in object stream %d", objNum, os.id)
}

// ContainsObject reports whether objNum is stored in this stream.
func (os *ObjectStream) ContainsObject(objNum int) bool {
	for _, num := range os.objNums {
		if num == objNum {
			return true
		}
	}
	return false
}

// Serialize is not supported.
func (os *ObjectStream) Serialize(w io.Writer) error {
	return fmt.Errorf("serialize object stream: %w", ErrUnsupported)
}
