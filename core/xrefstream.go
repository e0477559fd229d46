package core

import (
	"bufio"
	"fmt"
	"io"
)

// XRefStreamInfo holds the entries specific to a cross-reference stream
// (Type /XRef), introduced in PDF 1.5.
type XRefStreamInfo struct {
	Size  int   // one greater than the highest object number
	Index []int // pairs of (first object number, count); defaults to [0 Size]
	W     []int // byte widths of the three entry fields
	Prev  int64 // offset of the previous cross-reference section, or -1
}

// UnmarshalObject reads /Type, /Size, /W, /Index and /Prev. Other trailer
// entries such as /Root are left to the caller.
func (info *XRefStreamInfo) UnmarshalObject(obj Object, r ReferenceResolver) error {
	dict, err := ToDict(obj, r)
	if err != nil {
		return err
	}

	typeObj := dict.Get("Type")
	if typeObj == nil {
		return &MissingKeyError{Key: "Type"}
	}
	typ, err := ToName(typeObj, r)
	if err != nil {
		return fmt.Errorf("xref stream /Type: %w", err)
	}
	if typ != "XRef" {
		return &TypeMismatchError{Want: "XRef", Got: typ}
	}

	sizeObj := dict.Get("Size")
	if sizeObj == nil {
		return &MissingKeyError{Key: "Size"}
	}
	size, err := ToInt(sizeObj, r)
	if err != nil {
		return fmt.Errorf("xref stream /Size: %w", err)
	}
	if size < 0 {
		return fmt.Errorf("invalid xref stream /Size: %d", size)
	}

	wObj := dict.Get("W")
	if wObj == nil {
		return &MissingKeyError{Key: "W"}
	}
	w, err := toInts(wObj, r)
	if err != nil {
		return fmt.Errorf("xref stream /W: %w", err)
	}
	if len(w) != 3 {
		return fmt.Errorf("xref stream /W must have 3 elements, got %d", len(w))
	}
	for i, width := range w {
		if width < 0 || width > 8 {
			return fmt.Errorf("xref stream /W[%d] out of range: %d", i, width)
		}
	}

	index := []int{0, size}
	if indexObj := dict.Get("Index"); indexObj != nil {
		index, err = toInts(indexObj, r)
		if err != nil {
			return fmt.Errorf("xref stream /Index: %w", err)
		}
		if len(index)%2 != 0 {
			return fmt.Errorf("xref stream /Index must have an even number of elements, got %d", len(index))
		}
	}

	prev := int64(-1)
	if prevObj := dict.Get("Prev"); prevObj != nil {
		p, err := ToInt(prevObj, r)
		if err != nil {
			return fmt.Errorf("xref stream /Prev: %w", err)
		}
		prev = int64(p)
	}

	*info = XRefStreamInfo{Size: size, Index: index, W: w, Prev: prev}
	return nil
}

// Serialize is not supported.
func (info *XRefStreamInfo) Serialize(w io.Writer) error {
	return fmt.Errorf("serialize xref stream info: %w", ErrUnsupported)
}

// EntryWidth returns the number of bytes in one entry.
func (info *XRefStreamInfo) EntryWidth() int {
	return info.W[0] + info.W[1] + info.W[2]
}

func toInts(obj Object, r ReferenceResolver) ([]int, error) {
	resolved, err := Resolve(obj, r)
	if err != nil {
		return nil, err
	}
	arr, ok := resolved.(Array)
	if !ok {
		return nil, &TypeMismatchError{Want: "Array", Got: resolved}
	}
	out := make([]int, len(arr))
	for i, elem := range arr {
		v, err := ToInt(elem, r)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// parseXRefStream parses the cross-reference stream object at the current
// reader position. The stream dictionary doubles as the trailer.
func (x *XRefParser) parseXRefStream() (*XRefTable, error) {
	parser := NewParser(bufio.NewReader(x.reader))
	parser.SetReferenceResolver(x.resolver)

	indirect, err := parser.ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("failed to parse xref stream object: %w", err)
	}
	raw, ok := indirect.Object.(*RawStream)
	if !ok {
		return nil, fmt.Errorf("xref stream object %s is not a stream", indirect.Ref)
	}

	stream, err := ParseStream[XRefStreamInfo](raw.WithDefaultFilter(), x.resolver)
	if err != nil {
		return nil, fmt.Errorf("xref stream %s: %w", indirect.Ref, err)
	}
	if err := stream.Decode(x.decodeOpts...); err != nil {
		return nil, fmt.Errorf("xref stream %s: %w", indirect.Ref, err)
	}

	info := stream.Info()
	data := stream.RawData()
	width := info.EntryWidth()
	if width == 0 {
		return nil, fmt.Errorf("xref stream %s has zero entry width", indirect.Ref)
	}

	table := NewXRefTable()
	table.IsStream = true
	table.Trailer = raw.Dict

	pos := 0
	for i := 0; i+1 < len(info.Index); i += 2 {
		first, count := info.Index[i], info.Index[i+1]
		if first < 0 || count < 0 {
			return nil, fmt.Errorf("invalid xref stream subsection [%d %d]", first, count)
		}
		for j := 0; j < count; j++ {
			entry, n, err := x.parseXRefStreamEntry(data[pos:], info.W)
			if err != nil {
				return nil, fmt.Errorf("xref stream entry for object %d: %w", first+j, err)
			}
			pos += n
			table.Set(first+j, entry)
		}
	}

	return table, nil
}

// parseXRefStreamEntry decodes one binary entry from data using the field
// widths w. It returns the entry and the number of bytes consumed. A zero
// width type field defaults to type 1.
func (x *XRefParser) parseXRefStreamEntry(data []byte, w []int) (*XRefEntry, int, error) {
	size := w[0] + w[1] + w[2]
	if len(data) < size {
		return nil, 0, fmt.Errorf("need %d bytes, have %d", size, len(data))
	}

	entryType := int64(1)
	if w[0] > 0 {
		entryType = readBigEndianInt(data, w[0])
	}
	field2 := readBigEndianInt(data[w[0]:], w[1])
	field3 := readBigEndianInt(data[w[0]+w[1]:], w[2])

	entry := &XRefEntry{
		Offset:     field2,
		Generation: int(field3),
	}
	switch entryType {
	case 0:
		entry.Type = XRefEntryFree
	case 1:
		entry.Type = XRefEntryUncompressed
		entry.InUse = true
	case 2:
		entry.Type = XRefEntryCompressed
		entry.InUse = true
	default:
		// Unknown types are treated as references to the null object.
		entry.Type = XRefEntryFree
	}
	return entry, size, nil
}

// readBigEndianInt reads width bytes from data as an unsigned big-endian
// integer. A zero width reads nothing and returns 0.
func readBigEndianInt(data []byte, width int) int64 {
	var v int64
	for i := 0; i < width && i < len(data); i++ {
		v = v<<8 | int64(data[i])
	}
	return v
}
