package core

import (
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Stream is a stream object with its general entries interpreted and its
// type-specific entries unmarshalled into T.
//
// Data holds the raw, still-filtered bytes until Decode succeeds; after
// that the filter chain is empty and the bytes are canonical. A Stream is
// owned by one goroutine while it is being decoded.
type Stream[T any] struct {
	filters     []Filter
	file        *FileSpec
	fileFilters []Filter
	info        T
	data        []byte
}

// ParseStream builds a Stream from a stream object, resolving obj first if
// it is an indirect reference. The general keys (/Length, /Filter,
// /DecodeParms, /F, /FFilter, /FDecodeParms) are consumed here; T is
// unmarshalled from whatever remains. The caller's dictionary is left
// untouched and the raw byte slice is adopted without copying.
func ParseStream[T any, PT interface {
	*T
	Unmarshaler
}](obj Object, r ReferenceResolver) (*Stream[T], error) {
	resolved, err := Resolve(obj, r)
	if err != nil {
		return nil, err
	}
	raw, ok := resolved.(*RawStream)
	if !ok || raw == nil {
		return nil, &TypeMismatchError{Want: "Stream", Got: resolved}
	}
	dict := raw.Dict.Clone()

	lengthObj, err := TakeKey(dict, "Length")
	if err != nil {
		return nil, err
	}
	length, err := ToInt(lengthObj, r)
	if err != nil {
		return nil, fmt.Errorf("stream /Length: %w", err)
	}
	if length != len(raw.Data) {
		return nil, &LengthMismatchError{Declared: length, Actual: len(raw.Data)}
	}

	filterObj, err := TakeKey(dict, "Filter")
	if err != nil {
		return nil, err
	}
	names, err := ToNames(filterObj, r)
	if err != nil {
		return nil, fmt.Errorf("stream /Filter: %w", err)
	}
	parmsObj, _ := dict.Remove("DecodeParms")
	parms, err := ToDicts(parmsObj, r)
	if err != nil {
		return nil, fmt.Errorf("stream /DecodeParms: %w", err)
	}

	fileObj, _ := dict.Remove("F")
	file, err := ParseFileSpec(fileObj, r)
	if err != nil {
		return nil, fmt.Errorf("stream /F: %w", err)
	}

	fileFilterObj, _ := dict.Remove("FFilter")
	fileNames, err := ToNames(fileFilterObj, r)
	if err != nil {
		return nil, fmt.Errorf("stream /FFilter: %w", err)
	}
	fileParmsObj, _ := dict.Remove("FDecodeParms")
	fileParms, err := ToDicts(fileParmsObj, r)
	if err != nil {
		return nil, fmt.Errorf("stream /FDecodeParms: %w", err)
	}

	chain, err := BuildFilterChain(names, parms, r)
	if err != nil {
		return nil, err
	}
	fileChain, err := BuildFilterChain(fileNames, fileParms, r)
	if err != nil {
		return nil, err
	}

	s := &Stream[T]{
		filters:     chain,
		file:        file,
		fileFilters: fileChain,
		data:        raw.Data,
	}
	if err := PT(&s.info).UnmarshalObject(dict, r); err != nil {
		return nil, err
	}
	return s, nil
}

// WithDefaultFilter returns s unchanged if it declares /Filter, and
// otherwise a copy whose dictionary has an empty /Filter array. Writers
// commonly omit /Filter on unencoded streams, which ParseStream rejects.
func (s *RawStream) WithDefaultFilter() *RawStream {
	if s == nil || s.Dict.Has("Filter") {
		return s
	}
	dict := s.Dict.Clone()
	dict.Set("Filter", Array{})
	return &RawStream{Dict: dict, Data: s.Data}
}

// Decode applies the filter chain in order. Either every filter succeeds,
// the data is replaced by the canonical bytes and the chain is cleared, or
// the first failing filter's error is returned as a *FilterError and the
// stream is left as it was. With no filters Decode does nothing.
func (s *Stream[T]) Decode(opts ...DecodeOption) error {
	if len(s.filters) == 0 {
		return nil
	}
	cfg := newDecodeConfig(opts)

	buf := s.data
	for i, f := range s.filters {
		start := time.Now()
		out, err := runFilter(cfg, f, buf)
		event := FilterEvent{
			Index:     i,
			Filter:    f,
			InputLen:  len(buf),
			OutputLen: len(out),
			Duration:  time.Since(start),
			Err:       err,
		}
		if cfg.hook != nil {
			cfg.hook(event)
		}
		if err != nil {
			cfg.logger.Debug("filter failed",
				slog.Int("index", i),
				slog.String("filter", string(f.Kind)),
				slog.Any("error", err))
			return &FilterError{Index: i, Filter: f.Kind, Err: err}
		}
		cfg.logger.Debug("filter applied",
			slog.Int("index", i),
			slog.String("filter", string(f.Kind)),
			slog.Int("in", event.InputLen),
			slog.Int("out", event.OutputLen),
			slog.Duration("duration", event.Duration))
		buf = out
	}

	s.data = buf
	s.filters = nil
	return nil
}

func runFilter(cfg decodeConfig, f Filter, data []byte) ([]byte, error) {
	codec, ok := cfg.registry.Lookup(f.Kind)
	if !ok {
		return nil, ErrUnknownFilter
	}
	out, err := codec(data, f.Params, cfg.maxDecodedSize)
	if err != nil {
		return nil, err
	}
	if cfg.maxDecodedSize > 0 && len(out) > cfg.maxDecodedSize {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrDecodedSizeExceeded, len(out), cfg.maxDecodedSize)
	}
	return out, nil
}

// Encode would add f to the chain and encode the data with it. Encoding is
// not supported.
func (s *Stream[T]) Encode(f Filter) error {
	return fmt.Errorf("encode with %s: %w", string(f.Kind), ErrUnsupported)
}

// Serialize is not supported for streams.
func (s *Stream[T]) Serialize(w io.Writer) error {
	return fmt.Errorf("serialize stream: %w", ErrUnsupported)
}

// Data returns the canonical bytes, or ErrNotDecoded while filters remain.
func (s *Stream[T]) Data() ([]byte, error) {
	if len(s.filters) > 0 {
		return nil, ErrNotDecoded
	}
	return s.data, nil
}

// RawData returns the current bytes whether or not they are decoded.
func (s *Stream[T]) RawData() []byte {
	return s.data
}

// Len returns the length of the current bytes.
func (s *Stream[T]) Len() int {
	return len(s.data)
}

// IsDecoded reports whether the filter chain is empty.
func (s *Stream[T]) IsDecoded() bool {
	return len(s.filters) == 0
}

// Filters returns the filters still to be applied.
func (s *Stream[T]) Filters() []Filter {
	return s.filters
}

// FileFilters returns the filters declared for the external file's data.
func (s *Stream[T]) FileFilters() []Filter {
	return s.fileFilters
}

// File returns the external file specification, or nil when the data is
// held in the stream itself.
func (s *Stream[T]) File() *FileSpec {
	return s.file
}

// Info returns the type-specific dictionary entries.
func (s *Stream[T]) Info() T {
	return s.info
}
