package core

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// hexEncode returns data as ASCIIHexDecode input.
func hexEncode(data []byte) []byte {
	return []byte(fmt.Sprintf("%X>", data))
}

func rawStream(dict Dict, data []byte) *RawStream {
	if _, ok := dict["Length"]; !ok {
		dict["Length"] = Int(len(data))
	}
	return &RawStream{Dict: dict, Data: data}
}

func TestParseStreamGeneralKeys(t *testing.T) {
	raw := rawStream(Dict{
		"Filter":      Array{Name("ASCIIHexDecode"), Name("FlateDecode")},
		"DecodeParms": Array{Null{}, Dict{"Predictor": Int(1)}},
		"Subtype":     Name("XML"),
	}, []byte("ignored"))

	s, err := ParseStream[Dict](raw, nil)
	if err != nil {
		t.Fatalf("ParseStream() error = %v", err)
	}

	filters := s.Filters()
	if len(filters) != 2 {
		t.Fatalf("expected 2 filters, got %d", len(filters))
	}
	if filters[0].Kind != "ASCIIHexDecode" || len(filters[0].Params) != 0 {
		t.Errorf("filter 0 = %v", filters[0])
	}
	if filters[1].Kind != "FlateDecode" {
		t.Errorf("filter 1 = %v", filters[1])
	}
	if p, _ := filters[1].Params.GetInt("Predictor"); p != 1 {
		t.Errorf("filter 1 params = %v", filters[1].Params)
	}

	info := s.Info()
	if len(info) != 1 || info.Get("Subtype") != Name("XML") {
		t.Errorf("info = %v, want only /Subtype", info)
	}
	if s.IsDecoded() {
		t.Error("stream with filters should not be decoded")
	}

	// The caller's dictionary is not consumed.
	if !raw.Dict.Has("Length") || !raw.Dict.Has("Filter") {
		t.Error("ParseStream modified the raw dictionary")
	}
}

func TestParseStreamSingleFilter(t *testing.T) {
	s, err := ParseStream[Dict](rawStream(Dict{
		"Filter":      Name("FlateDecode"),
		"DecodeParms": Dict{"Columns": Int(4)},
	}, nil), nil)
	if err != nil {
		t.Fatalf("ParseStream() error = %v", err)
	}
	f := s.Filters()
	if len(f) != 1 || f[0].Kind != "FlateDecode" {
		t.Fatalf("filters = %v", f)
	}
	if c, _ := f[0].Params.GetInt("Columns"); c != 4 {
		t.Errorf("params = %v", f[0].Params)
	}
}

func TestParseStreamIndirectValues(t *testing.T) {
	resolver := &mockResolver{objects: map[int]Object{
		10: Int(5),
		11: Name("ASCIIHexDecode"),
		12: Dict{"Columns": IndirectRef{Number: 13}},
		13: Int(3),
	}}
	raw := &RawStream{
		Dict: Dict{
			"Length":      IndirectRef{Number: 10},
			"Filter":      Array{IndirectRef{Number: 11}},
			"DecodeParms": IndirectRef{Number: 12},
		},
		Data: []byte("4142>"),
	}

	s, err := ParseStream[Dict](raw, resolver)
	if err != nil {
		t.Fatalf("ParseStream() error = %v", err)
	}
	f := s.Filters()
	if len(f) != 1 || f[0].Kind != "ASCIIHexDecode" {
		t.Fatalf("filters = %v", f)
	}
	if c, ok := f[0].Params.Get("Columns").(Int); !ok || c != 3 {
		t.Errorf("expected resolved /Columns 3, got %v", f[0].Params.Get("Columns"))
	}
}

func TestParseStreamResolvesStreamReference(t *testing.T) {
	raw := rawStream(Dict{"Filter": Array{}}, []byte("abc"))
	resolver := &mockResolver{objects: map[int]Object{4: raw}}

	s, err := ParseStream[Dict](IndirectRef{Number: 4}, resolver)
	if err != nil {
		t.Fatalf("ParseStream() error = %v", err)
	}
	if data, err := s.Data(); err != nil || string(data) != "abc" {
		t.Errorf("Data() = %q, %v", data, err)
	}
}

func TestParseStreamErrors(t *testing.T) {
	tests := []struct {
		name  string
		obj   Object
		check func(t *testing.T, err error)
	}{
		{
			name: "missing Length",
			obj:  &RawStream{Dict: Dict{"Filter": Array{}}, Data: []byte("x")},
			check: func(t *testing.T, err error) {
				var e *MissingKeyError
				if !errors.As(err, &e) || e.Key != "Length" {
					t.Errorf("expected missing /Length, got %v", err)
				}
			},
		},
		{
			name: "missing Filter",
			obj:  &RawStream{Dict: Dict{"Length": Int(1)}, Data: []byte("x")},
			check: func(t *testing.T, err error) {
				var e *MissingKeyError
				if !errors.As(err, &e) || e.Key != "Filter" {
					t.Errorf("expected missing /Filter, got %v", err)
				}
			},
		},
		{
			name: "length mismatch",
			obj:  &RawStream{Dict: Dict{"Length": Int(7), "Filter": Array{}}, Data: []byte("abc")},
			check: func(t *testing.T, err error) {
				var e *LengthMismatchError
				if !errors.As(err, &e) || e.Declared != 7 || e.Actual != 3 {
					t.Errorf("expected length mismatch 7/3, got %v", err)
				}
			},
		},
		{
			name: "Length not an integer",
			obj:  &RawStream{Dict: Dict{"Length": Name("Ten"), "Filter": Array{}}},
			check: func(t *testing.T, err error) {
				var e *TypeMismatchError
				if !errors.As(err, &e) || e.Want != "Int" {
					t.Errorf("expected type mismatch, got %v", err)
				}
			},
		},
		{
			name: "Filter not a name",
			obj:  &RawStream{Dict: Dict{"Length": Int(0), "Filter": Int(3)}},
			check: func(t *testing.T, err error) {
				var e *TypeMismatchError
				if !errors.As(err, &e) {
					t.Errorf("expected type mismatch, got %v", err)
				}
			},
		},
		{
			name: "DecodeParms not a dictionary",
			obj:  &RawStream{Dict: Dict{"Length": Int(0), "Filter": Name("FlateDecode"), "DecodeParms": Array{Int(1)}}},
			check: func(t *testing.T, err error) {
				var e *TypeMismatchError
				if !errors.As(err, &e) || e.Want != "Dict" {
					t.Errorf("expected type mismatch, got %v", err)
				}
			},
		},
		{
			name: "not a stream",
			obj:  Dict{"Length": Int(0)},
			check: func(t *testing.T, err error) {
				var e *TypeMismatchError
				if !errors.As(err, &e) || e.Want != "Stream" {
					t.Errorf("expected type mismatch, got %v", err)
				}
			},
		},
		{
			name: "unresolvable reference",
			obj:  IndirectRef{Number: 99},
			check: func(t *testing.T, err error) {
				if err == nil || !strings.Contains(err.Error(), "99 0 R") {
					t.Errorf("expected resolve error, got %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStream[Dict](tt.obj, &mockResolver{})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			tt.check(t, err)
		})
	}
}

func TestStreamDecodeNoFilter(t *testing.T) {
	data := []byte("Raw stream data")
	s, err := ParseStream[Dict](rawStream(Dict{"Filter": Array{}}, data), nil)
	if err != nil {
		t.Fatalf("ParseStream() error = %v", err)
	}

	called := false
	if err := s.Decode(WithDecodeHook(func(FilterEvent) { called = true })); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if called {
		t.Error("hook called with no filters")
	}
	got, err := s.Data()
	if err != nil {
		t.Fatalf("Data() error = %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Data() = %q, want %q", got, data)
	}
}

func TestStreamDecodeChain(t *testing.T) {
	original := []byte("This is test data for a two stage chain")
	encoded := hexEncode(zlibCompress(original))

	s, err := ParseStream[Dict](rawStream(Dict{
		"Filter": Array{Name("AHx"), Name("Fl")},
	}, encoded), nil)
	if err != nil {
		t.Fatalf("ParseStream() error = %v", err)
	}

	if _, err := s.Data(); !errors.Is(err, ErrNotDecoded) {
		t.Errorf("Data() before Decode = %v, want ErrNotDecoded", err)
	}

	var events []FilterEvent
	if err := s.Decode(WithDecodeHook(func(e FilterEvent) { events = append(events, e) })); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	got, err := s.Data()
	if err != nil {
		t.Fatalf("Data() error = %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Errorf("Data() = %q, want %q", got, original)
	}
	if !s.IsDecoded() || len(s.Filters()) != 0 {
		t.Errorf("filters remain after decode: %v", s.Filters())
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Filter.Kind != "AHx" || events[0].InputLen != len(encoded) {
		t.Errorf("event 0 = %+v", events[0])
	}
	if events[1].Filter.Kind != "Fl" || events[1].OutputLen != len(original) {
		t.Errorf("event 1 = %+v", events[1])
	}

	// A second decode is a no-op.
	if err := s.Decode(); err != nil {
		t.Errorf("second Decode() error = %v", err)
	}
}

func TestStreamDecodeWithPredictor(t *testing.T) {
	// PNG Up predictor, 3 columns, two rows.
	predicted := []byte{
		2, 10, 20, 30,
		2, 1, 1, 1,
	}
	s, err := ParseStream[Dict](rawStream(Dict{
		"Filter":      Name("FlateDecode"),
		"DecodeParms": Dict{"Predictor": Int(12), "Columns": Int(3)},
	}, zlibCompress(predicted)), nil)
	if err != nil {
		t.Fatalf("ParseStream() error = %v", err)
	}
	if err := s.Decode(); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	got, _ := s.Data()
	want := []byte{10, 20, 30, 11, 21, 31}
	if !bytes.Equal(got, want) {
		t.Errorf("Data() = %v, want %v", got, want)
	}
}

func TestStreamDecodeFailureLeavesStreamUnchanged(t *testing.T) {
	encoded := hexEncode([]byte("not zlib data"))
	s, err := ParseStream[Dict](rawStream(Dict{
		"Filter": Array{Name("ASCIIHexDecode"), Name("FlateDecode")},
	}, encoded), nil)
	if err != nil {
		t.Fatalf("ParseStream() error = %v", err)
	}

	err = s.Decode()
	var fe *FilterError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FilterError, got %v", err)
	}
	if fe.Index != 1 || fe.Filter != "FlateDecode" {
		t.Errorf("FilterError = %+v, want index 1 FlateDecode", fe)
	}

	if !bytes.Equal(s.RawData(), encoded) {
		t.Errorf("raw data changed after failed decode: %q", s.RawData())
	}
	if len(s.Filters()) != 2 {
		t.Errorf("filters changed after failed decode: %v", s.Filters())
	}
	if _, err := s.Data(); !errors.Is(err, ErrNotDecoded) {
		t.Errorf("Data() = %v, want ErrNotDecoded", err)
	}
}

func TestStreamDecodeUnknownFilter(t *testing.T) {
	s, err := ParseStream[Dict](rawStream(Dict{"Filter": Name("NoSuchDecode")}, []byte("x")), nil)
	if err != nil {
		t.Fatalf("ParseStream() error = %v", err)
	}
	err = s.Decode()
	if !errors.Is(err, ErrUnknownFilter) {
		t.Errorf("expected ErrUnknownFilter, got %v", err)
	}
	var fe *FilterError
	if !errors.As(err, &fe) || fe.Filter != "NoSuchDecode" {
		t.Errorf("expected FilterError naming the filter, got %v", err)
	}
}

func TestStreamDecodePassThroughFilter(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	s, err := ParseStream[Dict](rawStream(Dict{"Filter": Name("DCTDecode")}, jpeg), nil)
	if err != nil {
		t.Fatalf("ParseStream() error = %v", err)
	}
	if err := s.Decode(); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got, _ := s.Data(); !bytes.Equal(got, jpeg) {
		t.Errorf("Data() = %v, want %v", got, jpeg)
	}
}

func TestStreamDecodeMaxSize(t *testing.T) {
	original := bytes.Repeat([]byte("a"), 1000)
	s, err := ParseStream[Dict](rawStream(Dict{"Filter": Name("FlateDecode")}, zlibCompress(original)), nil)
	if err != nil {
		t.Fatalf("ParseStream() error = %v", err)
	}
	err = s.Decode(WithMaxDecodedSize(100))
	if !errors.Is(err, ErrDecodedSizeExceeded) {
		t.Fatalf("expected ErrDecodedSizeExceeded, got %v", err)
	}
	if s.IsDecoded() {
		t.Error("stream marked decoded after size failure")
	}

	if err := s.Decode(WithMaxDecodedSize(1000)); err != nil {
		t.Errorf("Decode() at the limit error = %v", err)
	}
}

func TestStreamDecodeMaxSizeStopsInflating(t *testing.T) {
	// 16 MiB of zeros deflates to a few kilobytes.
	bomb := zlibCompress(make([]byte, 16<<20))

	for _, filter := range []Name{"FlateDecode", "Fl"} {
		s, err := ParseStream[Dict](rawStream(Dict{"Filter": filter}, bomb), nil)
		if err != nil {
			t.Fatalf("ParseStream() error = %v", err)
		}
		var events []FilterEvent
		err = s.Decode(WithMaxDecodedSize(64<<10), WithDecodeHook(func(e FilterEvent) { events = append(events, e) }))
		if !errors.Is(err, ErrDecodedSizeExceeded) {
			t.Fatalf("%s: expected ErrDecodedSizeExceeded, got %v", filter, err)
		}
		var filterErr *FilterError
		if !errors.As(err, &filterErr) || filterErr.Index != 0 {
			t.Errorf("%s: expected a FilterError for stage 0, got %v", filter, err)
		}
		if len(events) != 1 || events[0].OutputLen != 0 {
			t.Errorf("%s: events = %+v", filter, events)
		}
	}
}

func TestStreamDecodePassesLimitToCodec(t *testing.T) {
	var got []int
	reg := NewFilterRegistry()
	reg.Register(func(data []byte, _ Dict, limit int) ([]byte, error) {
		got = append(got, limit)
		return data, nil
	}, "Spy")

	for _, opts := range [][]DecodeOption{
		{WithFilterRegistry(reg)},
		{WithFilterRegistry(reg), WithMaxDecodedSize(4096)},
	} {
		s, err := ParseStream[Dict](rawStream(Dict{"Filter": Name("Spy")}, []byte("data")), nil)
		if err != nil {
			t.Fatalf("ParseStream() error = %v", err)
		}
		if err := s.Decode(opts...); err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
	}
	if len(got) != 2 || got[0] != 0 || got[1] != 4096 {
		t.Errorf("codec saw limits %v, want [0 4096]", got)
	}
}

func TestStreamDecodeCustomRegistry(t *testing.T) {
	reg := NewFilterRegistry()
	reg.Register(func(data []byte, _ Dict, _ int) ([]byte, error) {
		return bytes.ToUpper(data), nil
	}, "Upper")

	s, err := ParseStream[Dict](rawStream(Dict{"Filter": Name("Upper")}, []byte("shout")), nil)
	if err != nil {
		t.Fatalf("ParseStream() error = %v", err)
	}
	if err := s.Decode(); !errors.Is(err, ErrUnknownFilter) {
		t.Fatalf("default registry should not know /Upper, got %v", err)
	}
	if err := s.Decode(WithFilterRegistry(reg)); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got, _ := s.Data(); string(got) != "SHOUT" {
		t.Errorf("Data() = %q, want SHOUT", got)
	}
}

func TestStreamEncodeAndSerializeUnsupported(t *testing.T) {
	s, err := ParseStream[Dict](rawStream(Dict{"Filter": Array{}}, nil), nil)
	if err != nil {
		t.Fatalf("ParseStream() error = %v", err)
	}
	if err := s.Encode(Filter{Kind: "FlateDecode"}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Encode() = %v, want ErrUnsupported", err)
	}
	if err := s.Serialize(&bytes.Buffer{}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Serialize() = %v, want ErrUnsupported", err)
	}
}

func TestStreamExternalFile(t *testing.T) {
	s, err := ParseStream[Dict](rawStream(Dict{
		"Filter":       Array{},
		"F":            String("data.bin"),
		"FFilter":      Name("FlateDecode"),
		"FDecodeParms": Dict{"Predictor": Int(2), "Columns": Int(8)},
	}, nil), nil)
	if err != nil {
		t.Fatalf("ParseStream() error = %v", err)
	}
	if s.File() == nil || s.File().Name != "data.bin" {
		t.Errorf("File() = %+v, want data.bin", s.File())
	}
	ff := s.FileFilters()
	if len(ff) != 1 || ff[0].Kind != "FlateDecode" {
		t.Fatalf("FileFilters() = %v", ff)
	}
	if p, _ := ff[0].Params.GetInt("Predictor"); p != 2 {
		t.Errorf("file filter params = %v", ff[0].Params)
	}
	if len(s.Info()) != 0 {
		t.Errorf("external file keys leaked into info: %v", s.Info())
	}
}

func TestRawStreamWithDefaultFilter(t *testing.T) {
	raw := &RawStream{Dict: Dict{"Length": Int(0)}}
	fixed := raw.WithDefaultFilter()
	if raw.Dict.Has("Filter") {
		t.Error("original dictionary modified")
	}
	if arr, ok := fixed.Dict.Get("Filter").(Array); !ok || len(arr) != 0 {
		t.Errorf("expected empty /Filter array, got %v", fixed.Dict.Get("Filter"))
	}

	withFilter := &RawStream{Dict: Dict{"Filter": Name("Fl")}}
	if withFilter.WithDefaultFilter() != withFilter {
		t.Error("stream with /Filter should be returned as is")
	}
}
