package filters

import (
	"bytes"
	stdlzw "compress/lzw"
	"compress/zlib"
	"errors"
	"testing"
)

// zlibCompress compresses data for testing
func zlibCompress(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

func TestFlateDecode(t *testing.T) {
	original := []byte("Hello, World! This is test data for FlateDecode.")

	decoded, err := FlateDecode(zlibCompress(original), nil)
	if err != nil {
		t.Fatalf("FlateDecode failed: %v", err)
	}
	if !bytes.Equal(decoded, original) {
		t.Errorf("decoded data doesn't match original\ngot:  %s\nwant: %s", decoded, original)
	}
}

func TestFlateDecodeInvalidZlib(t *testing.T) {
	if _, err := FlateDecode([]byte("not zlib data"), nil); err == nil {
		t.Error("expected error for invalid zlib data")
	}
}

func TestFlateDecodeWithPNGPredictor(t *testing.T) {
	// Two rows of two samples, both tagged Up.
	encoded := []byte{2, 1, 2, 2, 1, 1}

	decoded, err := FlateDecode(zlibCompress(encoded), Params{"Predictor": 12, "Columns": 2})
	if err != nil {
		t.Fatalf("FlateDecode failed: %v", err)
	}
	want := []byte{1, 2, 2, 3}
	if !bytes.Equal(decoded, want) {
		t.Errorf("decoded = %v, want %v", decoded, want)
	}
}

func TestPredictors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		params  Params
		want    []byte
		wantErr bool
	}{
		{
			name:   "no predictor",
			data:   []byte{1, 2, 3},
			params: nil,
			want:   []byte{1, 2, 3},
		},
		{
			name:   "png none",
			data:   []byte{0, 1, 2, 3, 0, 4, 5, 6},
			params: Params{"Predictor": 10, "Columns": 3},
			want:   []byte{1, 2, 3, 4, 5, 6},
		},
		{
			name:   "png sub",
			data:   []byte{1, 1, 1, 1},
			params: Params{"Predictor": 11, "Columns": 3},
			want:   []byte{1, 2, 3},
		},
		{
			name:   "png up",
			data:   []byte{2, 1, 2, 2, 1, 1},
			params: Params{"Predictor": 12, "Columns": 2},
			want:   []byte{1, 2, 2, 3},
		},
		{
			name:   "png average",
			data:   []byte{3, 2, 2, 3, 1, 1},
			params: Params{"Predictor": 13, "Columns": 2},
			// row 0: 2, 2+2/2=3; row 1: 1+2/2=2, 1+(2+3)/2=3
			want: []byte{2, 3, 2, 3},
		},
		{
			name:   "png paeth on first row behaves like sub",
			data:   []byte{4, 5, 1, 1},
			params: Params{"Predictor": 14, "Columns": 3},
			want:   []byte{5, 6, 7},
		},
		{
			name:   "tiff predictor 2",
			data:   []byte{1, 1, 1, 10, 1, 1},
			params: Params{"Predictor": 2, "Columns": 3},
			want:   []byte{1, 2, 3, 10, 11, 12},
		},
		{
			name:    "unsupported predictor",
			data:    []byte{1},
			params:  Params{"Predictor": 7},
			wantErr: true,
		},
		{
			name:    "wrong bits per component",
			data:    []byte{0, 1},
			params:  Params{"Predictor": 10, "BitsPerComponent": 4},
			wantErr: true,
		},
		{
			name:    "partial row",
			data:    []byte{0, 1, 2},
			params:  Params{"Predictor": 10, "Columns": 3},
			wantErr: true,
		},
		{
			name:    "unknown png row tag",
			data:    []byte{9, 1},
			params:  Params{"Predictor": 10},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := unpredict(tt.data, tt.params)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unpredict() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("unpredict() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPaeth(t *testing.T) {
	tests := []struct {
		a, b, c, want byte
	}{
		{a: 10, b: 0, c: 0, want: 10},
		{a: 0, b: 10, c: 0, want: 10},
		{a: 10, b: 20, c: 10, want: 20},
		{a: 20, b: 10, c: 10, want: 20},
		{a: 5, b: 5, c: 5, want: 5},
	}
	for _, tt := range tests {
		if got := paeth(tt.a, tt.b, tt.c); got != tt.want {
			t.Errorf("paeth(%d, %d, %d) = %d, want %d", tt.a, tt.b, tt.c, got, tt.want)
		}
	}
}

func TestLZWDecode(t *testing.T) {
	// The example from the PDF reference: "-----A---B" as 9-bit codes
	// 256 45 258 258 65 259 66 257.
	encoded := []byte{0x80, 0x0B, 0x60, 0x50, 0x22, 0x0C, 0x0C, 0x85, 0x01}

	for _, early := range []int{0, 1} {
		decoded, err := LZWDecode(encoded, Params{"EarlyChange": early})
		if err != nil {
			t.Fatalf("EarlyChange=%d: LZWDecode failed: %v", early, err)
		}
		if string(decoded) != "-----A---B" {
			t.Errorf("EarlyChange=%d: decoded = %q, want %q", early, decoded, "-----A---B")
		}
	}
}

func TestLZWDecodeNoEarlyChange(t *testing.T) {
	original := bytes.Repeat([]byte("object stream payload "), 40)

	var buf bytes.Buffer
	w := stdlzw.NewWriter(&buf, stdlzw.MSB, 8)
	w.Write(original)
	w.Close()

	decoded, err := LZWDecode(buf.Bytes(), Params{"EarlyChange": 0})
	if err != nil {
		t.Fatalf("LZWDecode failed: %v", err)
	}
	if !bytes.Equal(decoded, original) {
		t.Error("decoded data doesn't match original")
	}
}

func TestLZWDecodeInvalidEarlyChange(t *testing.T) {
	if _, err := LZWDecode([]byte{0x80}, Params{"EarlyChange": 2}); err == nil {
		t.Error("expected error for EarlyChange=2")
	}
}

func TestRunLengthDecode(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    string
		wantErr bool
	}{
		{name: "literal", data: []byte{2, 'a', 'b', 'c', 128}, want: "abc"},
		{name: "repeat", data: []byte{254, 'x', 128}, want: "xxx"},
		{name: "mixed", data: []byte{0, 'a', 255, 'b', 1, 'c', 'd'}, want: "abbcd"},
		{name: "stops at EOD", data: []byte{0, 'a', 128, 0, 'z'}, want: "a"},
		{name: "empty", data: nil, want: ""},
		{name: "literal overrun", data: []byte{5, 'a'}, wantErr: true},
		{name: "repeat without byte", data: []byte{200}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RunLengthDecode(tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("RunLengthDecode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && string(got) != tt.want {
				t.Errorf("RunLengthDecode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestASCIIHexDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []byte
		wantErr bool
	}{
		{name: "basic", input: "48656C6C6F>", want: []byte("Hello")},
		{name: "whitespace", input: "48 65\n6c 6C\t6F>", want: []byte("Hello")},
		{name: "odd digit count", input: "48656C6C6F7>", want: []byte("Hello\x70")},
		{name: "no EOD", input: "4142", want: []byte("AB")},
		{name: "data after EOD ignored", input: "41>42", want: []byte("A")},
		{name: "invalid digit", input: "4G>", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ASCIIHexDecode([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ASCIIHexDecode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !bytes.Equal(got, tt.want) {
				t.Errorf("ASCIIHexDecode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestASCII85Decode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []byte
		wantErr bool
	}{
		{name: "full group", input: "9jqo^~>", want: []byte("Man ")},
		{name: "partial group", input: "9jqo~>", want: []byte("Man")},
		{name: "with prefix", input: "<~9jqo^~>", want: []byte("Man ")},
		{name: "zero group", input: "z~>", want: []byte{0, 0, 0, 0}},
		{name: "whitespace", input: "9j qo\n^~>", want: []byte("Man ")},
		{name: "no EOD", input: "9jqo^", want: []byte("Man ")},
		{name: "invalid character", input: "9jq{o~>", wantErr: true},
		{name: "z inside group", input: "9jz~>", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ASCII85Decode([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ASCII85Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !bytes.Equal(got, tt.want) {
				t.Errorf("ASCII85Decode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetParams(t *testing.T) {
	params := Params{"Columns": 5, "Wide": int64(7), "Real": 2.0, "Flag": true, "Text": "x"}

	if got := getIntParam(params, "Columns", 1); got != 5 {
		t.Errorf("Columns = %d, want 5", got)
	}
	if got := getIntParam(params, "Wide", 1); got != 7 {
		t.Errorf("Wide = %d, want 7", got)
	}
	if got := getIntParam(params, "Real", 1); got != 2 {
		t.Errorf("Real = %d, want 2", got)
	}
	if got := getIntParam(params, "Text", 9); got != 9 {
		t.Errorf("Text = %d, want default 9", got)
	}
	if got := getIntParam(nil, "Columns", 3); got != 3 {
		t.Errorf("nil params = %d, want default 3", got)
	}
	if !getBoolParam(params, "Flag", false) {
		t.Error("Flag = false, want true")
	}
	if getBoolParam(params, "Text", false) {
		t.Error("non-bool value should return the default")
	}
}

func TestDecodeOutputLimit(t *testing.T) {
	zeros := make([]byte, 1<<20)

	var lzwBuf bytes.Buffer
	w := stdlzw.NewWriter(&lzwBuf, stdlzw.MSB, 8)
	w.Write(zeros)
	w.Close()

	// 128 bytes of 'x' per two input bytes.
	var rl []byte
	for i := 0; i < 1000; i++ {
		rl = append(rl, 129, 'x')
	}

	tests := []struct {
		name   string
		decode func(limit int) ([]byte, error)
		full   int
	}{
		{"flate", func(limit int) ([]byte, error) { return FlateDecodeLimit(zlibCompress(zeros), nil, limit) }, len(zeros)},
		{"lzw", func(limit int) ([]byte, error) {
			return LZWDecodeLimit(lzwBuf.Bytes(), Params{"EarlyChange": 0}, limit)
		}, len(zeros)},
		{"run length", func(limit int) ([]byte, error) { return RunLengthDecodeLimit(rl, limit) }, 128000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.decode(4096); !errors.Is(err, ErrOutputLimit) {
				t.Errorf("limit 4096: expected ErrOutputLimit, got %v", err)
			}
			out, err := tt.decode(tt.full)
			if err != nil || len(out) != tt.full {
				t.Errorf("limit at the full size: %d bytes, %v", len(out), err)
			}
			out, err = tt.decode(0)
			if err != nil || len(out) != tt.full {
				t.Errorf("no limit: %d bytes, %v", len(out), err)
			}
		})
	}
}
