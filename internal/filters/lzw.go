package filters

import (
	"bytes"
	stdlzw "compress/lzw"
	"fmt"
	"io"

	"golang.org/x/image/tiff/lzw"
)

// LZWDecode decompresses LZW data as PDF defines it: MSB-first codes
// starting at 9 bits. EarlyChange (default 1) widens the code one entry
// early, which is the TIFF variant implemented by x/image; EarlyChange 0
// is the conventional variant in compress/lzw.
func LZWDecode(data []byte, params Params) ([]byte, error) {
	return LZWDecodeLimit(data, params, 0)
}

// LZWDecodeLimit is LZWDecode with the output capped at limit bytes.
func LZWDecodeLimit(data []byte, params Params, limit int) ([]byte, error) {
	var r io.ReadCloser
	switch early := getIntParam(params, "EarlyChange", 1); early {
	case 1:
		r = lzw.NewReader(bytes.NewReader(data), lzw.MSB, 8)
	case 0:
		r = stdlzw.NewReader(bytes.NewReader(data), stdlzw.MSB, 8)
	default:
		return nil, fmt.Errorf("invalid EarlyChange value: %d", early)
	}
	defer r.Close()

	out, err := readAllLimit(r, limit)
	if err != nil {
		return nil, fmt.Errorf("lzw decompression failed: %w", err)
	}
	return unpredict(out, params)
}
