package filters

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zlib"
)

// Params represents decode parameters from PDF stream dictionaries, with
// PDF objects already translated to Go values (int, float64, bool, string).
// Common parameters include Predictor, Columns, Colors, and BitsPerComponent.
type Params map[string]interface{}

// FlateDecode decompresses Flate (zlib/deflate) compressed data and applies
// the predictor named by the Predictor parameter, if any.
func FlateDecode(data []byte, params Params) ([]byte, error) {
	return FlateDecodeLimit(data, params, 0)
}

// FlateDecodeLimit is FlateDecode with the inflated size capped at limit
// bytes. It fails with ErrOutputLimit as soon as the cap is passed. A limit
// of zero or less means no cap.
func FlateDecodeLimit(data []byte, params Params, limit int) ([]byte, error) {
	decompressed, err := zlibDecompress(data, limit)
	if err != nil {
		return nil, fmt.Errorf("zlib decompression failed: %w", err)
	}
	return unpredict(decompressed, params)
}

// zlibDecompress inflates a zlib stream.
func zlibDecompress(data []byte, limit int) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib reader: %w", err)
	}
	defer reader.Close()

	out, err := readAllLimit(reader, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}
	return out, nil
}

// getIntParam extracts an integer parameter from Params, returning defaultValue
// if the parameter is missing or cannot be converted to an integer.
func getIntParam(params Params, key string, defaultValue int) int {
	obj, ok := params[key]
	if !ok {
		return defaultValue
	}

	switch v := obj.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case float64:
		return int(v)
	default:
		return defaultValue
	}
}

// getBoolParam extracts a boolean parameter from Params, returning defaultValue
// if the parameter is missing or not a boolean.
func getBoolParam(params Params, key string, defaultValue bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return defaultValue
}
