// Package filters provides PDF stream decompression filters.
//
// Each function takes the encoded bytes and, where the filter has
// parameters, a Params map translated from the stream's /DecodeParms
// dictionary. The core package wires these into its filter registry.
//
// # Supported Filters
//
// FlateDecode (zlib/deflate) and LZWDecode:
//
//	decoded, err := filters.FlateDecode(data, params)
//	decoded, err := filters.LZWDecode(data, params)
//
// Both support predictors for image data. The Predictor parameter
// specifies the algorithm:
//   - 1: No prediction (default)
//   - 2: TIFF Predictor 2
//   - 10-15: PNG predictors (None, Sub, Up, Average, Paeth)
//
// LZWDecode honours EarlyChange (default 1).
//
// ASCIIHexDecode and ASCII85Decode decode the two ASCII armour encodings.
//
// RunLengthDecode expands PackBits-style runs.
//
// CCITTFaxDecode decodes Group 3 and Group 4 fax data.
//
// FlateDecodeLimit, LZWDecodeLimit and RunLengthDecodeLimit stop with
// ErrOutputLimit once the output passes a byte limit.
//
// # Decode Parameters
//
//	params := filters.Params{
//	    "Predictor": 12,
//	    "Columns":   100,
//	    "Colors":    3,
//	}
//	decoded, err := filters.FlateDecode(data, params)
package filters
