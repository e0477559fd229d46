package core

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tsawler/pdfstream/internal/filters"
)

// Codec decodes the bytes of one filter stage using that filter's
// /DecodeParms dictionary. A positive limit is the most output the stage
// may produce; codecs that can stop early should fail with
// ErrDecodedSizeExceeded once it is passed. Output over the limit is
// rejected after the codec returns either way.
type Codec func(data []byte, params Dict, limit int) ([]byte, error)

// FilterRegistry maps filter names to codecs. It is safe for concurrent
// use.
type FilterRegistry struct {
	mu     sync.RWMutex
	codecs map[Name]Codec
}

// NewFilterRegistry returns an empty registry.
func NewFilterRegistry() *FilterRegistry {
	return &FilterRegistry{codecs: make(map[Name]Codec)}
}

// Register installs codec under every given name, replacing any codec
// already registered under it. Abbreviated names are registered the same
// way as full ones.
func (r *FilterRegistry) Register(codec Codec, names ...Name) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		r.codecs[name] = codec
	}
}

// Lookup returns the codec registered for name.
func (r *FilterRegistry) Lookup(name Name) (Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codec, ok := r.codecs[name]
	return codec, ok
}

// Names returns the registered filter names in no particular order.
func (r *FilterRegistry) Names() []Name {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]Name, 0, len(r.codecs))
	for name := range r.codecs {
		names = append(names, name)
	}
	return names
}

// Clone returns an independent copy of the registry.
func (r *FilterRegistry) Clone() *FilterRegistry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := NewFilterRegistry()
	for name, codec := range r.codecs {
		out.codecs[name] = codec
	}
	return out
}

var defaultRegistry = newDefaultRegistry()

// DefaultFilterRegistry returns a copy of the registry holding the
// standard PDF filters. Callers may register extra codecs on the copy.
func DefaultFilterRegistry() *FilterRegistry {
	return defaultRegistry.Clone()
}

func newDefaultRegistry() *FilterRegistry {
	r := NewFilterRegistry()
	r.Register(func(data []byte, params Dict, limit int) ([]byte, error) {
		return sizeErr(filters.FlateDecodeLimit(data, dictToParams(params), limit))
	}, "FlateDecode", "Fl")
	r.Register(func(data []byte, params Dict, limit int) ([]byte, error) {
		return sizeErr(filters.LZWDecodeLimit(data, dictToParams(params), limit))
	}, "LZWDecode", "LZW")
	r.Register(func(data []byte, _ Dict, _ int) ([]byte, error) {
		return filters.ASCIIHexDecode(data)
	}, "ASCIIHexDecode", "AHx")
	r.Register(func(data []byte, _ Dict, _ int) ([]byte, error) {
		return filters.ASCII85Decode(data)
	}, "ASCII85Decode", "A85")
	r.Register(func(data []byte, _ Dict, limit int) ([]byte, error) {
		return sizeErr(filters.RunLengthDecodeLimit(data, limit))
	}, "RunLengthDecode", "RL")
	r.Register(func(data []byte, params Dict, _ int) ([]byte, error) {
		return filters.CCITTFaxDecode(data, dictToParams(params))
	}, "CCITTFaxDecode", "CCF")
	// JPEG and JPEG 2000 data is left compressed; image consumers decode it.
	passThrough := func(data []byte, _ Dict, _ int) ([]byte, error) { return data, nil }
	r.Register(passThrough, "DCTDecode", "DCT", "JPXDecode")
	return r
}

// sizeErr reports a codec's output limit failure as ErrDecodedSizeExceeded.
func sizeErr(out []byte, err error) ([]byte, error) {
	if errors.Is(err, filters.ErrOutputLimit) {
		return nil, fmt.Errorf("%w: %w", ErrDecodedSizeExceeded, err)
	}
	return out, err
}

// dictToParams converts a Dict to filters.Params, translating PDF object
// types to Go primitive types (Int->int, Real->float64, Bool->bool, etc.).
func dictToParams(dict Dict) filters.Params {
	if len(dict) == 0 {
		return nil
	}

	params := make(filters.Params, len(dict))
	for k, v := range dict {
		switch obj := v.(type) {
		case Int:
			params[k] = int(obj)
		case Real:
			params[k] = float64(obj)
		case Bool:
			params[k] = bool(obj)
		case String:
			params[k] = string(obj)
		case Name:
			params[k] = string(obj)
		default:
			params[k] = v
		}
	}
	return params
}
