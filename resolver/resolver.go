package resolver

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/tsawler/pdfstream/core"
)

// ObjectReader is the object source a resolver reads through. The reader
// package's Reader satisfies it.
type ObjectReader interface {
	GetObject(objNum int) (core.Object, error)
	ResolveReference(ref core.IndirectRef) (core.Object, error)
}

// ObjectResolver resolves indirect references, following them into
// dictionaries, arrays and stream dictionaries on deep resolution.
// It implements core.ReferenceResolver and is safe for concurrent use.
type ObjectResolver struct {
	reader   ObjectReader
	maxDepth int
	logger   *slog.Logger

	mu     sync.Mutex
	cache  map[core.IndirectRef]core.Object // nil unless WithCache
	hits   int
	misses int
}

// Option configures the resolver
type Option func(*ObjectResolver)

// WithMaxDepth sets the maximum recursion depth (default: 100)
func WithMaxDepth(depth int) Option {
	return func(r *ObjectResolver) {
		r.maxDepth = depth
	}
}

// WithCache memoises resolved references for the life of the resolver.
func WithCache() Option {
	return func(r *ObjectResolver) {
		r.cache = make(map[core.IndirectRef]core.Object)
	}
}

// WithLogger logs cache misses and resolution failures at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(r *ObjectResolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a new object resolver
func NewResolver(reader ObjectReader, opts ...Option) *ObjectResolver {
	r := &ObjectResolver{
		reader:   reader,
		maxDepth: 100,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// walk carries the state of one resolution. Keeping it off the resolver
// lets independent resolutions run at the same time.
type walk struct {
	r        *ObjectResolver
	deep     bool
	visiting map[int]bool
	depth    int
}

// Resolve follows obj if it is a reference. Containers are returned as is.
func (r *ObjectResolver) Resolve(obj core.Object) (core.Object, error) {
	return r.newWalk(false).resolve(obj)
}

// ResolveDeep recursively resolves all indirect references in dictionaries,
// arrays and stream dictionaries, returning new containers.
func (r *ObjectResolver) ResolveDeep(obj core.Object) (core.Object, error) {
	return r.newWalk(true).resolve(obj)
}

func (r *ObjectResolver) newWalk(deep bool) *walk {
	return &walk{r: r, deep: deep, visiting: make(map[int]bool)}
}

func (w *walk) descend(obj core.Object) (core.Object, error) {
	w.depth++
	defer func() { w.depth-- }()
	return w.resolve(obj)
}

func (w *walk) resolve(obj core.Object) (core.Object, error) {
	if w.depth >= w.r.maxDepth {
		return nil, fmt.Errorf("maximum recursion depth (%d) exceeded", w.r.maxDepth)
	}

	switch v := obj.(type) {
	case core.IndirectRef:
		if w.visiting[v.Number] {
			return nil, fmt.Errorf("circular reference detected for object %d", v.Number)
		}
		// Only the current path is tracked; shared objects in sibling
		// branches are not cycles.
		w.visiting[v.Number] = true
		defer delete(w.visiting, v.Number)

		resolved, err := w.r.lookup(v)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve reference %s: %w", v, err)
		}
		if !w.deep {
			return resolved, nil
		}
		return w.descend(resolved)

	case core.Dict:
		if !w.deep {
			return v, nil
		}
		resolved := make(core.Dict, len(v))
		for key, value := range v {
			rv, err := w.descend(value)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve dict key %s: %w", key, err)
			}
			resolved[key] = rv
		}
		return resolved, nil

	case core.Array:
		if !w.deep {
			return v, nil
		}
		resolved := make(core.Array, len(v))
		for i, elem := range v {
			re, err := w.descend(elem)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve array element %d: %w", i, err)
			}
			resolved[i] = re
		}
		return resolved, nil

	case *core.RawStream:
		if !w.deep {
			return v, nil
		}
		dict, err := w.descend(v.Dict)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve stream dict: %w", err)
		}
		// The body is shared, not copied.
		return &core.RawStream{Dict: dict.(core.Dict), Data: v.Data}, nil

	default:
		return obj, nil
	}
}

// lookup reads ref through the cache when one is configured.
func (r *ObjectResolver) lookup(ref core.IndirectRef) (core.Object, error) {
	if r.cache == nil {
		return r.reader.ResolveReference(ref)
	}

	r.mu.Lock()
	obj, ok := r.cache[ref]
	if ok {
		r.hits++
	} else {
		r.misses++
	}
	r.mu.Unlock()
	if ok {
		return obj, nil
	}

	obj, err := r.reader.ResolveReference(ref)
	if err != nil {
		r.logger.Debug("reference lookup failed", "ref", ref.String(), "error", err)
		return nil, err
	}
	r.logger.Debug("reference cached", "ref", ref.String(), "type", obj.Type().String())

	r.mu.Lock()
	r.cache[ref] = obj
	r.mu.Unlock()
	return obj, nil
}

// ResolveDict is a convenience method for resolving dictionaries
// It resolves the dictionary and all its values (deep resolution)
func (r *ObjectResolver) ResolveDict(dict core.Dict) (core.Dict, error) {
	resolved, err := r.ResolveDeep(dict)
	if err != nil {
		return nil, err
	}
	return resolved.(core.Dict), nil
}

// ResolveArray is a convenience method for resolving arrays
// It resolves all elements in the array (deep resolution)
func (r *ObjectResolver) ResolveArray(arr core.Array) (core.Array, error) {
	resolved, err := r.ResolveDeep(arr)
	if err != nil {
		return nil, err
	}
	return resolved.(core.Array), nil
}

// ResolveReference resolves a single indirect reference without
// recursing into the result.
func (r *ObjectResolver) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	return r.lookup(ref)
}

// ResolveReferenceDeep resolves a reference and all nested references
func (r *ObjectResolver) ResolveReferenceDeep(ref core.IndirectRef) (core.Object, error) {
	return r.ResolveDeep(ref)
}

// GetObject loads an object by number (convenience method)
func (r *ObjectResolver) GetObject(objNum int) (core.Object, error) {
	return r.reader.GetObject(objNum)
}

// GetObjectResolved loads and resolves an object by number (shallow)
func (r *ObjectResolver) GetObjectResolved(objNum int) (core.Object, error) {
	obj, err := r.reader.GetObject(objNum)
	if err != nil {
		return nil, err
	}
	return r.Resolve(obj)
}

// GetObjectResolvedDeep loads and fully resolves an object by number (deep)
func (r *ObjectResolver) GetObjectResolvedDeep(objNum int) (core.Object, error) {
	obj, err := r.reader.GetObject(objNum)
	if err != nil {
		return nil, err
	}
	return r.ResolveDeep(obj)
}

// CacheStats reports cache hits and misses. Both are zero without WithCache.
func (r *ObjectResolver) CacheStats() (hits, misses int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hits, r.misses
}

// Reset drops cached objects and counters.
func (r *ObjectResolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cache != nil {
		r.cache = make(map[core.IndirectRef]core.Object)
	}
	r.hits, r.misses = 0, 0
}

var _ core.ReferenceResolver = (*ObjectResolver)(nil)
