// Package resolver provides PDF indirect reference resolution.
//
// PDF documents use indirect references (e.g., "5 0 R") to refer to objects
// stored elsewhere in the file, including objects packed into object
// streams. This package resolves these references, following chains of
// references and detecting circular dependencies.
//
// # Basic Usage
//
//	res := resolver.NewResolver(reader)
//	obj, err := res.Resolve(ref)
//
// An ObjectResolver is a core.ReferenceResolver, so it can be passed
// anywhere the core package converts values:
//
//	info, err := core.ParseStream[core.ObjStmInfo](raw, res)
//
// # Deep Resolution
//
//	resolved, err := res.ResolveDeep(obj)
//
// This recursively resolves all indirect references within the object tree,
// including stream dictionaries. Stream bodies are shared with the input.
//
// # Cycle Detection
//
// Circular references produce an error rather than an infinite loop. The
// maximum recursion depth is configurable:
//
//	res := resolver.NewResolver(reader, resolver.WithMaxDepth(50))
//
// # Caching
//
// WithCache memoises every reference the resolver reads. The cache is
// guarded by a mutex and resolutions carry their own state, so one resolver
// may be shared between goroutines.
package resolver
