package core

import "fmt"

// Filter describes one stage of a stream's filter chain: the decode
// algorithm and its /DecodeParms dictionary.
type Filter struct {
	Kind   Name
	Params Dict
}

// NewFilter builds a filter from a declared name and its parameter object.
// A missing or null params object yields an empty dictionary. Parameter
// values that are indirect references are resolved.
func NewFilter(kind Name, params Object, r ReferenceResolver) (Filter, error) {
	f := Filter{Kind: kind, Params: Dict{}}

	resolved, err := Resolve(params, r)
	if err != nil {
		return Filter{}, fmt.Errorf("decode parameters for %s: %w", string(kind), err)
	}
	if isNull(resolved) {
		return f, nil
	}
	dict, ok := resolved.(Dict)
	if !ok {
		return Filter{}, fmt.Errorf("decode parameters for %s: %w", string(kind), &TypeMismatchError{Want: "Dict", Got: resolved})
	}

	for key, value := range dict {
		v, err := Resolve(value, r)
		if err != nil {
			return Filter{}, fmt.Errorf("decode parameter /%s for %s: %w", key, string(kind), err)
		}
		f.Params[key] = v
	}
	return f, nil
}

// String returns the filter name followed by its parameters, if any.
func (f Filter) String() string {
	if len(f.Params) == 0 {
		return string(f.Kind)
	}
	return string(f.Kind) + " " + f.Params.String()
}

// BuildFilterChain pairs each filter name with the parameter dictionary at
// the same index. Filters past the end of params get empty parameters.
func BuildFilterChain(names []Name, params []Dict, r ReferenceResolver) ([]Filter, error) {
	if len(names) == 0 {
		return nil, nil
	}
	chain := make([]Filter, 0, len(names))
	for i, name := range names {
		var p Object
		if i < len(params) {
			p = params[i]
		}
		f, err := NewFilter(name, p, r)
		if err != nil {
			return nil, err
		}
		chain = append(chain, f)
	}
	return chain, nil
}
