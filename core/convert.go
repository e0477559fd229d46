package core

import (
	"fmt"
	"io"
)

// maxResolveHops bounds how many references Resolve follows before giving
// up, so a reference chain that loops back on itself cannot spin forever.
const maxResolveHops = 32

// ReferenceResolver is an interface for resolving indirect references.
type ReferenceResolver interface {
	ResolveReference(ref IndirectRef) (Object, error)
}

// ResolverFunc adapts a function to ReferenceResolver.
type ResolverFunc func(ref IndirectRef) (Object, error)

// ResolveReference calls f(ref).
func (f ResolverFunc) ResolveReference(ref IndirectRef) (Object, error) {
	return f(ref)
}

// Unmarshaler is implemented by types that can be built from a PDF object.
// Indirect references met along the way are resolved through r.
type Unmarshaler interface {
	UnmarshalObject(obj Object, r ReferenceResolver) error
}

// Serializer is implemented by types that can write themselves back as PDF
// syntax. No type in this module supports it yet; all return ErrUnsupported.
type Serializer interface {
	Serialize(w io.Writer) error
}

// Convertible is the full conversion protocol.
type Convertible interface {
	Unmarshaler
	Serializer
}

// Resolve returns obj with any indirect reference replaced by its target.
// Chains of references are followed. Non-reference objects are returned
// unchanged.
func Resolve(obj Object, r ReferenceResolver) (Object, error) {
	for hops := 0; ; hops++ {
		ref, ok := obj.(IndirectRef)
		if !ok {
			return obj, nil
		}
		if hops == maxResolveHops {
			return nil, fmt.Errorf("reference chain from %s exceeds %d hops", ref, maxResolveHops)
		}
		if r == nil {
			return nil, fmt.Errorf("cannot resolve %s: no resolver", ref)
		}
		target, err := r.ResolveReference(ref)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", ref, err)
		}
		obj = target
	}
}

// isNull reports whether obj is absent or the null object.
func isNull(obj Object) bool {
	if obj == nil {
		return true
	}
	_, ok := obj.(Null)
	return ok
}

// TakeKey removes key from dict and returns its value, or a
// MissingKeyError when the key is absent.
func TakeKey(dict Dict, key string) (Object, error) {
	obj, ok := dict.Remove(key)
	if !ok {
		return nil, &MissingKeyError{Key: key}
	}
	return obj, nil
}

// ToInt converts obj, resolving it first, to an int.
func ToInt(obj Object, r ReferenceResolver) (int, error) {
	resolved, err := Resolve(obj, r)
	if err != nil {
		return 0, err
	}
	i, ok := resolved.(Int)
	if !ok {
		return 0, &TypeMismatchError{Want: "Int", Got: resolved}
	}
	return int(i), nil
}

// ToName converts obj, resolving it first, to a Name.
func ToName(obj Object, r ReferenceResolver) (Name, error) {
	resolved, err := Resolve(obj, r)
	if err != nil {
		return "", err
	}
	n, ok := resolved.(Name)
	if !ok {
		return "", &TypeMismatchError{Want: "Name", Got: resolved}
	}
	return n, nil
}

// ToNames accepts a single name or an array of names. A missing or null
// value yields an empty list.
func ToNames(obj Object, r ReferenceResolver) ([]Name, error) {
	resolved, err := Resolve(obj, r)
	if err != nil {
		return nil, err
	}
	switch v := resolved.(type) {
	case nil, Null:
		return nil, nil
	case Name:
		return []Name{v}, nil
	case Array:
		names := make([]Name, 0, len(v))
		for i, elem := range v {
			n, err := ToName(elem, r)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			names = append(names, n)
		}
		return names, nil
	default:
		return nil, &TypeMismatchError{Want: "Name or Array", Got: resolved}
	}
}

// ToDict converts obj, resolving it first, to a Dict.
func ToDict(obj Object, r ReferenceResolver) (Dict, error) {
	resolved, err := Resolve(obj, r)
	if err != nil {
		return nil, err
	}
	d, ok := resolved.(Dict)
	if !ok {
		return nil, &TypeMismatchError{Want: "Dict", Got: resolved}
	}
	return d, nil
}

// ToDicts accepts a single dictionary or an array of dictionaries. Null
// array elements become empty dictionaries, keeping the result
// index-aligned with the array. A missing or null value yields an empty
// list.
func ToDicts(obj Object, r ReferenceResolver) ([]Dict, error) {
	resolved, err := Resolve(obj, r)
	if err != nil {
		return nil, err
	}
	switch v := resolved.(type) {
	case nil, Null:
		return nil, nil
	case Dict:
		return []Dict{v}, nil
	case Array:
		dicts := make([]Dict, 0, len(v))
		for i, elem := range v {
			elem, err := Resolve(elem, r)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			if isNull(elem) {
				dicts = append(dicts, Dict{})
				continue
			}
			d, ok := elem.(Dict)
			if !ok {
				return nil, fmt.Errorf("element %d: %w", i, &TypeMismatchError{Want: "Dict", Got: elem})
			}
			dicts = append(dicts, d)
		}
		return dicts, nil
	default:
		return nil, &TypeMismatchError{Want: "Dict or Array", Got: resolved}
	}
}

// ToIndirectRef returns obj as a reference without resolving it. A missing
// or null value yields nil.
func ToIndirectRef(obj Object) (*IndirectRef, error) {
	if isNull(obj) {
		return nil, nil
	}
	ref, ok := obj.(IndirectRef)
	if !ok {
		return nil, &TypeMismatchError{Want: "IndirectRef", Got: obj}
	}
	return &ref, nil
}

// UnmarshalObject makes *Dict an Unmarshaler, so Stream[Dict] can be used
// for streams with no specialised dictionary.
func (d *Dict) UnmarshalObject(obj Object, r ReferenceResolver) error {
	dict, err := ToDict(obj, r)
	if err != nil {
		return err
	}
	*d = dict
	return nil
}
