// Package core provides the PDF object model, stream decoding and object
// stream extraction.
//
// # Object Types
//
// PDF defines eight basic object types, all implemented as types satisfying the
// Object interface:
//
//   - [Null] - represents the PDF null object
//   - [Bool] - represents PDF boolean values (true/false)
//   - [Int] - represents PDF integers
//   - [Real] - represents PDF real numbers (floating point)
//   - [String] - represents PDF string objects (literal or hexadecimal)
//   - [Name] - represents PDF name objects (e.g., /Type, /Font)
//   - [Array] - represents PDF arrays
//   - [Dict] - represents PDF dictionaries
//
// [RawStream] is a stream as read from the file, and [IndirectRef] is a
// reference to an indirect object.
//
// # Conversion
//
// Any value in a dictionary may be an indirect reference. [Resolve] and
// the To* helpers ([ToInt], [ToName], [ToNames], [ToDict], [ToDicts])
// follow references through a [ReferenceResolver] before checking types.
// Types built from PDF objects implement [Unmarshaler].
//
// # Streams
//
// [ParseStream] turns a [RawStream] into a [Stream], interpreting /Length,
// /Filter, /DecodeParms and the external file keys, and unmarshalling the
// remaining entries into a type-specific info value:
//
//	s, err := core.ParseStream[core.Dict](obj, resolver)
//	if err != nil {
//		return err
//	}
//	if err := s.Decode(core.WithMaxDecodedSize(64 << 20)); err != nil {
//		return err
//	}
//	data, _ := s.Data()
//
// Decode runs the filter chain through a [FilterRegistry]. It either
// succeeds completely or leaves the stream untouched and returns a
// [*FilterError].
//
// # Object Streams
//
// [ObjectStream] (PDF 1.5+) decodes an object stream, reads its offset
// table and hands out the bytes of each packed object by index with
// [ObjectStream.ObjectSlice].
//
// # Parsing
//
// The [Lexer] tokenizes PDF syntax and the [Parser] builds objects from the
// tokens. [XRefParser] reads classic cross-reference tables (PDF 1.0-1.4)
// and cross-reference streams (PDF 1.5+).
//
// # Errors
//
// Failures are reported with typed errors such as [*MissingKeyError],
// [*TypeMismatchError], [*LengthMismatchError], [*FilterError],
// [*OutOfBoundsError] and [*MalformedTokenStreamError]; use errors.As to
// inspect them.
package core
