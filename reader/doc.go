// Package reader loads objects from PDF files.
//
// It drives the core package: the header and cross-reference data
// (classic tables, cross-reference streams and hybrid files) are read when
// the Reader is created, and objects are parsed on demand.
//
// # Opening PDF Files
//
//	r, err := reader.Open("document.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
// Or use [NewReader] with any io.ReadSeeker.
//
// # Compressed Objects
//
// Objects stored in object streams are read through [core.ObjectStream].
// Each object stream is decoded and indexed the first time one of its
// objects is requested:
//
//	obj, err := r.GetObject(12)           // may live in an object stream
//	stm, err := r.ObjectStream(5)          // the stream itself
//	for _, num := range r.ObjectStreamNumbers() {
//	    ...
//	}
//
// # Options
//
//	r, err := reader.Open(path,
//	    reader.WithLogger(logger),
//	    reader.WithDecodeOptions(core.WithMaxDecodedSize(64<<20)))
//
// # Object Caching
//
// The Reader caches loaded objects. Use ClearCache() to free memory when
// processing large PDFs.
package reader
