package reader

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strconv"

	"github.com/tsawler/pdfstream/core"
)

// PDFVersion represents a PDF version
type PDFVersion struct {
	Major int
	Minor int
}

// String returns the version as a string (e.g., "1.7")
func (v PDFVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

var versionPattern = regexp.MustCompile(`%PDF-(\d+)\.(\d+)`)

// ErrCircularLoad is returned when loading an object requires the object
// itself, as with an object stream listed inside itself or a stream whose
// /Length refers to its own object.
var ErrCircularLoad = errors.New("object is needed to load itself")

// headerWindow is how far into the file the header may start.
const headerWindow = 1024

// Reader reads objects from a PDF file, including objects compressed into
// object streams. A Reader is not safe for concurrent use.
type Reader struct {
	rs         io.ReadSeeker
	closer     io.Closer
	xrefTable  *core.XRefTable
	trailer    core.Dict
	version    PDFVersion
	objCache   map[int]core.Object
	objStreams map[int]*core.ObjectStream
	loading    map[int]bool
	fileSize   int64

	logger     *slog.Logger
	decodeOpts []core.DecodeOption
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger logs xref loading and object stream parsing at debug level.
// The logger is also passed to stream decoding.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithDecodeOptions applies opts whenever the reader decodes a stream.
func WithDecodeOptions(opts ...core.DecodeOption) Option {
	return func(r *Reader) {
		r.decodeOpts = append(r.decodeOpts, opts...)
	}
}

// NewReader reads the header and cross-reference data of the PDF in rs.
func NewReader(rs io.ReadSeeker, opts ...Option) (*Reader, error) {
	reader := &Reader{
		rs:         rs,
		objCache:   make(map[int]core.Object),
		objStreams: make(map[int]*core.ObjectStream),
		loading:    make(map[int]bool),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(reader)
	}

	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to get file size: %w", err)
	}
	reader.fileSize = size

	version, err := reader.parseHeader()
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	reader.version = version

	xrefTable, err := reader.loadXRef()
	if err != nil {
		return nil, fmt.Errorf("failed to load xref: %w", err)
	}
	reader.xrefTable = xrefTable
	reader.trailer = xrefTable.Trailer

	return reader, nil
}

// Open opens a PDF file and returns a Reader
func Open(filename string, opts ...Option) (*Reader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	reader, err := NewReader(file, opts...)
	if err != nil {
		file.Close()
		return nil, err
	}
	reader.closer = file

	return reader, nil
}

// Close closes the file opened by Open. It does nothing for readers
// created with NewReader.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// decodeOptions returns the stream decode options, with the reader's
// logger first so an explicit core.WithLogger still wins.
func (r *Reader) decodeOptions() []core.DecodeOption {
	return append([]core.DecodeOption{core.WithLogger(r.logger)}, r.decodeOpts...)
}

// parseHeader finds %PDF-x.y within the first kilobyte.
func (r *Reader) parseHeader() (PDFVersion, error) {
	if _, err := r.rs.Seek(0, io.SeekStart); err != nil {
		return PDFVersion{}, fmt.Errorf("failed to seek to start: %w", err)
	}

	header := make([]byte, headerWindow)
	n, err := io.ReadFull(r.rs, header)
	if err != nil && err != io.ErrUnexpectedEOF {
		return PDFVersion{}, fmt.Errorf("failed to read header: %w", err)
	}

	matches := versionPattern.FindSubmatch(header[:n])
	if matches == nil {
		return PDFVersion{}, fmt.Errorf("no %%PDF- header in the first %d bytes", headerWindow)
	}

	major, _ := strconv.Atoi(string(matches[1]))
	minor, _ := strconv.Atoi(string(matches[2]))
	return PDFVersion{Major: major, Minor: minor}, nil
}

// loadXRef loads the newest cross-reference section and every section
// reachable through /Prev, merged newest-wins.
func (r *Reader) loadXRef() (*core.XRefTable, error) {
	xrefParser := core.NewXRefParser(r.rs)
	xrefParser.SetReferenceResolver(r)
	xrefParser.SetDecodeOptions(r.decodeOptions()...)

	table, err := xrefParser.ParseXRefFromEOF()
	if err != nil {
		return nil, fmt.Errorf("failed to parse xref: %w", err)
	}

	sections := 1
	if table.Trailer.Get("Prev") != nil {
		tables, err := xrefParser.ParseAllXRefs()
		if err != nil {
			return nil, fmt.Errorf("failed to parse all xrefs: %w", err)
		}
		table = core.MergeXRefTables(tables...)
		sections = len(tables)
	}

	r.logger.Debug("cross-reference loaded",
		"entries", table.Size(),
		"sections", sections,
		"stream", table.IsStream)
	return table, nil
}

// Version returns the PDF version
func (r *Reader) Version() PDFVersion {
	return r.version
}

// Trailer returns the trailer dictionary. For files using cross-reference
// streams this is the newest stream's dictionary.
func (r *Reader) Trailer() core.Dict {
	return r.trailer
}

// GetObject loads an object by its number. Compressed objects are read
// from their object stream, which is parsed once and kept.
func (r *Reader) GetObject(objNum int) (core.Object, error) {
	if obj, ok := r.objCache[objNum]; ok {
		return obj, nil
	}

	if r.xrefTable == nil {
		return nil, fmt.Errorf("object %d requested before the cross-reference table was loaded", objNum)
	}
	entry, ok := r.xrefTable.Get(objNum)
	if !ok {
		return nil, fmt.Errorf("object %d not found in xref table", objNum)
	}

	if r.loading[objNum] {
		return nil, fmt.Errorf("object %d: %w", objNum, ErrCircularLoad)
	}
	if r.loading == nil {
		r.loading = make(map[int]bool)
	}
	r.loading[objNum] = true
	defer delete(r.loading, objNum)

	var obj core.Object
	var err error
	switch entry.Type {
	case core.XRefEntryUncompressed:
		obj, err = r.readObjectAt(objNum, entry.Offset)
	case core.XRefEntryCompressed:
		obj, err = r.readCompressed(objNum, entry)
	default:
		return nil, fmt.Errorf("object %d is not in use", objNum)
	}
	if err != nil {
		return nil, err
	}

	r.objCache[objNum] = obj
	return obj, nil
}

// readObjectAt parses the indirect object at offset. The read position is
// restored afterwards so that lookups made while parsing (an indirect
// /Length, say) leave an outer parse undisturbed.
func (r *Reader) readObjectAt(objNum int, offset int64) (core.Object, error) {
	pos, err := r.rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	defer r.rs.Seek(pos, io.SeekStart)

	if _, err := r.rs.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to object %d: %w", objNum, err)
	}

	parser := core.NewParser(r.rs)
	parser.SetReferenceResolver(r)
	indObj, err := parser.ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("failed to parse object %d: %w", objNum, err)
	}

	if indObj.Ref.Number != objNum {
		return nil, fmt.Errorf("object number mismatch: expected %d, got %d", objNum, indObj.Ref.Number)
	}
	return indObj.Object, nil
}

func (r *Reader) readCompressed(objNum int, entry *core.XRefEntry) (core.Object, error) {
	stm, err := r.ObjectStream(entry.StreamNumber())
	if err != nil {
		return nil, fmt.Errorf("object %d: %w", objNum, err)
	}

	obj, num, err := stm.GetObjectByIndex(entry.StreamIndex())
	if err == nil && num == objNum {
		return obj, nil
	}
	// The xref index is a hint; fall back to the stream's own table.
	obj, _, err = stm.GetObjectByNumber(objNum)
	if err != nil {
		return nil, fmt.Errorf("object %d: %w", objNum, err)
	}
	return obj, nil
}

// ObjectStream returns the parsed object stream with object number num.
func (r *Reader) ObjectStream(num int) (*core.ObjectStream, error) {
	if stm, ok := r.objStreams[num]; ok {
		return stm, nil
	}

	obj, err := r.GetObject(num)
	if err != nil {
		return nil, fmt.Errorf("failed to load object stream %d: %w", num, err)
	}
	raw, ok := obj.(*core.RawStream)
	if !ok {
		return nil, fmt.Errorf("object stream %d: %w", num, &core.TypeMismatchError{Want: "Stream", Got: obj})
	}

	stm, err := core.ParseObjectStream(num, raw.WithDefaultFilter(), r, r.decodeOptions()...)
	if err != nil {
		return nil, fmt.Errorf("object stream %d: %w", num, err)
	}
	r.objStreams[num] = stm
	return stm, nil
}

// ObjectStreamNumbers returns, in ascending order, the object numbers of
// every object stream referenced by the cross-reference data.
func (r *Reader) ObjectStreamNumbers() []int {
	seen := make(map[int]bool)
	var nums []int
	for _, entry := range r.xrefTable.Entries {
		if entry.Type != core.XRefEntryCompressed {
			continue
		}
		if n := entry.StreamNumber(); !seen[n] {
			seen[n] = true
			nums = append(nums, n)
		}
	}
	slices.Sort(nums)
	return nums
}

// ResolveReference resolves an indirect reference
func (r *Reader) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	return r.GetObject(ref.Number)
}

// NumObjects returns the trailer's /Size
func (r *Reader) NumObjects() int {
	size, ok := r.trailer.GetInt("Size")
	if !ok {
		return 0
	}
	return int(size)
}

// FileSize returns the size of the PDF file in bytes
func (r *Reader) FileSize() int64 {
	return r.fileSize
}

// XRefTable returns the cross-reference table
// Exposed for debugging/inspection
func (r *Reader) XRefTable() *core.XRefTable {
	return r.xrefTable
}

// ClearCache drops cached objects and parsed object streams.
func (r *Reader) ClearCache() {
	r.objCache = make(map[int]core.Object)
	r.objStreams = make(map[int]*core.ObjectStream)
}

// CacheSize returns the number of cached objects
func (r *Reader) CacheSize() int {
	return len(r.objCache)
}

var _ core.ReferenceResolver = (*Reader)(nil)
