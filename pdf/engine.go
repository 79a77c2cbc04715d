package pdf

// Engine abstracts the underlying PDF manipulation library. The core
// never touches PDF syntax directly; it only consumes this contract.
type Engine interface {
	// Open opens an existing document read-only.
	Open(path string) (Document, error)
	// NewDocument creates a new, empty document.
	NewDocument() (Document, error)
}

// Document is an open PDF document handle. Handles are exclusively
// owned by one compression call and must be closed on every exit path.
type Document interface {
	PageCount() (int, error)
	// Page loads the page at the given zero-based index.
	Page(index int) (Page, error)
	// NewPage appends a page with the given dimensions in points.
	NewPage(width, height float64) (Page, error)
	Save(path string, opts SaveOptions) error
	Close() error
}

// Page is a loaded page handle.
type Page interface {
	// Size returns the page dimensions in points.
	Size() (width, height float64, err error)
	// Images lists the raster images placed on the page, in the order
	// the underlying library reports them.
	Images() ([]ImageRef, error)
	// ExtractImage fetches the raw encoded bytes and format of one
	// embedded image.
	ExtractImage(ref ImageRef) (*EmbeddedImage, error)
	// CopyContentFrom embeds the full rendered content of a source page
	// into this page as a single reproduction covering the page.
	CopyContentFrom(src Document, srcPageIndex int) error
	// InsertImage places encoded image bytes at the placement transform
	// carried by ref, overpainting that region.
	InsertImage(ref ImageRef, data []byte, format string) error
	// Finalize regenerates the page content stream after mutations.
	Finalize() error
	Close() error
}

// SaveOptions requests structural cleanup from the underlying library
// at save time.
type SaveOptions struct {
	GarbageCollect bool
	DeflateStreams bool
	CleanUnused    bool
}

// Rect is a placement rectangle on a page, in points. Coordinates
// follow PDF conventions: (X0,Y0) bottom-left, (X1,Y1) top-right.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

func (r Rect) Width() float64 {
	return r.X1 - r.X0
}

func (r Rect) Height() float64 {
	return r.Y1 - r.Y0
}

// IsEmpty reports whether the rectangle has no drawable area.
func (r Rect) IsEmpty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Matrix is a PDF placement transform [a b c d e f]. It carries the
// rotation and scale the original page applied to an image.
type Matrix [6]float64

// ImageRef identifies one raster image placed on a page. Index is
// opaque to the core; Rect and Transform describe the placement.
type ImageRef struct {
	Index     int
	Rect      Rect
	Transform Matrix
}

// EmbeddedImage is the raw encoded payload of an embedded image.
type EmbeddedImage struct {
	Data []byte
	// Format is a lower-case extension-style name, e.g. "jpeg", "png".
	Format string
}
