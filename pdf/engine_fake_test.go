package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
)

// The fake engine records every contract call so tests can assert the
// rebuild sequence without a real PDF library.

type fakeEngine struct {
	src        *fakeDocument
	out        *fakeDocument
	openErr    error
	outSaveErr error
}

func (e *fakeEngine) Open(path string) (Document, error) {
	if e.openErr != nil {
		return nil, e.openErr
	}
	return e.src, nil
}

func (e *fakeEngine) NewDocument() (Document, error) {
	e.out = &fakeDocument{saveErr: e.outSaveErr}
	return e.out, nil
}

type fakeDocument struct {
	pages   []*fakePage
	saveErr error
	closed  bool
}

func (d *fakeDocument) PageCount() (int, error) {
	return len(d.pages), nil
}

func (d *fakeDocument) Page(index int) (Page, error) {
	if index < 0 || index >= len(d.pages) {
		return nil, fmt.Errorf("page %d out of range", index)
	}
	return d.pages[index], nil
}

func (d *fakeDocument) NewPage(width, height float64) (Page, error) {
	p := &fakePage{width: width, height: height}
	d.pages = append(d.pages, p)
	return p, nil
}

// Save writes a synthetic payload whose size tracks the inserted data,
// so before/after size assertions have something real to measure.
func (d *fakeDocument) Save(path string, opts SaveOptions) error {
	if d.saveErr != nil {
		return d.saveErr
	}
	var buf bytes.Buffer
	for _, p := range d.pages {
		buf.WriteString("page\n")
		for _, ins := range p.inserted {
			buf.Write(ins.data)
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func (d *fakeDocument) Close() error {
	d.closed = true
	return nil
}

type fakeImage struct {
	data     []byte
	format   string
	rect     Rect
	fetchErr error
}

type insertedImage struct {
	ref    ImageRef
	data   []byte
	format string
}

type fakePage struct {
	width, height float64
	images        []fakeImage

	copied       bool
	copiedFrom   int
	extractCalls int
	inserted     []insertedImage
	finalized    bool
	closed       bool
}

func (p *fakePage) Size() (float64, float64, error) {
	return p.width, p.height, nil
}

func (p *fakePage) Images() ([]ImageRef, error) {
	refs := make([]ImageRef, len(p.images))
	for i, img := range p.images {
		refs[i] = ImageRef{Index: i, Rect: img.rect}
	}
	return refs, nil
}

func (p *fakePage) ExtractImage(ref ImageRef) (*EmbeddedImage, error) {
	p.extractCalls++
	img := p.images[ref.Index]
	if img.fetchErr != nil {
		return nil, img.fetchErr
	}
	return &EmbeddedImage{Data: img.data, Format: img.format}, nil
}

func (p *fakePage) CopyContentFrom(src Document, srcPageIndex int) error {
	p.copied = true
	p.copiedFrom = srcPageIndex
	return nil
}

func (p *fakePage) InsertImage(ref ImageRef, data []byte, format string) error {
	p.inserted = append(p.inserted, insertedImage{ref: ref, data: data, format: format})
	return nil
}

func (p *fakePage) Finalize() error {
	p.finalized = true
	return nil
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

var errFetchFailed = errors.New("missing image resource")

// encodeJPEG builds a real JPEG payload with enough detail that quality
// settings change the output size.
func encodeJPEG(width, height, quality int) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, patternImage(width, height), &jpeg.Options{Quality: quality}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// encodePNG builds a PNG payload; alpha > 0 makes it non-opaque.
func encodePNG(width, height int, alpha uint8) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 0, B: 0, A: alpha})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// patternImage produces a detailed opaque image that does not compress
// to a trivial size.
func patternImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8((x*7 + y*13) % 256),
				G: uint8((x * y) % 256),
				B: uint8((x*x + y) % 256),
				A: 255,
			})
		}
	}
	return img
}
