package pdfium

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/klippa-app/go-pdfium/enums"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/structs"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"pdf_compressor/pdf"
)

type page struct {
	engine *Engine
	doc    references.FPDF_DOCUMENT
	ref    references.FPDF_PAGE
	index  int
	closed bool
}

func (p *page) request() requests.Page {
	return requests.Page{ByReference: &p.ref}
}

func (p *page) Size() (float64, float64, error) {
	res, err := p.engine.instance.GetPageSize(&requests.GetPageSize{
		Page: p.request(),
	})
	if err != nil {
		return 0, 0, fmt.Errorf("pdfium page size: %v", err)
	}
	return res.Width, res.Height, nil
}

// Images enumerates the page's image objects in object order. The
// returned ref index is the page-object index, which ExtractImage and
// InsertImage use to locate the object again.
func (p *page) Images() ([]pdf.ImageRef, error) {
	count, err := p.engine.instance.FPDFPage_CountObjects(&requests.FPDFPage_CountObjects{
		Page: p.request(),
	})
	if err != nil {
		return nil, fmt.Errorf("pdfium count objects: %v", err)
	}

	var refs []pdf.ImageRef
	for i := 0; i < count.Count; i++ {
		obj, err := p.object(i)
		if err != nil {
			return nil, err
		}

		typ, err := p.engine.instance.FPDFPageObj_GetType(&requests.FPDFPageObj_GetType{
			PageObject: obj,
		})
		if err != nil || typ.Type != enums.FPDF_PAGEOBJ_IMAGE {
			continue
		}

		ref := pdf.ImageRef{Index: i}

		bounds, err := p.engine.instance.FPDFPageObj_GetBounds(&requests.FPDFPageObj_GetBounds{
			PageObject: obj,
		})
		if err == nil {
			ref.Rect = pdf.Rect{
				X0: float64(bounds.Left),
				Y0: float64(bounds.Bottom),
				X1: float64(bounds.Right),
				Y1: float64(bounds.Top),
			}
		}

		matrix, err := p.engine.instance.FPDFPageObj_GetMatrix(&requests.FPDFPageObj_GetMatrix{
			PageObject: obj,
		})
		if err == nil {
			ref.Transform = pdf.Matrix{
				float64(matrix.Matrix.A), float64(matrix.Matrix.B),
				float64(matrix.Matrix.C), float64(matrix.Matrix.D),
				float64(matrix.Matrix.E), float64(matrix.Matrix.F),
			}
		}

		refs = append(refs, ref)
	}
	return refs, nil
}

// ExtractImage fetches one embedded image payload. JPEG streams come
// back verbatim; everything else (flate, LZW, JPX, CCITT) is read
// through PDFium's decoded bitmap and re-encoded losslessly as PNG,
// mirroring how raster extraction normalizes exotic PDF filters.
func (p *page) ExtractImage(ref pdf.ImageRef) (*pdf.EmbeddedImage, error) {
	obj, err := p.object(ref.Index)
	if err != nil {
		return nil, err
	}

	if p.isJPEG(obj) {
		raw, err := p.engine.instance.FPDFImageObj_GetImageDataRaw(&requests.FPDFImageObj_GetImageDataRaw{
			ImageObject: obj,
		})
		if err != nil {
			return nil, fmt.Errorf("pdfium image data: %v", err)
		}
		return &pdf.EmbeddedImage{Data: raw.Data, Format: "jpeg"}, nil
	}

	data, err := p.bitmapPNG(obj)
	if err != nil {
		return nil, err
	}
	return &pdf.EmbeddedImage{Data: data, Format: "png"}, nil
}

// isJPEG reports whether the image object's final stream filter is
// DCTDecode, i.e. the raw stream is a complete JPEG file.
func (p *page) isJPEG(obj references.FPDF_PAGEOBJECT) bool {
	count, err := p.engine.instance.FPDFImageObj_GetImageFilterCount(&requests.FPDFImageObj_GetImageFilterCount{
		ImageObject: obj,
	})
	if err != nil || count.Count == 0 {
		return false
	}
	filter, err := p.engine.instance.FPDFImageObj_GetImageFilter(&requests.FPDFImageObj_GetImageFilter{
		ImageObject: obj,
		Index:       count.Count - 1,
	})
	if err != nil {
		return false
	}
	return strings.EqualFold(filter.ImageFilter, "DCTDecode")
}

func (p *page) CopyContentFrom(src pdf.Document, srcPageIndex int) error {
	srcDoc, ok := src.(*document)
	if !ok {
		return fmt.Errorf("source document is not a pdfium document")
	}

	xobj, err := p.engine.instance.FPDF_NewXObjectFromPage(&requests.FPDF_NewXObjectFromPage{
		Source:          srcDoc.ref,
		Destination:     p.doc,
		SourcePageIndex: srcPageIndex,
	})
	if err != nil {
		return fmt.Errorf("pdfium page xobject: %v", err)
	}
	defer p.engine.instance.FPDF_CloseXObject(&requests.FPDF_CloseXObject{
		XObject: xobj.XObject,
	})

	form, err := p.engine.instance.FPDF_NewFormObjectFromXObject(&requests.FPDF_NewFormObjectFromXObject{
		XObject: xobj.XObject,
	})
	if err != nil {
		return fmt.Errorf("pdfium form object: %v", err)
	}

	_, err = p.engine.instance.FPDFPage_InsertObject(&requests.FPDFPage_InsertObject{
		Page:       p.request(),
		PageObject: form.PageObject,
	})
	if err != nil {
		return fmt.Errorf("pdfium insert form object: %v", err)
	}
	return nil
}

// InsertImage places encoded image bytes at the placement transform the
// source page applied, overpainting that region. JPEG loads directly;
// other formats go through a decoded bitmap upload.
func (p *page) InsertImage(ref pdf.ImageRef, data []byte, format string) error {
	obj, err := p.engine.instance.FPDFPageObj_NewImageObj(&requests.FPDFPageObj_NewImageObj{
		Document: p.doc,
	})
	if err != nil {
		return fmt.Errorf("pdfium new image object: %v", err)
	}

	switch strings.ToLower(format) {
	case "jpg", "jpeg":
		_, err = p.engine.instance.FPDFImageObj_LoadJpegFileInline(&requests.FPDFImageObj_LoadJpegFileInline{
			ImageObject: obj.PageObject,
			FileData:    data,
		})
		if err != nil {
			return fmt.Errorf("pdfium load jpeg: %v", err)
		}
	default:
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("decode for bitmap upload: %v", err)
		}
		if err := p.setBitmap(obj.PageObject, img); err != nil {
			return err
		}
	}

	transform := ref.Transform
	if transform == (pdf.Matrix{}) {
		// No transform captured; derive one from the placement rectangle.
		transform = pdf.Matrix{ref.Rect.Width(), 0, 0, ref.Rect.Height(), ref.Rect.X0, ref.Rect.Y0}
	}

	_, err = p.engine.instance.FPDFPageObj_SetMatrix(&requests.FPDFPageObj_SetMatrix{
		PageObject: obj.PageObject,
		Transform: structs.FPDF_FS_MATRIX{
			A: float32(transform[0]), B: float32(transform[1]),
			C: float32(transform[2]), D: float32(transform[3]),
			E: float32(transform[4]), F: float32(transform[5]),
		},
	})
	if err != nil {
		return fmt.Errorf("pdfium set matrix: %v", err)
	}

	_, err = p.engine.instance.FPDFPage_InsertObject(&requests.FPDFPage_InsertObject{
		Page:       p.request(),
		PageObject: obj.PageObject,
	})
	if err != nil {
		return fmt.Errorf("pdfium insert image object: %v", err)
	}
	return nil
}

// Finalize regenerates the page's content stream after mutations.
func (p *page) Finalize() error {
	_, err := p.engine.instance.FPDFPage_GenerateContent(&requests.FPDFPage_GenerateContent{
		Page: p.request(),
	})
	if err != nil {
		return fmt.Errorf("pdfium generate content: %v", err)
	}
	return nil
}

func (p *page) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	_, err := p.engine.instance.FPDF_ClosePage(&requests.FPDF_ClosePage{
		Page: p.ref,
	})
	if err != nil {
		return fmt.Errorf("pdfium close page: %v", err)
	}
	return nil
}

func (p *page) object(index int) (references.FPDF_PAGEOBJECT, error) {
	obj, err := p.engine.instance.FPDFPage_GetObject(&requests.FPDFPage_GetObject{
		Page:  p.request(),
		Index: index,
	})
	if err != nil {
		return "", fmt.Errorf("pdfium page object %d: %v", index, err)
	}
	return obj.PageObject, nil
}
