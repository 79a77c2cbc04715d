package pdfium

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/klippa-app/go-pdfium/enums"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
)

// bitmapPNG renders an image object's decoded bitmap and encodes it as
// PNG. This normalizes flate, LZW, CCITT and JPX filtered images into a
// format the recompressor can decode.
func (p *page) bitmapPNG(obj references.FPDF_PAGEOBJECT) ([]byte, error) {
	bm, err := p.engine.instance.FPDFImageObj_GetBitmap(&requests.FPDFImageObj_GetBitmap{
		ImageObject: obj,
	})
	if err != nil {
		return nil, fmt.Errorf("pdfium image bitmap: %v", err)
	}
	defer p.engine.instance.FPDFBitmap_Destroy(&requests.FPDFBitmap_Destroy{
		Bitmap: bm.Bitmap,
	})

	img, err := p.bitmapImage(bm.Bitmap)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png encode of bitmap: %v", err)
	}
	return buf.Bytes(), nil
}

// bitmapImage converts a PDFium bitmap to a standard Go image.
func (p *page) bitmapImage(bm references.FPDF_BITMAP) (image.Image, error) {
	width, err := p.engine.instance.FPDFBitmap_GetWidth(&requests.FPDFBitmap_GetWidth{Bitmap: bm})
	if err != nil {
		return nil, fmt.Errorf("pdfium bitmap width: %v", err)
	}
	height, err := p.engine.instance.FPDFBitmap_GetHeight(&requests.FPDFBitmap_GetHeight{Bitmap: bm})
	if err != nil {
		return nil, fmt.Errorf("pdfium bitmap height: %v", err)
	}
	stride, err := p.engine.instance.FPDFBitmap_GetStride(&requests.FPDFBitmap_GetStride{Bitmap: bm})
	if err != nil {
		return nil, fmt.Errorf("pdfium bitmap stride: %v", err)
	}
	format, err := p.engine.instance.FPDFBitmap_GetFormat(&requests.FPDFBitmap_GetFormat{Bitmap: bm})
	if err != nil {
		return nil, fmt.Errorf("pdfium bitmap format: %v", err)
	}
	buffer, err := p.engine.instance.FPDFBitmap_GetBuffer(&requests.FPDFBitmap_GetBuffer{Bitmap: bm})
	if err != nil {
		return nil, fmt.Errorf("pdfium bitmap buffer: %v", err)
	}

	w, h, s := width.Width, height.Height, stride.Stride
	data := buffer.Buffer
	if len(data) < h*s {
		return nil, fmt.Errorf("pdfium bitmap buffer too small: %d for %dx%d stride %d", len(data), w, h, s)
	}

	switch format.Format {
	case enums.FPDF_BITMAP_FORMAT_GRAY:
		img := image.NewGray(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			copy(img.Pix[y*img.Stride:y*img.Stride+w], data[y*s:])
		}
		return img, nil

	case enums.FPDF_BITMAP_FORMAT_BGR:
		img := image.NewNRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			row := data[y*s:]
			for x := 0; x < w; x++ {
				off := (y*img.Stride) + x*4
				img.Pix[off] = row[x*3+2]
				img.Pix[off+1] = row[x*3+1]
				img.Pix[off+2] = row[x*3]
				img.Pix[off+3] = 0xff
			}
		}
		return img, nil

	case enums.FPDF_BITMAP_FORMAT_BGRX, enums.FPDF_BITMAP_FORMAT_BGRA:
		opaque := format.Format == enums.FPDF_BITMAP_FORMAT_BGRX
		img := image.NewNRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			row := data[y*s:]
			for x := 0; x < w; x++ {
				off := (y*img.Stride) + x*4
				img.Pix[off] = row[x*4+2]
				img.Pix[off+1] = row[x*4+1]
				img.Pix[off+2] = row[x*4]
				if opaque {
					img.Pix[off+3] = 0xff
				} else {
					img.Pix[off+3] = row[x*4+3]
				}
			}
		}
		return img, nil

	default:
		return nil, fmt.Errorf("unsupported pdfium bitmap format %d", format.Format)
	}
}

// setBitmap uploads a decoded Go image into an image object as a BGRA
// bitmap. Used for non-JPEG payloads, which PDFium cannot load inline.
func (p *page) setBitmap(obj references.FPDF_PAGEOBJECT, img image.Image) error {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	bm, err := p.engine.instance.FPDFBitmap_Create(&requests.FPDFBitmap_Create{
		Width:  w,
		Height: h,
		Alpha:  1,
	})
	if err != nil {
		return fmt.Errorf("pdfium bitmap create: %v", err)
	}
	defer p.engine.instance.FPDFBitmap_Destroy(&requests.FPDFBitmap_Destroy{
		Bitmap: bm.Bitmap,
	})

	stride, err := p.engine.instance.FPDFBitmap_GetStride(&requests.FPDFBitmap_GetStride{Bitmap: bm.Bitmap})
	if err != nil {
		return fmt.Errorf("pdfium bitmap stride: %v", err)
	}
	buffer, err := p.engine.instance.FPDFBitmap_GetBuffer(&requests.FPDFBitmap_GetBuffer{Bitmap: bm.Bitmap})
	if err != nil {
		return fmt.Errorf("pdfium bitmap buffer: %v", err)
	}

	nrgba, ok := img.(*image.NRGBA)
	if !ok || bounds.Min != (image.Point{}) {
		converted := image.NewNRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				converted.Set(x, y, img.At(bounds.Min.X+x, bounds.Min.Y+y))
			}
		}
		nrgba = converted
	}

	s := stride.Stride
	data := buffer.Buffer
	if len(data) < h*s {
		return fmt.Errorf("pdfium bitmap buffer too small: %d for %dx%d stride %d", len(data), w, h, s)
	}
	for y := 0; y < h; y++ {
		src := nrgba.Pix[y*nrgba.Stride:]
		row := data[y*s:]
		for x := 0; x < w; x++ {
			row[x*4] = src[x*4+2]
			row[x*4+1] = src[x*4+1]
			row[x*4+2] = src[x*4]
			row[x*4+3] = src[x*4+3]
		}
	}

	_, err = p.engine.instance.FPDFImageObj_SetBitmap(&requests.FPDFImageObj_SetBitmap{
		ImageObject: obj,
		Bitmap:      bm.Bitmap,
	})
	if err != nil {
		return fmt.Errorf("pdfium set bitmap: %v", err)
	}
	return nil
}
