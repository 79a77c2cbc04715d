package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	_ "golang.org/x/image/webp"

	"pdf_compressor/observability"
)

// Recompressor decodes a raw embedded image and re-encodes it at the
// configured quality. Images with transparency are flattened onto an
// opaque white background first; PDF image slots written by this tool
// do not carry alpha.
type Recompressor struct {
	// Quality is the lossy encoder quality, 1-100.
	Quality int

	// MaxPPI caps the effective resolution of an image at its placement
	// size on the page. 0 disables resampling.
	MaxPPI float64

	Logger observability.Logger
}

// Recompress re-encodes data at the configured quality. The format hint
// is advisory for decoding (the decoder sniffs actual content) and
// selects the target codec. placement is the image's rectangle on the
// page, used only for the optional resolution cap.
//
// Returns the new bytes and the format actually written. Any decode or
// encode failure is returned as an error; callers treat it as a
// per-image condition, not an operation failure.
func (r *Recompressor) Recompress(data []byte, format string, placement Rect) ([]byte, string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode failed: %v", err)
	}

	img = flattenAlpha(img)
	img = r.capResolution(img, placement)

	quality := clampQuality(r.Quality)
	var buf bytes.Buffer

	switch target := strings.ToLower(format); target {
	case "jpg", "jpeg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, "", fmt.Errorf("jpeg encode failed: %v", err)
		}
		return buf.Bytes(), "jpeg", nil

	case "png":
		// PNG is lossless; quality is accepted for interface uniformity
		// but has no effect.
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, "", fmt.Errorf("png encode failed: %v", err)
		}
		return buf.Bytes(), "png", nil

	case "webp":
		if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
			return nil, "", fmt.Errorf("webp encode failed: %v", err)
		}
		return buf.Bytes(), "webp", nil

	case "gif":
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, "", fmt.Errorf("gif encode failed: %v", err)
		}
		return buf.Bytes(), "gif", nil

	case "bmp":
		if err := bmp.Encode(&buf, img); err != nil {
			return nil, "", fmt.Errorf("bmp encode failed: %v", err)
		}
		return buf.Bytes(), "bmp", nil

	case "tif", "tiff":
		opts := &tiff.Options{Compression: tiff.Deflate}
		if err := tiff.Encode(&buf, img, opts); err != nil {
			return nil, "", fmt.Errorf("tiff encode failed: %v", err)
		}
		return buf.Bytes(), "tiff", nil

	default:
		return nil, "", fmt.Errorf("no encoder for format %q", format)
	}
}

// flattenAlpha composites a non-opaque image onto a white background,
// discarding the alpha channel. Opaque images pass through unchanged.
func flattenAlpha(img image.Image) image.Image {
	type opaquer interface{ Opaque() bool }
	if o, ok := img.(opaquer); ok && o.Opaque() {
		return img
	}

	bounds := img.Bounds()
	background := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(background, img, image.Pt(0, 0), 1.0)
}

// capResolution downsamples the image when its pixel dimensions exceed
// the configured PPI at the placement size. A degenerate placement
// disables the cap for that image.
func (r *Recompressor) capResolution(img image.Image, placement Rect) image.Image {
	if r.MaxPPI <= 0 || placement.IsEmpty() {
		return img
	}

	bounds := img.Bounds()
	srcW, srcH := float64(bounds.Dx()), float64(bounds.Dy())
	maxW := r.MaxPPI * placement.Width() / PointsPerInch
	maxH := r.MaxPPI * placement.Height() / PointsPerInch
	if maxW <= 0 || maxH <= 0 {
		return img
	}
	if srcW <= maxW*ResamplingTolerance && srcH <= maxH*ResamplingTolerance {
		return img
	}

	scale := maxW / srcW
	if maxH/srcH < scale {
		scale = maxH / srcH
	}
	targetW := int(srcW * scale)
	targetH := int(srcH * scale)
	if targetW < 1 {
		targetW = 1
	}
	if targetH < 1 {
		targetH = 1
	}

	if r.Logger != nil {
		r.Logger.Debug("downsampling image",
			observability.Int("source_width", bounds.Dx()),
			observability.Int("source_height", bounds.Dy()),
			observability.Int("target_width", targetW),
			observability.Int("target_height", targetH))
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func clampQuality(quality int) int {
	if quality < MinQuality {
		return MinQuality
	}
	if quality > MaxQuality {
		return MaxQuality
	}
	return quality
}
