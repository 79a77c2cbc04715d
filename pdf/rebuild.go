package pdf

import (
	"pdf_compressor/observability"
)

// rebuildPage reproduces one source page in the output document. The
// new page first receives a full copy of the source page's rendered
// content, so text and vector graphics survive verbatim; recompressed
// images are then inserted over their original placements. substitute
// turns image substitution off for pages outside the selection.
//
// Failures below page level (listing, fetching, re-encoding or
// inserting one image) are absorbed: the copied content from step one
// already renders the affected region, so the page stays visually
// complete.
func (c *Compressor) rebuildPage(src Document, pageIndex int, out Document, substitute bool, result *CompressionResult) error {
	srcPage, err := src.Page(pageIndex)
	if err != nil {
		return err
	}
	defer srcPage.Close()

	width, height, err := srcPage.Size()
	if err != nil {
		return err
	}

	outPage, err := out.NewPage(width, height)
	if err != nil {
		return err
	}
	defer outPage.Close()

	if err := outPage.CopyContentFrom(src, pageIndex); err != nil {
		return err
	}

	if substitute {
		refs, err := srcPage.Images()
		if err != nil {
			c.logger.Warn("cannot list page images, keeping original content",
				observability.Int("page", pageIndex+1),
				observability.Error("error", err))
			refs = nil
		}

		for _, ref := range refs {
			c.substituteImage(srcPage, outPage, pageIndex, ref, result)
		}
	}

	return outPage.Finalize()
}

// substituteImage re-encodes one embedded image and overpaints its
// placement on the output page. Every failure path skips the image and
// leaves the original rendering in place.
func (c *Compressor) substituteImage(srcPage, outPage Page, pageIndex int, ref ImageRef, result *CompressionResult) {
	if ref.Rect.IsEmpty() {
		c.logger.Warn("skipping image: degenerate placement rectangle",
			observability.Int("page", pageIndex+1),
			observability.Int("image", ref.Index))
		result.ImagesSkipped++
		return
	}

	embedded, err := srcPage.ExtractImage(ref)
	if err != nil {
		c.logger.Warn("skipping image: extraction failed",
			observability.Int("page", pageIndex+1),
			observability.Int("image", ref.Index),
			observability.Error("error", err))
		result.ImagesSkipped++
		return
	}

	compressed, format, err := c.recompressor.Recompress(embedded.Data, embedded.Format, ref.Rect)
	if err != nil {
		c.logger.Warn("skipping image: recompression failed",
			observability.Int("page", pageIndex+1),
			observability.Int("image", ref.Index),
			observability.Error("error", err))
		result.ImagesSkipped++
		return
	}

	if err := outPage.InsertImage(ref, compressed, format); err != nil {
		c.logger.Warn("skipping image: insertion failed",
			observability.Int("page", pageIndex+1),
			observability.Int("image", ref.Index),
			observability.Error("error", err))
		result.ImagesSkipped++
		return
	}

	result.ImagesReplaced++
}
