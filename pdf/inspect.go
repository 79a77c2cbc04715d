package pdf

import (
	"bytes"
	"fmt"
	"image"
	"os"

	"pdf_compressor/observability"
)

// ImageInfo describes one embedded raster image found during inspection.
type ImageInfo struct {
	Page      int     `json:"page"`
	Index     int     `json:"index"`
	Format    string  `json:"format"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	SizeBytes int     `json:"size_bytes"`
	Size      string  `json:"size"`
	PlacedX   float64 `json:"placed_x"`
	PlacedY   float64 `json:"placed_y"`
	PlacedW   float64 `json:"placed_width"`
	PlacedH   float64 `json:"placed_height"`
}

// DocumentAnalysis is the result of inspecting one document.
type DocumentAnalysis struct {
	Path            string      `json:"path"`
	FileSize        int64       `json:"file_size"`
	TotalPages      int         `json:"total_pages"`
	Images          []ImageInfo `json:"images"`
	TotalImageBytes int64       `json:"total_image_bytes"`
}

// Inspect opens the document at path and inventories its embedded
// raster images per page: format, payload size, pixel dimensions and
// placement. Images whose payload cannot be fetched are reported with
// what is known and logged at debug level.
func Inspect(engine Engine, logger observability.Logger, path string) (*DocumentAnalysis, error) {
	if logger == nil {
		logger = observability.NopLogger{}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
	}

	doc, err := engine.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenDocument, err)
	}
	defer doc.Close()

	totalPages, err := doc.PageCount()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenDocument, err)
	}

	analysis := &DocumentAnalysis{
		Path:       path,
		FileSize:   info.Size(),
		TotalPages: totalPages,
		Images:     []ImageInfo{},
	}

	for i := 0; i < totalPages; i++ {
		if err := inspectPage(doc, i, logger, analysis); err != nil {
			return nil, err
		}
	}

	return analysis, nil
}

func inspectPage(doc Document, pageIndex int, logger observability.Logger, analysis *DocumentAnalysis) error {
	page, err := doc.Page(pageIndex)
	if err != nil {
		return fmt.Errorf("%w: page %d: %v", ErrOpenDocument, pageIndex+1, err)
	}
	defer page.Close()

	refs, err := page.Images()
	if err != nil {
		logger.Debug("cannot list page images",
			observability.Int("page", pageIndex+1),
			observability.Error("error", err))
		return nil
	}

	for _, ref := range refs {
		entry := ImageInfo{
			Page:    pageIndex + 1,
			Index:   ref.Index,
			PlacedX: ref.Rect.X0,
			PlacedY: ref.Rect.Y0,
			PlacedW: ref.Rect.Width(),
			PlacedH: ref.Rect.Height(),
		}

		embedded, err := page.ExtractImage(ref)
		if err != nil {
			logger.Debug("cannot extract image payload",
				observability.Int("page", pageIndex+1),
				observability.Int("image", ref.Index),
				observability.Error("error", err))
			analysis.Images = append(analysis.Images, entry)
			continue
		}

		entry.Format = embedded.Format
		entry.SizeBytes = len(embedded.Data)
		entry.Size = humanSize(int64(len(embedded.Data)))
		analysis.TotalImageBytes += int64(len(embedded.Data))

		if cfg, _, err := image.DecodeConfig(bytes.NewReader(embedded.Data)); err == nil {
			entry.Width = cfg.Width
			entry.Height = cfg.Height
		}

		analysis.Images = append(analysis.Images, entry)
	}

	return nil
}
