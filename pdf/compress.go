package pdf

import (
	"fmt"
	"os"

	"pdf_compressor/observability"
)

// Options configures one compression run.
type Options struct {
	// Quality is the lossy encoder quality, 1-100. 0 selects DefaultQuality.
	Quality int

	// MaxPPI caps image resolution at placement size. 0 disables it.
	MaxPPI float64

	// Pages optionally restricts image substitution to a page selection,
	// e.g. "1,3-5". All pages are still copied to the output, so page
	// count and order are always preserved. Empty selects every page.
	Pages string

	// DisableCleanup skips the structural cleanup pass after saving.
	DisableCleanup bool
}

// CompressionResult reports before/after sizes of one compression run.
type CompressionResult struct {
	OriginalSize   int64   `json:"original_size"`
	CompressedSize int64   `json:"compressed_size"`
	Ratio          float64 `json:"compression_ratio"`
	Pages          int     `json:"pages"`
	ImagesReplaced int     `json:"images_replaced"`
	ImagesSkipped  int     `json:"images_skipped"`
}

// CalculateRatio fills Ratio from the recorded sizes.
func (r *CompressionResult) CalculateRatio() {
	if r.OriginalSize > 0 {
		r.Ratio = (1 - float64(r.CompressedSize)/float64(r.OriginalSize)) * 100
	}
}

// Compressor reduces a PDF's size by re-encoding its embedded raster
// images at a lower quality while preserving page layout and vector or
// text content. One Compress call owns its document handles exclusively
// and runs synchronously on the calling goroutine.
type Compressor struct {
	engine       Engine
	logger       observability.Logger
	opts         Options
	recompressor *Recompressor
}

// NewCompressor builds a Compressor. A nil logger disables diagnostics.
func NewCompressor(engine Engine, logger observability.Logger, opts Options) *Compressor {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	if opts.Quality == 0 {
		opts.Quality = DefaultQuality
	}
	opts.Quality = clampQuality(opts.Quality)

	return &Compressor{
		engine: engine,
		logger: logger,
		opts:   opts,
		recompressor: &Recompressor{
			Quality: opts.Quality,
			MaxPPI:  opts.MaxPPI,
			Logger:  logger,
		},
	}
}

// Compress reads the document at inputPath and writes a compressed copy
// to outputPath. A failing image never aborts the run: the page keeps
// its original rendering for that region. Open, save and size errors
// are fatal and leave no partial output file behind.
func (c *Compressor) Compress(inputPath, outputPath string) (*CompressionResult, error) {
	if _, err := os.Stat(inputPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, inputPath)
	}

	c.logger.Info("starting compression",
		observability.String("input", inputPath),
		observability.Int("quality", c.opts.Quality))

	src, err := c.engine.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenDocument, err)
	}
	defer src.Close()

	out, err := c.engine.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenDocument, err)
	}
	defer out.Close()

	totalPages, err := src.PageCount()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenDocument, err)
	}

	selected, err := c.selectedPages(totalPages)
	if err != nil {
		return nil, err
	}

	result := &CompressionResult{Pages: totalPages}
	for i := 0; i < totalPages; i++ {
		c.logger.Info(fmt.Sprintf("processing page %d/%d", i+1, totalPages))
		if err := c.rebuildPage(src, i, out, selected[i], result); err != nil {
			return nil, err
		}
	}

	if err := c.save(out, outputPath); err != nil {
		return nil, err
	}

	inInfo, err := os.Stat(inputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSizeUnavailable, err)
	}
	outInfo, err := os.Stat(outputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSizeUnavailable, err)
	}

	result.OriginalSize = inInfo.Size()
	result.CompressedSize = outInfo.Size()
	result.CalculateRatio()

	c.logger.Info("compression complete",
		observability.String("output", outputPath),
		observability.String("original_size", humanSize(result.OriginalSize)),
		observability.String("compressed_size", humanSize(result.CompressedSize)),
		observability.Float64("ratio_percent", result.Ratio))

	return result, nil
}

// save persists the output document via a temporary sibling path, then
// runs the structural cleanup pass into the final path. Failure on
// either step removes the temporary file and leaves no final output.
func (c *Compressor) save(out Document, outputPath string) error {
	tmpPath := outputPath + ".tmp"
	saveOpts := SaveOptions{
		GarbageCollect: true,
		DeflateStreams: true,
		CleanUnused:    true,
	}

	if err := out.Save(tmpPath, saveOpts); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrWriteDocument, err)
	}

	if c.opts.DisableCleanup {
		if err := os.Rename(tmpPath, outputPath); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("%w: %v", ErrWriteDocument, err)
		}
		return nil
	}

	if err := OptimizePDF(tmpPath, outputPath); err != nil {
		os.Remove(tmpPath)
		os.Remove(outputPath)
		return fmt.Errorf("%w: %v", ErrWriteDocument, err)
	}
	os.Remove(tmpPath)
	return nil
}

// selectedPages resolves the optional page selection to a zero-based
// lookup table. With no selection every page is substituted.
func (c *Compressor) selectedPages(totalPages int) (map[int]bool, error) {
	selected := make(map[int]bool, totalPages)
	if c.opts.Pages == "" {
		for i := 0; i < totalPages; i++ {
			selected[i] = true
		}
		return selected, nil
	}

	pages, err := ParsePageSpecifier(c.opts.Pages)
	if err != nil {
		return nil, err
	}
	if err := ValidatePageNumbers(pages, totalPages); err != nil {
		return nil, err
	}
	for _, p := range pages {
		selected[p-1] = true
	}
	return selected, nil
}

// humanSize renders a byte count as a KB string for log output.
func humanSize(size int64) string {
	return fmt.Sprintf("%.2fKB", float64(size)/1024)
}
