package pdf

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pdf_compressor/observability"
)

// recordingLogger captures warn messages for assertions.
type recordingLogger struct {
	warns []string
}

func (l *recordingLogger) Debug(string, ...observability.Field) {}
func (l *recordingLogger) Info(string, ...observability.Field)  {}
func (l *recordingLogger) Error(string, ...observability.Field) {}

func (l *recordingLogger) Warn(msg string, _ ...observability.Field) {
	l.warns = append(l.warns, msg)
}

func writeInputFile(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.pdf")
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing input file: %v", err)
	}
	return path
}

func newTestCompressor(engine Engine, opts Options) *Compressor {
	opts.DisableCleanup = true // fake save output is not a real PDF
	return NewCompressor(engine, observability.NopLogger{}, opts)
}

func TestCompressPreservesPagesAndGeometry(t *testing.T) {
	engine := &fakeEngine{
		src: &fakeDocument{pages: []*fakePage{
			{width: 595, height: 842, images: []fakeImage{
				{data: encodeJPEG(64, 64, 90), format: "jpeg", rect: Rect{X0: 10, Y0: 10, X1: 200, Y1: 150}},
			}},
			{width: 842, height: 595},
			{width: 595, height: 842, images: []fakeImage{
				{data: encodeJPEG(32, 32, 90), format: "jpeg", rect: Rect{X0: 0, Y0: 0, X1: 100, Y1: 100}},
				{data: encodePNG(16, 16, 255), format: "png", rect: Rect{X0: 50, Y0: 50, X1: 80, Y1: 80}},
			}},
		}},
	}

	input := writeInputFile(t, 64*1024)
	output := filepath.Join(t.TempDir(), "out.pdf")

	result, err := newTestCompressor(engine, Options{Quality: 40}).Compress(input, output)
	if err != nil {
		t.Fatalf("Compress() error: %v", err)
	}

	if result.Pages != 3 {
		t.Errorf("result.Pages = %d, want 3", result.Pages)
	}
	if len(engine.out.pages) != 3 {
		t.Fatalf("output document has %d pages, want 3", len(engine.out.pages))
	}
	for i, outPage := range engine.out.pages {
		srcPage := engine.src.pages[i]
		if outPage.width != srcPage.width || outPage.height != srcPage.height {
			t.Errorf("page %d: got %gx%g, want %gx%g", i, outPage.width, outPage.height, srcPage.width, srcPage.height)
		}
		if !outPage.copied || outPage.copiedFrom != i {
			t.Errorf("page %d: content not copied from source page %d", i, i)
		}
		if !outPage.finalized {
			t.Errorf("page %d: not finalized", i)
		}
	}

	if got := len(engine.out.pages[1].inserted); got != 0 {
		t.Errorf("image-free page received %d insertions", got)
	}
	if got := len(engine.out.pages[2].inserted); got != 2 {
		t.Errorf("page 3 insertions = %d, want 2", got)
	}
	if result.ImagesReplaced != 3 {
		t.Errorf("ImagesReplaced = %d, want 3", result.ImagesReplaced)
	}

	if !engine.src.closed || !engine.out.closed {
		t.Error("document handles were not released")
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("output file missing: %v", err)
	}
	if result.OriginalSize == 0 || result.CompressedSize == 0 {
		t.Errorf("sizes not recorded: %+v", result)
	}
}

func TestCompressMissingInput(t *testing.T) {
	engine := &fakeEngine{src: &fakeDocument{}}
	output := filepath.Join(t.TempDir(), "out.pdf")

	_, err := newTestCompressor(engine, Options{}).Compress(filepath.Join(t.TempDir(), "missing.pdf"), output)
	if !errors.Is(err, ErrInputNotFound) {
		t.Fatalf("error = %v, want ErrInputNotFound", err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Error("output file was created despite missing input")
	}
}

func TestCompressOpenError(t *testing.T) {
	engine := &fakeEngine{openErr: errors.New("bad xref")}
	input := writeInputFile(t, 1024)

	_, err := newTestCompressor(engine, Options{}).Compress(input, filepath.Join(t.TempDir(), "out.pdf"))
	if !errors.Is(err, ErrOpenDocument) {
		t.Fatalf("error = %v, want ErrOpenDocument", err)
	}
}

func TestCompressCorruptImageSkipped(t *testing.T) {
	newEngine := func() *fakeEngine {
		return &fakeEngine{
			src: &fakeDocument{pages: []*fakePage{
				{width: 595, height: 842, images: []fakeImage{
					{data: []byte("not an image"), format: "jpeg", rect: Rect{X1: 100, Y1: 100}},
				}},
			}},
		}
	}
	input := writeInputFile(t, 8*1024)

	// Running twice must give the same successful outcome.
	for run := 0; run < 2; run++ {
		engine := newEngine()
		output := filepath.Join(t.TempDir(), "out.pdf")

		result, err := newTestCompressor(engine, Options{}).Compress(input, output)
		if err != nil {
			t.Fatalf("run %d: Compress() error: %v", run, err)
		}
		if result.ImagesSkipped != 1 || result.ImagesReplaced != 0 {
			t.Errorf("run %d: skipped=%d replaced=%d, want 1/0", run, result.ImagesSkipped, result.ImagesReplaced)
		}
		if len(engine.out.pages[0].inserted) != 0 {
			t.Errorf("run %d: corrupt image was inserted", run)
		}
		if !engine.out.pages[0].copied {
			t.Errorf("run %d: page content copy missing, original region lost", run)
		}
	}
}

func TestCompressFetchFailureSkipped(t *testing.T) {
	engine := &fakeEngine{
		src: &fakeDocument{pages: []*fakePage{
			{width: 595, height: 842, images: []fakeImage{
				{fetchErr: errFetchFailed, rect: Rect{X1: 100, Y1: 100}},
				{data: encodeJPEG(32, 32, 90), format: "jpeg", rect: Rect{X1: 50, Y1: 50}},
			}},
		}},
	}
	input := writeInputFile(t, 8*1024)

	result, err := newTestCompressor(engine, Options{}).Compress(input, filepath.Join(t.TempDir(), "out.pdf"))
	if err != nil {
		t.Fatalf("Compress() error: %v", err)
	}
	if result.ImagesSkipped != 1 || result.ImagesReplaced != 1 {
		t.Errorf("skipped=%d replaced=%d, want 1/1", result.ImagesSkipped, result.ImagesReplaced)
	}
}

func TestCompressDegeneratePlacementSkipped(t *testing.T) {
	engine := &fakeEngine{
		src: &fakeDocument{pages: []*fakePage{
			{width: 595, height: 842, images: []fakeImage{
				{data: encodeJPEG(32, 32, 90), format: "jpeg", rect: Rect{}},
			}},
		}},
	}
	input := writeInputFile(t, 8*1024)

	result, err := newTestCompressor(engine, Options{}).Compress(input, filepath.Join(t.TempDir(), "out.pdf"))
	if err != nil {
		t.Fatalf("Compress() error: %v", err)
	}
	if result.ImagesSkipped != 1 || len(engine.out.pages[0].inserted) != 0 {
		t.Error("degenerate placement was not skipped")
	}
	if engine.src.pages[0].extractCalls != 0 {
		t.Errorf("degenerate placement triggered %d extractions, want 0", engine.src.pages[0].extractCalls)
	}
}

func TestCompressSkipsAreWarned(t *testing.T) {
	engine := &fakeEngine{
		src: &fakeDocument{pages: []*fakePage{
			{width: 595, height: 842, images: []fakeImage{
				{data: []byte("not an image"), format: "jpeg", rect: Rect{X1: 100, Y1: 100}},
			}},
		}},
	}
	input := writeInputFile(t, 8*1024)

	logger := &recordingLogger{}
	compressor := NewCompressor(engine, logger, Options{DisableCleanup: true})
	if _, err := compressor.Compress(input, filepath.Join(t.TempDir(), "out.pdf")); err != nil {
		t.Fatalf("Compress() error: %v", err)
	}
	if len(logger.warns) != 1 || !strings.Contains(logger.warns[0], "skipping image") {
		t.Errorf("warns = %q, want one skip warning", logger.warns)
	}
}

func TestCompressPageSelection(t *testing.T) {
	engine := &fakeEngine{
		src: &fakeDocument{pages: []*fakePage{
			{width: 595, height: 842, images: []fakeImage{
				{data: encodeJPEG(32, 32, 90), format: "jpeg", rect: Rect{X1: 100, Y1: 100}},
			}},
			{width: 595, height: 842, images: []fakeImage{
				{data: encodeJPEG(32, 32, 90), format: "jpeg", rect: Rect{X1: 100, Y1: 100}},
			}},
		}},
	}
	input := writeInputFile(t, 8*1024)

	_, err := newTestCompressor(engine, Options{Pages: "2"}).Compress(input, filepath.Join(t.TempDir(), "out.pdf"))
	if err != nil {
		t.Fatalf("Compress() error: %v", err)
	}

	if len(engine.out.pages) != 2 {
		t.Fatalf("output has %d pages, want 2", len(engine.out.pages))
	}
	if len(engine.out.pages[0].inserted) != 0 {
		t.Error("unselected page had images substituted")
	}
	if !engine.out.pages[0].copied {
		t.Error("unselected page lost its content copy")
	}
	if len(engine.out.pages[1].inserted) != 1 {
		t.Error("selected page was not substituted")
	}
}

func TestCompressInvalidPageSelection(t *testing.T) {
	engine := &fakeEngine{
		src: &fakeDocument{pages: []*fakePage{{width: 595, height: 842}}},
	}
	input := writeInputFile(t, 1024)

	if _, err := newTestCompressor(engine, Options{Pages: "5"}).Compress(input, filepath.Join(t.TempDir(), "out.pdf")); err == nil {
		t.Fatal("expected error for out-of-range page selection")
	}
}

func TestCompressSaveFailureLeavesNoOutput(t *testing.T) {
	engine := &fakeEngine{
		src: &fakeDocument{pages: []*fakePage{{width: 595, height: 842}}},
	}
	input := writeInputFile(t, 1024)
	output := filepath.Join(t.TempDir(), "out.pdf")

	engine.outSaveErr = errors.New("disk full")

	_, err := newTestCompressor(engine, Options{}).Compress(input, output)
	if !errors.Is(err, ErrWriteDocument) {
		t.Fatalf("error = %v, want ErrWriteDocument", err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Error("half-written output file left behind")
	}
	if _, statErr := os.Stat(output + ".tmp"); !os.IsNotExist(statErr) {
		t.Error("temporary file left behind")
	}
}

func TestCalculateRatio(t *testing.T) {
	tests := []struct {
		name     string
		original int64
		result   int64
		want     float64
	}{
		{"halved", 1000, 500, 50},
		{"unchanged", 1000, 1000, 0},
		{"grown", 1000, 1200, -20},
		{"zero original", 0, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := CompressionResult{OriginalSize: tt.original, CompressedSize: tt.result}
			r.CalculateRatio()
			if r.Ratio != tt.want {
				t.Errorf("Ratio = %g, want %g", r.Ratio, tt.want)
			}
		})
	}
}

func TestCompressQualityMonotonicSize(t *testing.T) {
	source := encodeJPEG(128, 128, 95)
	newEngine := func() *fakeEngine {
		return &fakeEngine{
			src: &fakeDocument{pages: []*fakePage{
				{width: 595, height: 842, images: []fakeImage{
					{data: source, format: "jpeg", rect: Rect{X1: 200, Y1: 200}},
				}},
			}},
		}
	}
	input := writeInputFile(t, 8*1024)

	sizes := map[int]int64{}
	for _, quality := range []int{1, 90} {
		engine := newEngine()
		output := filepath.Join(t.TempDir(), "out.pdf")
		if _, err := newTestCompressor(engine, Options{Quality: quality}).Compress(input, output); err != nil {
			t.Fatalf("quality %d: %v", quality, err)
		}
		info, err := os.Stat(output)
		if err != nil {
			t.Fatalf("quality %d: stat: %v", quality, err)
		}
		sizes[quality] = info.Size()
	}

	if sizes[1] > sizes[90] {
		t.Errorf("quality=1 output (%d bytes) larger than quality=90 (%d bytes)", sizes[1], sizes[90])
	}
}
