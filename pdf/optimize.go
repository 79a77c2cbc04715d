package pdf

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// OptimizePDF rewrites a PDF with structural cleanup: unreferenced
// objects removed, duplicate resources merged and streams deflated.
// It is lossless; image payloads are not touched. The compressor runs
// it as the final save pass, and it is also exposed as a standalone
// operation.
func OptimizePDF(inFile, outFile string) error {
	if err := api.OptimizeFile(inFile, outFile, nil); err != nil {
		return fmt.Errorf("pdf optimization failed: %v", err)
	}
	return nil
}
