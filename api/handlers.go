package api

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	pdfPkg "pdf_compressor/pdf"
)

// HandleCompress recompresses embedded images of an uploaded PDF and
// returns the compressed file, with size statistics in response headers.
func HandleCompress(c *gin.Context, config *Config, ops Operations) {
	opts := pdfPkg.Options{Pages: c.PostForm("pages")}

	if qualityParam := c.PostForm("quality"); qualityParam != "" {
		quality, err := strconv.Atoi(qualityParam)
		if err != nil || quality < pdfPkg.MinQuality || quality > pdfPkg.MaxQuality {
			c.JSON(http.StatusBadRequest, gin.H{"error": "quality must be an integer between 1 and 100"})
			return
		}
		opts.Quality = quality
	}

	var result *pdfPkg.CompressionResult
	handlePDFFile(c, config, func(inFile, outFile string) error {
		var err error
		result, err = ops.Compress(inFile, outFile, opts)
		return err
	}, "compressed", func(c *gin.Context) {
		c.Header("X-Original-Size", strconv.FormatInt(result.OriginalSize, 10))
		c.Header("X-Compressed-Size", strconv.FormatInt(result.CompressedSize, 10))
		c.Header("X-Compression-Ratio", fmt.Sprintf("%.1f", result.Ratio))
	})
}

// HandleOptimize runs the lossless structural cleanup on an uploaded PDF.
func HandleOptimize(c *gin.Context, config *Config, ops Operations) {
	handlePDFFile(c, config, ops.Optimize, "optimized", nil)
}

// HandleAnalyze returns the embedded image inventory of an uploaded PDF.
func HandleAnalyze(c *gin.Context, config *Config, ops Operations) {
	inFile, _, cleanup, ok := saveUpload(c, config, "analysis")
	if !ok {
		return
	}
	defer cleanup()

	analysis, err := ops.Inspect(inFile)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": clientError(err)})
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// handlePDFFile runs one file-to-file operation on the uploaded PDF and
// returns the produced file for download. extraHeaders, when non-nil,
// runs after a successful operation and before the file is sent.
func handlePDFFile(c *gin.Context, config *Config, operation func(string, string) error, suffix string, extraHeaders func(*gin.Context)) {
	inFile, origName, cleanup, ok := saveUpload(c, config, "input")
	if !ok {
		return
	}

	outFile := strings.TrimSuffix(inFile, ".pdf") + "_" + suffix + ".pdf"

	if err := operation(inFile, outFile); err != nil {
		cleanup()
		if _, statErr := os.Stat(outFile); statErr == nil {
			os.Remove(outFile)
		}
		c.JSON(statusFor(err), gin.H{"error": clientError(err)})
		return
	}

	if _, err := os.Stat(outFile); os.IsNotExist(err) {
		cleanup()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "PDF operation did not produce output file"})
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName(origName, suffix)))
	if extraHeaders != nil {
		extraHeaders(c)
	}
	c.File(outFile)

	// Delay cleanup so the file transfer completes first.
	go func() {
		time.Sleep(FileCleanupDelay)
		cleanup()
		os.Remove(outFile)
	}()
}

// saveUpload validates the uploaded PDF and writes it to a unique temp
// path. The returned cleanup removes it; ok is false when a response
// has already been written.
func saveUpload(c *gin.Context, config *Config, prefix string) (inFile, origName string, cleanup func(), ok bool) {
	file, header, err := c.Request.FormFile("pdf")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No PDF file provided"})
		return "", "", nil, false
	}
	defer file.Close()

	if err := validatePDFFile(file, header, config.MaxFileSize); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", "", nil, false
	}

	if err := os.MkdirAll(config.TempDir, DefaultFilePermissions); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create temp directory"})
		return "", "", nil, false
	}

	inFile = filepath.Join(config.TempDir, prefix+"_"+generateUniqueID()+".pdf")
	out, err := os.Create(inFile)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create temp file"})
		return "", "", nil, false
	}

	_, err = out.ReadFrom(file)
	out.Close()
	if err != nil {
		os.Remove(inFile)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save input file"})
		return "", "", nil, false
	}

	return inFile, header.Filename, func() { os.Remove(inFile) }, true
}

// downloadName derives the attachment filename from the uploaded one.
func downloadName(origName, suffix string) string {
	if origName == "" {
		return "document_" + suffix + ".pdf"
	}
	if strings.HasSuffix(strings.ToLower(origName), ".pdf") {
		origName = origName[:len(origName)-4]
	}
	return sanitizeFilename(origName + "_" + suffix + ".pdf")
}

// statusFor maps operation errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pdfPkg.ErrInputNotFound):
		return http.StatusNotFound
	case errors.Is(err, pdfPkg.ErrOpenDocument):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// clientError truncates long operation errors for the response body.
func clientError(err error) string {
	msg := err.Error()
	if msg == "" {
		return "PDF operation failed"
	}
	if len(msg) > MaxErrorMessageLength {
		return msg[:MaxErrorMessageLength] + "..."
	}
	return msg
}

// sanitizeFilename removes path traversal attempts and dangerous characters
func sanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "..", "")
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")
	filename = strings.TrimSpace(filepath.Base(filename))
	if filename == "" {
		filename = "document.pdf"
	}
	return filename
}

// generateUniqueID generates a unique identifier for temp files
func generateUniqueID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return fmt.Sprintf("%d_%s", time.Now().UnixNano(), hex.EncodeToString(b))
}

// validatePDFFile checks the size limit and the %PDF header.
func validatePDFFile(file multipart.File, header *multipart.FileHeader, maxSize int64) error {
	if header.Size > maxSize {
		return fmt.Errorf("file size %d exceeds maximum allowed %d bytes", header.Size, maxSize)
	}

	buffer := make([]byte, 4)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file header: %v", err)
	}
	if n < 4 || string(buffer[:4]) != "%PDF" {
		return fmt.Errorf("invalid PDF file: header does not match")
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to reset file position: %v", err)
	}
	return nil
}
