package api

import (
	"github.com/gin-gonic/gin"

	"pdf_compressor/pdf"
)

// Config holds application configuration
type Config struct {
	Port        string
	MaxFileSize int64
	TempDir     string
}

// Operations are the PDF operations the handlers delegate to. They are
// injected so handlers can be exercised without a PDF engine.
type Operations struct {
	Compress func(inFile, outFile string, opts pdf.Options) (*pdf.CompressionResult, error)
	Optimize func(inFile, outFile string) error
	Inspect  func(path string) (*pdf.DocumentAnalysis, error)
}

func SetupRoutes(r *gin.Engine, config *Config, ops Operations) {
	apiGroup := r.Group("/api/pdf")
	{
		apiGroup.POST("/compress", func(c *gin.Context) { HandleCompress(c, config, ops) })
		apiGroup.POST("/optimize", func(c *gin.Context) { HandleOptimize(c, config, ops) })
		apiGroup.POST("/analyze", func(c *gin.Context) { HandleAnalyze(c, config, ops) })
	}
}
