package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"pdf_compressor/api"
	"pdf_compressor/observability"
	"pdf_compressor/pdf"
	"pdf_compressor/pdfium"
)

const (
	// DefaultPort is the default server port
	DefaultPort = "8080"

	// DefaultMaxFileSize is the default maximum upload size (50MB)
	DefaultMaxFileSize = 50 * 1024 * 1024

	// DefaultTempDir is the default temporary directory
	DefaultTempDir = "./temp"

	// ServerReadTimeout is the HTTP server read timeout
	ServerReadTimeout = 60 * time.Second

	// ServerWriteTimeout is the HTTP server write timeout
	ServerWriteTimeout = 60 * time.Second

	// ServerIdleTimeout is the HTTP server idle timeout
	ServerIdleTimeout = 60 * time.Second

	// GracefulShutdownTimeout is the timeout for graceful shutdown
	GracefulShutdownTimeout = 10 * time.Second
)

var (
	quality   int
	maxPPI    float64
	pages     string
	noCleanup bool
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "pdf_compressor",
	Short: "Reduce PDF file size by recompressing embedded images",
}

var compressCmd = &cobra.Command{
	Use:   "compress <input.pdf> <output.pdf>",
	Short: "Compress a PDF by re-encoding its raster images at lower quality",
	Long: `Rebuilds each page of the input document, preserving text and vector
content verbatim, and re-encodes every embedded raster image at the
given quality. Prints before/after sizes and the compression ratio.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompress(args[0], args[1])
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <input.pdf>",
	Short: "List the embedded raster images of a PDF as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(args[0])
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the compression HTTP service",
	Long: `Starts an HTTP server exposing compress, optimize and analyze
endpoints under /api/pdf. Configured via PORT, MAX_FILE_SIZE and
TEMP_DIR environment variables.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	compressCmd.Flags().IntVarP(&quality, "quality", "q", pdf.DefaultQuality, "Image quality (1-100)")
	compressCmd.Flags().Float64Var(&maxPPI, "max-ppi", 0, "Downsample images above this resolution at placement size (0 = off)")
	compressCmd.Flags().StringVar(&pages, "pages", "", "Only recompress images on these pages, e.g. \"1,3-5\"")
	compressCmd.Flags().BoolVar(&noCleanup, "no-cleanup", false, "Skip the structural cleanup pass after saving")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(compressCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCompress(inputPath, outputPath string) error {
	engine, err := pdfium.New()
	if err != nil {
		return err
	}
	defer engine.Close()

	compressor := pdf.NewCompressor(engine, newLogger(), pdf.Options{
		Quality:        quality,
		MaxPPI:         maxPPI,
		Pages:          pages,
		DisableCleanup: noCleanup,
	})

	result, err := compressor.Compress(inputPath, outputPath)
	if err != nil {
		return err
	}

	fmt.Printf("Compressed '%s' to '%s'\n", inputPath, outputPath)
	fmt.Printf("Original size: %.2fKB\n", float64(result.OriginalSize)/1024)
	fmt.Printf("Compressed size: %.2fKB\n", float64(result.CompressedSize)/1024)
	fmt.Printf("Compression ratio: %.1f%%\n", result.Ratio)
	return nil
}

func runInspect(inputPath string) error {
	engine, err := pdfium.New()
	if err != nil {
		return err
	}
	defer engine.Close()

	analysis, err := pdf.Inspect(engine, newLogger(), inputPath)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(analysis)
}

func runServe() error {
	config := &api.Config{
		Port:        getEnv("PORT", DefaultPort),
		MaxFileSize: getEnvInt64("MAX_FILE_SIZE", DefaultMaxFileSize),
		TempDir:     getEnv("TEMP_DIR", DefaultTempDir),
	}
	logger := newLogger()

	r := gin.Default()
	api.SetupRoutes(r, config, api.Operations{
		Compress: func(inFile, outFile string, opts pdf.Options) (*pdf.CompressionResult, error) {
			engine, err := pdfium.New()
			if err != nil {
				return nil, err
			}
			defer engine.Close()
			return pdf.NewCompressor(engine, logger, opts).Compress(inFile, outFile)
		},
		Optimize: pdf.OptimizePDF,
		Inspect: func(path string) (*pdf.DocumentAnalysis, error) {
			engine, err := pdfium.New()
			if err != nil {
				return nil, err
			}
			defer engine.Close()
			return pdf.Inspect(engine, logger, path)
		},
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "pdf_compressor",
		})
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", config.Port),
		Handler:      r,
		ReadTimeout:  ServerReadTimeout,
		WriteTimeout: ServerWriteTimeout,
		IdleTimeout:  ServerIdleTimeout,
	}

	go func() {
		log.Printf("Server starting on %s", srv.Addr)
		log.Printf("Max file size: %d bytes", config.MaxFileSize)
		log.Printf("Temp directory: %s", config.TempDir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited gracefully")
	return nil
}

func newLogger() observability.Logger {
	level := 1
	if verbose {
		level = 0
	}
	return observability.StdLogger{MinLevel: level}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
