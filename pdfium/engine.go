// Package pdfium implements the pdf.Engine contract on top of the
// PDFium library via the klippa-app/go-pdfium binding.
package pdfium

import (
	"fmt"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/single_threaded"

	"pdf_compressor/pdf"
)

// InstanceTimeout bounds the wait for a worker from the pool.
const InstanceTimeout = 30 * time.Second

// Engine is a pdf.Engine backed by a single-threaded PDFium worker.
// It is not safe for concurrent use; each compression call owns the
// engine for its duration.
type Engine struct {
	pool     pdfium.Pool
	instance pdfium.Pdfium
}

// New initializes the PDFium library and claims a worker instance.
// Close must be called to release it.
func New() (*Engine, error) {
	pool := single_threaded.Init(single_threaded.Config{})
	instance, err := pool.GetInstance(InstanceTimeout)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("pdfium instance unavailable: %v", err)
	}
	return &Engine{pool: pool, instance: instance}, nil
}

// Open opens an existing document from disk.
func (e *Engine) Open(path string) (pdf.Document, error) {
	doc, err := e.instance.OpenDocument(&requests.OpenDocument{
		FilePath: &path,
	})
	if err != nil {
		return nil, fmt.Errorf("pdfium open %s: %v", path, err)
	}
	return &document{engine: e, ref: doc.Document}, nil
}

// NewDocument creates a new, empty document.
func (e *Engine) NewDocument() (pdf.Document, error) {
	doc, err := e.instance.FPDF_CreateNewDocument(&requests.FPDF_CreateNewDocument{})
	if err != nil {
		return nil, fmt.Errorf("pdfium create document: %v", err)
	}
	return &document{engine: e, ref: doc.Document}, nil
}

// Close releases the worker instance and shuts the library down.
func (e *Engine) Close() error {
	if e.instance != nil {
		e.instance.Close()
		e.instance = nil
	}
	if e.pool != nil {
		e.pool.Close()
		e.pool = nil
	}
	return nil
}
