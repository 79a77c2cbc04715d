package pdfium

import (
	"fmt"

	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"

	"pdf_compressor/pdf"
)

type document struct {
	engine *Engine
	ref    references.FPDF_DOCUMENT
	closed bool
}

func (d *document) PageCount() (int, error) {
	res, err := d.engine.instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: d.ref,
	})
	if err != nil {
		return 0, fmt.Errorf("pdfium page count: %v", err)
	}
	return res.PageCount, nil
}

func (d *document) Page(index int) (pdf.Page, error) {
	res, err := d.engine.instance.FPDF_LoadPage(&requests.FPDF_LoadPage{
		Document: d.ref,
		Index:    index,
	})
	if err != nil {
		return nil, fmt.Errorf("pdfium load page %d: %v", index, err)
	}
	return &page{engine: d.engine, doc: d.ref, ref: res.Page, index: index}, nil
}

func (d *document) NewPage(width, height float64) (pdf.Page, error) {
	count, err := d.PageCount()
	if err != nil {
		return nil, err
	}
	res, err := d.engine.instance.FPDFPage_New(&requests.FPDFPage_New{
		Document:  d.ref,
		PageIndex: count,
		Width:     width,
		Height:    height,
	})
	if err != nil {
		return nil, fmt.Errorf("pdfium new page: %v", err)
	}
	return &page{engine: d.engine, doc: d.ref, ref: res.Page, index: count}, nil
}

// Save writes a full non-incremental copy of the document. PDFium does
// not expose garbage collection or stream recompression at save time;
// the requested cleanup is performed by the compressor's structural
// cleanup pass instead.
func (d *document) Save(path string, opts pdf.SaveOptions) error {
	_, err := d.engine.instance.FPDF_SaveAsCopy(&requests.FPDF_SaveAsCopy{
		Document: d.ref,
		FilePath: &path,
		Flags:    requests.SaveFlagNoIncremental,
	})
	if err != nil {
		return fmt.Errorf("pdfium save %s: %v", path, err)
	}
	return nil
}

func (d *document) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	_, err := d.engine.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: d.ref,
	})
	if err != nil {
		return fmt.Errorf("pdfium close document: %v", err)
	}
	return nil
}
