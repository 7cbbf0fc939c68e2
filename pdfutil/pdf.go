// Package pdfutil wraps plain-text extraction from local PDF files. The MDA
// parser only needs page counts and per-page text, so that is all this
// package exposes.
package pdfutil

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// Document is an open PDF file with page-level text access.
type Document struct {
	file   *os.File
	reader *pdf.Reader
}

// Open opens a PDF file for text extraction
func Open(path string) (*Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	return &Document{file: f, reader: r}, nil
}

// Close releases the underlying file
func (d *Document) Close() error {
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}

// NumPages returns the page count
func (d *Document) NumPages() int {
	return d.reader.NumPage()
}

// PageText extracts the plain text of one page. Pages are numbered from 1.
// A page outside the document or with no extractable content yields an empty
// string rather than an error: scanned or malformed pages are routine in
// disclosure PDFs and the parser just skips them.
func (d *Document) PageText(page int) (string, error) {
	if page < 1 || page > d.reader.NumPage() {
		return "", nil
	}
	p := d.reader.Page(page)
	if p.V.IsNull() {
		return "", nil
	}
	text, err := p.GetPlainText(nil)
	if err != nil {
		return "", nil
	}
	return text, nil
}
