package pdfextract

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Document is the text layer of a PDF.
type Document struct {
	Text  string
	Pages int
}

// ExtractFile reads the PDF at path. The page count comes from pdfcpu when it
// can parse the file and from the text reader otherwise.
func ExtractFile(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pdf failed: %w", err)
	}
	doc, err := ExtractBytes(b)
	if err != nil {
		return nil, err
	}
	if n, err := api.PageCountFile(path); err == nil {
		doc.Pages = n
	}
	return doc, nil
}

// ExtractBytes extracts plain text from an in-memory PDF. A PDF without a
// text layer yields an empty Text and no error.
func ExtractBytes(b []byte) (*Document, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("pdf is empty")
	}
	pdfReader, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("open pdf failed: %w", err)
	}
	plainReader, err := pdfReader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("read pdf text failed: %w", err)
	}
	out, err := io.ReadAll(plainReader)
	if err != nil {
		return nil, fmt.Errorf("read pdf text failed: %w", err)
	}
	return &Document{Text: string(out), Pages: pdfReader.NumPage()}, nil
}

// IsBlank reports whether the extracted text carries no content.
func (d *Document) IsBlank() bool {
	return d == nil || strings.TrimSpace(d.Text) == ""
}
