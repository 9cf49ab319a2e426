// Package textextract reads documents from local files: page text from
// PDFs and plain-text exports, rows from saved extraction-service answers.
package textextract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/common"
	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
	"github.com/joseph-ayodele/fiscal-extract/internal/upstream"
)

type Reader struct {
	logger  *slog.Logger
	decoder *upstream.Decoder
}

func New(logger *slog.Logger) (*Reader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dec, err := upstream.NewDecoder(logger)
	if err != nil {
		return nil, err
	}
	return &Reader{logger: logger, decoder: dec}, nil
}

// Fetch reads path according to its extension. Text files split pages
// on form feeds; JSON files hold a saved extraction-service answer.
func (r *Reader) Fetch(ctx context.Context, path string, family constants.DocumentFamily) (entity.Document, error) {
	if err := ctx.Err(); err != nil {
		return entity.Document{}, err
	}
	ext := constants.NormalizeExt(filepath.Ext(path))

	var (
		doc entity.Document
		err error
	)
	switch ext {
	case "pdf":
		doc, err = r.readPDF(path)
	case "txt":
		doc, err = r.readText(path)
	case "json":
		doc, err = r.readJSON(path, family)
	default:
		return entity.Document{}, common.NewAppError("INVALID_INPUT", "unsupported format: "+ext, common.ErrInvalidInput)
	}
	if err != nil {
		return entity.Document{}, err
	}
	doc.Family = family
	doc.Source = path
	r.logger.Debug("textextract.read.ok", "path", path, "format", ext, "pages", len(doc.Pages), "row_sections", len(doc.Rows))
	return doc, nil
}

func (r *Reader) readPDF(path string) (entity.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return entity.Document{}, err
	}
	defer f.Close()
	pages, err := PDFPages(f)
	if err != nil {
		r.logger.Error("textextract.pdf.failed", "path", path, "error", err)
		return entity.Document{}, fmt.Errorf("read pdf %s: %w", filepath.Base(path), err)
	}
	return entity.Document{Pages: pages}, nil
}

func (r *Reader) readText(path string) (entity.Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return entity.Document{}, err
	}
	return entity.Document{Pages: strings.Split(string(b), "\f")}, nil
}

func (r *Reader) readJSON(path string, family constants.DocumentFamily) (entity.Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return entity.Document{}, err
	}
	if family == constants.FamilyPaymentDocument {
		return r.decoder.DecodePayment(b)
	}
	return r.decoder.DecodeTaxStatus(b)
}
