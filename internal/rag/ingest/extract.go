package ingest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
	"github.com/m-mizutani/goerr/v2"

	"github.com/akolanti/pharmadoc/internal/config"
	"github.com/akolanti/pharmadoc/internal/domain/commonModels"
	"github.com/akolanti/pharmadoc/internal/domain/ragErrors"
	"github.com/akolanti/pharmadoc/pkg/logger_i"
)

// TextExtractor turns a raw document into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, doc commonModels.Document) (string, error)
}

// Extractor picks the format from the document name's extension.
type Extractor struct {
	OpenTimeout time.Duration
	PageTimeout time.Duration
	logger      *logger_i.Logger
}

func NewExtractor() *Extractor {
	return &Extractor{
		OpenTimeout: config.PageExtractTimeout,
		PageTimeout: config.PageExtractTimeout,
		logger:      logger_i.NewLogger("Text Extractor"),
	}
}

func (e *Extractor) Extract(ctx context.Context, doc commonModels.Document) (string, error) {
	log := e.logger.FromContext(ctx)
	docType := getDocType(doc.Name)
	log.Debug("extracting document", "name", doc.Name, "type", docType, "bytes", len(doc.Content))
	if err := ctx.Err(); err != nil {
		return "", ragErrors.Extraction(err, "extraction cancelled", goerr.V("name", doc.Name))
	}

	var (
		units []string
		err   error
	)
	switch docType {
	case commonModels.PDF:
		units, err = e.extractPDF(ctx, doc.Content)
	case commonModels.DOCX:
		units, err = extractOffice(doc.Name, doc.Content)
	case commonModels.TXT:
		units, err = extractPlain(doc.Content)
	default:
		err = ragErrors.Extraction(nil, "unsupported document type", goerr.V("name", doc.Name))
	}
	if err != nil {
		log.Error("extraction failed", "name", doc.Name, "error", err)
		return "", err
	}
	return joinUnits(units), nil
}

// joinUnits concatenates units in order, each followed by a newline.
// Units without content contribute nothing.
func joinUnits(units []string) string {
	var sb strings.Builder
	for _, u := range units {
		if strings.TrimSpace(u) == "" {
			continue
		}
		sb.WriteString(u)
		sb.WriteString("\n")
	}
	return sb.String()
}

func getDocType(name string) commonModels.DocType {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return commonModels.PDF
	case ".docx", ".odt", ".rtf":
		return commonModels.DOCX
	case ".txt", ".md":
		return commonModels.TXT
	default:
		return commonModels.ERR
	}
}

func (e *Extractor) extractPDF(ctx context.Context, content []byte) ([]string, error) {
	type openedPDF struct {
		reader   *pdf.Reader
		numPages int
	}
	doc, err := guardPDF(ctx, e.OpenTimeout, func() (openedPDF, error) {
		r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
		if err != nil {
			return openedPDF{}, err
		}
		return openedPDF{reader: r, numPages: r.NumPage()}, nil
	})
	if err != nil {
		return nil, ragErrors.Extraction(err, "failed to open pdf", goerr.V("bytes", len(content)))
	}

	units := make([]string, 0, doc.numPages)
	for i := 1; i <= doc.numPages; i++ {
		text, err := guardPDF(ctx, e.PageTimeout, func() (string, error) {
			page := doc.reader.Page(i)
			if page.V.IsNull() {
				return "", nil
			}
			return page.GetPlainText(nil)
		})
		if err != nil {
			return nil, ragErrors.Extraction(err, "failed to extract page", goerr.V("page", i))
		}
		units = append(units, text)
	}
	return units, nil
}

// guardPDF runs fn on its own goroutine and gives up after timeout or when ctx
// ends. The pdf reader can panic or spin forever on malformed input and has no
// way to be interrupted, so an abandoned call is left to run out on its own.
func guardPDF[T any](ctx context.Context, timeout time.Duration, fn func() (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{err: fmt.Errorf("pdf reader panicked: %v", r)}
			}
		}()
		value, err := fn()
		resChan <- result{value, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var zero T
	select {
	case r := <-resChan:
		return r.value, r.err
	case <-timer.C:
		return zero, goerr.New("pdf extraction timed out", goerr.V("timeout", timeout))
	case <-ctx.Done():
		return zero, goerr.Wrap(ctx.Err(), "pdf extraction cancelled")
	}
}

// extractOffice goes through a temp file because cat only reads from disk.
func extractOffice(name string, content []byte) ([]string, error) {
	tmp, err := os.CreateTemp("", "extract-*"+strings.ToLower(filepath.Ext(name)))
	if err != nil {
		return nil, ragErrors.Extraction(err, "failed to create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return nil, ragErrors.Extraction(err, "failed to write temp file")
	}
	if err := tmp.Close(); err != nil {
		return nil, ragErrors.Extraction(err, "failed to close temp file")
	}

	text, err := cat.File(tmp.Name())
	if err != nil {
		return nil, ragErrors.Extraction(err, "failed to extract document", goerr.V("name", name))
	}
	return []string{text}, nil
}

func extractPlain(content []byte) ([]string, error) {
	if !utf8.Valid(content) {
		return nil, ragErrors.Extraction(nil, "text document is not valid utf-8")
	}
	return []string{string(content)}, nil
}
