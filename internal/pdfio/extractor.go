package pdfio

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dslipak/pdf"

	"github.com/drawparse/drawparse/internal/config"
	"github.com/drawparse/drawparse/internal/domain/drawmodel"
	"github.com/drawparse/drawparse/pkg/logger_i"
)

// ExtractMarkdown flattens the PDF's narrative text into a single markdown
// string with a zero-based page marker ahead of every page's content. Pages
// that fail to extract still get their marker so downstream page arithmetic
// stays aligned with the physical document.
func ExtractMarkdown(pdfPath string) (string, int, error) {
	logger := logger_i.NewLogger("extractor")

	f, err := pdf.Open(pdfPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open pdf: %w", err)
	}

	numPages := f.NumPage()
	logger.Debug("Extracting markdown", "pdf", pdfPath, "pages", numPages)

	var b strings.Builder
	for i := 1; i <= numPages; i++ {
		// dslipak pages are 1-based, markers are 0-based
		b.WriteString(drawmodel.PageMarker(i - 1))
		b.WriteString("\n\n")

		page := f.Page(i)
		if page.V.IsNull() {
			logger.Warn("Page has no content object", "page", i-1)
			b.WriteString("\n")
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			logger.Error("Error extracting page content", "page", i-1, "err", err)
			b.WriteString("\n")
			continue
		}
		b.WriteString(strings.TrimSpace(content))
		b.WriteString("\n\n")
	}

	return b.String(), numPages, nil
}

// protectExtract guards GetPlainText with a timeout; malformed pages have
// been seen to hang the parser.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(config.PageExtractTimeout):
		return "", errors.New("page extraction timeout")
	}
}
