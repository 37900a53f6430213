package pdfio

import (
	"fmt"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/drawparse/drawparse/internal/config"
	"github.com/drawparse/drawparse/internal/domain/drawmodel"
	"github.com/drawparse/drawparse/pkg/logger_i"
)

// Raster renders PDF pages to image files and derives per-page vector
// statistics for the offline classifier.
type Raster struct {
	doc    *fitz.Document
	logger *logger_i.Logger
}

// OpenRaster opens the PDF for rasterization. Close must be called when done.
func OpenRaster(pdfPath string) (*Raster, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", pdfPath, err)
	}
	return &Raster{doc: doc, logger: logger_i.NewLogger("raster")}, nil
}

func (r *Raster) Close() {
	if r.doc != nil {
		r.doc.Close()
		r.doc = nil
	}
}

// PageCount is the number of physical pages in the document.
func (r *Raster) PageCount() int {
	return r.doc.NumPage()
}

// RenderPage rasterizes the zero-based page at the given DPI into outPath.
// The encoding follows the file extension; JPEG for previews, PNG otherwise.
func (r *Raster) RenderPage(pageNum int, dpi float64, outPath string) error {
	img, err := r.doc.ImageDPI(pageNum, dpi)
	if err != nil {
		return fmt.Errorf("rasterizing page %d: %w", pageNum, err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer out.Close()

	switch strings.ToLower(filepath.Ext(outPath)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(out, img, &jpeg.Options{Quality: config.JPEGQuality})
	default:
		err = png.Encode(out, img)
	}
	if err != nil {
		return fmt.Errorf("encoding page %d: %w", pageNum, err)
	}
	return nil
}

var pathDataPattern = regexp.MustCompile(`\bd="([^"]*)"`)

// PageStats extracts the offline-classifier features for the zero-based
// page: extracted text length plus straight vs total vector segment counts,
// read from the page's SVG rendition.
func (r *Raster) PageStats(pageNum int) (drawmodel.PageStats, error) {
	text, err := r.doc.Text(pageNum)
	if err != nil {
		return drawmodel.PageStats{}, fmt.Errorf("extracting text of page %d: %w", pageNum, err)
	}

	svg, err := r.doc.SVG(pageNum)
	if err != nil {
		return drawmodel.PageStats{}, fmt.Errorf("rendering svg of page %d: %w", pageNum, err)
	}

	stats := drawmodel.PageStats{TextLength: len(strings.TrimSpace(text))}
	stats.LineSegments, stats.TotalSegments = countSegments(svg)
	return stats, nil
}

// countSegments tallies path commands in SVG path data: line commands count
// as straight segments, curve commands as the rest.
func countSegments(svg string) (straight, total int) {
	for _, match := range pathDataPattern.FindAllStringSubmatch(svg, -1) {
		for _, cmd := range match[1] {
			switch cmd {
			case 'L', 'l', 'H', 'h', 'V', 'v':
				straight++
				total++
			case 'C', 'c', 'S', 's', 'Q', 'q', 'T', 't', 'A', 'a':
				total++
			}
		}
	}
	straight += strings.Count(svg, "<line")
	total += strings.Count(svg, "<line")
	return straight, total
}
