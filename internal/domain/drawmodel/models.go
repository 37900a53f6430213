package drawmodel

import (
	"fmt"
	"regexp"
)

// PageMarkerPattern matches the inline page-boundary comments emitted by the
// markdown extractor, e.g. "<!-- page 3 -->". Page indices are zero-based.
var PageMarkerPattern = regexp.MustCompile(`<!--\s*page\s+(\d+)\s*-->`)

// PageMarker renders the canonical marker for a zero-based page index.
func PageMarker(pageNum int) string {
	return fmt.Sprintf("<!-- page %d -->", pageNum)
}

// PageClassification is the per-page verdict from the identification phase.
// Immutable once produced.
type PageClassification struct {
	PageNum   int  `json:"page_num"`
	IsDrawing bool `json:"is_drawing"`
}

// DrawingImage is a rasterized drawing page awaiting analysis.
type DrawingImage struct {
	Path              string `json:"path"`
	PageNum           int    `json:"page_num"`
	RotationCorrected bool   `json:"rotation_corrected"`
}

// AnalysisResult is produced exactly once per DrawingImage. A failed analysis
// carries Success=false and the error text; it still occupies its slot so the
// assembler sees one result per drawing.
type AnalysisResult struct {
	DrawingPath string `json:"drawing_path"`
	PageNum     *int   `json:"page_num"`
	Analysis    string `json:"analysis"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

// PageStats are the offline-classifier features for one PDF page.
type PageStats struct {
	TextLength    int
	LineSegments  int
	TotalSegments int
}

// PageNumOrDefault treats a missing page number as the given default, which
// the assembler uses to sort unplaced results first.
func (r AnalysisResult) PageNumOrDefault(def int) int {
	if r.PageNum == nil {
		return def
	}
	return *r.PageNum
}
