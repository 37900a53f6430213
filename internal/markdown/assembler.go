package markdown

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/drawparse/drawparse/internal/config"
	"github.com/drawparse/drawparse/internal/domain/drawmodel"
	"github.com/drawparse/drawparse/internal/utils"
	"github.com/drawparse/drawparse/pkg/logger_i"
)

// Normalizer is the final text-cleanup strategy; the gateway satisfies it.
type Normalizer interface {
	NormalizeDocument(ctx context.Context, text, docName string) string
}

// Assembler merges drawing analysis results into the page-ordered markdown
// and runs the best-effort normalization pass.
type Assembler struct {
	cfg        config.Config
	normalizer Normalizer
	logger     *logger_i.Logger
}

func NewAssembler(cfg config.Config, normalizer Normalizer) *Assembler {
	return &Assembler{
		cfg:        cfg,
		normalizer: normalizer,
		logger:     logger_i.NewLogger("assembler"),
	}
}

// ExtractContext returns the narrative text adjacent to the given zero-based
// page: at most one previous and one next page, each under a label. A nil
// page, or a document without markers, yields the whole document.
func ExtractContext(doc string, pageNum *int) string {
	if pageNum == nil {
		return doc
	}

	matches := drawmodel.PageMarkerPattern.FindAllStringSubmatchIndex(doc, -1)
	if len(matches) == 0 {
		return doc
	}

	var b strings.Builder
	if prev, ok := pageSegment(doc, matches, *pageNum-1); ok && *pageNum-1 >= 0 {
		b.WriteString("Previous page content:\n")
		b.WriteString(prev)
		b.WriteString("\n\n")
	}
	if next, ok := pageSegment(doc, matches, *pageNum+1); ok {
		b.WriteString("Next page content:\n")
		b.WriteString(next)
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}

// pageSegment returns the trimmed text between the marker for the given page
// and the following marker (or end of document).
func pageSegment(doc string, matches [][]int, page int) (string, bool) {
	if page < 0 {
		return "", false
	}
	for i, m := range matches {
		n, err := strconv.Atoi(doc[m[2]:m[3]])
		if err != nil || n != page {
			continue
		}
		end := len(doc)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		return strings.TrimSpace(doc[m[1]:end]), true
	}
	return "", false
}

// markerStart finds the byte offset of the marker for the given page in the
// current text. Insertion mutates the document, so callers search the mutated
// text fresh each time instead of memoizing offsets.
func markerStart(doc string, page int) (int, bool) {
	for _, m := range drawmodel.PageMarkerPattern.FindAllStringSubmatchIndex(doc, -1) {
		if n, err := strconv.Atoi(doc[m[2]:m[3]]); err == nil && n == page {
			return m[0], true
		}
	}
	return 0, false
}

var pageNumFromName = regexp.MustCompile(`page_(\d+)`)

// recoverPageNum falls back to the drawing filename when a result carries no
// page number.
func recoverPageNum(r drawmodel.AnalysisResult) *int {
	if r.PageNum != nil {
		return r.PageNum
	}
	if m := pageNumFromName.FindStringSubmatch(filepath.Base(r.DrawingPath)); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return &n
		}
	}
	return nil
}

// InsertAnalyses merges each analysis result into the document after its
// source page's content. Drawing images are copied next to the output
// markdown so the image references stay relative. Empty results leave the
// document untouched; existing page markers are never removed.
func (a *Assembler) InsertAnalyses(doc string, results []drawmodel.AnalysisResult) string {
	if len(results) == 0 {
		return doc
	}

	sorted := make([]drawmodel.AnalysisResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PageNumOrDefault(-1) < sorted[j].PageNumOrDefault(-1)
	})

	hasMarkers := drawmodel.PageMarkerPattern.MatchString(doc)

	for _, result := range sorted {
		if result.DrawingPath == "" {
			continue
		}

		imageName := filepath.Base(result.DrawingPath)
		if a.cfg.OutputDir != "" {
			dst := filepath.Join(a.cfg.OutputDir, imageName)
			if err := utils.CopyFile(result.DrawingPath, dst); err != nil {
				a.logger.Warn("Could not copy drawing image to output", "src", result.DrawingPath, "err", err)
			}
		}

		pageNum := recoverPageNum(result)
		block := drawingBlock(pageNum, imageName, result.Analysis)

		switch {
		case pageNum == nil || !hasMarkers:
			doc += block
		default:
			_, pageFound := markerStart(doc, *pageNum)
			if !pageFound {
				// the document is paginated but this page's marker is
				// missing; synthesize one so the block stays addressable
				doc += fmt.Sprintf("\n\n<!-- page %d drawing -->\n%s", *pageNum, block)
				continue
			}
			if nextStart, ok := markerStart(doc, *pageNum+1); ok {
				doc = doc[:nextStart] + block + doc[nextStart:]
			} else {
				doc += block
			}
		}
	}

	return doc
}

func drawingBlock(pageNum *int, imageName, analysis string) string {
	heading := "## Drawing"
	if pageNum != nil {
		heading = fmt.Sprintf("## Drawing %d", *pageNum+1)
	}
	return fmt.Sprintf("\n\n%s\n\n![Drawing Image](./%s)\n\n### Analysis Result\n\n%s\n\n",
		heading, imageName, analysis)
}

// Generate produces the final document text: analyses merged in, then the
// normalization pass. Normalization is best effort; an empty result falls
// back to the pre-normalization text.
func (a *Assembler) Generate(ctx context.Context, initialMD, docName string, results []drawmodel.AnalysisResult) string {
	enhanced := a.InsertAnalyses(initialMD, results)

	if a.normalizer == nil {
		return enhanced
	}

	final := a.normalizer.NormalizeDocument(ctx, enhanced, docName)
	if strings.TrimSpace(final) == "" {
		a.logger.Warn("Normalization produced no text, keeping pre-normalization document", "doc", docName)
		return enhanced
	}
	return final
}
