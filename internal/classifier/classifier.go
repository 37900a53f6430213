package classifier

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/drawparse/drawparse/internal/config"
	"github.com/drawparse/drawparse/internal/domain/drawmodel"
	"github.com/drawparse/drawparse/internal/metrics"
	"github.com/drawparse/drawparse/internal/pdfio"
	"github.com/drawparse/drawparse/internal/store"
	"github.com/drawparse/drawparse/internal/utils"
	"github.com/drawparse/drawparse/pkg/logger_i"
)

// ModelClassifier is the online page-verdict strategy. The gateway satisfies
// it; a nil value means no model is configured and the offline heuristic
// decides alone.
type ModelClassifier interface {
	Classify(ctx context.Context, imagePath string) bool
}

// Classifier decides which pages of a document are technical drawings.
type Classifier struct {
	cfg      config.Config
	model    ModelClassifier
	verdicts store.VerdictStore
	logger   *logger_i.Logger
}

func New(cfg config.Config, model ModelClassifier, verdicts store.VerdictStore) *Classifier {
	return &Classifier{
		cfg:      cfg,
		model:    model,
		verdicts: verdicts,
		logger:   logger_i.NewLogger("classifier"),
	}
}

// IsDrawingPage is the offline heuristic: a page is a probable drawing when
// it carries little extracted text and its vector content is dominated by
// straight line segments. Text-heavy pages are never drawings regardless of
// their vector content.
func IsDrawingPage(stats drawmodel.PageStats) bool {
	if stats.TextLength >= config.TextLengthThreshold {
		return false
	}
	if stats.TotalSegments == 0 {
		return false
	}
	ratio := float64(stats.LineSegments) / float64(stats.TotalSegments)
	return ratio > config.LineRatioThreshold
}

// ClassifyPreview resolves one page's verdict: cached verdict first, then the
// vision model, then the offline heuristic when no model is configured.
func (c *Classifier) ClassifyPreview(ctx context.Context, previewPath string, stats drawmodel.PageStats) bool {
	key, err := store.PreviewKey(previewPath)
	if err != nil {
		c.logger.Warn("Could not derive cache key for preview", "preview", previewPath, "err", err)
		key = ""
	}

	if key != "" && c.verdicts != nil {
		if verdict, found := c.verdicts.GetVerdict(ctx, key); found {
			c.logger.Debug("Verdict cache hit", "preview", previewPath, "isDrawing", verdict)
			return verdict
		}
	}

	var verdict bool
	if c.model != nil {
		verdict = c.model.Classify(ctx, previewPath)
	} else {
		verdict = IsDrawingPage(stats)
	}

	if key != "" && c.verdicts != nil {
		if err := c.verdicts.SaveVerdict(ctx, key, verdict); err != nil {
			c.logger.Warn("Could not cache verdict", "err", err)
		}
	}
	return verdict
}

// IdentifyDrawingPages renders a low-resolution preview of every page and
// classifies each one. Results come back in ascending page order, one entry
// per physical page.
func (c *Classifier) IdentifyDrawingPages(ctx context.Context, raster *pdfio.Raster, pdfName string) ([]drawmodel.PageClassification, error) {
	numPages := raster.PageCount()
	classifications := make([]drawmodel.PageClassification, 0, numPages)

	c.logger.Info("Classifying pages", "pdf", pdfName, "pages", numPages)

	for i := 0; i < numPages; i++ {
		previewPath := utils.EnsureUniqueFilename(
			filepath.Join(c.cfg.TempDir, fmt.Sprintf("%s_page_%d_preview.jpg", pdfName, i)))
		if err := raster.RenderPage(i, float64(c.cfg.LowResImageDPI), previewPath); err != nil {
			return nil, fmt.Errorf("rendering preview of page %d: %w", i, err)
		}

		stats, err := raster.PageStats(i)
		if err != nil {
			c.logger.Warn("Could not derive page stats, assuming empty page", "page", i, "err", err)
			stats = drawmodel.PageStats{}
		}

		verdict := c.ClassifyPreview(ctx, previewPath, stats)
		metrics.CountPageVerdict(verdict)
		c.logger.Debug("Page classified", "page", i, "isDrawing", verdict)

		classifications = append(classifications, drawmodel.PageClassification{
			PageNum:   i,
			IsDrawing: verdict,
		})
	}

	return classifications, nil
}

// DrawingPages filters a classification run down to the drawing page numbers,
// preserving ascending order.
func DrawingPages(classifications []drawmodel.PageClassification) []int {
	var pages []int
	for _, c := range classifications {
		if c.IsDrawing {
			pages = append(pages, c.PageNum)
		}
	}
	return pages
}
