package analyzer

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/drawparse/drawparse/internal/config"
	"github.com/drawparse/drawparse/internal/domain/drawmodel"
	"github.com/drawparse/drawparse/internal/imaging"
	"github.com/drawparse/drawparse/internal/markdown"
	"github.com/drawparse/drawparse/internal/utils"
	"github.com/drawparse/drawparse/pkg/logger_i"
)

// Renderer rasterizes one zero-based page into an image file.
type Renderer interface {
	RenderPage(pageNum int, dpi float64, outPath string) error
}

// ImageAnalyzer produces the structured description of one drawing image.
// The gateway satisfies it.
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, imagePath, contextText string) drawmodel.AnalysisResult
}

// Orchestrator drives the per-drawing pipeline: high-resolution
// rasterization, rotation correction, context lookup, model analysis.
type Orchestrator struct {
	cfg    config.Config
	gw     ImageAnalyzer
	logger *logger_i.Logger
}

func New(cfg config.Config, gw ImageAnalyzer) *Orchestrator {
	return &Orchestrator{
		cfg:    cfg,
		gw:     gw,
		logger: logger_i.NewLogger("analyzer"),
	}
}

// ExtractDrawings rasterizes each drawing page at analysis resolution and
// applies the rotation heuristic. Rasterization runs sequentially; the
// collision-suffix filename scheme is only safe that way. A page that fails
// to render yields a failed result instead of aborting the batch.
func (o *Orchestrator) ExtractDrawings(raster Renderer, pdfName string, pages []int) ([]drawmodel.DrawingImage, []drawmodel.AnalysisResult) {
	var drawings []drawmodel.DrawingImage
	var failed []drawmodel.AnalysisResult

	for _, page := range pages {
		outPath := utils.EnsureUniqueFilename(
			filepath.Join(o.cfg.TempDir, fmt.Sprintf("%s_drawing_page_%d.png", pdfName, page)))

		if err := raster.RenderPage(page, float64(o.cfg.ImageDPI), outPath); err != nil {
			o.logger.Error("Could not rasterize drawing page", "page", page, "err", err)
			p := page
			failed = append(failed, drawmodel.AnalysisResult{
				DrawingPath: outPath,
				PageNum:     &p,
				Analysis:    "Drawing analysis failed.",
				Success:     false,
				Error:       err.Error(),
			})
			continue
		}

		drawing := drawmodel.DrawingImage{Path: outPath, PageNum: page}
		drawings = append(drawings, o.correctRotation(drawing))
	}

	return drawings, failed
}

// correctRotation rotates a probable portrait-scanned landscape drawing 90
// degrees. The aspect-ratio test is a coarse proxy and will misfire on
// genuinely portrait drawings; that behavior is intentional.
func (o *Orchestrator) correctRotation(drawing drawmodel.DrawingImage) drawmodel.DrawingImage {
	ratio, err := imaging.AspectRatio(drawing.Path)
	if err != nil {
		o.logger.Warn("Could not read drawing dimensions", "path", drawing.Path, "err", err)
		return drawing
	}
	if ratio >= config.PortraitAspectRatio {
		return drawing
	}

	ext := filepath.Ext(drawing.Path)
	corrected := utils.EnsureUniqueFilename(strings.TrimSuffix(drawing.Path, ext) + "_corrected" + ext)
	if err := imaging.RotateFile(drawing.Path, corrected); err != nil {
		o.logger.Warn("Rotation correction failed, keeping original", "path", drawing.Path, "err", err)
		return drawing
	}

	o.logger.Info("Rotation corrected", "page", drawing.PageNum, "corrected", corrected)
	drawing.Path = corrected
	drawing.RotationCorrected = true
	return drawing
}

// AnalyzeDrawings fans the model calls out over a bounded worker pool and
// returns exactly one result per drawing, re-sorted into page order. docText
// supplies adjacent-page context; empty means no context.
func (o *Orchestrator) AnalyzeDrawings(ctx context.Context, drawings []drawmodel.DrawingImage, docText string) []drawmodel.AnalysisResult {
	if len(drawings) == 0 {
		return nil
	}

	workers := o.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(drawings) {
		workers = len(drawings)
	}

	results := make([]drawmodel.AnalysisResult, len(drawings))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				drawing := drawings[i]
				contextText := ""
				if docText != "" {
					page := drawing.PageNum
					contextText = markdown.ExtractContext(docText, &page)
				}
				o.logger.Info("Analyzing drawing", "page", drawing.PageNum, "path", drawing.Path)
				result := o.gw.AnalyzeImage(ctx, drawing.Path, contextText)
				if result.PageNum == nil {
					page := drawing.PageNum
					result.PageNum = &page
				}
				results[i] = result
			}
		}()
	}

	for i := range drawings {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].PageNumOrDefault(-1) < results[j].PageNumOrDefault(-1)
	})
	return results
}

// Run is the full orchestration for one document's drawing pages. Render
// failures and analysis failures both surface as failed results in the
// returned page-ordered slice.
func (o *Orchestrator) Run(ctx context.Context, raster Renderer, pdfName string, pages []int, docText string) []drawmodel.AnalysisResult {
	drawings, failed := o.ExtractDrawings(raster, pdfName, pages)
	results := append(o.AnalyzeDrawings(ctx, drawings, docText), failed...)

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].PageNumOrDefault(-1) < results[j].PageNumOrDefault(-1)
	})
	return results
}
