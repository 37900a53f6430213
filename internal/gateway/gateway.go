package gateway

import (
	"context"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/drawparse/drawparse/internal/backoff"
	"github.com/drawparse/drawparse/internal/config"
	"github.com/drawparse/drawparse/internal/domain/drawmodel"
	"github.com/drawparse/drawparse/internal/metrics"
	"github.com/drawparse/drawparse/pkg/logger_i"
)

// Gateway is the single door to the remote multimodal/text service. It hides
// per-transport request shapes and response-schema drift from the rest of the
// pipeline, and owns the throttle-retry policy.
type Gateway struct {
	cfg      config.Config
	invokers []Invoker
	backoff  *backoff.Backoff
	limiter  *rate.Limiter
	logger   *logger_i.Logger
}

// New wires the gateway with an ordered invoker chain. The first invoker is
// the primary path; later ones are tried only after the earlier ones fail.
func New(cfg config.Config, invokers []Invoker, b *backoff.Backoff, limiter *rate.Limiter) *Gateway {
	return &Gateway{
		cfg:      cfg,
		invokers: invokers,
		backoff:  b,
		limiter:  limiter,
		logger:   logger_i.NewLogger("gateway"),
	}
}

// invokeWithRetry walks the invoker chain. Each invoker gets its own bounded
// retry loop on throttling errors; a non-throttling error moves straight to
// the next strategy. The last error is returned once every strategy is
// exhausted.
func (g *Gateway) invokeWithRetry(ctx context.Context, operation string, req Request) (string, error) {
	var lastErr error

	for _, inv := range g.invokers {
		for attempt := 0; ; attempt++ {
			if g.limiter != nil {
				if err := g.limiter.Wait(ctx); err != nil {
					return "", err
				}
			}

			start := time.Now()
			text, err := inv.Invoke(ctx, req)
			metrics.CaptureInferenceMetrics(operation, time.Since(start))

			if err == nil {
				metrics.CountModelCall(operation, "success")
				return text, nil
			}
			lastErr = err

			if !IsThrottlingError(err) {
				metrics.CountModelCall(operation, "error")
				g.logger.Warn("Invoker failed, trying next strategy", "operation", operation, "invoker", inv.Name(), "err", err)
				break
			}

			if attempt >= g.cfg.MaxRetries {
				metrics.CountModelCall(operation, "throttled")
				g.logger.Error("Retries exhausted", "operation", operation, "invoker", inv.Name(), "attempts", attempt+1)
				break
			}

			metrics.CountRetry(operation)
			g.logger.Warn("Throttled, backing off", "operation", operation, "invoker", inv.Name(),
				"attempt", attempt+1, "of", g.cfg.MaxRetries, "delay", g.backoff.Delay(attempt))
			g.backoff.Wait(attempt)
		}
	}

	return "", lastErr
}

// Classify asks for a binary drawing verdict on the image. Any residual
// failure after the invoker chain resolves to false; classification errors
// must never stop the page scan.
func (g *Gateway) Classify(ctx context.Context, imagePath string) bool {
	text, err := g.invokeWithRetry(ctx, "classify", Request{
		Model:       g.cfg.ClassifyModel,
		Prompt:      drawingIdentificationPrompt,
		ImagePath:   imagePath,
		MaxTokens:   config.MaxTokensClassification,
		Temperature: config.ModelTemperature,
	})
	if err != nil {
		g.logger.Error("Classification failed, treating page as narrative", "image", imagePath, "err", err)
		return false
	}
	return strings.Contains(strings.ToUpper(text), affirmativeToken)
}

// AnalyzeImage requests the long-form structured analysis of one drawing,
// grounded in the adjacent-page context when provided. Failures are captured
// in the result, never raised.
func (g *Gateway) AnalyzeImage(ctx context.Context, imagePath, contextText string) drawmodel.AnalysisResult {
	callCtx, cancel := context.WithTimeout(ctx, config.AnalysisCallTimeout)
	defer cancel()

	prompt := drawingAnalysisPrompt
	if contextText != "" {
		prompt += "\n\nRelated context information:\n" + contextText
	}

	text, err := g.invokeWithRetry(callCtx, "analyze", Request{
		Model:       g.cfg.VisionModel,
		Prompt:      prompt,
		ImagePath:   imagePath,
		MaxTokens:   config.MaxTokensDrawingAnalysis,
		Temperature: config.ModelTemperature,
	})
	if err != nil {
		return drawmodel.AnalysisResult{
			DrawingPath: imagePath,
			Analysis:    "Drawing analysis failed.",
			Success:     false,
			Error:       err.Error(),
		}
	}

	g.logger.Info("Drawing analysis complete", "image", imagePath, "chars", len(text))
	return drawmodel.AnalysisResult{
		DrawingPath: imagePath,
		Analysis:    text,
		Success:     true,
	}
}

// NormalizeChunk runs the structure-preserving cleanup pass on one chunk. On
// any failure the original chunk is returned unchanged; normalization is an
// enhancement and must never lose content.
func (g *Gateway) NormalizeChunk(ctx context.Context, chunk, docName string) string {
	callCtx, cancel := context.WithTimeout(ctx, config.ChunkCallTimeout)
	defer cancel()

	text, err := g.invokeWithRetry(callCtx, "normalize", Request{
		Model:       g.cfg.TextModel,
		Prompt:      normalizationPrompt(docName, chunk),
		MaxTokens:   config.MaxTokensNormalization,
		Temperature: config.ModelTemperature,
	})
	// the sentinel is a usable answer for analysis, but substituting it for
	// a chunk would drop the chunk's content
	if err != nil || text == "" || text == NoTextSentinel {
		g.logger.Warn("Chunk normalization failed, keeping original chunk", "doc", docName, "err", err)
		return chunk
	}
	return text
}

// NormalizeDocument splits the document into fixed-size chunks, normalizes
// each in order, and joins them with a blank line. Short documents go through
// as a single chunk. Chunk boundaries may fall mid-sentence; the per-chunk
// prompt tolerates that.
func (g *Gateway) NormalizeDocument(ctx context.Context, fullText, docName string) string {
	if len(fullText) < g.cfg.ShortDocThreshold {
		g.logger.Debug("Document is short, normalizing as a single chunk", "doc", docName)
		return g.NormalizeChunk(ctx, fullText, docName)
	}

	var chunks []string
	for i := 0; i < len(fullText); i += g.cfg.ChunkSize {
		end := i + g.cfg.ChunkSize
		if end > len(fullText) {
			end = len(fullText)
		}
		chunks = append(chunks, fullText[i:end])
	}
	g.logger.Info("Normalizing document in chunks", "doc", docName, "chunks", len(chunks))

	processed := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		out := g.NormalizeChunk(ctx, chunk, docName)
		g.logger.Debug("Chunk normalized", "chunk", i+1, "of", len(chunks), "chars", len(out))
		processed = append(processed, out)
	}
	return strings.Join(processed, "\n\n")
}
