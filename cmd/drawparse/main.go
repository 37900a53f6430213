package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/drawparse/drawparse/internal/analyzer"
	"github.com/drawparse/drawparse/internal/backoff"
	"github.com/drawparse/drawparse/internal/classifier"
	"github.com/drawparse/drawparse/internal/config"
	"github.com/drawparse/drawparse/internal/domain/drawmodel"
	"github.com/drawparse/drawparse/internal/gateway"
	"github.com/drawparse/drawparse/internal/markdown"
	"github.com/drawparse/drawparse/internal/metrics"
	"github.com/drawparse/drawparse/internal/pdfio"
	"github.com/drawparse/drawparse/internal/store"
	"github.com/drawparse/drawparse/internal/utils"
	"github.com/drawparse/drawparse/pkg/logger_i"
)

var (
	cleanTemp     bool
	skipAnalysis  bool
	skipNormalize bool
	metricsAddr   string
)

func main() {

	logger_i.Init()

	flag.BoolVar(&cleanTemp, "clean", false, "clear the temp area before processing")
	flag.BoolVar(&skipAnalysis, "skip-analysis", false, "classify pages but skip drawing analysis")
	flag.BoolVar(&skipNormalize, "skip-normalize", false, "skip the final normalization pass")
	flag.StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics on this address while running")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <pdf>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		os.Exit(1)
	}
	pdfPath := flag.Arg(0)

	cfg := config.Load()
	runID := uuid.NewString()
	logger := logger_i.NewLogger("main").With(config.RUN_ID_KEY, runID)

	if err := run(cfg, logger, pdfPath); err != nil {
		logger.Error("Run failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *logger_i.Logger, pdfPath string) error {
	ctx := context.Background()

	if err := utils.CreateDirs(cfg.TempDir, cfg.OutputDir); err != nil {
		return err
	}
	if cleanTemp {
		utils.CleanTempDir(cfg.TempDir)
	}
	if metricsAddr != "" {
		go metrics.ServeDebug(metricsAddr)
	}

	pdfName := utils.PDFName(pdfPath)
	logger.Info("Processing document", "pdf", pdfPath)

	extractStart := time.Now()
	docText, numPages, err := pdfio.ExtractMarkdown(pdfPath)
	if err != nil {
		return fmt.Errorf("extracting markdown: %w", err)
	}
	metrics.CaptureStageMetrics("extract", time.Since(extractStart))
	logger.Info("Markdown extracted", "pages", numPages)

	raster, err := pdfio.OpenRaster(pdfPath)
	if err != nil {
		return fmt.Errorf("opening rasterizer: %w", err)
	}
	defer raster.Close()

	gw := buildGateway(ctx, cfg, logger)

	var model classifier.ModelClassifier
	if gw != nil {
		model = gw
	}
	cls := classifier.New(cfg, model, store.NewVerdictStore(ctx, cfg))

	classifyStart := time.Now()
	classifications, err := cls.IdentifyDrawingPages(ctx, raster, pdfName)
	if err != nil {
		return fmt.Errorf("classifying pages: %w", err)
	}
	metrics.CaptureStageMetrics("classify", time.Since(classifyStart))

	drawingPages := classifier.DrawingPages(classifications)
	logger.Info("Classification finished", "drawingPages", len(drawingPages))

	var results []drawmodel.AnalysisResult
	if skipAnalysis {
		logger.Info("Skipping drawing analysis")
	} else if len(drawingPages) > 0 && gw != nil {
		analyzeStart := time.Now()
		results = analyzer.New(cfg, gw).Run(ctx, raster, pdfName, drawingPages, docText)
		metrics.CaptureStageMetrics("analyze", time.Since(analyzeStart))

		writeSidecar(cfg, logger, pdfName, results)
	} else if len(drawingPages) > 0 {
		logger.Warn("Drawing pages found but no model is configured, skipping analysis")
	}

	var normalizer markdown.Normalizer
	if gw != nil && !skipNormalize {
		normalizer = gw
	}

	assembleStart := time.Now()
	final := markdown.NewAssembler(cfg, normalizer).Generate(ctx, docText, pdfName, results)
	metrics.CaptureStageMetrics("assemble", time.Since(assembleStart))

	outPath := filepath.Join(cfg.OutputDir, pdfName+".md")
	if err := os.WriteFile(outPath, []byte(final), 0o644); err != nil {
		return fmt.Errorf("writing final markdown: %w", err)
	}

	logger.Info("Document written", "output", outPath)
	return nil
}

// buildGateway assembles the invoker chain: Gemini primary, raw-HTTP
// endpoint secondary. No usable invoker means offline mode; the classifier
// heuristic still runs and assembly skips model passes.
func buildGateway(ctx context.Context, cfg config.Config, logger *logger_i.Logger) *gateway.Gateway {
	var invokers []gateway.Invoker
	if cfg.APIKey != "" {
		if gemini := gateway.NewGeminiInvoker(ctx, cfg.APIKey); gemini != nil {
			invokers = append(invokers, gemini)
		}
	}
	if cfg.EndpointURL != "" {
		invokers = append(invokers, gateway.NewRestInvoker(cfg.EndpointURL, cfg.APIKey))
	}
	if len(invokers) == 0 {
		logger.Warn("No inference path configured, running offline")
		return nil
	}

	limiter := rate.NewLimiter(rate.Limit(config.GatewayCallsPerSecond), config.GatewayCallBurst)
	return gateway.New(cfg, invokers, backoff.New(cfg.BaseWaitTime), limiter)
}

// writeSidecar records the raw per-drawing results next to the final
// markdown for inspection. Best effort.
func writeSidecar(cfg config.Config, logger *logger_i.Logger, pdfName string, results []drawmodel.AnalysisResult) {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		logger.Warn("Could not marshal analysis results", "err", err)
		return
	}
	sidecar := filepath.Join(cfg.OutputDir, pdfName+"_drawing_analysis.json")
	if err := os.WriteFile(sidecar, data, 0o644); err != nil {
		logger.Warn("Could not write analysis sidecar", "path", sidecar, "err", err)
	}
}
