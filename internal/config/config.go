package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	RUN_ID_KEY     = "runId"

	//if redis init fails, the verdict cache falls back to an in-memory store
	FALLBACK_REDIS_TO_INTERNALSTORE = true

	//model ids
	VisionModelName   = "gemini-2.5-pro"
	ClassifyModelName = "gemini-2.5-flash-lite-preview-09-2025"
	TextModelName     = "gemini-2.5-flash"

	//retry policy
	MaxRetries   = 5
	BaseWaitTime = 10 * time.Second

	//inference budgets
	MaxTokensDrawingAnalysis int32 = 5000
	MaxTokensClassification  int32 = 10
	MaxTokensNormalization   int32 = 4000

	ModelTemperature float32 = 0.0
	ModelTopP        float32 = 0.0
	ModelTopK        float32 = 0

	//client-side call pacing
	GatewayCallsPerSecond = 2
	GatewayCallBurst      = 5

	//markdown normalization chunking
	ChunkSize           = 4000
	ShortDocThreshold   = 3000
	ChunkCallTimeout    = 2 * time.Minute
	AnalysisCallTimeout = 5 * time.Minute

	//rasterization
	ImageDPI       = 300 //high-res drawing extraction
	LowResImageDPI = 72  //initial classification scan
	JPEGQuality    = 85

	//offline classifier heuristic
	TextLengthThreshold = 200
	LineRatioThreshold  = 0.4

	//rotation correction: width/height below this means a probable
	//portrait-rotated landscape drawing
	PortraitAspectRatio = 0.8

	//page extraction guard
	PageExtractTimeout = 10 * time.Second

	//file layout
	TempDir   = "./temp"
	OutputDir = "./output"

	//analysis fan-out; 1 preserves strictly sequential reference behavior
	AnalysisWorkers = 1

	//http transport pooling for the secondary invoker
	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis verdict cache
	redisHost       = "127.0.0.1"
	redisPort       = "6379"
	RedisAddr       = redisHost + ":" + redisPort
	RedisVerdictDB  = 0
	VerdictCacheTTL = 7 * 24 * time.Hour
)

// Config is built once in main and passed explicitly to every component
// constructor. Fields mirror the constant defaults above; environment
// variables override the ones that vary between machines.
type Config struct {
	APIKey        string
	EndpointURL   string //secondary raw-HTTP invoker target
	VisionModel   string
	ClassifyModel string
	TextModel     string

	MaxRetries   int
	BaseWaitTime time.Duration

	ChunkSize         int
	ShortDocThreshold int

	ImageDPI       int
	LowResImageDPI int

	TempDir   string
	OutputDir string

	RedisAddr string
	Workers   int
}

// Load materializes the immutable pipeline configuration. DRAWPARSE_API_KEY
// is the only required setting for online operation; with it absent the
// classifier runs on the offline heuristic alone.
func Load() Config {
	return Config{
		APIKey:        os.Getenv("DRAWPARSE_API_KEY"),
		EndpointURL:   envOr("DRAWPARSE_ENDPOINT", ""),
		VisionModel:   envOr("DRAWPARSE_VISION_MODEL", VisionModelName),
		ClassifyModel: envOr("DRAWPARSE_CLASSIFY_MODEL", ClassifyModelName),
		TextModel:     envOr("DRAWPARSE_TEXT_MODEL", TextModelName),

		MaxRetries:   envIntOr("DRAWPARSE_MAX_RETRIES", MaxRetries),
		BaseWaitTime: BaseWaitTime,

		ChunkSize:         ChunkSize,
		ShortDocThreshold: ShortDocThreshold,

		ImageDPI:       ImageDPI,
		LowResImageDPI: LowResImageDPI,

		TempDir:   envOr("DRAWPARSE_TEMP_DIR", TempDir),
		OutputDir: envOr("DRAWPARSE_OUTPUT_DIR", OutputDir),

		RedisAddr: envOr("DRAWPARSE_REDIS_ADDR", RedisAddr),
		Workers:   envIntOr("DRAWPARSE_WORKERS", AnalysisWorkers),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
