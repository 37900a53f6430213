package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/drawparse/drawparse/internal/config"
	"github.com/drawparse/drawparse/pkg/logger_i"
)

// VerdictStore caches page classification verdicts across runs, keyed by a
// digest of the page's preview image. A cache hit skips the model call.
type VerdictStore interface {
	GetVerdict(ctx context.Context, key string) (isDrawing bool, found bool)
	SaveVerdict(ctx context.Context, key string, isDrawing bool) error
}

// PreviewKey derives the cache key for a rendered preview image. Identical
// page content rasterized at the same DPI hashes identically, so verdicts
// survive re-runs over the same document.
func PreviewKey(previewPath string) (string, error) {
	f, err := os.Open(previewPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return "verdict:" + hex.EncodeToString(h.Sum(nil)), nil
}

type RedisVerdictStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger_i.Logger
}

// NewVerdictStore connects to Redis at the configured address. When Redis is
// unreachable it falls back to an in-memory store so a missing local Redis
// never blocks a run.
func NewVerdictStore(ctx context.Context, cfg config.Config) VerdictStore {
	logger := logger_i.NewLogger("VerdictStore")

	client := redis.NewClient(&redis.Options{
		Addr:                  cfg.RedisAddr,
		DB:                    config.RedisVerdictDB,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		if config.FALLBACK_REDIS_TO_INTERNALSTORE {
			logger.Warn("Redis is offline, using in-memory verdict store", "err", err.Error())
			return NewInMemoryVerdictStore()
		}
		logger.Error("Redis is offline: ", err.Error())
		return nil
	}

	logger.Info("Verdict store connected to Redis", "addr", cfg.RedisAddr)
	return &RedisVerdictStore{
		client: client,
		ttl:    config.VerdictCacheTTL,
		logger: logger,
	}
}

func (s *RedisVerdictStore) GetVerdict(ctx context.Context, key string) (bool, bool) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, false
	} else if err != nil {
		s.logger.Error("Error reading verdict from Redis", "key", key, "err", err.Error())
		return false, false
	}
	return val == "1", true
}

func (s *RedisVerdictStore) SaveVerdict(ctx context.Context, key string, isDrawing bool) error {
	val := "0"
	if isDrawing {
		val = "1"
	}
	err := s.client.Set(ctx, key, val, s.ttl).Err()
	if err == nil {
		s.logger.Debug("Saved verdict to Redis", "key", key, "isDrawing", isDrawing)
	}
	return err
}

// TestVerdictStore wires an existing client in for tests.
func TestVerdictStore(client *redis.Client) *RedisVerdictStore {
	return &RedisVerdictStore{
		client: client,
		ttl:    config.VerdictCacheTTL,
		logger: logger_i.NewLogger("test verdict store"),
	}
}

var inMemLogger = logger_i.NewLogger("InMem VerdictStore")

type InMemoryVerdictStore struct {
	mu       *sync.RWMutex
	verdicts map[string]bool
}

func NewInMemoryVerdictStore() *InMemoryVerdictStore {
	return &InMemoryVerdictStore{
		mu:       new(sync.RWMutex),
		verdicts: make(map[string]bool),
	}
}

func (s *InMemoryVerdictStore) GetVerdict(ctx context.Context, key string) (bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	verdict, found := s.verdicts[key]
	return verdict, found
}

func (s *InMemoryVerdictStore) SaveVerdict(ctx context.Context, key string, isDrawing bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verdicts[key] = isDrawing
	inMemLogger.Debug("Saved verdict", "key", key, "isDrawing", isDrawing)
	return nil
}
