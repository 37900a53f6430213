package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/drawparse/drawparse/internal/backoff"
	"github.com/drawparse/drawparse/internal/config"
)

// mockInvoker is a scripted call strategy.
type mockInvoker struct {
	name  string
	calls int
	fn    func(call int, req Request) (string, error)
}

func (m *mockInvoker) Name() string { return m.name }

func (m *mockInvoker) Invoke(_ context.Context, req Request) (string, error) {
	m.calls++
	return m.fn(m.calls, req)
}

func testConfig() config.Config {
	return config.Config{
		VisionModel:       "vision-model",
		ClassifyModel:     "classify-model",
		TextModel:         "text-model",
		MaxRetries:        5,
		ChunkSize:         4000,
		ShortDocThreshold: 3000,
	}
}

func newTestGateway(cfg config.Config, waits *int, invokers ...Invoker) *Gateway {
	b := backoff.NewWithSleeper(time.Second, func(time.Duration) {
		if waits != nil {
			*waits++
		}
	})
	return New(cfg, invokers, b, nil)
}

func alwaysThrottled(name string) *mockInvoker {
	return &mockInvoker{name: name, fn: func(int, Request) (string, error) {
		return "", errors.New("ThrottlingException: too many requests")
	}}
}

func TestAnalyzeImageRetryExhaustion(t *testing.T) {
	cfg := testConfig()
	throttled := alwaysThrottled("primary")
	waits := 0
	g := newTestGateway(cfg, &waits, throttled)

	result := g.AnalyzeImage(context.Background(), "drawing.png", "")

	if result.Success {
		t.Fatal("expected failure result after retry exhaustion")
	}
	if result.Error == "" {
		t.Error("failure result must carry the last error")
	}
	if waits != cfg.MaxRetries {
		t.Errorf("backoff waited %d times, want exactly %d", waits, cfg.MaxRetries)
	}
	if throttled.calls != cfg.MaxRetries+1 {
		t.Errorf("invoker called %d times, want %d", throttled.calls, cfg.MaxRetries+1)
	}
	if result.DrawingPath != "drawing.png" {
		t.Errorf("result path = %q", result.DrawingPath)
	}
}

func TestAnalyzeImageFallsBackToSecondary(t *testing.T) {
	primary := &mockInvoker{name: "primary", fn: func(int, Request) (string, error) {
		return "", errors.New("transport exploded")
	}}
	secondary := &mockInvoker{name: "secondary", fn: func(_ int, req Request) (string, error) {
		if req.ImagePath != "drawing.png" {
			return "", fmt.Errorf("unexpected image %q", req.ImagePath)
		}
		return "structured analysis", nil
	}}

	g := newTestGateway(testConfig(), nil, primary, secondary)
	result := g.AnalyzeImage(context.Background(), "drawing.png", "nearby text")

	if !result.Success {
		t.Fatalf("expected success via secondary, got error %q", result.Error)
	}
	if result.Analysis != "structured analysis" {
		t.Errorf("analysis = %q", result.Analysis)
	}
	if primary.calls != 1 {
		t.Errorf("non-throttling primary error should not be retried, got %d calls", primary.calls)
	}
}

func TestAnalyzeImageAppendsContext(t *testing.T) {
	var seenPrompt string
	inv := &mockInvoker{name: "primary", fn: func(_ int, req Request) (string, error) {
		seenPrompt = req.Prompt
		return "ok", nil
	}}
	g := newTestGateway(testConfig(), nil, inv)

	g.AnalyzeImage(context.Background(), "d.png", "pump room details")
	if !strings.Contains(seenPrompt, "pump room details") {
		t.Error("context text missing from prompt")
	}

	g.AnalyzeImage(context.Background(), "d.png", "")
	if strings.Contains(seenPrompt, "Related context information") {
		t.Error("context header must be omitted when no context is given")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name  string
		reply string
		want  bool
	}{
		{"affirmative verdict", "YES", true},
		{"lowercase affirmative inside sentence", "well, yes it is.", true},
		{"negative verdict", "NO", false},
		{"unrelated reply", "this page contains prose", false},
		{"empty reply", "", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			inv := &mockInvoker{name: "primary", fn: func(int, Request) (string, error) {
				return c.reply, nil
			}}
			g := newTestGateway(testConfig(), nil, inv)
			if got := g.Classify(context.Background(), "page.jpg"); got != c.want {
				t.Errorf("Classify(%q) = %v, want %v", c.reply, got, c.want)
			}
		})
	}

	t.Run("primary error falls back to secondary", func(t *testing.T) {
		primary := &mockInvoker{name: "primary", fn: func(int, Request) (string, error) {
			return "", errors.New("primary path broken")
		}}
		secondary := &mockInvoker{name: "secondary", fn: func(int, Request) (string, error) {
			return "YES", nil
		}}
		g := newTestGateway(testConfig(), nil, primary, secondary)
		if !g.Classify(context.Background(), "page.jpg") {
			t.Error("secondary verdict should be used when primary fails")
		}
	})

	t.Run("all strategies failing resolves to false", func(t *testing.T) {
		g := newTestGateway(testConfig(), nil, alwaysThrottled("primary"), alwaysThrottled("secondary"))
		if g.Classify(context.Background(), "page.jpg") {
			t.Error("classification failure must resolve to false, not true")
		}
	})
}

func TestNormalizeChunkReturnsOriginalOnFailure(t *testing.T) {
	const chunk = "<!-- page 0 -->\n\nOriginal content that must survive."
	waits := 0
	cfg := testConfig()
	g := newTestGateway(cfg, &waits, alwaysThrottled("primary"))

	got := g.NormalizeChunk(context.Background(), chunk, "doc")
	if got != chunk {
		t.Errorf("failed normalization must return the exact original chunk, got %q", got)
	}
	if waits != cfg.MaxRetries {
		t.Errorf("backoff waited %d times, want %d", waits, cfg.MaxRetries)
	}
}

func TestNormalizeChunkKeepsOriginalOnUnknownResponseShape(t *testing.T) {
	const chunk = "<!-- page 0 -->\n\noriginal narrative that must survive"

	t.Run("sentinel reply from an invoker", func(t *testing.T) {
		inv := &mockInvoker{name: "primary", fn: func(int, Request) (string, error) {
			return NoTextSentinel, nil
		}}
		g := newTestGateway(testConfig(), nil, inv)

		if got := g.NormalizeChunk(context.Background(), chunk, "doc"); got != chunk {
			t.Errorf("sentinel must not replace chunk content, got %q", got)
		}
	})

	t.Run("rest transport returning an unrecognized body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"unexpected":"shape"}`)
		}))
		defer srv.Close()

		g := newTestGateway(testConfig(), nil, NewRestInvoker(srv.URL, "test-key"))

		if got := g.NormalizeChunk(context.Background(), chunk, "doc"); got != chunk {
			t.Errorf("unrecognized response shape must keep the original chunk, got %q", got)
		}
	})
}

func TestNormalizeDocument(t *testing.T) {
	t.Run("short document is a single chunk", func(t *testing.T) {
		inv := &mockInvoker{name: "primary", fn: func(call int, _ Request) (string, error) {
			return fmt.Sprintf("c%d", call), nil
		}}
		cfg := testConfig()
		g := newTestGateway(cfg, nil, inv)

		got := g.NormalizeDocument(context.Background(), "tiny document", "doc")
		if got != "c1" {
			t.Errorf("got %q", got)
		}
		if inv.calls != 1 {
			t.Errorf("expected a single call, got %d", inv.calls)
		}
	})

	t.Run("long document is chunked in order", func(t *testing.T) {
		inv := &mockInvoker{name: "primary", fn: func(call int, _ Request) (string, error) {
			return fmt.Sprintf("c%d", call), nil
		}}
		cfg := testConfig()
		cfg.ShortDocThreshold = 5
		cfg.ChunkSize = 10
		g := newTestGateway(cfg, nil, inv)

		got := g.NormalizeDocument(context.Background(), strings.Repeat("x", 25), "doc")
		if got != "c1\n\nc2\n\nc3" {
			t.Errorf("got %q, want chunks joined in order with blank lines", got)
		}
	})

	t.Run("failed chunks keep original content", func(t *testing.T) {
		cfg := testConfig()
		cfg.ShortDocThreshold = 5
		cfg.ChunkSize = 10
		g := newTestGateway(cfg, nil, &mockInvoker{name: "primary", fn: func(int, Request) (string, error) {
			return "", errors.New("permanent failure")
		}})

		text := "0123456789abcdefghij"
		got := g.NormalizeDocument(context.Background(), text, "doc")
		if got != "0123456789\n\nabcdefghij" {
			t.Errorf("got %q", got)
		}
	})
}
