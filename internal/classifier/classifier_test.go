package classifier

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/drawparse/drawparse/internal/config"
	"github.com/drawparse/drawparse/internal/domain/drawmodel"
	"github.com/drawparse/drawparse/internal/store"
)

func TestIsDrawingPage(t *testing.T) {
	cases := []struct {
		name  string
		stats drawmodel.PageStats
		want  bool
	}{
		{
			"sparse text with straight-line geometry",
			drawmodel.PageStats{TextLength: 50, LineSegments: 80, TotalSegments: 100},
			true,
		},
		{
			"text-heavy page is never a drawing",
			drawmodel.PageStats{TextLength: config.TextLengthThreshold, LineSegments: 100, TotalSegments: 100},
			false,
		},
		{
			"no vector content",
			drawmodel.PageStats{TextLength: 10, LineSegments: 0, TotalSegments: 0},
			false,
		},
		{
			"curve-dominated artwork",
			drawmodel.PageStats{TextLength: 10, LineSegments: 10, TotalSegments: 100},
			false,
		},
		{
			"ratio at threshold is not enough",
			drawmodel.PageStats{TextLength: 10, LineSegments: 40, TotalSegments: 100},
			false,
		},
		{
			"empty page",
			drawmodel.PageStats{},
			false,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := IsDrawingPage(c.stats); got != c.want {
				t.Errorf("IsDrawingPage(%+v) = %v, want %v", c.stats, got, c.want)
			}
		})
	}
}

type mockModel struct {
	calls   int
	verdict bool
}

func (m *mockModel) Classify(context.Context, string) bool {
	m.calls++
	return m.verdict
}

func writePreview(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestClassifyPreview(t *testing.T) {
	ctx := context.Background()
	drawingStats := drawmodel.PageStats{TextLength: 10, LineSegments: 90, TotalSegments: 100}

	t.Run("model verdict wins over heuristic", func(t *testing.T) {
		model := &mockModel{verdict: false}
		c := New(config.Config{}, model, store.NewInMemoryVerdictStore())

		preview := writePreview(t, "p0.jpg", "page zero")
		if c.ClassifyPreview(ctx, preview, drawingStats) {
			t.Error("model said no; heuristic must not override it")
		}
		if model.calls != 1 {
			t.Errorf("model called %d times, want 1", model.calls)
		}
	})

	t.Run("heuristic decides without a model", func(t *testing.T) {
		c := New(config.Config{}, nil, store.NewInMemoryVerdictStore())
		preview := writePreview(t, "p1.jpg", "page one")
		if !c.ClassifyPreview(ctx, preview, drawingStats) {
			t.Error("heuristic should flag line-dominated sparse page as drawing")
		}
	})

	t.Run("cached verdict skips the model", func(t *testing.T) {
		model := &mockModel{verdict: true}
		verdicts := store.NewInMemoryVerdictStore()
		c := New(config.Config{}, model, verdicts)

		preview := writePreview(t, "p2.jpg", "page two")
		first := c.ClassifyPreview(ctx, preview, drawingStats)
		second := c.ClassifyPreview(ctx, preview, drawingStats)

		if !first || !second {
			t.Errorf("got verdicts %v then %v, want true both times", first, second)
		}
		if model.calls != 1 {
			t.Errorf("model called %d times, want 1 (second call served from cache)", model.calls)
		}
	})

	t.Run("works without a verdict store", func(t *testing.T) {
		model := &mockModel{verdict: true}
		c := New(config.Config{}, model, nil)
		preview := writePreview(t, "p3.jpg", "page three")
		if !c.ClassifyPreview(ctx, preview, drawingStats) {
			t.Error("verdict should pass through with caching disabled")
		}
	})
}

func TestDrawingPages(t *testing.T) {
	classifications := []drawmodel.PageClassification{
		{PageNum: 0, IsDrawing: false},
		{PageNum: 1, IsDrawing: true},
		{PageNum: 2, IsDrawing: false},
		{PageNum: 3, IsDrawing: true},
	}
	got := DrawingPages(classifications)
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("DrawingPages = %v, want [1 3]", got)
	}

	if pages := DrawingPages(nil); pages != nil {
		t.Errorf("no classifications should yield no pages, got %v", pages)
	}
}
