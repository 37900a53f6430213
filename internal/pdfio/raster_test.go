package pdfio

import "testing"

func TestCountSegments(t *testing.T) {
	t.Run("straight path commands", func(t *testing.T) {
		svg := `<svg><path d="M 0 0 L 10 0 L 10 10 V 20 H 0"/></svg>`
		straight, total := countSegments(svg)
		if straight != 4 || total != 4 {
			t.Errorf("got straight=%d total=%d, want 4/4", straight, total)
		}
	})

	t.Run("mixed curves and lines", func(t *testing.T) {
		svg := `<svg><path d="M 0 0 C 1 1 2 2 3 3 L 4 4 Q 5 5 6 6"/></svg>`
		straight, total := countSegments(svg)
		if straight != 1 || total != 3 {
			t.Errorf("got straight=%d total=%d, want 1/3", straight, total)
		}
	})

	t.Run("line elements count as straight", func(t *testing.T) {
		svg := `<svg><line x1="0" y1="0" x2="5" y2="5"/><line x1="1" y1="1" x2="2" y2="2"/></svg>`
		straight, total := countSegments(svg)
		if straight != 2 || total != 2 {
			t.Errorf("got straight=%d total=%d, want 2/2", straight, total)
		}
	})

	t.Run("no vector content", func(t *testing.T) {
		straight, total := countSegments(`<svg><text>Lorem L ipsum</text></svg>`)
		if straight != 0 || total != 0 {
			t.Errorf("got straight=%d total=%d, want 0/0", straight, total)
		}
	})
}
