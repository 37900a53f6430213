package backoff

import (
	"testing"
	"time"
)

func TestDelayDoubles(t *testing.T) {
	b := New(10 * time.Second)
	cases := []struct {
		retry int
		want  time.Duration
	}{
		{0, 10 * time.Second},
		{1, 20 * time.Second},
		{2, 40 * time.Second},
		{4, 160 * time.Second},
	}
	for _, c := range cases {
		if got := b.Delay(c.retry); got != c.want {
			t.Errorf("Delay(%d) = %v, want %v", c.retry, got, c.want)
		}
	}
}

func TestWaitUsesInjectedSleeper(t *testing.T) {
	var slept []time.Duration
	b := NewWithSleeper(3*time.Second, func(d time.Duration) { slept = append(slept, d) })

	b.Wait(0)
	b.Wait(2)
	b.Wait(-5) // clamped, must not panic

	want := []time.Duration{3 * time.Second, 12 * time.Second, 3 * time.Second}
	if len(slept) != len(want) {
		t.Fatalf("slept %d times, want %d", len(slept), len(want))
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Errorf("sleep %d = %v, want %v", i, slept[i], want[i])
		}
	}
}
