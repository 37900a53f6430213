package backoff

import "time"

// Backoff schedules exponential delays for retrying callers. Callers own the
// retry-count loop and the maximum-attempts policy; this type only computes
// and executes the delay.
type Backoff struct {
	Base  time.Duration
	sleep func(time.Duration)
}

// New returns a Backoff with the given base wait.
func New(base time.Duration) *Backoff {
	return &Backoff{Base: base, sleep: time.Sleep}
}

// NewWithSleeper injects the sleep function, which tests replace to avoid
// real delays.
func NewWithSleeper(base time.Duration, sleep func(time.Duration)) *Backoff {
	return &Backoff{Base: base, sleep: sleep}
}

// Delay returns base * 2^retryIndex.
func (b *Backoff) Delay(retryIndex int) time.Duration {
	return b.Base * (1 << uint(retryIndex))
}

// Wait blocks for the retryIndex-th delay. It never fails.
func (b *Backoff) Wait(retryIndex int) {
	if retryIndex < 0 {
		retryIndex = 0
	}
	b.sleep(b.Delay(retryIndex))
}
