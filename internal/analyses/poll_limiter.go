package analyses

import (
	"sync"
	"time"
)

const (
	pollLimitWindow  = time.Second
	pollPruneTrigger = 4096
)

// pollLimiter allows one status poll per window for each caller and analysis.
type pollLimiter struct {
	mu     sync.Mutex
	last   map[pollKey]time.Time
	now    func() time.Time
	window time.Duration
}

type pollKey struct {
	caller, analysisID string
}

func newPollLimiter(window time.Duration, now func() time.Time) *pollLimiter {
	if now == nil {
		now = time.Now
	}
	if window <= 0 {
		window = pollLimitWindow
	}
	return &pollLimiter{last: make(map[pollKey]time.Time), now: now, window: window}
}

// Wait records a poll and returns 0, or returns how long the caller must wait
// before polling analysisID again.
func (l *pollLimiter) Wait(caller, analysisID string) time.Duration {
	if l == nil {
		return 0
	}
	key := pollKey{caller, analysisID}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if last, ok := l.last[key]; ok {
		if since := now.Sub(last); since < l.window {
			return l.window - since
		}
	}
	if len(l.last) >= pollPruneTrigger {
		for k, t := range l.last {
			if now.Sub(t) >= l.window {
				delete(l.last, k)
			}
		}
	}
	l.last[key] = now
	return 0
}
