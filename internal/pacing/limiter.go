package pacing

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PausedLimit caps the frame rate while the viewer is paused.
const PausedLimit = 30

var frameOverruns = promauto.NewCounter(prometheus.CounterOpts{
	Name: "planet_frame_overruns_total",
	Help: "The number of frames that took longer than the frame budget.",
})

// Limiter paces ticks to a frame cap read on every Wait. Frames finishing
// more than one budget late are counted as overruns and the schedule is
// resynced instead of catching up.
type Limiter struct {
	limit func() int
	now   func() time.Time
	sleep func(time.Duration)

	next     time.Time
	overruns int
}

// NewLimiter creates a limiter reading its cap from limit, 0 meaning
// uncapped.
func NewLimiter(limit func() int) *Limiter {
	return &Limiter{
		limit: limit,
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// Wait blocks until the next frame is due and returns how long it slept.
func (l *Limiter) Wait(paused bool) time.Duration {
	fps := l.limit()
	if paused && (fps <= 0 || fps > PausedLimit) {
		fps = PausedLimit
	}
	if fps <= 0 {
		l.next = time.Time{}
		return 0
	}

	budget := time.Second / time.Duration(fps)
	now := l.now()
	if l.next.IsZero() {
		l.next = now.Add(budget)
	} else {
		l.next = l.next.Add(budget)
	}

	remaining := l.next.Sub(now)
	if remaining > 0 {
		l.sleep(remaining)
		return remaining
	}

	if late := -remaining; late > budget {
		l.overruns++
		frameOverruns.Inc()
		logs.WithTag("late", late.String()).
			WithTag("budget", budget.String()).
			Debug("frame overran its budget")
		l.next = now
	}
	return 0
}

// Overruns returns the number of overrunning frames seen so far.
func (l *Limiter) Overruns() int {
	return l.overruns
}
