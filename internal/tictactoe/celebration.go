package tictactoe

import (
	"sync"
	"time"
)

// celebration is the self-clearing "someone just won" flag. Each start bumps
// the generation, so a timer from an earlier start never clears a later one.
type celebration struct {
	mu       sync.Mutex
	duration time.Duration
	timer    *time.Timer
	active   bool
	gen      uint64
}

func newCelebration(duration time.Duration) *celebration {
	return &celebration{duration: duration}
}

func (that *celebration) start() {
	if that.duration <= 0 {
		return
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	that.stopLocked()
	that.active = true

	gen := that.gen
	that.timer = time.AfterFunc(that.duration, func() {
		that.expire(gen)
	})
}

func (that *celebration) expire(gen uint64) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if gen != that.gen {
		return
	}

	that.active = false
	that.timer = nil
	that.gen++
}

func (that *celebration) cancel() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.stopLocked()
	that.active = false
}

func (that *celebration) isActive() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.active
}

// stopLocked invalidates the pending callback even if it already fired and is
// waiting on the mutex.
func (that *celebration) stopLocked() {
	if that.timer != nil {
		that.timer.Stop()
		that.timer = nil
	}
	that.gen++
}
