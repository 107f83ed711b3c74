package clock

import (
	"sync"
	"time"
)

// PlaybackClock tracks the virtual position along session time.
// Virtual time is monotonically non-decreasing between seeks; a seek may
// move it in either direction but never outside [start,end].
type PlaybackClock struct {
	mu          sync.Mutex
	start       float64
	end         float64
	current     float64
	speed       float64
	pausedSpeed float64
	generation  uint64
}

type Option func(*PlaybackClock)

// WithInitialSpeed sets the speed multiplier the clock starts with
func WithInitialSpeed(speed float64) Option {
	return func(c *PlaybackClock) {
		if speed > 0 {
			c.speed = speed
		}
	}
}

// WithStartAt positions the clock at the given session time
func WithStartAt(t float64) Option {
	return func(c *PlaybackClock) {
		c.current = c.clamp(t)
	}
}

func NewPlaybackClock(start, end float64, opts ...Option) *PlaybackClock {
	ret := &PlaybackClock{
		start:   start,
		end:     end,
		current: start,
		speed:   1,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Now returns the current virtual time
func (c *PlaybackClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *PlaybackClock) Speed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

func (c *PlaybackClock) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed == 0
}

// Ended reports whether virtual time reached the end of the timeline.
// The clock stays queryable and seekable after that.
func (c *PlaybackClock) Ended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current >= c.end
}

// Generation returns the seek generation counter. Work computed against
// an older generation must be discarded, not applied.
func (c *PlaybackClock) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// SetSpeed changes how much virtual time elapses per wall clock second
// from now on. Negative values are clamped to 0 (rewind is a seek, not a
// negative speed).
func (c *PlaybackClock) SetSpeed(speed float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if speed < 0 {
		speed = 0
	}
	if speed == 0 && c.speed > 0 {
		c.pausedSpeed = c.speed
	}
	c.speed = speed
}

// Pause is equivalent to SetSpeed(0)
func (c *PlaybackClock) Pause() {
	c.SetSpeed(0)
}

// Resume restores the speed active before the last Pause
func (c *PlaybackClock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.speed != 0 {
		return
	}
	if c.pausedSpeed > 0 {
		c.speed = c.pausedSpeed
	} else {
		c.speed = 1
	}
}

// Seek jumps to target (clamped to the timeline bounds), bumps the
// generation counter and returns the applied time together with the new
// generation.
func (c *PlaybackClock) Seek(target float64) (applied float64, generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.clamp(target)
	c.generation++
	return c.current, c.generation
}

// Tick advances virtual time by wallElapsed * speed, never past the end.
// It returns the new virtual time and the generation it belongs to.
func (c *PlaybackClock) Tick(wallElapsed time.Duration) (now float64, generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current += wallElapsed.Seconds() * c.speed
	if c.current > c.end {
		c.current = c.end
	}
	return c.current, c.generation
}

func (c *PlaybackClock) clamp(t float64) float64 {
	if t < c.start {
		return c.start
	}
	if t > c.end {
		return c.end
	}
	return t
}
