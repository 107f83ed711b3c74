package replay

import (
	"time"

	"github.com/mpapenbr/raceplay/pkg/replay/projector"
)

type controllerOpts struct {
	interval   time.Duration
	speed      float64
	startAt    float64
	nowFn      func() time.Time
	sessionKey string
	projOpts   []projector.Option
}

type Option func(*controllerOpts)

// WithTickInterval sets the wall clock cadence of the replay loop
func WithTickInterval(d time.Duration) Option {
	return func(o *controllerOpts) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithInitialSpeed sets the playback speed multiplier at start
func WithInitialSpeed(speed float64) Option {
	return func(o *controllerOpts) { o.speed = speed }
}

// WithStartAt positions playback at the given session time
func WithStartAt(t float64) Option {
	return func(o *controllerOpts) { o.startAt = t }
}

// WithWallClock injects the wall clock source, making the loop
// deterministically testable
func WithWallClock(nowFn func() time.Time) Option {
	return func(o *controllerOpts) {
		if nowFn != nil {
			o.nowFn = nowFn
		}
	}
}

// WithSessionKey tags metrics and the snapshot broadcast with the
// session being replayed
func WithSessionKey(key string) Option {
	return func(o *controllerOpts) { o.sessionKey = key }
}

// WithProjectorOptions passes options through to the state projector
func WithProjectorOptions(opts ...projector.Option) Option {
	return func(o *controllerOpts) {
		o.projOpts = append(o.projOpts, opts...)
	}
}
