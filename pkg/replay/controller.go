package replay

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/raceplay/log"
	"github.com/mpapenbr/raceplay/pkg/model"
	"github.com/mpapenbr/raceplay/pkg/replay/clock"
	"github.com/mpapenbr/raceplay/pkg/replay/projector"
	"github.com/mpapenbr/raceplay/pkg/replay/timeline"
	"github.com/mpapenbr/raceplay/pkg/utils/broadcast"
)

// Controller orchestrates the playback clock and the state projector.
// It drives the clock on a fixed wall clock cadence, advances the
// projector to the clock's virtual time and publishes the resulting
// snapshot. All user facing operations are synchronous and take effect
// before the next published snapshot.
type Controller struct {
	tl       *timeline.Timeline
	clk      *clock.PlaybackClock
	proj     *projector.Projector
	interval time.Duration
	nowFn    func() time.Time
	runKey   string
	l        *log.Logger

	// mu serializes projector access: the tick loop and control
	// operations are the only writers
	mu     sync.Mutex
	latest atomic.Pointer[model.RaceState]
	source chan *model.RaceState
	bcast  broadcast.BroadcastServer[*model.RaceState]

	ticksAccepted atomic.Int64
	ticksStale    atomic.Int64

	closeOnce sync.Once
}

func NewController(tl *timeline.Timeline, opts ...Option) (*Controller, error) {
	if tl == nil || tl.Len() == 0 {
		// nothing to replay, the one fatal condition
		return nil, timeline.ErrEmptyTimeline
	}
	o := controllerOpts{
		interval:   100 * time.Millisecond,
		speed:      1,
		startAt:    tl.Start(),
		nowFn:      time.Now,
		sessionKey: "",
	}
	for _, opt := range opts {
		opt(&o)
	}
	ret := &Controller{
		tl:       tl,
		interval: o.interval,
		nowFn:    o.nowFn,
		runKey:   uuid.New().String(),
		l:        log.Default().Named("replay"),
		source:   make(chan *model.RaceState, 1),
	}
	ret.clk = clock.NewPlaybackClock(tl.Start(), tl.End(),
		clock.WithInitialSpeed(o.speed),
		clock.WithStartAt(o.startAt))
	ret.proj = projector.NewProjector(tl, o.projOpts...)
	ret.bcast = broadcast.NewBroadcastServer("snapshots", ret.source,
		broadcast.WithSessionKey[*model.RaceState](o.sessionKey))
	ret.setupMetrics(o.sessionKey)
	// make the initial state observable before the first tick
	ret.refresh()
	return ret, nil
}

// Run drives the tick loop until ctx is done. The cadence is a fixed
// wall clock interval, the speed multiplier only scales how much virtual
// time each tick represents.
func (c *Controller) Run(ctx context.Context) {
	c.l.Info("replay started",
		log.String("run", c.runKey),
		log.Float("start", c.clk.Now()),
		log.Float("end", c.tl.End()),
		log.Duration("interval", c.interval))
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	last := c.nowFn()
	for {
		select {
		case <-ctx.Done():
			c.l.Info("replay loop done", log.String("run", c.runKey))
			return
		case <-ticker.C:
			now := c.nowFn()
			c.Tick(now.Sub(last))
			last = now
		}
	}
}

// Tick advances virtual time by wallElapsed*speed and publishes the
// resulting snapshot. Exposed so tests can feed synthetic intervals
// instead of sleeping.
func (c *Controller) Tick(wallElapsed time.Duration) {
	t, gen := c.clk.Tick(wallElapsed)
	c.update(t, gen)
}

// update projects the state for time t. Updates computed against an
// outdated seek generation are discarded: a subscriber must never
// observe a state older than the most recent accepted seek.
func (c *Controller) update(t float64, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clk.Generation() != gen {
		c.ticksStale.Add(1)
		c.l.Debug("discarding stale update",
			log.Float("time", t), log.Uint("gen", uint(gen)))
		return
	}
	c.proj.AdvanceTo(t)
	if c.clk.Generation() != gen {
		// a seek arrived while projecting
		c.ticksStale.Add(1)
		return
	}
	snap := c.proj.Snapshot()
	c.ticksAccepted.Add(1)
	c.latest.Store(snap)
	select {
	case c.source <- snap:
	default:
		// broadcast is behind, the newer snapshot wins on the next push
	}
}

func (c *Controller) refresh() {
	c.update(c.clk.Now(), c.clk.Generation())
}

// Play resumes playback at the speed active before the last pause
func (c *Controller) Play() {
	c.clk.Resume()
	c.refresh()
}

func (c *Controller) Pause() {
	c.clk.Pause()
	c.refresh()
}

func (c *Controller) SetSpeed(speed float64) {
	c.clk.SetSpeed(speed)
	c.refresh()
}

// SeekTo jumps to the given session time (clamped to the timeline) and
// publishes the state there without waiting for the next tick
func (c *Controller) SeekTo(t float64) {
	applied, gen := c.clk.Seek(t)
	c.update(applied, gen)
}

// SeekBy jumps relative to the current virtual time
func (c *Controller) SeekBy(delta float64) {
	c.SeekTo(c.clk.Now() + delta)
}

// Snapshot returns the most recently published race state
func (c *Controller) Snapshot() *model.RaceState {
	return c.latest.Load()
}

func (c *Controller) Subscribe() <-chan *model.RaceState {
	return c.bcast.Subscribe()
}

func (c *Controller) CancelSubscription(ch <-chan *model.RaceState) {
	c.bcast.CancelSubscription(ch)
}

func (c *Controller) Paused() bool { return c.clk.Paused() }

func (c *Controller) Speed() float64 { return c.clk.Speed() }

func (c *Controller) Ended() bool { return c.clk.Ended() }

func (c *Controller) SessionTime() float64 { return c.clk.Now() }

func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.bcast.Close()
		c.l.Info("replay closed",
			log.String("run", c.runKey),
			log.Int64("ticks", c.ticksAccepted.Load()),
			log.Int64("stale", c.ticksStale.Load()))
	})
}

func (c *Controller) setupMetrics(sessionKey string) {
	meter := otel.GetMeterProvider().Meter("raceplay.replay")
	register := func(name, desc string, value func() int64) {
		if _, err := meter.Int64ObservableGauge(
			name,
			metric.WithDescription(desc),
			metric.WithUnit("{count}"),
			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(value(),
					metric.WithAttributes(
						attribute.String("run", c.runKey),
						attribute.String("session", sessionKey)))
				return nil
			})); err != nil {
			c.l.Error("failed to register metric",
				log.String("metric", name), log.ErrorField(err))
		}
	}
	register("raceplay.replay.ticks", "Number of accepted tick updates",
		func() int64 { return c.ticksAccepted.Load() })
	register("raceplay.replay.stale", "Number of discarded stale updates",
		func() int64 { return c.ticksStale.Load() })
}
