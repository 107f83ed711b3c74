package projector

import (
	"slices"
	"sort"

	"github.com/mpapenbr/raceplay/log"
	"github.com/mpapenbr/raceplay/pkg/model"
	"github.com/mpapenbr/raceplay/pkg/replay/timeline"
)

// Projector maintains the race state for the current virtual time.
// Forward movement applies only the event delta; backward movement
// restarts from the nearest checkpoint (or from session start when
// checkpoints are disabled). The projected state is a pure function of
// (timeline, virtual time) regardless of the path taken to reach it.
type Projector struct {
	tl     *timeline.Timeline
	opts   options
	l      *log.Logger
	cur    *workState
	cursor int // index of the next unapplied event
	now    float64

	// baseOrder is the pre-race driver order (grid, then lexical) used
	// for the initial leaderboard and as the fixed standings collection
	// order
	baseOrder []string
	gridRank  map[string]int

	checkpoints []checkpoint
	nextCkTime  float64
}

type options struct {
	checkpointEvery float64
	retireAfter     float64
	policy          OrderPolicy
	grid            []string
	l               *log.Logger
}

type Option func(*options)

// WithCheckpointInterval enables periodic state checkpoints every
// interval seconds of virtual time (0 disables them, backward seeks then
// rebuild from session start). Checkpoints are an optimization only;
// they never change the projected state.
func WithCheckpointInterval(interval float64) Option {
	return func(o *options) { o.checkpointEvery = interval }
}

// WithRetireAfter marks a driver as retired when no event arrived for
// the given stretch of virtual time (0 disables retirement detection)
func WithRetireAfter(threshold float64) Option {
	return func(o *options) { o.retireAfter = threshold }
}

func WithOrderPolicy(policy OrderPolicy) Option {
	return func(o *options) { o.policy = policy }
}

// WithStartingGrid seeds the pre-race leaderboard with the given driver
// ids in starting order. Drivers not on the grid line up behind it in
// lexical order.
func WithStartingGrid(grid []string) Option {
	return func(o *options) { o.grid = grid }
}

func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.l = l }
}

const (
	DefaultCheckpointInterval = 60.0
	DefaultRetireAfter        = 120.0
)

func NewProjector(tl *timeline.Timeline, opts ...Option) *Projector {
	o := options{
		checkpointEvery: DefaultCheckpointInterval,
		retireAfter:     DefaultRetireAfter,
		policy:          DefaultOrder,
		l:               log.Default().Named("projector"),
	}
	for _, opt := range opts {
		opt(&o)
	}
	ret := &Projector{
		tl:         tl,
		opts:       o,
		l:          o.l,
		now:        tl.Start(),
		nextCkTime: tl.Start() + o.checkpointEvery,
	}
	ret.gridRank = make(map[string]int, len(o.grid))
	for i, d := range o.grid {
		ret.gridRank[d] = i + 1
	}
	ret.baseOrder = slices.Clone(tl.Drivers())
	slices.SortStableFunc(ret.baseOrder, func(a, b string) int {
		return DefaultOrder(
			Standing{Driver: a, GridPos: ret.gridRank[a]},
			Standing{Driver: b, GridPos: ret.gridRank[b]})
	})
	ret.cur = initialState(tl, ret.baseOrder)
	return ret
}

// workState is the mutable projection target. race is the published
// part, aux holds bookkeeping that never leaves the projector.
type (
	workState struct {
		race *model.RaceState
		aux  map[string]*driverAux
	}
	driverAux struct {
		// cumByLap maps completed lap -> accumulated race time
		cumByLap map[int]float64
		// explicitPos is the last position delivered by a
		// PositionChange event (0: none)
		explicitPos int
		// sectorLap is the lap the Sectors array belongs to
		sectorLap int
	}
	checkpoint struct {
		time   float64
		cursor int
		state  *workState
	}
)

func (s *workState) clone() *workState {
	ret := &workState{
		race: s.race.Clone(),
		aux:  make(map[string]*driverAux, len(s.aux)),
	}
	for k, v := range s.aux {
		aux := &driverAux{
			cumByLap:    make(map[int]float64, len(v.cumByLap)),
			explicitPos: v.explicitPos,
			sectorLap:   v.sectorLap,
		}
		for lap, cum := range v.cumByLap {
			aux.cumByLap[lap] = cum
		}
		ret.aux[k] = aux
	}
	return ret
}

func initialState(tl *timeline.Timeline, baseOrder []string) *workState {
	drivers := baseOrder
	if drivers == nil {
		drivers = tl.Drivers()
	}
	ret := &workState{
		race: &model.RaceState{
			Leaderboard: slices.Clone(drivers),
			Drivers:     make(map[string]*model.DriverState, len(drivers)),
		},
		aux: make(map[string]*driverAux, len(drivers)),
	}
	for i, d := range drivers {
		ret.race.Drivers[d] = &model.DriverState{
			Driver:   d,
			Position: i + 1,
			Status:   model.StatusGrid,
		}
		ret.aux[d] = &driverAux{cumByLap: make(map[int]float64)}
	}
	return ret
}

// Now returns the virtual time the state was last advanced to
func (p *Projector) Now() float64 { return p.now }

// AdvanceTo moves the projected state to virtual time t.
func (p *Projector) AdvanceTo(t float64) {
	if t < p.now {
		p.restore(t)
	}
	events := p.tl.Events()
	for p.cursor < len(events) && events[p.cursor].Time <= t {
		p.maybeCheckpoint(events[p.cursor].Time)
		p.apply(&events[p.cursor])
		p.cursor++
	}
	p.now = t
	p.deriveStatus(t)
}

// Snapshot returns an immutable copy of the current race state. The
// projector never mutates a returned snapshot.
func (p *Projector) Snapshot() *model.RaceState {
	ret := p.cur.race.Clone()
	ret.SessionTime = p.now
	return ret
}

// maybeCheckpoint stores a state checkpoint when the forward pass is
// about to cross a checkpoint boundary. At that moment every event up to
// the boundary has been applied.
func (p *Projector) maybeCheckpoint(nextEventTime float64) {
	if p.opts.checkpointEvery <= 0 {
		return
	}
	for nextEventTime > p.nextCkTime {
		last := -1.0
		if len(p.checkpoints) > 0 {
			last = p.checkpoints[len(p.checkpoints)-1].time
		}
		if p.nextCkTime > last {
			p.checkpoints = append(p.checkpoints, checkpoint{
				time:   p.nextCkTime,
				cursor: p.cursor,
				state:  p.cur.clone(),
			})
		}
		p.nextCkTime += p.opts.checkpointEvery
	}
}

// restore rewinds to the nearest restart point at or before t
func (p *Projector) restore(t float64) {
	idx := sort.Search(len(p.checkpoints), func(i int) bool {
		return p.checkpoints[i].time > t
	}) - 1
	if idx < 0 {
		p.l.Debug("rebuild from session start", log.Float("target", t))
		p.cur = initialState(p.tl, p.baseOrder)
		p.cursor = 0
		p.now = p.tl.Start()
		p.nextCkTime = p.tl.Start() + p.opts.checkpointEvery
		return
	}
	ck := &p.checkpoints[idx]
	p.l.Debug("rebuild from checkpoint",
		log.Float("checkpoint", ck.time), log.Float("target", t))
	p.cur = ck.state.clone()
	p.cursor = ck.cursor
	p.now = ck.time
	p.nextCkTime = ck.time + p.opts.checkpointEvery
}

//nolint:cyclop // exhaustive over all event kinds
func (p *Projector) apply(ev *timeline.Event) {
	ds := p.cur.race.Drivers[ev.Driver]
	aux := p.cur.aux[ev.Driver]
	if ds == nil || aux == nil {
		return
	}
	ds.LastEventTime = ev.Time

	switch ev.Kind {
	case timeline.KindPitStop:
		if ev.Entering {
			ds.InPit = true
		} else {
			ds.InPit = false
			ds.PitStops++
		}
	case timeline.KindTyreChange:
		ds.Compound = ev.Compound
		ds.TyreAge = 0
	case timeline.KindSectorRecorded:
		if ev.Lap != aux.sectorLap {
			ds.PrevSectors = ds.Sectors
			ds.Sectors = [model.NumSectors]float64{}
			aux.sectorLap = ev.Lap
		}
		idx := ev.Sector - 1
		ds.Sectors[idx] = ev.Duration
		if ds.BestSectors[idx] == 0 || ev.Duration < ds.BestSectors[idx] {
			ds.BestSectors[idx] = ev.Duration
		}
		if p.cur.race.BestSectors[idx] == 0 ||
			ev.Duration < p.cur.race.BestSectors[idx] {
			p.cur.race.BestSectors[idx] = ev.Duration
		}
	case timeline.KindLapCompleted:
		ds.Lap = ev.Lap
		ds.LastLapTime = ev.Duration
		ds.Cumulative = ev.Cumulative
		ds.TyreAge++
		aux.cumByLap[ev.Lap] = ev.Cumulative
		p.recomputeOrder()
	case timeline.KindPositionChange:
		aux.explicitPos = ev.Position
		p.recomputeOrder()
	}
}

// recomputeOrder rebuilds the leaderboard and the gap columns. It runs
// only on lap completions and explicit position changes, so the order is
// stable between those events.
func (p *Projector) recomputeOrder() {
	race := p.cur.race

	// collect in baseOrder so the outcome stays deterministic even when
	// an injected policy treats two drivers as equal
	positioned := make([]string, 0, len(race.Drivers))
	unpositioned := make([]Standing, 0, len(race.Drivers))
	for _, d := range p.baseOrder {
		if p.cur.aux[d].explicitPos > 0 {
			positioned = append(positioned, d)
		} else {
			ds := race.Drivers[d]
			unpositioned = append(unpositioned, Standing{
				Driver:        d,
				Lap:           ds.Lap,
				Cumulative:    ds.Cumulative,
				GridPos:       p.gridRank[d],
				LastEventTime: ds.LastEventTime,
			})
		}
	}
	slices.SortStableFunc(positioned, func(a, b string) int {
		if d := p.cur.aux[a].explicitPos - p.cur.aux[b].explicitPos; d != 0 {
			return d
		}
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	})
	slices.SortStableFunc(unpositioned, p.opts.policy)

	order := make([]string, 0, len(race.Drivers))
	pi, ui := 0, 0
	for len(order) < len(race.Drivers) {
		slot := len(order) + 1
		if pi < len(positioned) && p.cur.aux[positioned[pi]].explicitPos <= slot {
			order = append(order, positioned[pi])
			pi++
			continue
		}
		if ui < len(unpositioned) {
			order = append(order, unpositioned[ui].Driver)
			ui++
			continue
		}
		order = append(order, positioned[pi])
		pi++
	}
	race.Leaderboard = order

	leader := race.Drivers[order[0]]
	race.LeaderLap = leader.Lap
	for i, d := range order {
		ds := race.Drivers[d]
		ds.Position = i + 1
		if i == 0 {
			ds.GapToLeader = 0
			ds.GapAhead = 0
			continue
		}
		ds.GapToLeader = p.gapBetween(leader, ds)
		ds.GapAhead = p.gapBetween(race.Drivers[order[i-1]], ds)
	}
}

// gapBetween computes the time difference between two drivers using the
// cumulative race times at the shared reference lap (the later of the
// two being the lap both have completed).
func (p *Projector) gapBetween(ref, ds *model.DriverState) float64 {
	refLap := min(ref.Lap, ds.Lap)
	if refLap <= 0 {
		return 0
	}
	refCum, okRef := p.cur.aux[ref.Driver].cumByLap[refLap]
	dsCum, okDs := p.cur.aux[ds.Driver].cumByLap[refLap]
	if !okRef || !okDs {
		return 0
	}
	return dsCum - refCum
}

// deriveStatus recomputes the display status of every driver for time t.
// It both sets and clears flags, keeping incremental advancement and
// full rebuilds equivalent.
func (p *Projector) deriveStatus(t float64) {
	totalLaps := p.tl.TotalLaps()
	for _, ds := range p.cur.race.Drivers {
		switch {
		case ds.LastEventTime == 0:
			ds.Status = model.StatusGrid
		case totalLaps > 0 && ds.Lap >= totalLaps:
			ds.Status = model.StatusFinished
		case p.opts.retireAfter > 0 && t-ds.LastEventTime > p.opts.retireAfter:
			ds.Status = model.StatusRetired
		case ds.InPit:
			ds.Status = model.StatusInPit
		default:
			ds.Status = model.StatusOnTrack
		}
	}
}
