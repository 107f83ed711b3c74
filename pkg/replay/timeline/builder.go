package timeline

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/samber/lo"

	"github.com/mpapenbr/raceplay/log"
	"github.com/mpapenbr/raceplay/pkg/model"
)

// ErrEmptyTimeline is returned when no usable event could be derived
// from the input samples. This is the one fatal build condition.
var ErrEmptyTimeline = errors.New("timeline contains no events")

// Problem describes a sample that had to be dropped during the build.
// Problems are collected, never raised fatally: one bad sample must not
// abort a full session build.
type Problem struct {
	Driver string
	Lap    int
	Reason string
}

func (p Problem) String() string {
	return fmt.Sprintf("driver %s lap %d: %s", p.Driver, p.Lap, p.Reason)
}

type (
	Builder       struct{ opts builderOpts }
	builderOpts   struct{ l *log.Logger }
	BuilderOption func(*builderOpts)
)

func WithLogger(l *log.Logger) BuilderOption {
	return func(o *builderOpts) { o.l = l }
}

func NewBuilder(opts ...BuilderOption) *Builder {
	ret := &Builder{opts: builderOpts{l: log.Default().Named("timeline")}}
	for _, opt := range opts {
		opt(&ret.opts)
	}
	return ret
}

// Build normalizes the per-driver samples into one globally ordered
// Timeline. Samples may arrive in arbitrary order and with gaps; samples
// without any establishable timestamp are dropped and reported via the
// second return value.
//
//nolint:whitespace // can't make both editor and linter happy
func (b *Builder) Build(samples []model.TimingSample) (
	*Timeline, []Problem, error,
) {
	problems := make([]Problem, 0)
	events := make([]Event, 0, len(samples)*2)

	byDriver := lo.GroupBy(samples, func(s model.TimingSample) string {
		return s.Driver
	})
	drivers := lo.Keys(byDriver)
	sort.Strings(drivers)

	for _, driver := range drivers {
		if driver == "" {
			problems = append(problems, Problem{
				Reason: fmt.Sprintf("%d samples without driver id", len(byDriver[driver])),
			})
			continue
		}
		driverEvents, driverProblems := b.convertDriver(driver, byDriver[driver])
		events = append(events, driverEvents...)
		problems = append(problems, driverProblems...)
	}

	slices.SortStableFunc(events, func(a, b Event) int {
		switch {
		case a.Time != b.Time:
			return cmpFloat(a.Time, b.Time)
		default:
			return a.Kind.applyRank() - b.Kind.applyRank()
		}
	})
	if len(problems) > 0 {
		b.opts.l.Warn("dropped samples during timeline build",
			log.Int("count", len(problems)))
	}
	if len(events) == 0 {
		return nil, problems, ErrEmptyTimeline
	}

	ret := &Timeline{
		events:   events,
		byDriver: make(map[string][]int),
		start:    events[0].Time,
		end:      events[len(events)-1].Time,
	}
	for i := range events {
		ret.byDriver[events[i].Driver] = append(ret.byDriver[events[i].Driver], i)
		if events[i].Lap > ret.totalLaps {
			ret.totalLaps = events[i].Lap
		}
	}
	ret.drivers = lo.Keys(ret.byDriver)
	sort.Strings(ret.drivers)
	b.opts.l.Debug("timeline built",
		log.Int("events", len(events)),
		log.Int("drivers", len(ret.drivers)),
		log.Float("start", ret.start),
		log.Float("end", ret.end))
	return ret, problems, nil
}

// convertDriver walks one driver's samples in session time order and
// derives zero or more events per sample.
//
//nolint:gocognit,cyclop // event derivation is one coherent rule set
func (b *Builder) convertDriver(driver string, samples []model.TimingSample) (
	[]Event, []Problem,
) {
	type stamped struct {
		ts     float64
		sample model.TimingSample
	}
	ordered := make([]stamped, 0, len(samples))
	problems := make([]Problem, 0)
	for i := range samples {
		ts, ok := establishTimestamp(&samples[i])
		if !ok {
			problems = append(problems, Problem{
				Driver: driver,
				Lap:    samples[i].Lap,
				Reason: "no session time and no derivable cumulative time",
			})
			continue
		}
		ordered = append(ordered, stamped{ts: ts, sample: samples[i]})
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ts < ordered[j].ts
	})

	events := make([]Event, 0, len(ordered))
	lastCompound := ""
	lastPos := 0
	runningCum := 0.0
	for i := range ordered {
		s := &ordered[i].sample
		ts := ordered[i].ts

		if s.PitIn {
			events = append(events, Event{
				Kind: KindPitStop, Driver: driver, Time: ts, Lap: s.Lap,
				Entering: true,
			})
		}
		if s.PitOut {
			events = append(events, Event{
				Kind: KindPitStop, Driver: driver, Time: ts, Lap: s.Lap,
			})
		}
		if s.Compound != "" && s.Compound != lastCompound {
			events = append(events, Event{
				Kind: KindTyreChange, Driver: driver, Time: ts, Lap: s.Lap,
				Compound: s.Compound,
			})
			lastCompound = s.Compound
		}
		switch {
		case s.Sector > model.LapSector && s.Sector <= model.NumSectors:
			// missing sector times are simply absent, the projector
			// tolerates the gap
			if s.Duration > 0 {
				events = append(events, Event{
					Kind: KindSectorRecorded, Driver: driver, Time: ts, Lap: s.Lap,
					Sector: s.Sector, Duration: s.Duration,
				})
			}
		case s.Sector == model.LapSector && s.Duration > 0:
			if s.Cumulative > 0 {
				runningCum = s.Cumulative
			} else {
				runningCum += s.Duration
			}
			events = append(events, Event{
				Kind: KindLapCompleted, Driver: driver, Time: ts, Lap: s.Lap,
				Duration: s.Duration, Cumulative: runningCum,
			})
		}
		if s.Position > 0 && s.Position != lastPos {
			events = append(events, Event{
				Kind: KindPositionChange, Driver: driver, Time: ts, Lap: s.Lap,
				Position: s.Position,
			})
			lastPos = s.Position
		}
	}
	return events, problems
}

// establishTimestamp resolves the session time of a sample. Samples
// without a session time fall back to the cumulative race time, which is
// an offset from session start for that driver.
func establishTimestamp(s *model.TimingSample) (float64, bool) {
	if s.SessionTime > 0 {
		return s.SessionTime, true
	}
	if s.Cumulative > 0 {
		return s.Cumulative, true
	}
	return 0, false
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
