//nolint:funlen,lll // ok for tests
package projector

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/raceplay/pkg/model"
	"github.com/mpapenbr/raceplay/pkg/replay/timeline"
)

func buildTL(t *testing.T, samples []model.TimingSample) *timeline.Timeline {
	t.Helper()
	tl, problems, err := timeline.NewBuilder().Build(samples)
	require.NoError(t, err)
	require.Empty(t, problems)
	return tl
}

func lapSample(driver string, lap int, ts, dur, cum float64) model.TimingSample {
	return model.TimingSample{
		Driver: driver, SessionTime: ts, Lap: lap,
		Sector: model.LapSector, Duration: dur, Cumulative: cum,
	}
}

// twoDriverRace: A laps every 90s, B every 91.5s
func twoDriverRace(t *testing.T, laps int) *timeline.Timeline {
	t.Helper()
	samples := []model.TimingSample{}
	for lap := 1; lap <= laps; lap++ {
		samples = append(samples,
			lapSample("A", lap, float64(lap)*90, 90, float64(lap)*90),
			lapSample("B", lap, float64(lap)*91.5, 91.5, float64(lap)*91.5))
	}
	return buildTL(t, samples)
}

func TestAdvanceTo_InitialStateIsGrid(t *testing.T) {
	p := NewProjector(twoDriverRace(t, 2))
	snap := p.Snapshot()
	assert.Equal(t, []string{"A", "B"}, snap.Leaderboard)
	for _, ds := range snap.Drivers {
		assert.Equal(t, model.StatusGrid, ds.Status)
	}
}

func TestAdvanceTo_GapsAfterFirstLap(t *testing.T) {
	p := NewProjector(twoDriverRace(t, 2))
	p.AdvanceTo(92)
	snap := p.Snapshot()

	assert.Equal(t, 92.0, snap.SessionTime)
	assert.Equal(t, []string{"A", "B"}, snap.Leaderboard)
	assert.Equal(t, 1, snap.LeaderLap)

	a := snap.Drivers["A"]
	b := snap.Drivers["B"]
	assert.Equal(t, 0.0, a.GapToLeader)
	assert.InDelta(t, 1.5, b.GapToLeader, 1e-9)
	assert.InDelta(t, 1.5, b.GapAhead, 1e-9)
	assert.Equal(t, 1, a.Position)
	assert.Equal(t, 2, b.Position)
	assert.Equal(t, model.StatusOnTrack, a.Status)
}

func TestAdvanceTo_EventAtExactTimeIsApplied(t *testing.T) {
	p := NewProjector(twoDriverRace(t, 2))
	p.AdvanceTo(90)
	assert.Equal(t, 1, p.Snapshot().Drivers["A"].Lap)
	assert.Equal(t, 0, p.Snapshot().Drivers["B"].Lap)
}

func TestAdvanceTo_PitStopFlagsAndCount(t *testing.T) {
	samples := []model.TimingSample{
		lapSample("A", 1, 90, 90, 90),
		lapSample("A", 2, 195, 105, 195),
		{Driver: "A", SessionTime: 110, Lap: 2, PitIn: true},
		{Driver: "A", SessionTime: 125, Lap: 2, PitOut: true},
	}
	p := NewProjector(buildTL(t, samples))

	p.AdvanceTo(110)
	snap := p.Snapshot()
	assert.True(t, snap.Drivers["A"].InPit)
	assert.Equal(t, 0, snap.Drivers["A"].PitStops)
	assert.Equal(t, model.StatusInPit, snap.Drivers["A"].Status)

	p.AdvanceTo(125)
	snap = p.Snapshot()
	assert.False(t, snap.Drivers["A"].InPit)
	assert.Equal(t, 1, snap.Drivers["A"].PitStops)
	assert.Equal(t, model.StatusOnTrack, snap.Drivers["A"].Status)
}

func TestAdvanceTo_TyreAgeAndCompound(t *testing.T) {
	samples := []model.TimingSample{
		{Driver: "A", SessionTime: 1, Lap: 1, Compound: "SOFT"},
		lapSample("A", 1, 90, 90, 90),
		lapSample("A", 2, 180, 90, 180),
		{Driver: "A", SessionTime: 200, Lap: 3, Compound: "MEDIUM"},
		lapSample("A", 3, 270, 90, 270),
	}
	p := NewProjector(buildTL(t, samples))

	p.AdvanceTo(181)
	snap := p.Snapshot()
	assert.Equal(t, "SOFT", snap.Drivers["A"].Compound)
	assert.Equal(t, 2, snap.Drivers["A"].TyreAge)

	p.AdvanceTo(201)
	assert.Equal(t, 0, p.Snapshot().Drivers["A"].TyreAge)

	p.AdvanceTo(271)
	snap = p.Snapshot()
	assert.Equal(t, "MEDIUM", snap.Drivers["A"].Compound)
	assert.Equal(t, 1, snap.Drivers["A"].TyreAge)
}

func TestAdvanceTo_SectorBestsAndRollover(t *testing.T) {
	sector := func(driver string, lap, sector int, ts, dur float64) model.TimingSample {
		return model.TimingSample{
			Driver: driver, SessionTime: ts, Lap: lap, Sector: sector, Duration: dur,
		}
	}
	samples := []model.TimingSample{
		sector("A", 1, 1, 30, 30),
		sector("A", 1, 2, 60, 31),
		sector("B", 1, 1, 31, 29),
		sector("A", 2, 1, 120, 28),
	}
	p := NewProjector(buildTL(t, samples))

	p.AdvanceTo(100)
	snap := p.Snapshot()
	assert.Equal(t, 30.0, snap.Drivers["A"].Sectors[0])
	assert.Equal(t, 31.0, snap.Drivers["A"].Sectors[1])
	// overall best belongs to B
	assert.Equal(t, 29.0, snap.BestSectors[0])
	assert.Equal(t, 30.0, snap.Drivers["A"].BestSectors[0])

	// the lap 2 sector moves lap 1 times to the previous lap slots
	p.AdvanceTo(121)
	snap = p.Snapshot()
	assert.Equal(t, 28.0, snap.Drivers["A"].Sectors[0])
	assert.Equal(t, 0.0, snap.Drivers["A"].Sectors[1])
	assert.Equal(t, 30.0, snap.Drivers["A"].PrevSectors[0])
	assert.Equal(t, 28.0, snap.BestSectors[0])
}

func TestAdvanceTo_RetirementSetAndCleared(t *testing.T) {
	samples := []model.TimingSample{
		lapSample("A", 1, 90, 90, 90),
		lapSample("A", 2, 180, 90, 180),
		lapSample("A", 3, 270, 90, 270),
		lapSample("A", 4, 360, 90, 360),
		lapSample("B", 1, 95, 95, 95),
	}
	p := NewProjector(buildTL(t, samples))

	p.AdvanceTo(200)
	assert.Equal(t, model.StatusOnTrack, p.Snapshot().Drivers["B"].Status)

	// no event from B for more than the retirement threshold
	p.AdvanceTo(220)
	assert.Equal(t, model.StatusRetired, p.Snapshot().Drivers["B"].Status)
	assert.Equal(t, model.StatusOnTrack, p.Snapshot().Drivers["A"].Status)

	// going back in time clears the flag again
	p.AdvanceTo(100)
	assert.Equal(t, model.StatusOnTrack, p.Snapshot().Drivers["B"].Status)
}

func TestAdvanceTo_FinishedAtTotalLaps(t *testing.T) {
	p := NewProjector(twoDriverRace(t, 3))
	p.AdvanceTo(270)
	snap := p.Snapshot()
	assert.Equal(t, model.StatusFinished, snap.Drivers["A"].Status)
	assert.Equal(t, model.StatusOnTrack, snap.Drivers["B"].Status)
}

func TestAdvanceTo_ExplicitPositionWinsOverPolicy(t *testing.T) {
	samples := []model.TimingSample{
		lapSample("A", 1, 90, 90, 90),
		lapSample("B", 1, 91, 91, 91),
		// C has no lap but the source says it leads
		{Driver: "C", SessionTime: 95, Lap: 1, Position: 1},
	}
	p := NewProjector(buildTL(t, samples))
	p.AdvanceTo(100)
	snap := p.Snapshot()
	assert.Equal(t, []string{"C", "A", "B"}, snap.Leaderboard)
	assert.Equal(t, 1, snap.Drivers["C"].Position)
	assert.Equal(t, 2, snap.Drivers["A"].Position)
}

func TestNewProjector_StartsFromGrid(t *testing.T) {
	p := NewProjector(twoDriverRace(t, 2), WithStartingGrid([]string{"B", "A"}))
	snap := p.Snapshot()
	assert.Equal(t, []string{"B", "A"}, snap.Leaderboard)
	assert.Equal(t, 1, snap.Drivers["B"].Position)
	assert.Equal(t, 2, snap.Drivers["A"].Position)
}

func TestAdvanceTo_GridOrderRestoredOnRewind(t *testing.T) {
	tl := twoDriverRace(t, 2)
	p := NewProjector(tl, WithStartingGrid([]string{"B", "A"}))
	p.AdvanceTo(tl.End())
	assert.Equal(t, []string{"A", "B"}, p.Snapshot().Leaderboard)

	p.AdvanceTo(tl.Start() - 1)
	assert.Equal(t, []string{"B", "A"}, p.Snapshot().Leaderboard)
}

func TestAdvanceTo_NoLapDriversKeepGridOrder(t *testing.T) {
	samples := []model.TimingSample{
		lapSample("A", 1, 90, 90, 90),
		// C and D only show a starting compound, no laps
		{Driver: "C", SessionTime: 10, Lap: 1, Compound: "SOFT"},
		{Driver: "D", SessionTime: 11, Lap: 1, Compound: "SOFT"},
	}
	p := NewProjector(buildTL(t, samples),
		WithStartingGrid([]string{"D", "C", "A"}))
	// A's lap triggers an order recompute; the lapless drivers must keep
	// their grid order, not fall back to lexical
	p.AdvanceTo(95)
	assert.Equal(t, []string{"A", "D", "C"}, p.Snapshot().Leaderboard)
}

func TestAdvanceTo_DegenerateOrderPolicyStaysDeterministic(t *testing.T) {
	samples := []model.TimingSample{
		lapSample("S", 1, 90, 90, 90),
		lapSample("Q", 1, 91, 91, 91),
		lapSample("P", 1, 92, 92, 92),
		lapSample("R", 1, 93, 93, 93),
	}
	tl := buildTL(t, samples)
	p := NewProjector(tl,
		WithOrderPolicy(func(a, b Standing) int { return 0 }))
	// a policy that never separates drivers keeps the fixed collection
	// order on every recompute
	for _, ts := range []float64{90, 92, tl.End()} {
		p.AdvanceTo(ts)
		assert.Equal(t, []string{"P", "Q", "R", "S"},
			p.Snapshot().Leaderboard, "at t=%v", ts)
	}
}

func TestAdvanceTo_OrderStableBetweenLapEvents(t *testing.T) {
	// no lap completion or position change between t=92 and t=179: the
	// leaderboard must not change in that window
	p := NewProjector(twoDriverRace(t, 2))
	p.AdvanceTo(92)
	want := p.Snapshot().Leaderboard
	for _, ts := range []float64{100, 150, 179} {
		p.AdvanceTo(ts)
		assert.Equal(t, want, p.Snapshot().Leaderboard, "at t=%v", ts)
	}
}

func TestAdvanceTo_IncrementalEqualsDirect(t *testing.T) {
	tl := twoDriverRace(t, 10)

	stepwise := NewProjector(tl)
	for ts := tl.Start(); ts < tl.End(); ts += 5 {
		stepwise.AdvanceTo(ts)
	}
	stepwise.AdvanceTo(tl.End())

	direct := NewProjector(tl)
	direct.AdvanceTo(tl.End())

	if diff := cmp.Diff(direct.Snapshot(), stepwise.Snapshot()); diff != "" {
		t.Errorf("stepwise and direct advancement differ: %s", diff)
	}
}

func TestAdvanceTo_BackwardSeekEqualsFreshBuild(t *testing.T) {
	tl := twoDriverRace(t, 10)
	targets := []float64{100, 275, 451.5, tl.Start(), 700}

	seeker := NewProjector(tl, WithCheckpointInterval(30))
	seeker.AdvanceTo(tl.End())
	for _, target := range targets {
		seeker.AdvanceTo(target)

		fresh := NewProjector(tl)
		fresh.AdvanceTo(target)
		if diff := cmp.Diff(fresh.Snapshot(), seeker.Snapshot()); diff != "" {
			t.Errorf("state after seek to %v differs: %s", target, diff)
		}
	}
}

func TestAdvanceTo_CheckpointsDoNotChangeResult(t *testing.T) {
	tl := twoDriverRace(t, 10)
	for _, interval := range []float64{0, 30, 60, 1000} {
		t.Run(fmt.Sprintf("interval_%v", interval), func(t *testing.T) {
			p := NewProjector(tl, WithCheckpointInterval(interval))
			p.AdvanceTo(tl.End())
			p.AdvanceTo(300)

			ref := NewProjector(tl, WithCheckpointInterval(0))
			ref.AdvanceTo(300)
			if diff := cmp.Diff(ref.Snapshot(), p.Snapshot()); diff != "" {
				t.Errorf("checkpointed state differs: %s", diff)
			}
		})
	}
}

func TestAdvanceTo_SeekIsIdempotent(t *testing.T) {
	p := NewProjector(twoDriverRace(t, 5))
	p.AdvanceTo(200)
	first := p.Snapshot()
	p.AdvanceTo(200)
	if diff := cmp.Diff(first, p.Snapshot()); diff != "" {
		t.Errorf("repeated advance to the same time differs: %s", diff)
	}
}

func TestSnapshot_IsDetachedFromProjector(t *testing.T) {
	p := NewProjector(twoDriverRace(t, 2))
	p.AdvanceTo(92)
	snap := p.Snapshot()
	snap.Drivers["A"].Lap = 99
	snap.Leaderboard[0] = "X"

	again := p.Snapshot()
	assert.Equal(t, 1, again.Drivers["A"].Lap)
	assert.Equal(t, "A", again.Leaderboard[0])
}

func TestDefaultOrder(t *testing.T) {
	a := Standing{Driver: "A", Lap: 3, Cumulative: 280}
	b := Standing{Driver: "B", Lap: 3, Cumulative: 281}
	c := Standing{Driver: "C", Lap: 2, Cumulative: 150}
	d := Standing{Driver: "D"}
	e := Standing{Driver: "E"}

	assert.Negative(t, DefaultOrder(a, b))
	assert.Positive(t, DefaultOrder(b, a))
	assert.Negative(t, DefaultOrder(b, c))
	assert.Negative(t, DefaultOrder(c, d))
	// no laps yet: lexical order
	assert.Negative(t, DefaultOrder(d, e))
	assert.Equal(t, 0, DefaultOrder(d, d))
}
