//nolint:funlen,lll // ok for tests
package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/raceplay/pkg/model"
)

func lapSample(driver string, lap int, ts, dur, cum float64) model.TimingSample {
	return model.TimingSample{
		Driver: driver, SessionTime: ts, Lap: lap,
		Sector: model.LapSector, Duration: dur, Cumulative: cum,
	}
}

func sectorSample(driver string, lap, sector int, ts, dur float64) model.TimingSample {
	return model.TimingSample{
		Driver: driver, SessionTime: ts, Lap: lap, Sector: sector, Duration: dur,
	}
}

func TestBuild_EmptyInput(t *testing.T) {
	tl, problems, err := NewBuilder().Build([]model.TimingSample{})
	assert.Nil(t, tl)
	assert.Empty(t, problems)
	assert.ErrorIs(t, err, ErrEmptyTimeline)
}

func TestBuild_SamplesWithoutTimestampAreCollected(t *testing.T) {
	samples := []model.TimingSample{
		lapSample("A", 1, 90, 90, 90),
		// neither session time nor cumulative time
		{Driver: "A", Lap: 2, Sector: model.LapSector, Duration: 91},
	}
	tl, problems, err := NewBuilder().Build(samples)
	assert.NoError(t, err)
	assert.Equal(t, 1, tl.Len())
	assert.Len(t, problems, 1)
	assert.Equal(t, "A", problems[0].Driver)
	assert.Equal(t, 2, problems[0].Lap)
}

func TestBuild_CumulativeActsAsTimestampFallback(t *testing.T) {
	samples := []model.TimingSample{
		{Driver: "A", Lap: 1, Sector: model.LapSector, Duration: 90, Cumulative: 90},
	}
	tl, problems, err := NewBuilder().Build(samples)
	assert.NoError(t, err)
	assert.Empty(t, problems)
	assert.Equal(t, 90.0, tl.Start())
	assert.Equal(t, 90.0, tl.Events()[0].Time)
}

func TestBuild_GlobalOrderWithTieBreak(t *testing.T) {
	// a pit stop and a lap completion at the identical session time: the
	// pit stop must come first
	samples := []model.TimingSample{
		lapSample("A", 2, 180, 90, 180),
		{Driver: "A", SessionTime: 180, Lap: 2, PitIn: true},
		lapSample("B", 1, 95, 95, 95),
	}
	tl, problems, err := NewBuilder().Build(samples)
	assert.NoError(t, err)
	assert.Empty(t, problems)

	events := tl.Events()
	assert.Equal(t, 3, tl.Len())
	assert.Equal(t, KindLapCompleted, events[0].Kind)
	assert.Equal(t, "B", events[0].Driver)
	assert.Equal(t, KindPitStop, events[1].Kind)
	assert.Equal(t, KindLapCompleted, events[2].Kind)
}

func TestBuild_UnorderedInputIsSorted(t *testing.T) {
	samples := []model.TimingSample{
		lapSample("A", 3, 270, 90, 270),
		lapSample("A", 1, 90, 90, 90),
		lapSample("A", 2, 180, 90, 180),
	}
	tl, _, err := NewBuilder().Build(samples)
	assert.NoError(t, err)
	laps := []int{}
	for _, ev := range tl.Events() {
		laps = append(laps, ev.Lap)
	}
	assert.Equal(t, []int{1, 2, 3}, laps)
	assert.Equal(t, 90.0, tl.Start())
	assert.Equal(t, 270.0, tl.End())
	assert.Equal(t, 3, tl.TotalLaps())
}

func TestBuild_TyreChangeOnlyOnCompoundSwitch(t *testing.T) {
	samples := []model.TimingSample{
		{Driver: "A", SessionTime: 10, Lap: 1, Compound: "SOFT"},
		{Driver: "A", SessionTime: 100, Lap: 2, Compound: "SOFT"},
		{Driver: "A", SessionTime: 200, Lap: 3, Compound: "MEDIUM"},
	}
	tl, _, err := NewBuilder().Build(samples)
	assert.NoError(t, err)
	assert.Equal(t, 2, tl.Len())
	assert.Equal(t, "SOFT", tl.Events()[0].Compound)
	assert.Equal(t, "MEDIUM", tl.Events()[1].Compound)
}

func TestBuild_PositionChangeOnlyOnDiff(t *testing.T) {
	samples := []model.TimingSample{
		{Driver: "A", SessionTime: 10, Lap: 1, Position: 2},
		{Driver: "A", SessionTime: 100, Lap: 2, Position: 2},
		{Driver: "A", SessionTime: 200, Lap: 3, Position: 1},
	}
	tl, _, err := NewBuilder().Build(samples)
	assert.NoError(t, err)
	assert.Equal(t, 2, tl.Len())
	assert.Equal(t, 2, tl.Events()[0].Position)
	assert.Equal(t, 1, tl.Events()[1].Position)
}

func TestBuild_MissingSectorTimesAreTolerated(t *testing.T) {
	samples := []model.TimingSample{
		sectorSample("A", 1, 1, 30, 30),
		// sector 2 has no recorded duration
		sectorSample("A", 1, 2, 60, 0),
		sectorSample("A", 1, 3, 90, 30),
	}
	tl, problems, err := NewBuilder().Build(samples)
	assert.NoError(t, err)
	assert.Empty(t, problems)
	assert.Equal(t, 2, tl.Len())
}

func TestBuild_MissingCumulativeIsAccumulated(t *testing.T) {
	samples := []model.TimingSample{
		lapSample("A", 1, 90, 90, 0),
		lapSample("A", 2, 181, 91, 0),
	}
	tl, _, err := NewBuilder().Build(samples)
	assert.NoError(t, err)
	assert.Equal(t, 90.0, tl.Events()[0].Cumulative)
	assert.Equal(t, 181.0, tl.Events()[1].Cumulative)
}

func TestBuild_DriverIndex(t *testing.T) {
	samples := []model.TimingSample{
		lapSample("B", 1, 95, 95, 95),
		lapSample("A", 1, 90, 90, 90),
		lapSample("A", 2, 180, 90, 180),
	}
	tl, _, err := NewBuilder().Build(samples)
	assert.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, tl.Drivers())
	assert.Len(t, tl.DriverEvents("A"), 2)
	assert.Len(t, tl.DriverEvents("B"), 1)
	for _, idx := range tl.DriverEvents("A") {
		assert.Equal(t, "A", tl.Events()[idx].Driver)
	}
}
