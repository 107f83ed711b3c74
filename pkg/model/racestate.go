package model

// NumSectors is fixed for the supported timing data
const NumSectors = 3

// DriverStatus describes how a driver participates at the current
// session time
type DriverStatus string

const (
	StatusGrid     DriverStatus = "GRID"
	StatusOnTrack  DriverStatus = "RUN"
	StatusInPit    DriverStatus = "PIT"
	StatusRetired  DriverStatus = "OUT"
	StatusFinished DriverStatus = "FIN"
)

// DriverState holds the projected state of a single driver
type DriverState struct {
	Driver   string       `json:"driver"`
	Position int          `json:"position"` // 1-based leaderboard position
	Status   DriverStatus `json:"status"`
	Lap      int          `json:"lap"` // last completed lap

	LastLapTime float64 `json:"lastLapTime"` // 0: none yet
	// Sectors holds the sector times recorded on the lap in progress,
	// PrevSectors those of the lap before. 0 means: not recorded.
	Sectors     [NumSectors]float64 `json:"sectors"`
	PrevSectors [NumSectors]float64 `json:"prevSectors"`
	BestSectors [NumSectors]float64 `json:"bestSectors"` // personal bests

	GapToLeader float64 `json:"gapToLeader"`
	GapAhead    float64 `json:"gapAhead"`

	Compound string `json:"compound"`
	TyreAge  int    `json:"tyreAge"` // laps since last tyre change
	PitStops int    `json:"pitStops"`
	InPit    bool   `json:"inPit"`

	// Cumulative is the accumulated race time at the last completed lap
	Cumulative float64 `json:"cumulative"`
	// LastEventTime is the session time of the last event applied for
	// this driver
	LastEventTime float64 `json:"lastEventTime"`
}

// RaceState is the snapshot handed to subscribers. It is a pure function
// of (timeline, session time) and must never be mutated by consumers.
type RaceState struct {
	SessionTime float64 `json:"sessionTime"`
	LeaderLap   int     `json:"leaderLap"`
	// Leaderboard holds the driver ids in race order
	Leaderboard []string                `json:"leaderboard"`
	Drivers     map[string]*DriverState `json:"drivers"`
	// BestSectors holds the overall session bests (0: none yet)
	BestSectors [NumSectors]float64 `json:"bestSectors"`
}

func (d *DriverState) Clone() *DriverState {
	ret := *d
	return &ret
}

// Clone returns a deep copy. The projector hands out clones only, so
// subscribers never observe in-place mutation.
func (r *RaceState) Clone() *RaceState {
	ret := &RaceState{
		SessionTime: r.SessionTime,
		LeaderLap:   r.LeaderLap,
		BestSectors: r.BestSectors,
		Leaderboard: make([]string, len(r.Leaderboard)),
		Drivers:     make(map[string]*DriverState, len(r.Drivers)),
	}
	copy(ret.Leaderboard, r.Leaderboard)
	for k, v := range r.Drivers {
		ret.Drivers[k] = v.Clone()
	}
	return ret
}

// Leader returns the driver state of the current leader (nil on empty state)
func (r *RaceState) Leader() *DriverState {
	if len(r.Leaderboard) == 0 {
		return nil
	}
	return r.Drivers[r.Leaderboard[0]]
}
