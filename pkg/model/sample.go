package model

// LapSector is the sector index marking a lap aggregate sample
const LapSector = 0

// TimingSample is one measurement for one driver as delivered by the
// data acquisition layer. Samples are immutable once produced.
type TimingSample struct {
	Driver string `json:"driver"`
	// SessionTime is the race intrinsic time of the measurement in seconds.
	// Values <= 0 mean: not recorded.
	SessionTime float64 `json:"sessionTime"`
	Lap         int     `json:"lap"`
	// Sector is the sector index of the measurement, LapSector (0) marks
	// the lap aggregate
	Sector int `json:"sector"`
	// Duration is the sector time, or the lap time for a lap aggregate
	Duration float64 `json:"duration"`
	// Cumulative is the accumulated race time of the driver at this
	// measurement. Values <= 0 mean: not recorded.
	Cumulative float64 `json:"cumulative"`
	Compound   string  `json:"compound,omitempty"`
	PitIn      bool    `json:"pitIn,omitempty"`
	PitOut     bool    `json:"pitOut,omitempty"`
	// Position is the track position if the source provides explicit
	// position data (0: unknown)
	Position int `json:"position,omitempty"`
}
