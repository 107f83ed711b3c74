package timeline

// Kind discriminates the event variants. The projector handles every
// kind exhaustively, adding a kind is a compile time checked change.
type Kind uint8

const (
	KindPitStop Kind = iota
	KindTyreChange
	KindSectorRecorded
	KindLapCompleted
	KindPositionChange
)

func (k Kind) String() string {
	switch k {
	case KindPitStop:
		return "PitStop"
	case KindTyreChange:
		return "TyreChange"
	case KindSectorRecorded:
		return "SectorRecorded"
	case KindLapCompleted:
		return "LapCompleted"
	case KindPositionChange:
		return "PositionChange"
	}
	return "Unknown"
}

// applyRank orders events sharing a timestamp: a pit stop and its tyre
// change logically precede the lap time and position consequences they
// cause. Remaining ties keep input order (stable sort).
func (k Kind) applyRank() int {
	return int(k)
}

// Event is one atomic race occurrence on the timeline
type Event struct {
	Kind   Kind
	Driver string
	// Time is the session time in seconds
	Time float64
	Lap  int

	// Sector and Duration are set for SectorRecorded; Duration carries the
	// lap time for LapCompleted
	Sector   int
	Duration float64
	// Cumulative is the accumulated race time at a completed lap
	Cumulative float64
	// Compound is set for TyreChange
	Compound string
	// Entering is set for PitStop: true on pit-in, false on pit-out
	Entering bool
	// Position is set for PositionChange (1-based)
	Position int
}

// Timeline is the immutable, globally ordered event sequence of one
// session plus a per-driver index.
type Timeline struct {
	events    []Event
	byDriver  map[string][]int
	drivers   []string
	start     float64
	end       float64
	totalLaps int
}

// Events returns the ordered event sequence. Callers must treat the
// returned slice as read-only.
func (t *Timeline) Events() []Event { return t.events }

func (t *Timeline) Len() int { return len(t.events) }

// Start returns the session time of the first event
func (t *Timeline) Start() float64 { return t.start }

// End returns the session time of the last event
func (t *Timeline) End() float64 { return t.end }

// TotalLaps returns the highest lap number seen on any event
func (t *Timeline) TotalLaps() int { return t.totalLaps }

// Drivers returns all driver ids in lexical order
func (t *Timeline) Drivers() []string { return t.drivers }

// DriverEvents returns the indices into Events belonging to the given
// driver, in timeline order.
func (t *Timeline) DriverEvents(driver string) []int { return t.byDriver[driver] }
