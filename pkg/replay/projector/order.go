package projector

// Standing is the per-driver input to the leaderboard ordering policy
type Standing struct {
	Driver string
	// Lap is the last completed lap
	Lap int
	// Cumulative is the accumulated race time at that lap (0: no lap yet)
	Cumulative float64
	// GridPos is the starting grid slot (0: unknown)
	GridPos int
	// LastEventTime is the session time of the driver's latest event
	LastEventTime float64
}

// OrderPolicy compares two standings, negative means a ranks ahead of b.
// The policy is only consulted for drivers without an explicit position
// from the source data. Standings are collected in a fixed driver order,
// so a comparator that treats two drivers as equal still yields a
// deterministic leaderboard (stable sort).
type OrderPolicy func(a, b Standing) int

// DefaultOrder ranks by completed laps first, then by ascending
// cumulative race time at the driver's own last completed lap. Drivers
// without a completed lap keep their starting grid order, falling back
// to lexical order when no grid is known. The "lapped but ahead on the
// road" edge case is not inferred here: sources that care emit explicit
// position changes, which bypass this policy.
func DefaultOrder(a, b Standing) int {
	if a.Lap != b.Lap {
		return b.Lap - a.Lap
	}
	if a.Lap > 0 && a.Cumulative != b.Cumulative {
		if a.Cumulative < b.Cumulative {
			return -1
		}
		return 1
	}
	if a.GridPos != b.GridPos {
		switch {
		case a.GridPos == 0:
			return 1
		case b.GridPos == 0:
			return -1
		default:
			return a.GridPos - b.GridPos
		}
	}
	switch {
	case a.Driver < b.Driver:
		return -1
	case a.Driver > b.Driver:
		return 1
	default:
		return 0
	}
}
