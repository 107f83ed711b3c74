package render

import (
	"fmt"
	"math"
)

// FormatLapTime renders seconds as m:ss.mmm ("" when not available)
func FormatLapTime(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	m := int(seconds) / 60
	s := seconds - float64(m*60)
	return fmt.Sprintf("%d:%06.3f", m, s)
}

// FormatSectorTime renders seconds as ss.mmm ("" when not available)
func FormatSectorTime(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	return fmt.Sprintf("%.3f", seconds)
}

// FormatGap renders a gap column value ("+1.500"); the leader shows
// no gap
func FormatGap(seconds float64, leader bool) string {
	if leader {
		return "---"
	}
	if seconds <= 0 {
		return ""
	}
	return fmt.Sprintf("+%.3f", seconds)
}

// FormatSessionTime renders session seconds as h:mm:ss
func FormatSessionTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
