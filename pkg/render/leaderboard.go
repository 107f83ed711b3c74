package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/mpapenbr/raceplay/pkg/model"
)

const (
	escHome       = "\033[H"
	escClearLine  = "\033[K"
	escClearBelow = "\033[J"
	escHideCursor = "\033[?25l"
	escShowCursor = "\033[?25h"

	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	blue   = "\033[34m"
	purple = "\033[35m"
	cyan   = "\033[36m"
	white  = "\033[37m"
)

//nolint:gochecknoglobals // static lookup table
var compoundColors = map[string]string{
	"SOFT":         red,
	"MEDIUM":       yellow,
	"HARD":         white,
	"INTERMEDIATE": green,
	"WET":          blue,
}

// PlaybackInfo carries the clock attributes shown in the header
type PlaybackInfo struct {
	Paused bool
	Speed  float64
	Ended  bool
}

// Renderer draws the live leaderboard with ANSI escapes. It redraws in
// place (cursor home plus clear-to-end per line) to avoid flicker.
type Renderer struct {
	out  io.Writer
	info model.SessionInfo
	// prevPos remembers the last rendered positions for the gain/loss marker
	prevPos map[string]int
}

func NewRenderer(out io.Writer, info model.SessionInfo) *Renderer {
	return &Renderer{out: out, info: info, prevPos: make(map[string]int)}
}

// Init prepares the terminal. Callers must pair it with Restore.
func (r *Renderer) Init() {
	fmt.Fprint(r.out, escHideCursor+"\033[2J")
}

func (r *Renderer) Restore() {
	fmt.Fprint(r.out, escShowCursor+reset+"\r\n")
}

func (r *Renderer) Render(snap *model.RaceState, pb PlaybackInfo) {
	var b strings.Builder
	b.WriteString(escHome)
	r.writeHeader(&b, snap, pb)
	r.writeProgress(&b, snap)
	r.writeColumns(&b)
	for i, driver := range snap.Leaderboard {
		r.writeRow(&b, snap, snap.Drivers[driver], i == 0)
	}
	r.writeFooter(&b)
	b.WriteString(escClearBelow)
	fmt.Fprint(r.out, b.String())
}

func (r *Renderer) writeHeader(b *strings.Builder, snap *model.RaceState, pb PlaybackInfo) {
	state := fmt.Sprintf("%.0fx", pb.Speed)
	switch {
	case pb.Ended:
		state = red + "FINISHED" + reset
	case pb.Paused:
		state = yellow + "PAUSED" + reset
	}
	fmt.Fprintf(b, "%s%s %d - %s%s  Lap %d/%d  %s  [%s]%s\r\n",
		bold, r.info.Series, r.info.Year, r.info.Name, reset,
		snap.LeaderLap, r.info.TotalLaps,
		FormatSessionTime(snap.SessionTime), state, escClearLine)
}

func (r *Renderer) writeProgress(b *strings.Builder, snap *model.RaceState) {
	const width = 40
	filled := 0
	if r.info.TotalLaps > 0 {
		filled = snap.LeaderLap * width / r.info.TotalLaps
		if filled > width {
			filled = width
		}
	}
	fmt.Fprintf(b, "%s[%s%s]%s%s\r\n", dim,
		strings.Repeat("#", filled), strings.Repeat("-", width-filled),
		reset, escClearLine)
}

func (r *Renderer) writeColumns(b *strings.Builder) {
	fmt.Fprintf(b, "%s%3s %s %-14s %-4s %4s %-6s %9s %9s %7s %7s %7s %9s%s%s\r\n",
		bold, "POS", " ", "DRIVER", "ST", "PIT", "TYRE",
		"INT", "GAP", "S1", "S2", "S3", "LAST", reset, escClearLine)
}

//nolint:funlen // one line per column keeps the layout readable
func (r *Renderer) writeRow(
	b *strings.Builder, snap *model.RaceState, ds *model.DriverState, leader bool,
) {
	tyre := "-"
	if ds.Compound != "" {
		color := compoundColors[strings.ToUpper(ds.Compound)]
		tyre = fmt.Sprintf("%s%s%d%s", color, ds.Compound[:1], ds.TyreAge, reset)
		// the escape codes are invisible, pad manually
		tyre += strings.Repeat(" ", max(0, 6-len(ds.Compound[:1])-numDigits(ds.TyreAge)))
	} else {
		tyre += strings.Repeat(" ", 5)
	}
	fmt.Fprintf(b, "%3d %s %-14s %s %4d %s %9s %9s %s %s %s %9s%s\r\n",
		ds.Position,
		r.trendCell(ds),
		ds.Driver,
		statusCell(ds.Status),
		ds.PitStops,
		tyre,
		FormatGap(ds.GapAhead, leader),
		FormatGap(ds.GapToLeader, leader),
		r.sectorCell(snap, ds, 0),
		r.sectorCell(snap, ds, 1),
		r.sectorCell(snap, ds, 2),
		FormatLapTime(ds.LastLapTime),
		escClearLine)
}

// trendCell marks whether the driver gained or lost places since the
// previous frame
func (r *Renderer) trendCell(ds *model.DriverState) string {
	prev, ok := r.prevPos[ds.Driver]
	r.prevPos[ds.Driver] = ds.Position
	switch {
	case !ok || prev == ds.Position:
		return " "
	case ds.Position < prev:
		return green + "^" + reset
	default:
		return red + "v" + reset
	}
}

// sectorCell shows the sector of the lap in progress, falling back to
// the previous lap (dimmed) once the new lap has not reached it yet.
// Session best is purple, personal best green.
func (r *Renderer) sectorCell(snap *model.RaceState, ds *model.DriverState, i int) string {
	val := ds.Sectors[i]
	style := ""
	if val <= 0 {
		val = ds.PrevSectors[i]
		style = dim
	}
	if val <= 0 {
		return fmt.Sprintf("%7s", "")
	}
	switch {
	case snap.BestSectors[i] > 0 && val <= snap.BestSectors[i]:
		style = purple
	case ds.BestSectors[i] > 0 && val <= ds.BestSectors[i]:
		style = green
	}
	return fmt.Sprintf("%s%7s%s", style, FormatSectorTime(val), reset)
}

func statusCell(status model.DriverStatus) string {
	color := white
	switch status {
	case model.StatusInPit:
		color = cyan
	case model.StatusRetired:
		color = red
	case model.StatusFinished:
		color = green
	case model.StatusGrid:
		color = dim
	case model.StatusOnTrack:
	}
	// status codes are 3 or 4 chars, pad to the wider one
	return fmt.Sprintf("%s%-4s%s", color, status, reset)
}

func (r *Renderer) writeFooter(b *strings.Builder) {
	fmt.Fprintf(b, "%s[space] pause  [f/r] speed  [1] 1x  [←/→] seek 10s  [q] quit%s%s\r\n",
		dim, reset, escClearLine)
}

func numDigits(n int) int {
	if n < 10 {
		return 1
	}
	if n < 100 {
		return 2
	}
	return 3
}
