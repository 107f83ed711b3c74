package model

import "time"

// SessionInfo describes an imported race session
type SessionInfo struct {
	Key       string    `json:"key"` // unique, derived from year+name by the importer
	Name      string    `json:"name"`
	Year      int       `json:"year"`
	Series    string    `json:"series,omitempty"`
	TotalLaps int       `json:"totalLaps"`
	Imported  time.Time `json:"imported"`
}

// SessionData is the on-disk content of one session cache file
type SessionData struct {
	Info SessionInfo `json:"info"`
	// Grid holds the driver ids in starting grid order (optional)
	Grid    []string       `json:"grid,omitempty"`
	Samples []TimingSample `json:"samples"`
}
