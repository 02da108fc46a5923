// Mission telemetry structs with greptime tags
package telemetry

import (
	"os"
	"time"
)

// EventRow represents one mission log event for GreptimeDB.
type EventRow struct {
	MissionID string    `json:"mission_id"` // TAG
	Phase     string    `json:"phase"`      // TAG
	Action    string    `json:"action"`     // FIELD
	Outcome   string    `json:"outcome"`    // FIELD
	Detail    string    `json:"detail"`     // FIELD
	Battery   float64   `json:"battery"`    // FIELD
	Lat       float64   `json:"lat"`        // FIELD
	Lon       float64   `json:"lon"`        // FIELD
	Alt       float64   `json:"alt"`        // FIELD
	Timestamp time.Time `json:"ts"`         // TIME INDEX
}

// SummaryRow captures the final mission outcome for GreptimeDB.
type SummaryRow struct {
	MissionID  string    `json:"mission_id"` // TAG
	FinalPhase string    `json:"final_phase"`
	Delivered  bool      `json:"delivered"`
	Aborted    bool      `json:"aborted"`
	BatteryEnd float64   `json:"battery_end"`
	Events     int       `json:"events"`
	Timestamp  time.Time `json:"ts"` // TIME INDEX
}

// EventTableName holds the table name used when writing events to GreptimeDB.
// It defaults to "mission_events" but can be overridden via the
// GREPTIMEDB_TABLE environment variable.
var EventTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_TABLE"); env != "" {
		return env
	}
	return "mission_events"
}()

func (EventRow) TableName() string {
	return EventTableName
}

// SummaryTableName holds the table used for mission summaries, overridable
// via MISSION_SUMMARY_TABLE.
var SummaryTableName = func() string {
	if env := os.Getenv("MISSION_SUMMARY_TABLE"); env != "" {
		return env
	}
	return "mission_summary"
}()

func (SummaryRow) TableName() string {
	return SummaryTableName
}
