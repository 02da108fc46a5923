// Writer implementation printing mission events to STDOUT
package uplink

import (
	"encoding/json"
	"fmt"

	"dronecourier/internal/telemetry"
)

// StdoutWriter prints event rows to STDOUT as JSON lines.
type StdoutWriter struct{}

// WriteEvent outputs a single event row.
func (w *StdoutWriter) WriteEvent(row telemetry.EventRow) error {
	data, _ := json.Marshal(row)
	fmt.Println(string(data))
	return nil
}

// WriteEvents outputs multiple event rows.
func (w *StdoutWriter) WriteEvents(rows []telemetry.EventRow) error {
	for _, r := range rows {
		_ = w.WriteEvent(r)
	}
	return nil
}

// WriteSummary prints the mission summary.
func (w *StdoutWriter) WriteSummary(row telemetry.SummaryRow) error {
	data, _ := json.Marshal(row)
	fmt.Println(string(data))
	return nil
}
