// Telemetry uplink writers for mission events.
//
// Writers mirror the external telemetry contract: the controller streams
// events as they happen and hands over the full log and a summary at mission
// end. Implementations may optionally support batch mode.
package uplink

import "dronecourier/internal/telemetry"

// EventWriter is an interface to support different output writers.
type EventWriter interface {
	WriteEvent(telemetry.EventRow) error
}

// Optional: writers can also support batch mode.
type batchEventWriter interface {
	WriteEvents([]telemetry.EventRow) error
}

// SummaryWriter receives the final mission summary.
type SummaryWriter interface {
	WriteSummary(telemetry.SummaryRow) error
}

// MultiWriter fans out events and summaries to multiple writers.
type MultiWriter struct {
	writers []EventWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(writers ...EventWriter) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteEvent sends an event row to all writers.
func (mw *MultiWriter) WriteEvent(row telemetry.EventRow) error {
	for _, w := range mw.writers {
		if err := w.WriteEvent(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteEvents sends multiple event rows to all writers, using batch if supported.
func (mw *MultiWriter) WriteEvents(rows []telemetry.EventRow) error {
	for _, w := range mw.writers {
		if bw, ok := w.(batchEventWriter); ok {
			if err := bw.WriteEvents(rows); err != nil {
				return err
			}
			continue
		}
		for _, r := range rows {
			if err := w.WriteEvent(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteSummary sends the summary to every writer that accepts one.
func (mw *MultiWriter) WriteSummary(row telemetry.SummaryRow) error {
	for _, w := range mw.writers {
		if sw, ok := w.(SummaryWriter); ok {
			if err := sw.WriteSummary(row); err != nil {
				return err
			}
		}
	}
	return nil
}
