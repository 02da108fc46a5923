package uplink

import (
	"encoding/json"
	"os"

	"dronecourier/internal/telemetry"
)

// FileWriter writes mission events and the summary to JSONL files.
type FileWriter struct {
	eventFile   *os.File
	summaryFile *os.File
	eventEnc    *json.Encoder
	summaryEnc  *json.Encoder
}

// NewFileWriter creates a FileWriter. summaryPath may be empty to skip the
// summary log.
func NewFileWriter(eventPath, summaryPath string) (*FileWriter, error) {
	ef, err := os.Create(eventPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{eventFile: ef, eventEnc: json.NewEncoder(ef)}
	if summaryPath != "" {
		sf, err := os.Create(summaryPath)
		if err != nil {
			ef.Close()
			return nil, err
		}
		fw.summaryFile = sf
		fw.summaryEnc = json.NewEncoder(sf)
	}
	return fw, nil
}

// WriteEvent logs a single event row.
func (f *FileWriter) WriteEvent(row telemetry.EventRow) error {
	return f.eventEnc.Encode(row)
}

// WriteEvents logs multiple event rows.
func (f *FileWriter) WriteEvents(rows []telemetry.EventRow) error {
	for _, r := range rows {
		if err := f.WriteEvent(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteSummary logs the mission summary if a summary file was configured.
func (f *FileWriter) WriteSummary(row telemetry.SummaryRow) error {
	if f.summaryEnc == nil {
		return nil
	}
	return f.summaryEnc.Encode(row)
}

// Close flushes and closes the underlying files.
func (f *FileWriter) Close() error {
	err := f.eventFile.Close()
	if f.summaryFile != nil {
		if cerr := f.summaryFile.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
