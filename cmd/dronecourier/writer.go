package main

import (
	"os"

	"dronecourier/internal/config"
	"dronecourier/internal/uplink"
)

// newWriters sets up mission event writers based on flags and env vars.
// It returns the writer and a cleanup function to close any resources.
func newWriters(cfg *config.Mission, printOnly, tui bool, logFile string) (uplink.EventWriter, func(), error) {
	cleanup := func() {}

	writer, err := baseWriter(cfg, printOnly, tui)
	if err != nil {
		return nil, nil, err
	}
	if tw, ok := writer.(*uplink.TUIWriter); ok {
		cleanup = tw.Close
	}
	if logFile == "" {
		return writer, cleanup, nil
	}

	fw, err := uplink.NewFileWriter(logFile, logFile+".summary")
	if err != nil {
		return nil, nil, err
	}
	inner := cleanup
	cleanup = func() {
		inner()
		fw.Close()
	}
	return uplink.NewMultiWriter(writer, fw), cleanup, nil
}

// baseWriter chooses the underlying writer based on flags and env vars.
func baseWriter(cfg *config.Mission, printOnly, tui bool) (uplink.EventWriter, error) {
	if tui {
		return uplink.NewTUIWriter(cfg), nil
	}
	if printOnly || os.Getenv("GREPTIMEDB_ENDPOINT") == "" {
		if uplink.IsTerminal() {
			return uplink.NewColorWriter(cfg), nil
		}
		return &uplink.StdoutWriter{}, nil
	}

	endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
	eventTable := os.Getenv("GREPTIMEDB_TABLE")
	summaryTable := os.Getenv("MISSION_SUMMARY_TABLE")
	return uplink.NewGreptimeWriter(endpoint, "public", eventTable, summaryTable)
}
