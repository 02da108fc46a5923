package uplink

import (
	"bytes"
	"strings"
	"testing"

	"dronecourier/internal/config"
	"dronecourier/internal/telemetry"
)

func TestColorWriterOverviewPrintedOnce(t *testing.T) {
	var buf bytes.Buffer
	w := &ColorWriter{cfg: &config.Mission{Name: "test-delivery"}, out: &buf}

	if err := w.WriteEvent(sampleEvent("verify_battery")); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}
	if err := w.WriteEvent(sampleEvent("sensor_health_check")); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}

	out := buf.String()
	if got := strings.Count(out, "Mission Configuration:"); got != 1 {
		t.Fatalf("overview printed %d times, want 1", got)
	}
	if !strings.Contains(out, "action=verify_battery") || !strings.Contains(out, "action=sensor_health_check") {
		t.Fatalf("missing event lines:\n%s", out)
	}
}

func TestColorWriterSummaryVerdicts(t *testing.T) {
	cases := []struct {
		row  telemetry.SummaryRow
		want string
	}{
		{telemetry.SummaryRow{Delivered: true}, "DELIVERED"},
		{telemetry.SummaryRow{Aborted: true}, "ABORTED"},
		{telemetry.SummaryRow{}, "NOT DELIVERED"},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		w := &ColorWriter{out: &buf}
		if err := w.WriteSummary(tc.row); err != nil {
			t.Fatalf("WriteSummary: %v", err)
		}
		if !strings.Contains(buf.String(), tc.want) {
			t.Errorf("summary missing %q:\n%s", tc.want, buf.String())
		}
	}
}
