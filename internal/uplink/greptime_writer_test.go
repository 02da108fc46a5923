package uplink

import (
	"context"
	"testing"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"

	"dronecourier/internal/telemetry"
)

type mockGreptimeClient struct {
	table *table.Table
}

func (m *mockGreptimeClient) Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error) {
	if len(tables) > 0 {
		m.table = tables[0]
	}
	return &gpb.GreptimeResponse{}, nil
}

func TestGreptimeWriterEvents(t *testing.T) {
	ts := time.Unix(0, 0).UTC()
	rows := []telemetry.EventRow{
		{
			MissionID: "m-1",
			Phase:     "enroute_nav",
			Action:    "navigate_leg",
			Outcome:   "success",
			Detail:    "covered_m=2900",
			Battery:   88,
			Lat:       48.22,
			Lon:       16.40,
			Alt:       80,
			Timestamp: ts,
		},
	}

	m := &mockGreptimeClient{}
	w := &GreptimeWriter{client: m, eventTable: "mission_events"}

	if err := w.WriteEvents(rows); err != nil {
		t.Fatalf("WriteEvents: %v", err)
	}
	if m.table == nil {
		t.Fatalf("expected table to be captured")
	}

	schema := m.table.GetRows().Schema
	if len(schema) != 10 {
		t.Fatalf("unexpected schema length: %d", len(schema))
	}
	if schema[0].SemanticType != gpb.SemanticType_TAG || schema[1].SemanticType != gpb.SemanticType_TAG {
		t.Fatalf("mission_id and phase must be tags: %v/%v", schema[0].SemanticType, schema[1].SemanticType)
	}

	values := m.table.GetRows().Rows[0].Values
	if got := values[0].GetStringValue(); got != "m-1" {
		t.Fatalf("mission_id = %s, want m-1", got)
	}
	if got := values[2].GetStringValue(); got != "navigate_leg" {
		t.Fatalf("action = %s, want navigate_leg", got)
	}
	if got := values[5].GetF64Value(); got != 88 {
		t.Fatalf("battery = %v, want 88", got)
	}
}

func TestGreptimeWriterEmptyBatch(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeWriter{client: m, eventTable: "mission_events"}
	if err := w.WriteEvents(nil); err != nil {
		t.Fatalf("WriteEvents(nil): %v", err)
	}
	if m.table != nil {
		t.Fatal("empty batch must not reach the client")
	}
}

func TestGreptimeWriterSummary(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeWriter{client: m, summaryTable: "mission_summary"}

	row := telemetry.SummaryRow{
		MissionID:  "m-1",
		FinalPhase: "charging",
		Delivered:  true,
		BatteryEnd: 100,
		Events:     42,
		Timestamp:  time.Unix(0, 0).UTC(),
	}
	if err := w.WriteSummary(row); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}
	if m.table == nil {
		t.Fatalf("expected table to be captured")
	}

	values := m.table.GetRows().Rows[0].Values
	if got := values[1].GetStringValue(); got != "charging" {
		t.Fatalf("final_phase = %s, want charging", got)
	}
	if !values[2].GetBoolValue() {
		t.Fatal("delivered flag lost")
	}
	if got := values[5].GetI64Value(); got != 42 {
		t.Fatalf("events = %v, want 42", got)
	}
}
