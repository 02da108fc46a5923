package uplink

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"dronecourier/internal/telemetry"
)

// greptimeClient abstracts the ingester client for testing.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeWriter writes mission telemetry to GreptimeDB via the ingester
// client.
type GreptimeWriter struct {
	client       greptimeClient
	eventTable   string
	summaryTable string
}

// NewGreptimeWriter creates a GreptimeDB writer for the given endpoint
// ("host" or "host:port"). Empty table names fall back to the defaults from
// the telemetry package.
func NewGreptimeWriter(endpoint, database, eventTable, summaryTable string) (*GreptimeWriter, error) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		host, portStr = endpoint, ""
	}
	cfg := greptime.NewConfig(host).WithDatabase(database)
	if portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
		}
		cfg = cfg.WithPort(port)
	}
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	if eventTable == "" {
		eventTable = telemetry.EventTableName
	}
	if summaryTable == "" {
		summaryTable = telemetry.SummaryTableName
	}
	return &GreptimeWriter{client: client, eventTable: eventTable, summaryTable: summaryTable}, nil
}

// WriteEvent inserts a single event row.
func (w *GreptimeWriter) WriteEvent(row telemetry.EventRow) error {
	return w.WriteEvents([]telemetry.EventRow{row})
}

// WriteEvents inserts multiple event rows.
func (w *GreptimeWriter) WriteEvents(rows []telemetry.EventRow) error {
	if len(rows) == 0 {
		return nil
	}

	tbl, err := table.New(w.eventTable)
	if err != nil {
		return err
	}
	if err := errors.Join(
		tbl.AddTagColumn("mission_id", types.STRING),
		tbl.AddTagColumn("phase", types.STRING),
		tbl.AddFieldColumn("action", types.STRING),
		tbl.AddFieldColumn("outcome", types.STRING),
		tbl.AddFieldColumn("detail", types.STRING),
		tbl.AddFieldColumn("battery", types.FLOAT64),
		tbl.AddFieldColumn("lat", types.FLOAT64),
		tbl.AddFieldColumn("lon", types.FLOAT64),
		tbl.AddFieldColumn("alt", types.FLOAT64),
		tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND),
	); err != nil {
		return err
	}

	for _, r := range rows {
		if err := tbl.AddRow(r.MissionID, r.Phase, r.Action, r.Outcome, r.Detail,
			r.Battery, r.Lat, r.Lon, r.Alt, r.Timestamp); err != nil {
			return err
		}
	}

	_, err = w.client.Write(context.Background(), tbl)
	return err
}

// WriteSummary inserts the final mission summary row.
func (w *GreptimeWriter) WriteSummary(row telemetry.SummaryRow) error {
	tbl, err := table.New(w.summaryTable)
	if err != nil {
		return err
	}
	if err := errors.Join(
		tbl.AddTagColumn("mission_id", types.STRING),
		tbl.AddFieldColumn("final_phase", types.STRING),
		tbl.AddFieldColumn("delivered", types.BOOLEAN),
		tbl.AddFieldColumn("aborted", types.BOOLEAN),
		tbl.AddFieldColumn("battery_end", types.FLOAT64),
		tbl.AddFieldColumn("events", types.INT64),
		tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND),
	); err != nil {
		return err
	}
	if err := tbl.AddRow(row.MissionID, row.FinalPhase, row.Delivered, row.Aborted,
		row.BatteryEnd, int64(row.Events), row.Timestamp); err != nil {
		return err
	}

	_, err = w.client.Write(context.Background(), tbl)
	return err
}
