// Post-mission review: the operations control center ingests the mission log
// and produces a KPI report. The core has no dependency on its output.
package critic

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"dronecourier/internal/mission"
)

// Report summarizes one completed mission for the operations reviewer.
type Report struct {
	MissionID       string   `json:"mission_id"`
	FinalPhase      string   `json:"final_phase"`
	Delivered       bool     `json:"delivered"`
	Aborted         bool     `json:"aborted"`
	PhasesCompleted int      `json:"phases_completed"`
	Retries         int      `json:"retries"`
	Degraded        int      `json:"degraded"`
	BatteryEnd      float64  `json:"battery_end"`
	Incidents       []string `json:"incidents,omitempty"`
	KPIOK           bool     `json:"kpi_ok"`
}

// Review evaluates a mission log export against the final state snapshot.
func Review(records []mission.LogRecord, snap mission.Snapshot) Report {
	r := Report{
		MissionID:  snap.MissionID,
		FinalPhase: string(snap.Phase),
		BatteryEnd: snap.Battery,
		Aborted:    snap.Phase == mission.PhaseAborted,
	}

	failures := map[string]int{}
	for _, rec := range records {
		switch rec.Outcome {
		case mission.OutcomeSuccess:
			if rec.Action == "phase_complete" {
				r.PhasesCompleted++
			}
			if failures[rec.Action] > 0 {
				r.Retries++
			}
		case mission.OutcomeFailure:
			failures[rec.Action]++
		case mission.OutcomeDegraded:
			r.Degraded++
		case mission.OutcomeForced:
			r.Incidents = append(r.Incidents, fmt.Sprintf("%s/%s: %s", rec.Phase, rec.Action, rec.Detail))
		}
		if rec.Action == mission.ActionServoRelease && rec.Outcome == mission.OutcomeSuccess {
			r.Delivered = true
		}
	}

	r.KPIOK = r.Delivered && !r.Aborted && len(r.Incidents) == 0
	return r
}

// String renders the report for the operations log.
func (r Report) String() string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "mission:\t%s\n", r.MissionID)
	fmt.Fprintf(tw, "final phase:\t%s\n", r.FinalPhase)
	fmt.Fprintf(tw, "delivered:\t%v\n", r.Delivered)
	fmt.Fprintf(tw, "phases completed:\t%d\n", r.PhasesCompleted)
	fmt.Fprintf(tw, "retries/degraded:\t%d/%d\n", r.Retries, r.Degraded)
	fmt.Fprintf(tw, "battery end:\t%.0f%%\n", r.BatteryEnd)
	fmt.Fprintf(tw, "kpi ok:\t%v\n", r.KPIOK)
	for _, inc := range r.Incidents {
		fmt.Fprintf(tw, "incident:\t%s\n", inc)
	}
	tw.Flush()
	return b.String()
}
