// ColorWriter prints human-friendly, colorized mission events to STDOUT.
package uplink

import (
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"dronecourier/internal/config"
	"dronecourier/internal/mission"
	"dronecourier/internal/telemetry"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

// IsTerminal reports whether STDOUT is attached to a TTY.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ColorWriter prints event rows using ANSI colors.
type ColorWriter struct {
	cfg  *config.Mission
	out  io.Writer
	once sync.Once
}

// NewColorWriter creates a ColorWriter writing to os.Stdout.
func NewColorWriter(cfg *config.Mission) *ColorWriter {
	return &ColorWriter{cfg: cfg, out: os.Stdout}
}

func (w *ColorWriter) printOverview() {
	if w.cfg == nil {
		return
	}

	fmt.Fprintln(w.out, "Mission Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Mission:\t%s\n", w.cfg.Name)
	fmt.Fprintf(tw, "Payload (kg):\t%.1f\n", w.cfg.PayloadKG)
	fmt.Fprintf(tw, "Route:\t%s -> %s (base %s)\n", w.cfg.Route.Origin.Name, w.cfg.Route.Destination.Name, w.cfg.Route.Base.Name)
	fmt.Fprintf(tw, "Preflight Battery Min:\t%.0f%%\n", w.cfg.Thresholds.PreflightBatteryMin)
	fmt.Fprintf(tw, "Battery Return / Critical:\t%.0f%% / %.0f%%\n", w.cfg.Thresholds.LowBattery, w.cfg.Thresholds.CriticalBattery)
	fmt.Fprintf(tw, "Obstacle Avoid / Emergency (m):\t%.0f / %.0f\n", w.cfg.Thresholds.AvoidanceDistanceM, w.cfg.Thresholds.EmergencyDistanceM)
	fmt.Fprintf(tw, "Max Gust (m/s):\t%.1f\n", w.cfg.Thresholds.MaxGustMPS)
	fmt.Fprintf(tw, "Comms Timeout:\t%s\n", w.cfg.Thresholds.CommsTimeout.Std())
	fmt.Fprintf(tw, "Supervisor Tick:\t%s\n", w.cfg.SupervisorTick.Std())
	tw.Flush()
	fmt.Fprintln(w.out)
}

func outcomeColor(outcome string) string {
	switch outcome {
	case mission.OutcomeFailure:
		return colorRed
	case mission.OutcomeDegraded:
		return colorYellow
	case mission.OutcomeForced:
		return colorMagenta
	default:
		return colorGreen
	}
}

// WriteEvent outputs a single event row in colorized format.
func (w *ColorWriter) WriteEvent(row telemetry.EventRow) error {
	w.once.Do(w.printOverview)

	fmt.Fprintf(w.out, "%s[%s]%s ", colorGray, row.Timestamp.Format(time.RFC3339), colorReset)
	fmt.Fprintf(w.out, "%sphase=%s%s ", colorBlue, row.Phase, colorReset)
	fmt.Fprintf(w.out, "%saction=%s%s ", colorCyan, row.Action, colorReset)
	fmt.Fprintf(w.out, "%soutcome=%s%s ", outcomeColor(row.Outcome), row.Outcome, colorReset)
	fmt.Fprintf(w.out, "%sbatt=%.1f%s ", colorYellow, row.Battery, colorReset)
	fmt.Fprintf(w.out, "%spos=(%.5f,%.5f,%.1f)%s", colorGray, row.Lat, row.Lon, row.Alt, colorReset)
	if row.Detail != "" {
		fmt.Fprintf(w.out, " %s%s%s", colorGray, row.Detail, colorReset)
	}
	fmt.Fprintln(w.out)
	return nil
}

// WriteSummary prints the final mission outcome.
func (w *ColorWriter) WriteSummary(row telemetry.SummaryRow) error {
	col := colorGreen
	verdict := "DELIVERED"
	switch {
	case row.Aborted:
		col = colorRed
		verdict = "ABORTED"
	case !row.Delivered:
		col = colorYellow
		verdict = "NOT DELIVERED"
	}
	fmt.Fprintf(w.out, "\n%s=== MISSION %s ===%s final_phase=%s battery_end=%.1f events=%d\n",
		col, verdict, colorReset, row.FinalPhase, row.BatteryEnd, row.Events)
	return nil
}
