package mission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dronecourier/internal/config"
	"dronecourier/internal/gateway"
	"dronecourier/internal/logging"
	"dronecourier/internal/telemetry"
)

// EventWriter receives mission log events as they happen.
type EventWriter interface {
	WriteEvent(telemetry.EventRow) error
}

// Optional: writers can also support batch mode.
type batchEventWriter interface {
	WriteEvents([]telemetry.EventRow) error
}

// Optional: writers may accept the final mission summary.
type summaryWriter interface {
	WriteSummary(telemetry.SummaryRow) error
}

// Controller executes the mission phase machine. It is the only component
// that advances the phase, appends to the mission log, and consumes pending
// directives posted by the failsafe supervisor.
type Controller struct {
	cfg       *config.Mission
	state     *State
	sensors   gateway.SensorGateway
	actuators gateway.ActuatorGateway
	writer    EventWriter
	plan      map[Phase]PhaseSpec

	controlTick time.Duration
	gwTimeout   time.Duration

	forcedReturn bool
	summaryDone  bool

	now func() time.Time
}

// NewController wires a controller for one mission. writer may be nil when no
// telemetry uplink is attached.
func NewController(cfg *config.Mission, state *State, sensors gateway.SensorGateway, actuators gateway.ActuatorGateway, writer EventWriter) *Controller {
	return &Controller{
		cfg:         cfg,
		state:       state,
		sensors:     sensors,
		actuators:   actuators,
		writer:      writer,
		plan:        Plan(),
		controlTick: cfg.ControlTick.Std(),
		gwTimeout:   cfg.GatewayTimeout.Std(),
		now:         time.Now,
	}
}

// Run drives the mission to a terminal phase and returns it. The mission log
// export happens regardless of outcome.
func (c *Controller) Run(ctx context.Context) (Phase, error) {
	log := logging.FromContext(ctx)
	log.Info("mission starting", "phase", c.state.Phase(), "battery", c.state.Battery())
	defer c.finalize(ctx)

	for {
		if err := ctx.Err(); err != nil {
			return c.state.Phase(), err
		}
		phase := c.state.Phase()
		if phase == PhaseAborted {
			log.Warn("mission aborted")
			return phase, nil
		}
		ps, ok := c.plan[phase]
		if !ok {
			return phase, fmt.Errorf("no plan for phase %s", phase)
		}
		if c.handleDirective(ctx, ps) {
			continue
		}
		if done := c.runPhase(ctx, ps); done {
			continue
		}
		// All actions completed; one completion record per phase.
		c.record(ctx, phase, "phase_complete", OutcomeSuccess, "")
		if phase == PhaseCharging {
			log.Info("mission complete", "battery", c.state.Battery())
			return phase, nil
		}
		c.state.SetPhase(phase.Next())
		log.Info("phase transition", "from", phase, "to", c.state.Phase())
	}
}

// runPhase executes the phase's action list in order. It returns true if the
// phase was interrupted (by a directive or a critical failure) and the outer
// loop should re-read the current phase.
func (c *Controller) runPhase(ctx context.Context, ps PhaseSpec) bool {
	for _, action := range ps.Actions {
		if c.handleDirective(ctx, ps) {
			return true
		}
		detail, err := c.perform(ctx, ps.Phase, action)
		if err == nil {
			c.record(ctx, ps.Phase, action, OutcomeSuccess, detail)
			continue
		}
		c.record(ctx, ps.Phase, action, OutcomeFailure, err.Error())
		if ps.Critical {
			c.abort(ctx, ps.Phase, "action_failure", err.Error())
			return true
		}
		// Non-critical: retry once, then degrade to a safe fallback.
		detail, err = c.perform(ctx, ps.Phase, action)
		if err != nil {
			c.record(ctx, ps.Phase, action, OutcomeDegraded, err.Error())
			continue
		}
		c.record(ctx, ps.Phase, action, OutcomeSuccess, detail)
	}
	return c.handleDirective(ctx, ps)
}

// handleDirective consumes a pending directive if the current phase honors
// its severity, and applies it. Returns true when the directive changed the
// control flow and the phase loop must restart.
func (c *Controller) handleDirective(ctx context.Context, ps PhaseSpec) bool {
	d, ok := c.state.TakeDirective(ps.Honors)
	if !ok {
		return false
	}
	return c.applyDirective(ctx, d, ps)
}

func (c *Controller) applyDirective(ctx context.Context, d Directive, ps PhaseSpec) bool {
	log := logging.FromContext(ctx)
	log.Warn("directive received", "directive", d.String(), "phase", ps.Phase)

	switch d {
	case DirectiveEmergencyManeuver:
		c.record(ctx, ps.Phase, "directive_"+d.String(), OutcomeForced, "emergency climb")
		_ = c.command(ctx, gateway.ActuatorRotors, gateway.CmdEmergencyClimb)
		c.state.SetPhase(PhaseAborted)
		return true
	case DirectiveAbort:
		c.record(ctx, ps.Phase, "directive_"+d.String(), OutcomeForced, "landing at nearest safe site")
		_ = c.command(ctx, gateway.ActuatorRotors, gateway.CmdEmergencyLand)
		c.state.SetPhase(PhaseAborted)
		return true
	case DirectiveReturnToBase:
		c.record(ctx, ps.Phase, "directive_"+d.String(), OutcomeForced, "skipping remaining delivery phases")
		c.forcedReturn = true
		c.state.SetPhase(PhaseReturnOrNext)
		return true
	case DirectiveHover:
		c.record(ctx, ps.Phase, "directive_"+d.String(), OutcomeForced, "suspending phase")
		return c.hover(ctx, ps)
	case DirectiveReroute:
		if ps.Phase != PhaseEnRouteNav {
			// Reroute only makes sense in cruise; drop it with a trace.
			c.record(ctx, ps.Phase, "directive_"+d.String(), OutcomeDegraded, "ignored outside enroute_nav")
			return false
		}
		detail, err := c.computeRoute(ctx)
		outcome := OutcomeSuccess
		if err != nil {
			outcome = OutcomeDegraded
			detail = err.Error()
		}
		c.record(ctx, ps.Phase, "directive_"+d.String(), outcome, detail)
		return true
	}
	return false
}

// hover holds position until the supervisor stops re-posting the hover
// directive or upgrades it. Each control tick the pending slot is re-polled.
func (c *Controller) hover(ctx context.Context, ps PhaseSpec) bool {
	_ = c.command(ctx, gateway.ActuatorRotors, gateway.CmdHover)
	for {
		select {
		case <-ctx.Done():
			return true
		case <-time.After(c.controlTick):
		}
		d, ok := c.state.TakeDirective(DirectiveHover)
		if !ok {
			// Condition cleared; resume the suspended phase.
			c.record(ctx, ps.Phase, "hover_cleared", OutcomeSuccess, "")
			return true
		}
		if d == DirectiveHover {
			continue
		}
		return c.applyDirective(ctx, d, ps)
	}
}

// abort transitions to the aborted terminal phase after a best-effort safe
// stop of the rotors when airborne.
func (c *Controller) abort(ctx context.Context, phase Phase, action, reason string) {
	if phase.Airborne() {
		_ = c.command(ctx, gateway.ActuatorRotors, gateway.CmdEmergencyLand)
	}
	c.record(ctx, phase, action, OutcomeForced, reason)
	c.state.SetPhase(PhaseAborted)
}

func (c *Controller) record(ctx context.Context, phase Phase, action, outcome, detail string) {
	rec := LogRecord{
		ID:      uuid.New().String(),
		Phase:   phase,
		Action:  action,
		Outcome: outcome,
		Detail:  detail,
	}
	c.state.Append(rec)
	if c.writer == nil {
		return
	}
	snap := c.state.Snapshot()
	row := telemetry.EventRow{
		MissionID: snap.MissionID,
		Phase:     string(phase),
		Action:    action,
		Outcome:   outcome,
		Detail:    detail,
		Battery:   snap.Battery,
		Lat:       snap.Position.Lat,
		Lon:       snap.Position.Lon,
		Alt:       snap.Position.Alt,
		Timestamp: c.now().UTC(),
	}
	if err := c.writer.WriteEvent(row); err != nil {
		logging.FromContext(ctx).Error("event write failed", "action", action, "err", err)
	}
}

// export hands the full mission log to the telemetry uplink.
func (c *Controller) export(ctx context.Context) error {
	if c.writer == nil {
		return nil
	}
	records := c.state.Export()
	rows := make([]telemetry.EventRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, telemetry.EventRow{
			MissionID: rec.MissionID,
			Phase:     string(rec.Phase),
			Action:    rec.Action,
			Outcome:   rec.Outcome,
			Detail:    rec.Detail,
			Timestamp: rec.Timestamp,
		})
	}
	if bw, ok := c.writer.(batchEventWriter); ok {
		return bw.WriteEvents(rows)
	}
	for _, row := range rows {
		if err := c.writer.WriteEvent(row); err != nil {
			return err
		}
	}
	return nil
}

// finalize hands the full mission log to the uplink one last time and emits
// the summary. Runs once, at mission end regardless of outcome, so an aborted
// mission still delivers its complete export.
func (c *Controller) finalize(ctx context.Context) {
	if c.summaryDone {
		return
	}
	c.summaryDone = true
	if c.writer == nil {
		return
	}
	if err := c.export(ctx); err != nil {
		logging.FromContext(ctx).Error("final log export failed", "err", err)
	}
	sw, ok := c.writer.(summaryWriter)
	if !ok {
		return
	}
	snap := c.state.Snapshot()
	records := c.state.Export()
	delivered := false
	for _, rec := range records {
		if rec.Action == ActionServoRelease && rec.Outcome == OutcomeSuccess {
			delivered = true
			break
		}
	}
	row := telemetry.SummaryRow{
		MissionID:  snap.MissionID,
		FinalPhase: string(snap.Phase),
		Delivered:  delivered,
		Aborted:    snap.Phase == PhaseAborted,
		BatteryEnd: snap.Battery,
		Events:     len(records),
		Timestamp:  c.now().UTC(),
	}
	if err := sw.WriteSummary(row); err != nil {
		logging.FromContext(ctx).Error("summary write failed", "err", err)
	}
}

func (c *Controller) readSensor(ctx context.Context, sensor string) gateway.Reading {
	rctx, cancel := context.WithTimeout(ctx, c.gwTimeout)
	defer cancel()
	return c.sensors.Read(rctx, sensor)
}

func (c *Controller) command(ctx context.Context, actuator, cmd string) error {
	cctx, cancel := context.WithTimeout(ctx, c.gwTimeout)
	defer cancel()
	return c.actuators.Command(cctx, actuator, cmd)
}
