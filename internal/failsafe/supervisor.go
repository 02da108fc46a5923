// Fixed-cadence sensor fusion and failsafe monitoring loop.
package failsafe

import (
	"context"
	"time"

	"dronecourier/internal/config"
	"dronecourier/internal/gateway"
	"dronecourier/internal/logging"
	"dronecourier/internal/mission"
)

// Supervisor runs the continuous perception/failsafe loop alongside the
// mission controller. Each tick it snapshots state, reads the sensors, runs
// the trigger rules, and posts the highest-severity directive. Communication
// with the controller is a one-directional post; the supervisor never waits
// on phase progress.
type Supervisor struct {
	state     *mission.State
	sensors   gateway.SensorGateway
	eval      *Evaluator
	tick      time.Duration
	gwTimeout time.Duration

	now func() time.Time
}

// NewSupervisor wires a supervisor for one mission.
func NewSupervisor(cfg *config.Mission, state *mission.State, sensors gateway.SensorGateway) *Supervisor {
	return &Supervisor{
		state:     state,
		sensors:   sensors,
		eval:      NewEvaluator(cfg.Thresholds),
		tick:      cfg.SupervisorTick.Std(),
		gwTimeout: cfg.GatewayTimeout.Std(),
		now:       time.Now,
	}
}

// Run starts the monitoring loop and stops when the context is done.
func (s *Supervisor) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("failsafe supervisor starting", "tick_interval", s.tick)
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick(ctx)
		case <-ctx.Done():
			log.Info("failsafe supervisor stopping")
			return
		}
	}
}

// Tick performs one evaluation pass and returns the fired triggers.
func (s *Supervisor) Tick(ctx context.Context) []Trigger {
	log := logging.FromContext(ctx)
	snap := s.state.Snapshot()
	if snap.Phase.Terminal() {
		return nil
	}
	readings := s.readSensors(ctx)
	triggers := s.eval.Evaluate(s.now().UTC(), snap, readings)
	if len(triggers) == 0 {
		return nil
	}
	for _, tr := range triggers {
		log.Debug("trigger fired", "kind", tr.Kind, "directive", tr.Directive.String(), "detail", tr.Detail)
	}
	directive := Reduce(triggers)
	if s.state.PostDirective(directive) {
		log.Warn("directive posted", "directive", directive.String(), "triggers", len(triggers))
	}
	return triggers
}

// readSensors gathers the per-tick snapshot, mapping stale or unavailable
// readings to unknown. A healthy comms reading refreshes comms_last_seen.
func (s *Supervisor) readSensors(ctx context.Context) Readings {
	var r Readings

	if rd := s.read(ctx, gateway.SensorBattery); rd.Usable() {
		v := rd.Value
		r.Battery = &v
	}
	if rd := s.read(ctx, gateway.SensorObstacle); rd.Usable() {
		v := rd.Value
		r.ObstacleDistanceM = &v
	}
	if rd := s.read(ctx, gateway.SensorAvoidance); rd.Usable() {
		b := rd.Value >= 1
		r.AvoidanceFeasible = &b
	}
	if rd := s.read(ctx, gateway.SensorWind); rd.Usable() {
		v := rd.Value
		r.GustMPS = &v
	}
	if rd := s.read(ctx, gateway.SensorPrecip); rd.Usable() {
		b := rd.Value >= 1
		r.HeavyPrecip = &b
	}
	if rd := s.read(ctx, gateway.SensorComms); rd.OK() && rd.Value >= 1 {
		s.state.MarkCommsSeen(rd.Timestamp)
	}
	return r
}

func (s *Supervisor) read(ctx context.Context, sensor string) gateway.Reading {
	rctx, cancel := context.WithTimeout(ctx, s.gwTimeout)
	defer cancel()
	return s.sensors.Read(rctx, sensor)
}
