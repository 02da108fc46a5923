package mission

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"dronecourier/internal/config"
	"dronecourier/internal/gateway"
	"dronecourier/internal/telemetry"
)

type mockWriter struct {
	mu        sync.Mutex
	events    []telemetry.EventRow
	batches   [][]telemetry.EventRow
	summaries []telemetry.SummaryRow
}

func (m *mockWriter) WriteEvent(row telemetry.EventRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, row)
	return nil
}

func (m *mockWriter) WriteEvents(rows []telemetry.EventRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, rows)
	return nil
}

func (m *mockWriter) WriteSummary(row telemetry.SummaryRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries = append(m.summaries, row)
	return nil
}

func (m *mockWriter) count(action, outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.Action == action && e.Outcome == outcome {
			n++
		}
	}
	return n
}

func testConfig() *config.Mission {
	return &config.Mission{
		Name:      "test-delivery",
		PayloadKG: 1.2,
		Route: config.Route{
			Origin:      config.Waypoint{Name: "dc-north", Lat: 48.2100, Lon: 16.3700},
			Destination: config.Waypoint{Name: "cust-4711", Lat: 48.2250, Lon: 16.4050},
			Base:        config.Waypoint{Name: "dc-north", Lat: 48.2100, Lon: 16.3700},
		},
		Thresholds: config.Thresholds{
			PreflightBatteryMin: 85,
			LowBattery:          40,
			VeryLowBattery:      25,
			CriticalBattery:     20,
			AvoidanceDistanceM:  50,
			EmergencyDistanceM:  10,
			MaxGustMPS:          15,
			CommsTimeout:        config.Duration(30 * time.Second),
			CommsHoverGrace:     config.Duration(60 * time.Second),
		},
		SupervisorTick: config.Duration(5 * time.Millisecond),
		ControlTick:    config.Duration(5 * time.Millisecond),
		GatewayTimeout: config.Duration(time.Second),
	}
}

func newTestController(battery float64) (*Controller, *State, *gateway.SimSensors, *gateway.SimActuators, *mockWriter) {
	cfg := testConfig()
	state := NewState("m-test", battery, Position{Lat: cfg.Route.Origin.Lat, Lon: cfg.Route.Origin.Lon})
	sensors := gateway.NewSimSensors(battery)
	actuators := gateway.NewSimActuators()
	w := &mockWriter{}
	return NewController(cfg, state, sensors, actuators, w), state, sensors, actuators, w
}

func TestCleanRunReachesCharging(t *testing.T) {
	c, state, _, actuators, w := newTestController(92)

	final, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if final != PhaseCharging {
		t.Fatalf("final phase = %s, want charging", final)
	}

	// Every phase leaves exactly one completion record.
	for _, p := range PhaseOrder() {
		n := 0
		for _, rec := range state.Export() {
			if rec.Phase == p && rec.Action == "phase_complete" {
				n++
			}
		}
		if n != 1 {
			t.Errorf("phase %s: %d completion records, want 1", p, n)
		}
	}
	for _, rec := range state.Export() {
		if rec.Outcome == OutcomeForced {
			t.Errorf("unexpected forced record on clean run: %+v", rec)
		}
	}

	if len(w.summaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(w.summaries))
	}
	sum := w.summaries[0]
	if !sum.Delivered || sum.Aborted {
		t.Fatalf("summary delivered=%v aborted=%v, want delivered", sum.Delivered, sum.Aborted)
	}
	if sum.BatteryEnd != 100 {
		t.Fatalf("battery after charging = %.0f, want 100", sum.BatteryEnd)
	}
	if len(w.batches) == 0 {
		t.Fatal("upload_telemetry never exported the mission log")
	}

	cmds := strings.Join(actuators.Commands(), " ")
	for _, want := range []string{
		gateway.ActuatorRotors + ":" + gateway.CmdTakeoff,
		gateway.ActuatorServo + ":" + gateway.CmdRelease,
		gateway.ActuatorRotors + ":" + gateway.CmdDock,
	} {
		if !strings.Contains(cmds, want) {
			t.Errorf("missing command %s in %q", want, cmds)
		}
	}
}

func TestPreflightBatteryGate(t *testing.T) {
	c, _, _, _, w := newTestController(84)

	final, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if final != PhaseAborted {
		t.Fatalf("final phase = %s, want aborted", final)
	}
	if w.count(ActionVerifyBattery, OutcomeFailure) != 1 {
		t.Fatal("expected a verify_battery failure record")
	}
	if len(w.summaries) != 1 || w.summaries[0].Delivered {
		t.Fatalf("summary = %+v, want undelivered", w.summaries)
	}

	// Exactly at the minimum the gate passes.
	c2, _, _, _, _ := newTestController(85)
	if final, _ := c2.Run(context.Background()); final != PhaseCharging {
		t.Fatalf("battery at minimum: final phase = %s, want charging", final)
	}
}

func TestAbortedRunStillExportsLog(t *testing.T) {
	c, state, _, _, w := newTestController(84)

	final, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if final != PhaseAborted {
		t.Fatalf("final phase = %s, want aborted", final)
	}
	// The uplink gets the complete log at mission end even on abort.
	if len(w.batches) != 1 {
		t.Fatalf("final exports = %d, want 1", len(w.batches))
	}
	if got, want := len(w.batches[0]), len(state.Export()); got != want {
		t.Fatalf("exported %d records, log holds %d", got, want)
	}
}

func TestCriticalPhaseActuatorFailureAborts(t *testing.T) {
	c, _, _, actuators, w := newTestController(92)
	actuators.FailNext(gateway.ActuatorRotors, 1)

	final, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if final != PhaseAborted {
		t.Fatalf("final phase = %s, want aborted", final)
	}
	if w.count(ActionTakeoffSequence, OutcomeFailure) != 1 {
		t.Fatal("expected a takeoff_sequence failure record")
	}
	// A failed airborne-critical phase still gets a safe stop.
	cmds := strings.Join(actuators.Commands(), " ")
	if !strings.Contains(cmds, gateway.ActuatorRotors+":"+gateway.CmdEmergencyLand) {
		t.Fatalf("no emergency landing issued: %q", cmds)
	}
}

func TestNonCriticalActionRetriesThenDegrades(t *testing.T) {
	c, state, sensors, _, w := newTestController(92)
	state.SetPhase(PhasePostDeliveryUpload)
	sensors.SetQuality(gateway.SensorCamera, gateway.QualityStale)

	final, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if final != PhaseCharging {
		t.Fatalf("final phase = %s, want charging", final)
	}
	if w.count(ActionCaptureProof, OutcomeFailure) != 1 {
		t.Fatal("expected one capture_proof failure before retry")
	}
	if w.count(ActionCaptureProof, OutcomeDegraded) != 1 {
		t.Fatal("expected capture_proof to degrade after failed retry")
	}
}

func TestEmergencyDirectiveAbortsWithoutPhaseActions(t *testing.T) {
	c, state, _, actuators, _ := newTestController(92)
	state.SetPhase(PhaseEnRouteNav)
	state.PostDirective(DirectiveEmergencyManeuver)

	final, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if final != PhaseAborted {
		t.Fatalf("final phase = %s, want aborted", final)
	}
	for _, rec := range state.Export() {
		if rec.Action == ActionFusionCheck || rec.Action == ActionNavigateLeg {
			t.Fatalf("enroute action ran despite pending emergency: %+v", rec)
		}
	}
	cmds := strings.Join(actuators.Commands(), " ")
	if !strings.Contains(cmds, gateway.ActuatorRotors+":"+gateway.CmdEmergencyClimb) {
		t.Fatalf("no emergency climb issued: %q", cmds)
	}
}

func TestReturnToBaseSkipsDelivery(t *testing.T) {
	c, state, _, _, w := newTestController(92)
	state.SetPhase(PhaseEnRouteNav)
	state.PostDirective(DirectiveReturnToBase)

	final, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if final != PhaseCharging {
		t.Fatalf("final phase = %s, want charging", final)
	}
	if w.count(ActionServoRelease, OutcomeSuccess) != 0 {
		t.Fatal("package released despite forced return")
	}
	if len(w.summaries) != 1 || w.summaries[0].Delivered {
		t.Fatal("summary must report not delivered after forced return")
	}
	forced := false
	for _, rec := range state.Export() {
		if rec.Action == ActionEvaluateReturn && strings.Contains(rec.Detail, "forced_return") {
			forced = true
		}
	}
	if !forced {
		t.Fatal("evaluate_return does not note the forced return")
	}
}

func TestHoverSuspendsAndResumes(t *testing.T) {
	c, state, _, actuators, w := newTestController(92)
	state.SetPhase(PhaseApproach)
	state.PostDirective(DirectiveHover)

	final, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if final != PhaseCharging {
		t.Fatalf("final phase = %s, want charging", final)
	}
	if w.count("directive_hover", OutcomeForced) != 1 {
		t.Fatal("expected a forced hover record")
	}
	if w.count("hover_cleared", OutcomeSuccess) != 1 {
		t.Fatal("expected the hover to clear and the phase to resume")
	}
	cmds := strings.Join(actuators.Commands(), " ")
	if !strings.Contains(cmds, gateway.ActuatorRotors+":"+gateway.CmdHover) {
		t.Fatalf("no hover command issued: %q", cmds)
	}
}

func TestRerouteRecomputesAndContinues(t *testing.T) {
	c, state, _, _, w := newTestController(92)
	state.SetPhase(PhaseEnRouteNav)
	state.PostDirective(DirectiveReroute)

	final, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if final != PhaseCharging {
		t.Fatalf("final phase = %s, want charging", final)
	}
	if w.count("directive_reroute", OutcomeSuccess) != 1 {
		t.Fatal("expected a successful reroute record")
	}
}

func TestRerouteIgnoredOutsideCruise(t *testing.T) {
	c, state, _, _, w := newTestController(92)
	state.SetPhase(PhaseCharging)
	// Charging honors abort and above, so a reroute never reaches the
	// directive handler; it stays pending and the mission finishes.
	state.PostDirective(DirectiveReroute)

	final, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if final != PhaseCharging {
		t.Fatalf("final phase = %s, want charging", final)
	}
	if w.count("directive_reroute", OutcomeSuccess) != 0 {
		t.Fatal("reroute must not execute while charging")
	}
	if state.Pending() != DirectiveReroute {
		t.Fatalf("pending = %s, want reroute left in the slot", state.Pending())
	}
}

func TestRunCancelledContext(t *testing.T) {
	c, _, _, _, _ := newTestController(92)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Run(ctx); err == nil {
		t.Fatal("expected context error from cancelled run")
	}
}
