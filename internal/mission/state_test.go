package mission

import (
	"testing"
	"time"
)

func TestDirectiveSeverityMonotone(t *testing.T) {
	s := NewState("m-1", 92, Position{})

	if !s.PostDirective(DirectiveReroute) {
		t.Fatal("expected reroute to be stored on empty slot")
	}
	if !s.PostDirective(DirectiveHover) {
		t.Fatal("expected hover to overwrite reroute")
	}
	if !s.PostDirective(DirectiveAbort) {
		t.Fatal("expected abort to overwrite hover")
	}
	if s.PostDirective(DirectiveHover) {
		t.Fatal("hover must not downgrade a pending abort")
	}
	if got := s.Pending(); got != DirectiveAbort {
		t.Fatalf("pending = %s, want abort", got)
	}

	d, ok := s.TakeDirective(DirectiveReroute)
	if !ok || d != DirectiveAbort {
		t.Fatalf("TakeDirective = %s/%v, want abort/true", d, ok)
	}
	// Slot is clear again; a low-severity post is accepted.
	if !s.PostDirective(DirectiveReroute) {
		t.Fatal("expected reroute to be stored after consume")
	}
}

func TestTakeDirectiveHonorsMinimum(t *testing.T) {
	s := NewState("m-1", 92, Position{})
	s.PostDirective(DirectiveReroute)

	if _, ok := s.TakeDirective(DirectiveHover); ok {
		t.Fatal("reroute must stay pending when the phase only honors hover and above")
	}
	if got := s.Pending(); got != DirectiveReroute {
		t.Fatalf("pending = %s, want reroute", got)
	}
	if d, ok := s.TakeDirective(DirectiveReroute); !ok || d != DirectiveReroute {
		t.Fatalf("TakeDirective = %s/%v, want reroute/true", d, ok)
	}
}

func TestSeverityUndefinedFailsSafe(t *testing.T) {
	bogus := Directive(42)
	if bogus.Severity() <= DirectiveEmergencyManeuver.Severity() {
		t.Fatalf("undefined directive must rank as highest severity, got %d", bogus.Severity())
	}
}

func TestBatteryOnlyDecreasesInFlight(t *testing.T) {
	s := NewState("m-1", 80, Position{})
	s.SetPhase(PhaseEnRouteNav)

	s.SetBattery(75)
	if got := s.Battery(); got != 75 {
		t.Fatalf("battery = %.0f, want 75", got)
	}
	s.SetBattery(90)
	if got := s.Battery(); got != 75 {
		t.Fatalf("battery jumped up in flight: %.0f", got)
	}

	s.SetPhase(PhaseCharging)
	s.SetBattery(100)
	if got := s.Battery(); got != 100 {
		t.Fatalf("battery = %.0f, want 100 while charging", got)
	}
}

func TestExportReturnsCopy(t *testing.T) {
	s := NewState("m-1", 92, Position{})
	s.Append(LogRecord{Phase: PhasePreflightCheck, Action: ActionVerifyBattery, Outcome: OutcomeSuccess})

	out := s.Export()
	if len(out) != 1 {
		t.Fatalf("export length = %d, want 1", len(out))
	}
	if out[0].MissionID != "m-1" || out[0].Timestamp.IsZero() {
		t.Fatalf("record not stamped: %+v", out[0])
	}
	out[0].Outcome = "tampered"
	if got := s.Export()[0].Outcome; got != OutcomeSuccess {
		t.Fatalf("log mutated through export copy: %s", got)
	}
}

func TestMarkCommsSeenKeepsLatest(t *testing.T) {
	s := NewState("m-1", 92, Position{})
	later := time.Now().Add(time.Minute)
	s.MarkCommsSeen(later)
	s.MarkCommsSeen(later.Add(-30 * time.Second))
	if got := s.Snapshot().CommsLastSeen; !got.Equal(later) {
		t.Fatalf("comms_last_seen moved backwards: %s", got)
	}
}

func TestPhaseOrder(t *testing.T) {
	want := []Phase{
		PhasePreflightCheck, PhaseRoutePlanning, PhaseTakeoff, PhaseEnRouteNav,
		PhaseApproach, PhaseLanding, PhasePostDeliveryUpload, PhaseReturnOrNext, PhaseCharging,
	}
	p := PhasePreflightCheck
	for i, expect := range want {
		if p != expect {
			t.Fatalf("position %d: got %s, want %s", i, p, expect)
		}
		p = p.Next()
	}
	if !PhaseCharging.Terminal() || !PhaseAborted.Terminal() {
		t.Fatal("charging and aborted must be terminal")
	}
	if PhasePreflightCheck.Airborne() || !PhaseEnRouteNav.Airborne() {
		t.Fatal("airborne classification wrong")
	}
}

func TestPlanCoversAllPhases(t *testing.T) {
	plan := Plan()
	for _, p := range PhaseOrder() {
		ps, ok := plan[p]
		if !ok {
			t.Fatalf("no plan for phase %s", p)
		}
		if len(ps.Actions) == 0 {
			t.Fatalf("phase %s has no actions", p)
		}
	}
	for _, p := range []Phase{PhasePreflightCheck, PhaseTakeoff, PhaseLanding} {
		if !plan[p].Critical {
			t.Fatalf("phase %s must be safety-critical", p)
		}
	}
}
