package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"dronecourier/internal/mission"
)

func newTestServer() (*Server, *mission.State) {
	state := mission.NewState("m-test", 88, mission.Position{Lat: 48.21, Lon: 16.37})
	state.SetPhase(mission.PhaseEnRouteNav)
	return NewServer(state), state
}

func TestHandleStatus(t *testing.T) {
	s, _ := newTestServer()
	rec := httptest.NewRecorder()
	s.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.MissionID != "m-test" || resp.Phase != mission.PhaseEnRouteNav || resp.Battery != 88 {
		t.Fatalf("unexpected snapshot: %+v", resp)
	}
	if resp.Pending != mission.DirectiveNone.String() {
		t.Fatalf("pending = %s, want none", resp.Pending)
	}
}

func TestHandleLog(t *testing.T) {
	s, state := newTestServer()
	state.Append(mission.LogRecord{Phase: mission.PhaseEnRouteNav, Action: mission.ActionNavigateLeg, Outcome: mission.OutcomeSuccess})

	rec := httptest.NewRecorder()
	s.handleLog(rec, httptest.NewRequest(http.MethodGet, "/log", nil))

	var records []mission.LogRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 1 || records[0].Action != mission.ActionNavigateLeg {
		t.Fatalf("unexpected log: %+v", records)
	}
}

func TestHandleAbortPostsEmergency(t *testing.T) {
	s, state := newTestServer()

	rec := httptest.NewRecorder()
	s.handleAbort(rec, httptest.NewRequest(http.MethodPost, "/abort", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := state.Pending(); got != mission.DirectiveEmergencyManeuver {
		t.Fatalf("pending = %s, want emergency_maneuver", got)
	}
}

func TestHandleAbortRejectsGet(t *testing.T) {
	s, state := newTestServer()

	rec := httptest.NewRecorder()
	s.handleAbort(rec, httptest.NewRequest(http.MethodGet, "/abort", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if got := state.Pending(); got != mission.DirectiveNone {
		t.Fatalf("GET must not post a directive, pending = %s", got)
	}
}
