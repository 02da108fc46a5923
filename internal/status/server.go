// Operations status endpoint for an active mission.
package status

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"dronecourier/internal/mission"
)

// Server exposes mission state to the operations center: a live snapshot,
// the mission log, and an operator abort hook. The abort hook is the
// externally injected maximum-severity directive from the concurrency model.
type Server struct {
	State *mission.State
}

// NewServer creates a status server over the given mission state.
func NewServer(state *mission.State) *Server {
	return &Server{State: state}
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/log", s.handleLog)
	mux.HandleFunc("/abort", s.handleAbort)
}

// Start serves until ctx is done.
func (s *Server) Start(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	s.routes(mux)
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	return srv.ListenAndServe()
}

type statusResponse struct {
	MissionID string           `json:"mission_id"`
	Phase     mission.Phase    `json:"phase"`
	Battery   float64          `json:"battery"`
	Position  mission.Position `json:"position"`
	Pending   string           `json:"pending_directive"`
	CommsSeen time.Time        `json:"comms_last_seen"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.State.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statusResponse{
		MissionID: snap.MissionID,
		Phase:     snap.Phase,
		Battery:   snap.Battery,
		Position:  snap.Position,
		Pending:   snap.Pending.String(),
		CommsSeen: snap.CommsLastSeen,
	})
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.State.Export())
}

func (s *Server) handleAbort(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	s.State.PostDirective(mission.DirectiveEmergencyManeuver)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"directive": mission.DirectiveEmergencyManeuver.String()})
}
