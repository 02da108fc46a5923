// Shared mission state guarded by a single mutex.
//
// Write discipline: the failsafe supervisor is the only poster of directives,
// the controller is the only consumer; phase and log writes belong to the
// controller; battery, position, and comms timestamps are written by whoever
// produced the reading. Every access goes through the mutex.
package mission

import (
	"math"
	"sync"
	"time"
)

// Directive is a control instruction that preempts normal phase progression.
// The zero value means no directive is pending. Ordering doubles as severity:
// a later constant always outranks an earlier one.
type Directive int

const (
	DirectiveNone Directive = iota
	DirectiveReroute
	DirectiveHover
	DirectiveReturnToBase
	DirectiveAbort
	DirectiveEmergencyManeuver
)

func (d Directive) String() string {
	switch d {
	case DirectiveReroute:
		return "reroute"
	case DirectiveHover:
		return "hover"
	case DirectiveReturnToBase:
		return "return_to_base"
	case DirectiveAbort:
		return "abort"
	case DirectiveEmergencyManeuver:
		return "emergency_maneuver"
	default:
		return "none"
	}
}

// Severity returns the precedence rank used for the overwrite rule. Unknown
// values rank above everything defined: if severity comparison is ever
// undefined we fail safe.
func (d Directive) Severity() int {
	if d < DirectiveNone || d > DirectiveEmergencyManeuver {
		return int(DirectiveEmergencyManeuver) + 1
	}
	return int(d)
}

// Position holds latitude, longitude, and altitude.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Alt float64 `json:"alt"`
}

// DistanceM returns the haversine ground distance to other, in meters.
func (p Position) DistanceM(other Position) float64 {
	const earthRadius = 6371000.0
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLon := (other.Lon - p.Lon) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(p.Lat*math.Pi/180)*math.Cos(other.Lat*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadius * c
}

// LogRecord is one append-only mission log entry.
type LogRecord struct {
	ID        string    `json:"id"`
	MissionID string    `json:"mission_id"`
	Phase     Phase     `json:"phase"`
	Action    string    `json:"action"`
	Outcome   string    `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"ts"`
}

// Action outcome values recorded in the mission log.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeDegraded = "degraded"
	OutcomeForced   = "forced"
)

// Snapshot is a consistent copy of the scalar mission state, taken under the
// lock. The trigger evaluator works exclusively on snapshots.
type Snapshot struct {
	MissionID     string
	Phase         Phase
	Battery       float64
	Position      Position
	Pending       Directive
	CommsLastSeen time.Time
	Version       uint64
}

// State is the single source of truth shared by the controller and the
// failsafe supervisor for one active mission.
type State struct {
	mu            sync.Mutex
	missionID     string
	phase         Phase
	battery       float64
	position      Position
	pending       Directive
	commsLastSeen time.Time
	log           []LogRecord
	version       uint64

	now func() time.Time
}

// NewState creates mission state from pre-flight data.
func NewState(missionID string, battery float64, pos Position) *State {
	n := time.Now
	return &State{
		missionID:     missionID,
		phase:         PhasePreflightCheck,
		battery:       battery,
		position:      pos,
		commsLastSeen: n().UTC(),
		now:           n,
	}
}

// PostDirective applies the overwrite rule: the new directive is stored only
// if its severity is at least that of the outstanding one. A lower-severity
// post never downgrades a pending directive. Reports whether it was stored.
func (s *State) PostDirective(d Directive) bool {
	if d == DirectiveNone {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.Severity() < s.pending.Severity() {
		return false
	}
	s.pending = d
	s.version++
	return true
}

// TakeDirective consumes and clears the pending directive if its severity is
// at least min. Lower-severity directives stay pending for a later phase that
// honors them.
func (s *State) TakeDirective(min Directive) (Directive, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == DirectiveNone || s.pending.Severity() < min.Severity() {
		return DirectiveNone, false
	}
	d := s.pending
	s.pending = DirectiveNone
	s.version++
	return d, true
}

// Pending returns the outstanding directive without consuming it.
func (s *State) Pending() Directive {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// SetPhase records a phase transition.
func (s *State) SetPhase(p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = p
	s.version++
}

// Phase returns the current mission phase.
func (s *State) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// SetBattery records a battery reading. Outside Charging the value can only
// go down; a sensor glitch reporting a jump up is ignored.
func (s *State) SetBattery(pct float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pct < 0 {
		pct = 0
	} else if pct > 100 {
		pct = 100
	}
	if pct > s.battery && s.phase != PhaseCharging {
		return
	}
	s.battery = pct
	s.version++
}

// Battery returns the last recorded battery percentage.
func (s *State) Battery() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.battery
}

// SetPosition records a position fix.
func (s *State) SetPosition(p Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = p
	s.version++
}

// Position returns the last recorded position.
func (s *State) Position() Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// MarkCommsSeen records a successful comms contact.
func (s *State) MarkCommsSeen(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.After(s.commsLastSeen) {
		s.commsLastSeen = t
		s.version++
	}
}

// Append adds a record to the mission log. Records are never mutated after
// append.
func (s *State) Append(rec LogRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.MissionID = s.missionID
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now().UTC()
	}
	s.log = append(s.log, rec)
	s.version++
}

// Export returns a copy of the mission log in append order.
func (s *State) Export() []LogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LogRecord, len(s.log))
	copy(out, s.log)
	return out
}

// Snapshot returns a consistent copy of the scalar fields.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		MissionID:     s.missionID,
		Phase:         s.phase,
		Battery:       s.battery,
		Position:      s.position,
		Pending:       s.pending,
		CommsLastSeen: s.commsLastSeen,
		Version:       s.version,
	}
}

// MissionID returns the mission identifier.
func (s *State) MissionID() string { return s.missionID }
