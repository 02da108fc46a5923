// Trigger rules mapping state snapshots and sensor readings to directives.
package failsafe

import (
	"fmt"
	"time"

	"dronecourier/internal/config"
	"dronecourier/internal/mission"
)

// Trigger kinds, in urgency order.
const (
	TriggerObstacleUnavoidable = "obstacle_unavoidable"
	TriggerCriticalBattery     = "critical_battery"
	TriggerSevereWeather       = "severe_weather"
	TriggerCommsBlackout       = "comms_blackout"
	TriggerDynamicObstacle     = "dynamic_obstacle"
	TriggerVeryLowBattery      = "very_low_battery"
	TriggerLowBattery          = "low_battery"
)

// Trigger is one fired safety condition with the directive it demands.
type Trigger struct {
	Kind      string
	Directive mission.Directive
	Detail    string
}

// Readings is the per-tick sensor snapshot. Nil pointers mean the reading was
// stale or unavailable: unknown, never zero.
type Readings struct {
	Battery           *float64
	ObstacleDistanceM *float64
	AvoidanceFeasible *bool
	GustMPS           *float64
	HeavyPrecip       *bool
}

// Evaluator is the deterministic, side-effect-free trigger rule set. The same
// (state, readings, now) always yields the same triggers.
type Evaluator struct {
	t config.Thresholds
}

// NewEvaluator builds an evaluator over the mission's configured thresholds.
func NewEvaluator(t config.Thresholds) *Evaluator {
	return &Evaluator{t: t}
}

// Evaluate returns every currently true trigger, highest urgency first. The
// supervisor reduces them to the single highest-severity directive.
func (e *Evaluator) Evaluate(now time.Time, snap mission.Snapshot, r Readings) []Trigger {
	var fired []Trigger

	if r.ObstacleDistanceM != nil && *r.ObstacleDistanceM < e.t.EmergencyDistanceM {
		// Unknown avoidance counts as infeasible.
		if r.AvoidanceFeasible == nil || !*r.AvoidanceFeasible {
			fired = append(fired, Trigger{
				Kind:      TriggerObstacleUnavoidable,
				Directive: mission.DirectiveEmergencyManeuver,
				Detail:    fmt.Sprintf("obstacle at %.1fm, avoidance infeasible", *r.ObstacleDistanceM),
			})
		}
	}

	battery := snap.Battery
	if r.Battery != nil {
		battery = *r.Battery
	}
	if snap.Phase.Airborne() && battery < e.t.CriticalBattery {
		fired = append(fired, Trigger{
			Kind:      TriggerCriticalBattery,
			Directive: mission.DirectiveAbort,
			Detail:    fmt.Sprintf("battery %.0f%% below critical %.0f%%, landing at nearest safe site", battery, e.t.CriticalBattery),
		})
	}

	gustHigh := r.GustMPS != nil && *r.GustMPS > e.t.MaxGustMPS
	precip := r.HeavyPrecip != nil && *r.HeavyPrecip
	if gustHigh || precip {
		d := mission.DirectiveAbort
		if snap.Phase.EnRoute() {
			d = mission.DirectiveReturnToBase
		}
		detail := "heavy precipitation"
		if gustHigh {
			detail = fmt.Sprintf("gusts %.1f m/s over limit %.1f", *r.GustMPS, e.t.MaxGustMPS)
		}
		fired = append(fired, Trigger{Kind: TriggerSevereWeather, Directive: d, Detail: detail})
	}

	if age := now.Sub(snap.CommsLastSeen); age > e.t.CommsTimeout.Std() {
		// Predefined failsafe: hover first, return to base once the grace
		// window is exhausted.
		d := mission.DirectiveHover
		if age > e.t.CommsTimeout.Std()+e.t.CommsHoverGrace.Std() {
			d = mission.DirectiveReturnToBase
		}
		fired = append(fired, Trigger{
			Kind:      TriggerCommsBlackout,
			Directive: d,
			Detail:    fmt.Sprintf("comms lost for %s", age.Truncate(time.Second)),
		})
	}

	// Any obstacle inside the avoidance corridor asks for a reroute. Inside
	// the emergency radius the unavoidable rule above may fire too; reduction
	// keeps the higher severity.
	if r.ObstacleDistanceM != nil && *r.ObstacleDistanceM < e.t.AvoidanceDistanceM {
		fired = append(fired, Trigger{
			Kind:      TriggerDynamicObstacle,
			Directive: mission.DirectiveReroute,
			Detail:    fmt.Sprintf("obstacle at %.1fm, rerouting", *r.ObstacleDistanceM),
		})
	}

	if snap.Phase.EnRoute() {
		if battery < e.t.VeryLowBattery {
			fired = append(fired, Trigger{
				Kind:      TriggerVeryLowBattery,
				Directive: mission.DirectiveReturnToBase,
				Detail:    fmt.Sprintf("battery %.0f%%, returning via nearest safe corridor", battery),
			})
		} else if battery < e.t.LowBattery {
			fired = append(fired, Trigger{
				Kind:      TriggerLowBattery,
				Directive: mission.DirectiveReturnToBase,
				Detail:    fmt.Sprintf("battery %.0f%%, returning to base", battery),
			})
		}
	}

	return fired
}

// Reduce collapses fired triggers to the single highest-severity directive.
func Reduce(triggers []Trigger) mission.Directive {
	top := mission.DirectiveNone
	for _, tr := range triggers {
		if tr.Directive.Severity() > top.Severity() {
			top = tr.Directive
		}
	}
	return top
}
