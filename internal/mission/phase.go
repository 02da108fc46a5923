package mission

// Phase is one ordered stage of the mission state machine.
type Phase string

const (
	PhasePreflightCheck     Phase = "preflight_check"
	PhaseRoutePlanning      Phase = "route_planning"
	PhaseTakeoff            Phase = "takeoff"
	PhaseEnRouteNav         Phase = "enroute_nav"
	PhaseApproach           Phase = "approach"
	PhaseLanding            Phase = "landing"
	PhasePostDeliveryUpload Phase = "post_delivery_upload"
	PhaseReturnOrNext       Phase = "return_or_next"
	PhaseCharging           Phase = "charging"
	PhaseAborted            Phase = "aborted"
)

// PhaseOrder returns the default phase sequence for a delivery mission.
func PhaseOrder() []Phase {
	return []Phase{
		PhasePreflightCheck,
		PhaseRoutePlanning,
		PhaseTakeoff,
		PhaseEnRouteNav,
		PhaseApproach,
		PhaseLanding,
		PhasePostDeliveryUpload,
		PhaseReturnOrNext,
		PhaseCharging,
	}
}

// Next returns the phase following p in the default order, or PhaseCharging's
// terminal itself when there is nothing after.
func (p Phase) Next() Phase {
	order := PhaseOrder()
	for i, ph := range order {
		if ph == p && i+1 < len(order) {
			return order[i+1]
		}
	}
	return p
}

// Terminal reports whether the mission ends in this phase.
func (p Phase) Terminal() bool {
	return p == PhaseCharging || p == PhaseAborted
}

// Airborne reports whether the drone is flying during this phase.
func (p Phase) Airborne() bool {
	switch p {
	case PhaseTakeoff, PhaseEnRouteNav, PhaseApproach, PhaseLanding, PhaseReturnOrNext:
		return true
	}
	return false
}

// EnRoute reports whether the phase is part of outbound cruise, where the
// battery return thresholds apply.
func (p Phase) EnRoute() bool {
	return p == PhaseEnRouteNav || p == PhaseApproach
}

// Per-phase action names, mirroring the delivery workflow.
const (
	ActionVerifyBattery       = "verify_battery"
	ActionSensorHealthCheck   = "sensor_health_check"
	ActionAirspaceCheck       = "airspace_check"
	ActionDownloadMissionPlan = "download_mission_plan"
	ActionWeatherQuery        = "weather_query"
	ActionComputeRoute        = "compute_route"
	ActionSelectDropPoint     = "select_drop_point"
	ActionTakeoffSequence     = "takeoff_sequence"
	ActionPositionHold        = "position_hold"
	ActionBroadcastPresence   = "broadcast_presence"
	ActionFusionCheck         = "fusion_check"
	ActionAdaptAltitude       = "adapt_altitude"
	ActionNavigateLeg         = "navigate_leg"
	ActionLocalAreaScan       = "local_area_scan"
	ActionCrowdDensityCheck   = "crowd_density_check"
	ActionSelectTouchdown     = "select_touchdown"
	ActionControlledDescent   = "controlled_descent"
	ActionVisualConfirmation  = "visual_confirmation"
	ActionServoRelease        = "servo_release"
	ActionPostDropCheck       = "post_drop_check"
	ActionSignalCompletion    = "signal_completion"
	ActionCaptureProof        = "capture_proof"
	ActionUploadTelemetry     = "upload_telemetry"
	ActionBatteryStatusUpdate = "battery_status_update"
	ActionEvaluateReturn      = "evaluate_return"
	ActionReturnNavigation    = "return_navigation"
	ActionDockAndCharge       = "dock_and_charge"
	ActionFullDiagnostics     = "full_diagnostics"
	ActionMaintenanceFlags    = "maintenance_flags"
)

// PhaseSpec describes one mission phase: its ordered actions, whether a
// failed action aborts the mission, and the minimum directive severity the
// phase honors between actions. Directives below Honors stay pending rather
// than interrupting the phase.
type PhaseSpec struct {
	Phase    Phase
	Actions  []string
	Critical bool
	Honors   Directive
}

// Plan returns the phase specs for a standard delivery mission, keyed by
// phase. Preflight, takeoff, and landing are safety-critical: any action
// failure there aborts instead of retrying.
func Plan() map[Phase]PhaseSpec {
	specs := []PhaseSpec{
		{
			Phase:    PhasePreflightCheck,
			Actions:  []string{ActionVerifyBattery, ActionSensorHealthCheck, ActionAirspaceCheck, ActionDownloadMissionPlan},
			Critical: true,
			Honors:   DirectiveAbort,
		},
		{
			Phase:   PhaseRoutePlanning,
			Actions: []string{ActionWeatherQuery, ActionAirspaceCheck, ActionComputeRoute, ActionSelectDropPoint},
			Honors:  DirectiveAbort,
		},
		{
			Phase:    PhaseTakeoff,
			Actions:  []string{ActionTakeoffSequence, ActionPositionHold, ActionBroadcastPresence},
			Critical: true,
			Honors:   DirectiveHover,
		},
		{
			Phase:   PhaseEnRouteNav,
			Actions: []string{ActionFusionCheck, ActionAdaptAltitude, ActionNavigateLeg},
			Honors:  DirectiveReroute,
		},
		{
			Phase:   PhaseApproach,
			Actions: []string{ActionLocalAreaScan, ActionCrowdDensityCheck, ActionSelectTouchdown},
			Honors:  DirectiveHover,
		},
		{
			Phase:    PhaseLanding,
			Actions:  []string{ActionControlledDescent, ActionVisualConfirmation, ActionServoRelease, ActionPostDropCheck, ActionSignalCompletion},
			Critical: true,
			Honors:   DirectiveAbort,
		},
		{
			Phase:   PhasePostDeliveryUpload,
			Actions: []string{ActionCaptureProof, ActionUploadTelemetry, ActionBatteryStatusUpdate},
			Honors:  DirectiveHover,
		},
		{
			Phase:   PhaseReturnOrNext,
			Actions: []string{ActionEvaluateReturn, ActionReturnNavigation},
			Honors:  DirectiveHover,
		},
		{
			Phase:   PhaseCharging,
			Actions: []string{ActionDockAndCharge, ActionFullDiagnostics, ActionMaintenanceFlags},
			Honors:  DirectiveAbort,
		},
	}
	plan := make(map[Phase]PhaseSpec, len(specs))
	for _, ps := range specs {
		plan[ps.Phase] = ps
	}
	return plan
}
