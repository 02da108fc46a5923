package mission

import (
	"context"
	"fmt"
	"strings"

	"dronecourier/internal/config"
	"dronecourier/internal/gateway"
)

// Sensors checked during preflight health and diagnostics.
var healthSensors = []string{
	gateway.SensorGPS,
	gateway.SensorLiDAR,
	gateway.SensorCamera,
	gateway.SensorIMU,
	gateway.SensorUltrasonic,
	gateway.SensorWind,
}

// perform runs one named phase action against the gateways. It returns a log
// detail on success or the failure to be handled by the retry/abort policy.
func (c *Controller) perform(ctx context.Context, phase Phase, action string) (string, error) {
	switch action {
	case ActionVerifyBattery:
		return c.verifyBattery(ctx)
	case ActionSensorHealthCheck:
		return c.sensorHealthCheck(ctx)
	case ActionAirspaceCheck:
		return c.airspaceCheck(ctx)
	case ActionDownloadMissionPlan:
		return c.downloadMissionPlan(ctx)
	case ActionWeatherQuery:
		return c.weatherQuery(ctx)
	case ActionComputeRoute:
		return c.computeRoute(ctx)
	case ActionSelectDropPoint:
		return c.selectDropPoint(ctx)
	case ActionTakeoffSequence:
		return c.takeoffSequence(ctx)
	case ActionPositionHold:
		return c.positionHold(ctx)
	case ActionBroadcastPresence:
		return c.broadcastPresence(ctx)
	case ActionFusionCheck:
		return c.fusionCheck(ctx)
	case ActionAdaptAltitude:
		return "", c.command(ctx, gateway.ActuatorRotors, gateway.CmdAdjustAltitude)
	case ActionNavigateLeg:
		return c.navigateLeg(ctx)
	case ActionLocalAreaScan:
		return c.localAreaScan(ctx)
	case ActionCrowdDensityCheck:
		return c.crowdDensityCheck(ctx)
	case ActionSelectTouchdown:
		return c.selectTouchdown(ctx)
	case ActionControlledDescent:
		return c.controlledDescent(ctx)
	case ActionVisualConfirmation:
		return c.cameraConfirm(ctx, "ground marker not confirmed")
	case ActionServoRelease:
		return "", c.command(ctx, gateway.ActuatorServo, gateway.CmdRelease)
	case ActionPostDropCheck:
		return c.cameraConfirm(ctx, "package not confirmed on ground")
	case ActionSignalCompletion:
		return c.signalCompletion(ctx)
	case ActionCaptureProof:
		return c.cameraConfirm(ctx, "delivery proof capture failed")
	case ActionUploadTelemetry:
		if err := c.export(ctx); err != nil {
			return "", fmt.Errorf("telemetry upload: %w", err)
		}
		return fmt.Sprintf("events=%d", len(c.state.Export())), nil
	case ActionBatteryStatusUpdate:
		return c.batteryStatusUpdate(ctx)
	case ActionEvaluateReturn:
		return c.evaluateReturn(ctx)
	case ActionReturnNavigation:
		return c.returnNavigation(ctx)
	case ActionDockAndCharge:
		return c.dockAndCharge(ctx)
	case ActionFullDiagnostics:
		return c.fullDiagnostics(ctx)
	case ActionMaintenanceFlags:
		return c.maintenanceFlags(ctx)
	default:
		return "", fmt.Errorf("unknown action %q in phase %s", action, phase)
	}
}

func (c *Controller) verifyBattery(ctx context.Context) (string, error) {
	r := c.readSensor(ctx, gateway.SensorBattery)
	if !r.Usable() {
		return "", fmt.Errorf("battery reading %s", r.Quality)
	}
	c.state.SetBattery(r.Value)
	min := c.cfg.Thresholds.PreflightBatteryMin
	if r.Value < min {
		return "", fmt.Errorf("battery %.0f%% below preflight minimum %.0f%%", r.Value, min)
	}
	return fmt.Sprintf("battery=%.0f%%", r.Value), nil
}

func (c *Controller) sensorHealthCheck(ctx context.Context) (string, error) {
	for _, sensor := range healthSensors {
		if r := c.readSensor(ctx, sensor); !r.OK() {
			return "", fmt.Errorf("sensor %s health check failed (%s)", sensor, r.Quality)
		}
	}
	return fmt.Sprintf("%d sensors healthy", len(healthSensors)), nil
}

func (c *Controller) airspaceCheck(ctx context.Context) (string, error) {
	r := c.readSensor(ctx, gateway.SensorAirspace)
	if !r.OK() || r.Value < 1 {
		return "", fmt.Errorf("airspace restricted or permit missing")
	}
	return "airspace clear", nil
}

func (c *Controller) downloadMissionPlan(ctx context.Context) (string, error) {
	r := c.readSensor(ctx, gateway.SensorComms)
	if !r.OK() || r.Value < 1 {
		return "", fmt.Errorf("no uplink to operations, cannot fetch mission plan")
	}
	c.state.MarkCommsSeen(r.Timestamp)
	return fmt.Sprintf("route %s -> %s", c.cfg.Route.Origin.Name, c.cfg.Route.Destination.Name), nil
}

func (c *Controller) weatherQuery(ctx context.Context) (string, error) {
	gust := c.readSensor(ctx, gateway.SensorWind)
	if gust.OK() && gust.Value > c.cfg.Thresholds.MaxGustMPS {
		return "", fmt.Errorf("gusts %.1f m/s exceed operational limit %.1f", gust.Value, c.cfg.Thresholds.MaxGustMPS)
	}
	precip := c.readSensor(ctx, gateway.SensorPrecip)
	if precip.OK() && precip.Value >= 1 {
		return "", fmt.Errorf("heavy precipitation on route")
	}
	return fmt.Sprintf("gusts=%.1fm/s", gust.Value), nil
}

func (c *Controller) computeRoute(ctx context.Context) (string, error) {
	r := c.readSensor(ctx, gateway.SensorGPS)
	if !r.Usable() {
		return "", fmt.Errorf("no position fix for route computation")
	}
	origin := waypointPos(c.cfg.Route.Origin)
	dest := waypointPos(c.cfg.Route.Destination)
	return fmt.Sprintf("dist_m=%.0f", origin.DistanceM(dest)), nil
}

func (c *Controller) selectDropPoint(ctx context.Context) (string, error) {
	return fmt.Sprintf("drop_point=%s", c.cfg.Route.Destination.Name), nil
}

func (c *Controller) takeoffSequence(ctx context.Context) (string, error) {
	if err := c.command(ctx, gateway.ActuatorRotors, gateway.CmdTakeoff); err != nil {
		return "", err
	}
	pos := waypointPos(c.cfg.Route.Origin)
	pos.Alt = transitAltitude
	c.state.SetPosition(pos)
	return fmt.Sprintf("transit altitude %.0fm", transitAltitude), nil
}

func (c *Controller) positionHold(ctx context.Context) (string, error) {
	if r := c.readSensor(ctx, gateway.SensorGPS); !r.OK() {
		return "", fmt.Errorf("GPS fix lost during position hold")
	}
	return "stable GPS lock", nil
}

func (c *Controller) broadcastPresence(ctx context.Context) (string, error) {
	if err := c.command(ctx, gateway.ActuatorLEDs, gateway.CmdFlash); err != nil {
		return "", err
	}
	if err := c.command(ctx, gateway.ActuatorSpeaker, gateway.CmdChime); err != nil {
		return "", err
	}
	return "", nil
}

func (c *Controller) fusionCheck(ctx context.Context) (string, error) {
	degraded := 0
	for _, sensor := range []string{gateway.SensorLiDAR, gateway.SensorCamera, gateway.SensorGPS, gateway.SensorIMU} {
		if r := c.readSensor(ctx, sensor); !r.OK() {
			degraded++
		}
	}
	if degraded == 4 {
		return "", fmt.Errorf("perception blackout, all fusion inputs unusable")
	}
	if degraded > 0 {
		return fmt.Sprintf("degraded_sensors=%d", degraded), nil
	}
	return "", nil
}

func (c *Controller) navigateLeg(ctx context.Context) (string, error) {
	if err := c.command(ctx, gateway.ActuatorRotors, gateway.CmdCruise); err != nil {
		return "", err
	}
	from := c.state.Position()
	to := waypointPos(c.cfg.Route.Destination)
	to.Alt = transitAltitude
	c.state.SetPosition(to)
	return fmt.Sprintf("covered_m=%.0f", from.DistanceM(to)), nil
}

func (c *Controller) localAreaScan(ctx context.Context) (string, error) {
	ultra := c.readSensor(ctx, gateway.SensorUltrasonic)
	lidar := c.readSensor(ctx, gateway.SensorLiDAR)
	if !ultra.Usable() && !lidar.Usable() {
		return "", fmt.Errorf("no safe landing zone found, proximity sensing unavailable")
	}
	return "landing pad identified", nil
}

func (c *Controller) crowdDensityCheck(ctx context.Context) (string, error) {
	r := c.readSensor(ctx, gateway.SensorCamera)
	if r.OK() && r.Value < 1 {
		return "crowded, alternate handoff selected", nil
	}
	return "zone clear", nil
}

func (c *Controller) selectTouchdown(ctx context.Context) (string, error) {
	pos := waypointPos(c.cfg.Route.Destination)
	pos.Alt = approachAltitude
	c.state.SetPosition(pos)
	return fmt.Sprintf("touchdown=%s", c.cfg.Route.Destination.Name), nil
}

func (c *Controller) controlledDescent(ctx context.Context) (string, error) {
	if err := c.command(ctx, gateway.ActuatorRotors, gateway.CmdDescend); err != nil {
		return "", err
	}
	pos := waypointPos(c.cfg.Route.Destination)
	c.state.SetPosition(pos)
	return "touchdown", nil
}

func (c *Controller) cameraConfirm(ctx context.Context, failure string) (string, error) {
	if r := c.readSensor(ctx, gateway.SensorCamera); !r.OK() {
		return "", fmt.Errorf("%s (%s)", failure, r.Quality)
	}
	return "", nil
}

func (c *Controller) signalCompletion(ctx context.Context) (string, error) {
	if err := c.command(ctx, gateway.ActuatorLEDs, gateway.CmdFlash); err != nil {
		return "", err
	}
	if err := c.command(ctx, gateway.ActuatorSpeaker, gateway.CmdChime); err != nil {
		return "", err
	}
	return "", nil
}

func (c *Controller) batteryStatusUpdate(ctx context.Context) (string, error) {
	r := c.readSensor(ctx, gateway.SensorBattery)
	if !r.Usable() {
		return "", fmt.Errorf("battery reading %s", r.Quality)
	}
	c.state.SetBattery(r.Value)
	return fmt.Sprintf("battery=%.0f%%", r.Value), nil
}

func (c *Controller) evaluateReturn(ctx context.Context) (string, error) {
	detail := fmt.Sprintf("battery=%.0f%%", c.state.Battery())
	if c.forcedReturn {
		detail += " forced_return"
	}
	return detail, nil
}

func (c *Controller) returnNavigation(ctx context.Context) (string, error) {
	if err := c.command(ctx, gateway.ActuatorRotors, gateway.CmdReturnLeg); err != nil {
		return "", err
	}
	c.state.SetPosition(waypointPos(c.cfg.Route.Base))
	return fmt.Sprintf("base=%s", c.cfg.Route.Base.Name), nil
}

func (c *Controller) dockAndCharge(ctx context.Context) (string, error) {
	if err := c.command(ctx, gateway.ActuatorRotors, gateway.CmdDock); err != nil {
		return "", err
	}
	c.state.SetBattery(100)
	return "charged to 100%", nil
}

func (c *Controller) fullDiagnostics(ctx context.Context) (string, error) {
	ok := 0
	for _, sensor := range healthSensors {
		if r := c.readSensor(ctx, sensor); r.OK() {
			ok++
		}
	}
	return fmt.Sprintf("sensors_ok=%d/%d", ok, len(healthSensors)), nil
}

func (c *Controller) maintenanceFlags(ctx context.Context) (string, error) {
	var flagged []string
	for _, sensor := range healthSensors {
		if r := c.readSensor(ctx, sensor); !r.OK() {
			flagged = append(flagged, sensor)
		}
	}
	if len(flagged) == 0 {
		return "no maintenance issues", nil
	}
	return "flagged: " + strings.Join(flagged, ","), nil
}

// Flight altitudes in meters.
const (
	transitAltitude  = 80.0
	approachAltitude = 10.0
)

func waypointPos(w config.Waypoint) Position {
	return Position{Lat: w.Lat, Lon: w.Lon, Alt: w.Alt}
}
