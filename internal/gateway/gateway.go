// Capability contracts for sensors and actuators.
//
// Hardware adapters live outside the core; this package defines the
// interfaces the mission controller and failsafe supervisor call into, plus
// simulation adapters used by the CLI and tests.
package gateway

import (
	"context"
	"errors"
	"time"
)

// Sensor identifiers known to the core.
const (
	SensorBattery    = "battery"
	SensorGPS        = "gps"
	SensorLiDAR      = "lidar"
	SensorCamera     = "camera"
	SensorIMU        = "imu"
	SensorUltrasonic = "ultrasonic"
	SensorWind       = "wind"
	SensorPrecip     = "precipitation"
	SensorObstacle   = "obstacle_range"
	SensorAvoidance  = "avoidance_feasible"
	SensorComms      = "comms_link"
	SensorAirspace   = "airspace"
)

// Actuator identifiers known to the core.
const (
	ActuatorRotors  = "rotors"
	ActuatorServo   = "servo_arm"
	ActuatorLEDs    = "led_lights"
	ActuatorSpeaker = "speaker"
)

// Rotor commands issued by the controller.
const (
	CmdTakeoff        = "spinup_ascend"
	CmdHover          = "hover"
	CmdCruise         = "cruise"
	CmdAdjustAltitude = "adjust_altitude"
	CmdDescend        = "descend"
	CmdReturnLeg      = "return_leg"
	CmdEmergencyLand  = "emergency_land"
	CmdEmergencyClimb = "emergency_climb"
	CmdDock           = "dock"
	CmdRelease        = "release_package"
	CmdFlash          = "flash"
	CmdChime          = "chime"
)

// Reading quality. A stale reading carries the last known value; an
// unavailable one carries no usable value and must be treated as unknown,
// never as zero.
const (
	QualityOK          = "ok"
	QualityStale       = "stale"
	QualityUnavailable = "unavailable"
)

// Reading is one typed sensor sample.
type Reading struct {
	Sensor    string    `json:"sensor"`
	Value     float64   `json:"value"`
	Quality   string    `json:"quality"`
	Timestamp time.Time `json:"ts"`
}

// OK reports whether the reading carries a fresh usable value.
func (r Reading) OK() bool { return r.Quality == QualityOK }

// Usable reports whether the reading carries any value at all (fresh or stale).
func (r Reading) Usable() bool { return r.Quality == QualityOK || r.Quality == QualityStale }

// SensorGateway is the uniform read interface over heterogeneous sensors.
// Implementations must be safe for concurrent use by the controller and the
// supervisor, and must honor ctx deadlines rather than hang.
type SensorGateway interface {
	Read(ctx context.Context, sensor string) Reading
}

// ErrActuator wraps an actuator failure reason.
var ErrActuator = errors.New("actuator failure")

// ActuatorGateway is the uniform command interface to actuators. Commands
// are idempotent-safe for the caller to retry at most once; the gateway
// itself never retries. Implementations must honor ctx deadlines.
type ActuatorGateway interface {
	Command(ctx context.Context, actuator, command string) error
}
