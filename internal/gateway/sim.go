package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SimSensors is an in-memory SensorGateway with scriptable values. Tests and
// the CLI use it in place of hardware drivers. All methods are concurrency-safe.
type SimSensors struct {
	mu       sync.Mutex
	values   map[string]float64
	quality  map[string]string
	drainPct float64

	now func() time.Time
}

// NewSimSensors returns a gateway with healthy defaults: full comms, clear
// airspace, no obstacles, calm weather, battery at the given percentage.
func NewSimSensors(battery float64) *SimSensors {
	return &SimSensors{
		values: map[string]float64{
			SensorBattery:    battery,
			SensorGPS:        1,
			SensorLiDAR:      1,
			SensorCamera:     1,
			SensorIMU:        1,
			SensorUltrasonic: 1,
			SensorWind:       3,
			SensorPrecip:     0,
			SensorObstacle:   1000,
			SensorAvoidance:  1,
			SensorComms:      1,
			SensorAirspace:   1,
		},
		quality: map[string]string{},
		now:     time.Now,
	}
}

// WithBatteryDrain makes every battery read decrement the stored charge,
// approximating consumption over a mission. Returns the receiver for chaining.
func (s *SimSensors) WithBatteryDrain(pctPerRead float64) *SimSensors {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drainPct = pctPerRead
	return s
}

// Set overrides a sensor's current value.
func (s *SimSensors) Set(sensor string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[sensor] = value
}

// SetQuality forces a sensor's quality (QualityStale or QualityUnavailable);
// an empty string restores normal reads.
func (s *SimSensors) SetQuality(sensor, quality string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if quality == "" {
		delete(s.quality, sensor)
		return
	}
	s.quality[sensor] = quality
}

// Read implements SensorGateway.
func (s *SimSensors) Read(ctx context.Context, sensor string) Reading {
	if err := ctx.Err(); err != nil {
		return Reading{Sensor: sensor, Quality: QualityUnavailable, Timestamp: time.Now().UTC()}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.now().UTC()
	v, known := s.values[sensor]
	if !known {
		return Reading{Sensor: sensor, Quality: QualityUnavailable, Timestamp: ts}
	}
	if q, forced := s.quality[sensor]; forced {
		r := Reading{Sensor: sensor, Quality: q, Timestamp: ts}
		if q == QualityStale {
			r.Value = v
		}
		return r
	}
	if sensor == SensorBattery && s.drainPct > 0 {
		v -= s.drainPct
		if v < 0 {
			v = 0
		}
		s.values[sensor] = v
	}
	return Reading{Sensor: sensor, Value: v, Quality: QualityOK, Timestamp: ts}
}

// SimActuators is an in-memory ActuatorGateway that records every command
// and can be primed to fail. Commands succeed unless a failure was injected.
type SimActuators struct {
	mu       sync.Mutex
	failures map[string]int
	history  []string
}

// NewSimActuators returns an actuator gateway that accepts every command.
func NewSimActuators() *SimActuators {
	return &SimActuators{failures: map[string]int{}}
}

// FailNext makes the next n commands to the given actuator fail.
func (a *SimActuators) FailNext(actuator string, n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures[actuator] = n
}

// Command implements ActuatorGateway.
func (a *SimActuators) Command(ctx context.Context, actuator, command string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s/%s: %v", ErrActuator, actuator, command, err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = append(a.history, actuator+":"+command)
	if n := a.failures[actuator]; n > 0 {
		a.failures[actuator] = n - 1
		return fmt.Errorf("%w: %s rejected %s", ErrActuator, actuator, command)
	}
	return nil
}

// Commands returns the "actuator:command" history in issue order.
func (a *SimActuators) Commands() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.history))
	copy(out, a.history)
	return out
}
