// YAML mission config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so config files can use values like "30s" or "250ms".
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Waypoint names a geographic point on the mission route.
type Waypoint struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
	Alt  float64 `yaml:"alt"`
}

// Route defines origin, destination, and the recovery base for a mission.
type Route struct {
	Origin      Waypoint `yaml:"origin"`
	Destination Waypoint `yaml:"destination"`
	Base        Waypoint `yaml:"base"`
}

// Thresholds holds the safety limits evaluated by the failsafe loop and the
// preflight gate. Battery values are percentages, distances meters, gusts m/s.
type Thresholds struct {
	PreflightBatteryMin float64  `yaml:"preflight_battery_min"`
	LowBattery          float64  `yaml:"low_battery"`
	VeryLowBattery      float64  `yaml:"very_low_battery"`
	CriticalBattery     float64  `yaml:"critical_battery"`
	AvoidanceDistanceM  float64  `yaml:"avoidance_distance_m"`
	EmergencyDistanceM  float64  `yaml:"emergency_distance_m"`
	MaxGustMPS          float64  `yaml:"max_gust_mps"`
	CommsTimeout        Duration `yaml:"comms_timeout"`
	CommsHoverGrace     Duration `yaml:"comms_hover_grace"`
}

// Mission is the root configuration for one delivery mission. It is loaded
// once at mission start and treated as immutable for the mission's duration.
type Mission struct {
	Name           string     `yaml:"name"`
	PayloadKG      float64    `yaml:"payload_kg"`
	Route          Route      `yaml:"route"`
	Thresholds     Thresholds `yaml:"thresholds"`
	SupervisorTick Duration   `yaml:"supervisor_tick"`
	ControlTick    Duration   `yaml:"control_tick"`
	GatewayTimeout Duration   `yaml:"gateway_timeout"`
}

// Load reads a YAML mission config, validates it against the CUE schema, and
// applies defaults for unset fields.
func Load(configPath, cueSchemaPath string) (*Mission, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg Mission
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Mission) applyDefaults() {
	if c.SupervisorTick == 0 {
		c.SupervisorTick = Duration(200 * time.Millisecond)
	}
	if c.ControlTick == 0 {
		c.ControlTick = Duration(500 * time.Millisecond)
	}
	if c.GatewayTimeout == 0 {
		c.GatewayTimeout = Duration(2 * time.Second)
	}
	if c.Thresholds.PreflightBatteryMin == 0 {
		c.Thresholds.PreflightBatteryMin = 85
	}
	if c.Thresholds.LowBattery == 0 {
		c.Thresholds.LowBattery = 40
	}
	if c.Thresholds.VeryLowBattery == 0 {
		c.Thresholds.VeryLowBattery = 25
	}
	if c.Thresholds.CriticalBattery == 0 {
		c.Thresholds.CriticalBattery = 20
	}
	if c.Thresholds.AvoidanceDistanceM == 0 {
		c.Thresholds.AvoidanceDistanceM = 50
	}
	if c.Thresholds.EmergencyDistanceM == 0 {
		c.Thresholds.EmergencyDistanceM = 10
	}
	if c.Thresholds.MaxGustMPS == 0 {
		c.Thresholds.MaxGustMPS = 15
	}
	if c.Thresholds.CommsTimeout == 0 {
		c.Thresholds.CommsTimeout = Duration(30 * time.Second)
	}
	if c.Thresholds.CommsHoverGrace == 0 {
		c.Thresholds.CommsHoverGrace = Duration(60 * time.Second)
	}
}

// Validate checks cross-field constraints the schema cannot express.
func (c *Mission) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("mission name must be set")
	}
	t := c.Thresholds
	if t.CriticalBattery >= t.VeryLowBattery || t.VeryLowBattery >= t.LowBattery {
		return fmt.Errorf("battery thresholds must satisfy critical < very_low < low (got %.0f/%.0f/%.0f)",
			t.CriticalBattery, t.VeryLowBattery, t.LowBattery)
	}
	if t.LowBattery >= t.PreflightBatteryMin {
		return fmt.Errorf("preflight_battery_min %.0f must exceed low_battery %.0f",
			t.PreflightBatteryMin, t.LowBattery)
	}
	if t.EmergencyDistanceM >= t.AvoidanceDistanceM {
		return fmt.Errorf("emergency_distance_m %.0f must be below avoidance_distance_m %.0f",
			t.EmergencyDistanceM, t.AvoidanceDistanceM)
	}
	return nil
}
