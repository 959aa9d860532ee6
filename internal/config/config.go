// Package config handles the optional YAML config file for ir-remote run.
package config

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/ir-remote/internal/action"
	"github.com/sweeney/ir-remote/internal/gpio"
	"github.com/sweeney/ir-remote/internal/mqtt"
	"github.com/sweeney/ir-remote/internal/nec"
)

// ErrInvalidConfig is wrapped by Validate failures.
var ErrInvalidConfig = errors.New("invalid config")

// Config represents an ir-remote.yaml file. Absent keys keep the values
// from Default; CLI flags override both.
type Config struct {
	Profile   ProfileConfig     `yaml:"profile"`
	GPIO      GPIOConfig        `yaml:"gpio"`
	MQTT      MQTTConfig        `yaml:"mqtt"`
	HTTP      string            `yaml:"http"`
	WSBroker  string            `yaml:"ws_broker"`
	Heartbeat Duration          `yaml:"heartbeat"`
	Log       LogConfig         `yaml:"log"`
	Commands  map[string]string `yaml:"commands"`
}

// ProfileConfig holds the decoder timing.
type ProfileConfig struct {
	Tick       Duration `yaml:"tick"`
	BitOne     Duration `yaml:"bit_threshold"`
	FrameStart Duration `yaml:"frame_start"`
}

// GPIOConfig selects the chip and lines.
type GPIOConfig struct {
	Chip    string `yaml:"chip"`
	PinIR   int    `yaml:"ir_pin"`
	PinsLED []int  `yaml:"led_pins"`
}

// MQTTConfig holds broker settings.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Encoding string `yaml:"encoding"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "560us", "15m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "1ms" or "15m".
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML writes the duration in time.Duration string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Profile: ProfileConfig{
			Tick:       Duration{nec.DefaultProfile.Tick},
			BitOne:     Duration{nec.DefaultProfile.BitOne},
			FrameStart: Duration{nec.DefaultProfile.FrameStart},
		},
		GPIO: GPIOConfig{
			Chip:    gpio.DefaultChip,
			PinIR:   gpio.DefaultPinIR,
			PinsLED: append([]int(nil), gpio.DefaultPinsLED[:]...),
		},
		MQTT: MQTTConfig{
			Broker:   "tcp://192.168.1.200:1883",
			ClientID: "ir-remote",
			Encoding: string(mqtt.EncodingJSON),
		},
		HTTP:      ":80",
		WSBroker:  "=broker",
		Heartbeat: Duration{15 * time.Minute},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// NECProfile returns the decoder timing profile.
func (c *Config) NECProfile() nec.Profile {
	return nec.Profile{
		Tick:       c.Profile.Tick.Duration,
		BitOne:     c.Profile.BitOne.Duration,
		FrameStart: c.Profile.FrameStart.Duration,
	}
}

// Table builds the action table. An empty commands section yields the
// default table.
func (c *Config) Table() (action.Table, error) {
	if len(c.Commands) == 0 {
		return action.DefaultTable(), nil
	}

	// Sort for deterministic error reporting.
	codes := make([]string, 0, len(c.Commands))
	for code := range c.Commands {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	table := make(action.Table, len(codes))
	for _, code := range codes {
		key, err := nec.ParseKey(code)
		if err != nil {
			return nil, fmt.Errorf("%w: commands: %v", ErrInvalidConfig, err)
		}
		a, err := action.ParseAction(c.Commands[code])
		if err != nil {
			return nil, fmt.Errorf("%w: commands[%s]: %v", ErrInvalidConfig, code, err)
		}
		if _, dup := table[key]; dup {
			return nil, fmt.Errorf("%w: commands: %s listed twice", ErrInvalidConfig, key)
		}
		table[key] = a
	}
	return table, nil
}

// Validate checks the config for values the daemon cannot run with.
func (c *Config) Validate() error {
	if err := c.NECProfile().Validate(); err != nil {
		return fmt.Errorf("%w: profile: %w", ErrInvalidConfig, err)
	}
	if c.GPIO.Chip == "" {
		return fmt.Errorf("%w: gpio.chip is empty", ErrInvalidConfig)
	}
	if c.GPIO.PinIR < 0 {
		return fmt.Errorf("%w: gpio.ir_pin %d is negative", ErrInvalidConfig, c.GPIO.PinIR)
	}
	if len(c.GPIO.PinsLED) != len(action.All) {
		return fmt.Errorf("%w: gpio.led_pins needs %d lines, got %d", ErrInvalidConfig, len(action.All), len(c.GPIO.PinsLED))
	}
	seen := map[int]bool{c.GPIO.PinIR: true}
	for _, p := range c.GPIO.PinsLED {
		if p < 0 {
			return fmt.Errorf("%w: gpio.led_pins has negative line %d", ErrInvalidConfig, p)
		}
		if seen[p] {
			return fmt.Errorf("%w: gpio line %d used twice", ErrInvalidConfig, p)
		}
		seen[p] = true
	}
	if c.MQTT.Broker == "" {
		return fmt.Errorf("%w: mqtt.broker is empty", ErrInvalidConfig)
	}
	if _, err := mqtt.ParseEncoding(c.MQTT.Encoding); err != nil {
		return fmt.Errorf("%w: mqtt.encoding: %v", ErrInvalidConfig, err)
	}
	if c.Heartbeat.Duration < 0 {
		return fmt.Errorf("%w: heartbeat must not be negative", ErrInvalidConfig)
	}
	if _, err := c.Table(); err != nil {
		return err
	}
	return nil
}
