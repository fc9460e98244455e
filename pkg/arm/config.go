package arm

import (
	"encoding/json"
	"fmt"
	"os"
)

const DefaultConfigFile = "openarm.json"

// Config holds the bus connection and motor layout for one arm.
type Config struct {
	// Backend selects the driver: "can", "serial" or "sim".
	Backend string        `json:"backend"`
	CAN     CANConfig     `json:"can,omitempty"`
	Serial  SerialConfig  `json:"serial,omitempty"`
	Arm     ArmConfig     `json:"arm,omitempty"`
	Gripper GripperConfig `json:"gripper"`
}

// CANConfig configures the SocketCAN backend.
type CANConfig struct {
	Interface string `json:"interface"`
	FD        bool   `json:"fd"`
	// Codec names the registered vendor frame codec.
	Codec string `json:"codec,omitempty"`
}

// SerialConfig configures the Feetech serial backend.
type SerialConfig struct {
	Port     string `json:"port"`
	BaudRate int    `json:"baud_rate,omitempty"`
}

// ArmConfig lists the arm motors (gripper excluded).
type ArmConfig struct {
	Motors []MotorConfig `json:"motors,omitempty"`
}

// GripperConfig holds the gripper motor and its default command
// parameters. Kp and Kd are pointers so an explicit 0 in the file is
// distinguishable from an omitted field.
type GripperConfig struct {
	Motor       MotorConfig `json:"motor"`
	Kp          *float64    `json:"kp,omitempty"`
	Kd          *float64    `json:"kd,omitempty"`
	HoldSeconds float64     `json:"hold_seconds,omitempty"`
	RateHz      int         `json:"rate_hz,omitempty"`
}

// DefaultConfig returns a configuration with all defaults applied,
// targeting the simulated backend.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig loads configuration from the default config file.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigFile)
}

// LoadConfigFrom loads configuration from a specific file and applies
// defaults for omitted fields.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Backend == "" {
		c.Backend = "sim"
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = 1_000_000
	}
	if c.CAN.Codec == "" {
		c.CAN.Codec = "damiao"
	}
	if c.Gripper.Motor == (MotorConfig{}) {
		c.Gripper.Motor = MotorConfig{Type: DM4310, SendID: 0x08, RecvID: 0x18}
	}
	if c.Gripper.Kp == nil {
		c.Gripper.Kp = floatPtr(4.0)
	}
	if c.Gripper.Kd == nil {
		c.Gripper.Kd = floatPtr(1.0)
	}
	if c.Gripper.HoldSeconds == 0 {
		c.Gripper.HoldSeconds = 3.0
	}
	if c.Gripper.RateHz == 0 {
		c.Gripper.RateHz = 50
	}
}

// Validate checks the configuration for contradictions that defaults
// cannot fix.
func (c *Config) Validate() error {
	switch c.Backend {
	case "can":
		if c.CAN.Interface == "" {
			return &ConfigurationError{Field: "can.interface", Reason: "required for the can backend"}
		}
	case "serial":
		if c.Serial.Port == "" {
			return &ConfigurationError{Field: "serial.port", Reason: "required for the serial backend"}
		}
	case "sim":
	default:
		return &ConfigurationError{Field: "backend", Reason: fmt.Sprintf("unknown backend %q", c.Backend)}
	}

	if g := c.Gripper; (g.Kp != nil && *g.Kp < 0) || (g.Kd != nil && *g.Kd < 0) {
		return &ConfigurationError{Field: "gripper", Reason: "kp and kd must be non-negative"}
	}
	if c.Gripper.HoldSeconds < 0 {
		return &ConfigurationError{Field: "gripper.hold_seconds", Reason: "must be non-negative"}
	}

	return nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo saves configuration to a specific file.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if the default config file exists.
func ConfigExists() bool {
	_, err := os.Stat(DefaultConfigFile)
	return err == nil
}

func floatPtr(v float64) *float64 {
	return &v
}
