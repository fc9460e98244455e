package arm

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Backend != "sim" {
		t.Errorf("backend = %q, want sim", cfg.Backend)
	}
	if cfg.Serial.BaudRate != 1_000_000 {
		t.Errorf("baud rate = %d, want 1000000", cfg.Serial.BaudRate)
	}
	if cfg.CAN.Codec != "damiao" {
		t.Errorf("codec = %q, want damiao", cfg.CAN.Codec)
	}
	if cfg.Gripper.Motor != (MotorConfig{Type: DM4310, SendID: 0x08, RecvID: 0x18}) {
		t.Errorf("gripper motor = %+v", cfg.Gripper.Motor)
	}
	if *cfg.Gripper.Kp != 4.0 || *cfg.Gripper.Kd != 1.0 {
		t.Errorf("gains = %v/%v, want 4/1", *cfg.Gripper.Kp, *cfg.Gripper.Kd)
	}
	if cfg.Gripper.HoldSeconds != 3.0 || cfg.Gripper.RateHz != 50 {
		t.Errorf("session = %vs at %dHz, want 3s at 50Hz", cfg.Gripper.HoldSeconds, cfg.Gripper.RateHz)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openarm.json")

	cfg := DefaultConfig()
	cfg.Backend = "can"
	cfg.CAN = CANConfig{Interface: "can0", FD: true, Codec: "damiao"}
	cfg.Arm.Motors = []MotorConfig{
		{Type: DM4310, SendID: 0x01, RecvID: 0x11},
		{Type: DM4340, SendID: 0x02, RecvID: 0x12},
	}

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.Backend != "can" || loaded.CAN.Interface != "can0" || !loaded.CAN.FD {
		t.Errorf("CAN settings lost: %+v", loaded.CAN)
	}
	if len(loaded.Arm.Motors) != 2 || loaded.Arm.Motors[1].Type != DM4340 {
		t.Errorf("arm motors lost: %+v", loaded.Arm.Motors)
	}
	if *loaded.Gripper.Kp != 4.0 {
		t.Errorf("defaults not applied on load: kp = %v", *loaded.Gripper.Kp)
	}
}

func TestLoadConfigDefaultsOmittedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openarm.json")
	minimal := `{"backend": "serial", "serial": {"port": "/dev/ttyACM0"}}`
	if err := os.WriteFile(path, []byte(minimal), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Serial.BaudRate != 1_000_000 {
		t.Errorf("baud rate default missing: %d", cfg.Serial.BaudRate)
	}
	if cfg.Gripper.RateHz != 50 {
		t.Errorf("rate default missing: %d", cfg.Gripper.RateHz)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("minimal config should validate: %v", err)
	}
}

func TestLoadConfigZeroGains(t *testing.T) {
	// An explicit 0 in the file is a valid gain, not an omitted field,
	// and must survive loading instead of becoming the default.
	path := filepath.Join(t.TempDir(), "openarm.json")
	raw := `{"gripper": {"kp": 0, "kd": 0}}`
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if *cfg.Gripper.Kp != 0 || *cfg.Gripper.Kd != 0 {
		t.Errorf("gains = %v/%v, want explicit zeros preserved", *cfg.Gripper.Kp, *cfg.Gripper.Kd)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("zero gains should validate: %v", err)
	}

	// And they round-trip through save.
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadConfigFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if *cfg.Gripper.Kp != 0 || *cfg.Gripper.Kd != 0 {
		t.Errorf("gains after round trip = %v/%v, want 0/0", *cfg.Gripper.Kp, *cfg.Gripper.Kd)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfigFrom(filepath.Join(t.TempDir(), "nope.json"))
	if !os.IsNotExist(err) {
		t.Errorf("got %v, want a not-exist error", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"sim needs nothing", func(c *Config) {}, true},
		{"can without interface", func(c *Config) { c.Backend = "can" }, false},
		{"can with interface", func(c *Config) { c.Backend = "can"; c.CAN.Interface = "can0" }, true},
		{"serial without port", func(c *Config) { c.Backend = "serial" }, false},
		{"serial with port", func(c *Config) { c.Backend = "serial"; c.Serial.Port = "/dev/ttyACM0" }, true},
		{"unknown backend", func(c *Config) { c.Backend = "bluetooth" }, false},
		{"zero gains", func(c *Config) { c.Gripper.Kp = floatPtr(0); c.Gripper.Kd = floatPtr(0) }, true},
		{"negative kp", func(c *Config) { c.Gripper.Kp = floatPtr(-1) }, false},
		{"negative kd", func(c *Config) { c.Gripper.Kd = floatPtr(-0.5) }, false},
		{"negative hold", func(c *Config) { c.Gripper.HoldSeconds = -3 }, false},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(cfg)
		err := cfg.Validate()
		if tt.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("%s: expected a validation error", tt.name)
		}
	}
}
