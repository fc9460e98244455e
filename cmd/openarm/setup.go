package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"go.bug.st/serial"

	"github.com/openarm-community/openarm-go/pkg/arm"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type SetupCommand struct {
	Config string `long:"config" description:"Path to write the configuration file"`
}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("OpenArm Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━"))
	fmt.Println()

	cfg := arm.DefaultConfig()

	if err := askBackend(cfg); err != nil {
		return err
	}
	if err := askGripper(cfg); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	path := c.Config
	if path == "" {
		path = arm.DefaultConfigFile
	}
	if err := cfg.SaveTo(path); err != nil {
		return fmt.Errorf("save configuration: %w", err)
	}

	fmt.Println()
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", path)
	fmt.Println()
	fmt.Println("Arm motors can be added under \"arm\".\"motors\" in the file.")
	fmt.Println("Try it with: " + headerStyle.Render("openarm hold close"))

	return nil
}

func askBackend(cfg *arm.Config) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which bus are the motors on?").
				Options(
					huh.NewOption("Simulated (no hardware)", "sim"),
					huh.NewOption("CAN / CAN FD (SocketCAN)", "can"),
					huh.NewOption("Serial (Feetech STS servos)", "serial"),
				).
				Value(&cfg.Backend),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}

	switch cfg.Backend {
	case "can":
		return askCAN(cfg)
	case "serial":
		return askSerial(cfg)
	}
	return nil
}

func askCAN(cfg *arm.Config) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("CAN interface").
				Placeholder("can0").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("interface name is required")
					}
					return nil
				}).
				Value(&cfg.CAN.Interface),
			huh.NewConfirm().
				Title("Use CAN FD frames?").
				Value(&cfg.CAN.FD),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return nil
}

func askSerial(cfg *arm.Config) error {
	ports, err := serial.GetPortsList()
	if err != nil {
		return fmt.Errorf("list serial ports: %w", err)
	}

	var options []huh.Option[string]
	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}
		options = append(options, huh.NewOption(port, port))
	}
	if len(options) == 0 {
		return fmt.Errorf("no serial ports found, connect the bus adapter first")
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Serial port").
				Options(options...).
				Value(&cfg.Serial.Port),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return nil
}

func askGripper(cfg *arm.Config) error {
	sendID := fmt.Sprintf("0x%02X", cfg.Gripper.Motor.SendID)
	recvID := fmt.Sprintf("0x%02X", cfg.Gripper.Motor.RecvID)
	motorType := string(cfg.Gripper.Motor.Type)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Gripper motor type").
				Options(
					huh.NewOption("DM4310", string(arm.DM4310)),
					huh.NewOption("DM4340", string(arm.DM4340)),
					huh.NewOption("DM8009", string(arm.DM8009)),
				).
				Value(&motorType),
			huh.NewInput().
				Title("Gripper send ID").
				Description("Decimal or 0x-prefixed hex").
				Validate(validateID).
				Value(&sendID),
			huh.NewInput().
				Title("Gripper receive ID").
				Description("Decimal or 0x-prefixed hex").
				Validate(validateID).
				Value(&recvID),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}

	cfg.Gripper.Motor.Type = arm.MotorType(motorType)
	cfg.Gripper.Motor.SendID = parseID(sendID)
	cfg.Gripper.Motor.RecvID = parseID(recvID)
	return nil
}

func validateID(s string) error {
	if _, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32); err != nil {
		return fmt.Errorf("not a valid ID: %v", err)
	}
	return nil
}

// parseID assumes validateID has already accepted the input.
func parseID(s string) uint32 {
	v, _ := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	return uint32(v)
}
