package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/droidtile/internal/output"
	"github.com/mj1618/droidtile/internal/platform"
)

// SetupResult is the YAML output of setup.
type SetupResult struct {
	OK        bool   `yaml:"ok"                json:"ok"`
	Backend   string `yaml:"backend"           json:"backend"`
	Connected bool   `yaml:"connected"         json:"connected"`
	Freeform  bool   `yaml:"freeform"          json:"freeform"`
	Enabled   bool   `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Displays  []int  `yaml:"displays,omitempty" json:"displays,omitempty"`
	Hint      string `yaml:"hint,omitempty"    json:"hint,omitempty"`
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Check that the device is reachable and freeform windows are on",
	Long: `Check the device connection and the freeform windowing setting.

With --enable-freeform the setting is switched on when it is off. Some devices
need a reboot before freeform windows appear.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
	setupCmd.Flags().Bool("enable-freeform", false, "Switch freeform windows on when they are off")
}

func runSetup(cmd *cobra.Command, args []string) error {
	_, p, err := connect()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	enable, _ := cmd.Flags().GetBool("enable-freeform")
	res := SetupResult{Backend: p.Name}

	err = p.Checker.Check(ctx)
	if errors.Is(err, platform.ErrFreeformDisabled) && enable {
		if p.Toggler == nil {
			return fmt.Errorf("backend %s cannot switch freeform windows on", p.Name)
		}
		if err := p.Toggler.EnableFreeform(ctx); err != nil {
			return fmt.Errorf("enable freeform: %w", err)
		}
		res.Enabled = true
		err = p.Checker.Check(ctx)
	}

	switch {
	case err == nil:
		res.OK, res.Connected, res.Freeform = true, true, true
		res.Displays, _ = p.Screens.Displays(ctx)
	case errors.Is(err, platform.ErrFreeformDisabled):
		res.Connected = true
		res.Hint = "run 'droidtile setup --enable-freeform' or enable 'Force activities to be resizable' in developer options"
	case errors.Is(err, platform.ErrNotConnected):
		res.Hint = "connect the device and allow USB debugging, or pass --serial"
	default:
		return err
	}
	if res.Enabled && res.Freeform {
		res.Hint = "freeform windows enabled; reboot the device if windows do not float"
	}

	if err := output.Print(res); err != nil {
		return err
	}
	if !res.OK {
		return errors.New("device is not ready for tiling")
	}
	return nil
}
