package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/droidtile/internal/model"
	"github.com/mj1618/droidtile/internal/output"
	"github.com/mj1618/droidtile/internal/reconcile"
)

// ApplyResult is the YAML output of apply.
type ApplyResult struct {
	Display   int                   `yaml:"display"           json:"display"`
	Workspace string                `yaml:"workspace"         json:"workspace"`
	Cycle     model.CycleSummary    `yaml:"cycle"             json:"cycle"`
	Screen    model.Rect            `yaml:"screen"            json:"screen"`
	Targets   map[string]model.Rect `yaml:"targets,omitempty" json:"targets,omitempty"`
	Windows   []model.Window        `yaml:"windows"           json:"windows"`
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Tile a display once and exit",
	Long: `Run a single forced reconciliation cycle: move every window into the tile
the workspace layout assigns it, launching default apps into an empty display.

Use 'droidtile run' to keep the display tiled as windows change.`,
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)
	addWorkspaceFlags(applyCmd)
	applyCmd.Flags().Bool("no-seed", false, "Do not launch apps into an empty display")
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg, p, err := connect()
	if err != nil {
		return err
	}
	ref, display := getWorkspaceFlags(cmd)
	noSeed, _ := cmd.Flags().GetBool("no-seed")

	settings, err := cfg.Settings()
	if err != nil {
		return err
	}
	if noSeed {
		settings.SeedDefaults = false
	}
	wsc, err := cfg.WorkspaceConfig()
	if err != nil {
		return err
	}
	ws, _, err := resolveWorkspace(wsc, ref, display)
	if err != nil {
		return err
	}

	rec := reconcile.NewReconciler(display, p, reconcile.RealClock{}, nil)
	res := rec.Cycle(cmd.Context(), reconcile.CycleInput{Workspace: ws, Settings: settings, Force: true})
	logger.Debug().Str("outcome", string(res.Summary.Outcome)).Int("moves", res.Summary.Moves).Msg("apply")

	if err := output.Print(ApplyResult{
		Display:   display,
		Workspace: ws.Title(),
		Cycle:     res.Summary,
		Screen:    res.Screen,
		Targets:   res.Targets,
		Windows:   res.Windows,
	}); err != nil {
		return err
	}

	switch {
	case res.Summary.Outcome == model.OutcomeAborted:
		return fmt.Errorf("cycle aborted: %s", res.Summary.Error)
	case res.Summary.MoveFailures > 0:
		return fmt.Errorf("%d of %d moves failed", res.Summary.MoveFailures, res.Summary.Moves+res.Summary.MoveFailures)
	}
	return nil
}
