package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/droidtile/internal/model"
	"github.com/mj1618/droidtile/internal/output"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List freeform windows on the device",
	Long:  "List the app windows on each display with their package, task id and bounds.",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntP("display", "d", -1, "Only this display (default: all)")
	listCmd.Flags().String("app", "", "Filter windows by package name")
	listCmd.Flags().Bool("apps", false, "List package names only")
}

func runList(cmd *cobra.Command, args []string) error {
	_, p, err := connect()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	display, _ := cmd.Flags().GetInt("display")
	appName, _ := cmd.Flags().GetString("app")
	apps, _ := cmd.Flags().GetBool("apps")

	displays := []int{display}
	if display < 0 {
		if displays, err = p.Screens.Displays(ctx); err != nil {
			return fmt.Errorf("list displays: %w", err)
		}
	}

	results := []output.WindowsResult{}
	for _, id := range displays {
		screen, err := p.Screens.ScreenBounds(ctx, id)
		if err != nil {
			return fmt.Errorf("display %d: %w", id, err)
		}
		windows, err := p.Windows.ListWindows(ctx, id)
		if err != nil {
			return fmt.Errorf("display %d: %w", id, err)
		}
		results = append(results, output.WindowsResult{
			Display: id,
			Screen:  screen,
			TS:      time.Now().Unix(),
			Windows: filterWindows(windows, appName),
		})
	}

	if apps {
		seen := make(map[string]bool)
		names := []string{}
		for _, r := range results {
			for _, pkg := range model.Packages(r.Windows) {
				if !seen[pkg] {
					seen[pkg] = true
					names = append(names, pkg)
				}
			}
		}
		return output.Print(names)
	}
	return output.Print(results)
}

func filterWindows(windows []model.Window, pkg string) []model.Window {
	out := []model.Window{}
	for _, w := range windows {
		if pkg == "" || w.Package == pkg {
			out = append(out, w)
		}
	}
	return out
}
