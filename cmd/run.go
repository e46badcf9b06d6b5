package cmd

import (
	"context"
	"reflect"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mj1618/droidtile/internal/config"
	"github.com/mj1618/droidtile/internal/reconcile"
	"github.com/mj1618/droidtile/internal/server"
	"github.com/mj1618/droidtile/internal/telemetry"
	"github.com/mj1618/droidtile/internal/version"
	"github.com/mj1618/droidtile/internal/workspace"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Keep the device tiled until interrupted",
	Long: `Run the tiler: one reconciliation loop per display re-applies the active
workspace layout whenever windows open, close or move.

Supported MCP transports:
  stdio   Standard I/O (for MCP clients that spawn droidtile)
  http    Streamable HTTP on --addr

Examples:
  droidtile run
  droidtile run --mcp stdio --log-level warn
  droidtile run --mcp http --addr localhost:8765`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("mcp", "", "Serve MCP tools over a transport: stdio, http (default: server.transport from config)")
	runCmd.Flags().String("addr", "", "Listen address for the http transport (default: server.addr from config)")
	runCmd.Flags().Bool("no-watch", false, "Do not reload the config file when it changes")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, p, err := connect()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	transport, _ := cmd.Flags().GetString("mcp")
	addr, _ := cmd.Flags().GetString("addr")
	noWatch, _ := cmd.Flags().GetBool("no-watch")
	if transport == "" {
		transport = cfg.Server.Transport
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	settings, err := cfg.Settings()
	if err != nil {
		return err
	}
	wsc, err := cfg.WorkspaceConfig()
	if err != nil {
		return err
	}

	tp, err := telemetry.New(ctx, cfg.Telemetry, componentLogger("telemetry"))
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("metrics shutdown failed")
		}
	}()
	metrics, err := telemetry.NewMetrics(tp.Meter())
	if err != nil {
		return err
	}

	engine, err := reconcile.NewEngine(p, wsc, settings, reconcile.EngineOptions{
		Logger:   componentLogger("engine"),
		Metrics:  metrics,
		Displays: cfg.Displays(),
	})
	if err != nil {
		return err
	}

	if !noWatch && cfgManager.ConfigFileUsed() != "" {
		reloader := &configReloader{update: engine.UpdateConfig, last: cfg}
		cfgManager.OnConfigChange(func(next *config.Config) {
			reloader.reload(next)
		})
		cfgManager.Watch()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return engine.Run(gctx) })
	if transport != "" {
		srv := server.New(engine, server.Options{
			Backend: p.Name,
			Version: version.Version,
			Logger:  logger,
		})
		g.Go(func() error { return srv.Serve(gctx, transport, addr) })
	}
	return g.Wait()
}

// configReloader hands changed config files to the running engine. Device
// and backend settings only take effect on restart.
type configReloader struct {
	update func(*workspace.Config, reconcile.Settings) error
	last   *config.Config
}

// reload applies next and reports whether its backend or device settings
// differ from the previous file, which needs a restart.
func (r *configReloader) reload(next *config.Config) bool {
	log := componentLogger("config")
	restart := next.Backend != r.last.Backend || !reflect.DeepEqual(next.Device, r.last.Device)
	r.last = next
	if restart {
		log.Warn().Msg("backend and device settings changed; restart to apply them")
	}
	settings, err := next.Settings()
	if err != nil {
		log.Warn().Err(err).Msg("ignoring config change")
		return restart
	}
	wsc, err := next.WorkspaceConfig()
	if err != nil {
		log.Warn().Err(err).Msg("ignoring config change")
		return restart
	}
	if err := r.update(wsc, settings); err != nil {
		log.Warn().Err(err).Msg("ignoring config change")
		return restart
	}
	log.Info().Int("workspaces", wsc.Len()).Int("gap", settings.Gap).Msg("config reloaded")
	return restart
}
