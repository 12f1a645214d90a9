package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/fetchview/internal/logging"
	"github.com/rshade/fetchview/internal/metrics"
	"github.com/rshade/fetchview/internal/tui"
)

const metricsShutdownTimeout = 2 * time.Second

type demoOptions struct {
	panels      int
	metricsAddr string
	source      sourceFlags
}

func newDemoCmd(state *rootState) *cobra.Command {
	var opts demoOptions

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Open the interactive loader preview",
		Long: `Opens a terminal UI with one or more panels, each driven by its own loader.
Panels load on start; press r on a failed panel to retry, R to refresh, tab to
switch panels and q to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
				return fmt.Errorf("demo: %w; use 'fetchview snapshot' instead", ErrNotTerminal)
			}
			return runDemo(cmd, state, opts)
		},
	}

	cmd.Flags().IntVar(&opts.panels, "panels", 1, "number of panels")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "",
		"serve Prometheus metrics on this address while the demo runs (e.g. :9090)")
	opts.source.register(cmd)

	return cmd
}

// runDemo builds the panels and runs the Bubble Tea program until the user quits.
func runDemo(cmd *cobra.Command, state *rootState, opts demoOptions) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)

	src, err := opts.source.resolve(cmd, state.cfg.Source)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	loaders, err := newPanelLoaders(opts.panels, src, metrics.NewCollector(reg))
	if err != nil {
		return err
	}

	if opts.metricsAddr != "" {
		stop, serveErr := serveMetrics(ctx, opts.metricsAddr, reg)
		if serveErr != nil {
			return serveErr
		}
		defer stop()
	}

	// Console logs would draw over the UI; keep them only when they go to a file.
	if !state.logToFile {
		ctx = zerolog.Nop().WithContext(ctx)
	}

	panels := make([]*tui.DetailModel[[]string], 0, len(loaders))
	for _, l := range loaders {
		panels = append(panels, tui.NewDetailModel(ctx, l, tui.ItemsRenderer))
	}

	var model tea.Model = tui.NewDashboard(panels...)
	if len(panels) == 1 {
		model = panels[0]
	}

	log.Debug().Ctx(ctx).Int("panels", len(panels)).Msg("starting demo")
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err = p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run interactive TUI: %w", err)
	}
	return nil
}

// serveMetrics serves reg on addr until the returned stop function is called.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) (func(), error) {
	log := logging.FromContext(ctx)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if serveErr := srv.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			log.Error().Err(serveErr).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	log.Info().Ctx(ctx).Str("addr", ln.Addr().String()).Msg("serving metrics")

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}
