package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/fetchview/internal/loadable"
	"github.com/rshade/fetchview/internal/logging"
	"github.com/rshade/fetchview/internal/metrics"
)

// Output formats for snapshot.
const (
	outputTable = "table"
	outputJSON  = "json"
)

const (
	defaultSnapshotPanels  = 3
	defaultSnapshotTimeout = 30 * time.Second
	tabwriterPadding       = 2
)

// ErrPanelsNotLoaded is returned when any panel ends in a state other than loaded.
var ErrPanelsNotLoaded = errors.New("not all panels loaded")

type snapshotOptions struct {
	panels  int
	retries int
	output  string
	metrics bool
	timeout time.Duration
	source  sourceFlags
}

// panelResult is the final state of one snapshot panel.
type panelResult struct {
	Panel    string                   `json:"panel"`
	Attempts int                      `json:"attempts"`
	State    loadable.State[[]string] `json:"result"`
}

func newSnapshotCmd(state *rootState) *cobra.Command {
	var opts snapshotOptions

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Load panels headlessly and print their final states",
		Long: `Loads each panel once, concurrently, retrying failed panels up to --retries
times, then prints one line per panel. Exits non-zero if any panel did not load.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSnapshot(cmd, state, opts)
		},
	}

	cmd.Flags().IntVar(&opts.panels, "panels", defaultSnapshotPanels, "number of panels")
	cmd.Flags().IntVar(&opts.retries, "retries", 0, "retries per failed panel")
	cmd.Flags().StringVarP(&opts.output, "output", "o", outputTable, "output format: table or json")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "write Prometheus metrics to stderr when done")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", defaultSnapshotTimeout, "overall time limit")
	opts.source.register(cmd)

	return cmd
}

func runSnapshot(cmd *cobra.Command, state *rootState, opts snapshotOptions) error {
	if opts.output != outputTable && opts.output != outputJSON {
		return fmt.Errorf("unsupported output format %q (want %s)", opts.output, formatList())
	}
	if opts.retries < 0 {
		return fmt.Errorf("retries must be >= 0, got %d", opts.retries)
	}

	src, err := opts.source.resolve(cmd, state.cfg.Source)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	loaders, err := newPanelLoaders(opts.panels, src, metrics.NewCollector(reg))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	results := loadPanels(ctx, loaders, opts.retries)

	if err = renderSnapshot(cmd.OutOrStdout(), opts.output, results); err != nil {
		return err
	}
	if opts.metrics {
		if err = writeMetrics(cmd.ErrOrStderr(), reg); err != nil {
			return err
		}
	}

	notLoaded := 0
	for _, r := range results {
		if !r.State.IsLoaded() {
			notLoaded++
		}
	}
	if notLoaded > 0 {
		return fmt.Errorf("%w: %d of %d", ErrPanelsNotLoaded, notLoaded, len(results))
	}
	return nil
}

// loadPanels runs every loader's initial load concurrently, retrying failures
// up to retries times. Results keep the loaders' order.
func loadPanels(ctx context.Context, loaders []*loadable.Loader[[]string], retries int) []panelResult {
	results := make([]panelResult, len(loaders))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, l := range loaders {
		g.Go(func() error {
			results[i] = loadPanel(gCtx, l, retries)
			// Always return nil - a failed panel must not cancel the others.
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func loadPanel(ctx context.Context, l *loadable.Loader[[]string], retries int) panelResult {
	log := logging.FromContext(ctx)

	l.InitialLoad(ctx)
	attempts := 1
	for l.Snapshot().IsFailed() && attempts <= retries && ctx.Err() == nil {
		log.Debug().Ctx(ctx).Str("panel", l.Name()).Int("attempt", attempts+1).Msg("retrying panel")
		l.Retry(ctx)
		attempts++
	}

	return panelResult{Panel: l.Name(), Attempts: attempts, State: l.Snapshot()}
}

func renderSnapshot(w io.Writer, format string, results []panelResult) error {
	if format == outputJSON {
		enc := json.NewEncoder(w)
		for _, r := range results {
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("encoding panel %s: %w", r.Panel, err)
			}
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, tabwriterPadding, ' ', 0)
	fmt.Fprintln(tw, "PANEL\tSTATE\tATTEMPTS\tDETAIL")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.Panel, r.State.TypeName(), r.Attempts, panelDetail(r.State))
	}
	return tw.Flush()
}

// panelDetail summarizes a state for the table: item count, error key, or
// a note for a panel that never completed.
func panelDetail(s loadable.State[[]string]) string {
	switch s.Kind() {
	case loadable.KindLoaded:
		items, _ := s.Value()
		return strconv.Itoa(len(items)) + " items"
	case loadable.KindFailed:
		return loadable.ErrorKey(s.Err())
	case loadable.KindLoading:
		return "timed out"
	default:
		return "-"
	}
}

// writeMetrics writes every metric family in reg in the Prometheus text format.
func writeMetrics(w io.Writer, reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err = expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// formatList joins the names of the supported output formats.
func formatList() string {
	return strings.Join([]string{outputTable, outputJSON}, ", ")
}
