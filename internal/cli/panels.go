package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/fetchview/internal/config"
	"github.com/rshade/fetchview/internal/loadable"
	"github.com/rshade/fetchview/internal/source"
)

// sourceFlags holds the per-command overrides of the config's source section.
type sourceFlags struct {
	delay     time.Duration
	items     int
	failFirst int
	failEvery int
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&f.delay, "delay", 0, "simulated fetch duration (overrides config)")
	cmd.Flags().IntVar(&f.items, "items", 0, "items returned per fetch (overrides config)")
	cmd.Flags().IntVar(&f.failFirst, "fail-first", 0, "fail the first N fetches of each panel (overrides config)")
	cmd.Flags().IntVar(&f.failEvery, "fail-every", 0, "fail every N-th fetch of each panel, 0 disables (overrides config)")
}

// resolve applies flags the user set on top of the configured source section.
func (f *sourceFlags) resolve(cmd *cobra.Command, base config.SourceConfig) (config.SourceConfig, error) {
	if cmd.Flags().Changed("delay") {
		base.Delay = f.delay
	}
	if cmd.Flags().Changed("items") {
		base.Items = f.items
	}
	if cmd.Flags().Changed("fail-first") {
		base.FailFirst = f.failFirst
	}
	if cmd.Flags().Changed("fail-every") {
		base.FailEvery = f.failEvery
	}

	check := config.Config{Logging: config.New().Logging, Source: base}
	if err := check.Validate(); err != nil {
		return base, err
	}
	return base, nil
}

// panelName returns the display name of the i-th (0-based) panel.
func panelName(i int) string {
	return fmt.Sprintf("panel-%d", i+1)
}

// newPanelLoaders builds n loaders, each over its own simulated source.
func newPanelLoaders(n int, src config.SourceConfig, obs loadable.Observer) ([]*loadable.Loader[[]string], error) {
	if n < 1 {
		return nil, fmt.Errorf("panels must be at least 1, got %d", n)
	}

	loaders := make([]*loadable.Loader[[]string], 0, n)
	for i := range n {
		name := panelName(i)
		sim := source.NewSimulated(source.Config{
			Name:      name,
			Delay:     src.Delay,
			Items:     src.Items,
			FailFirst: src.FailFirst,
			FailEvery: src.FailEvery,
		})
		l, err := loadable.New(sim.Fetch, nil, loadable.WithName(name), loadable.WithObserver(obs))
		if err != nil {
			return nil, fmt.Errorf("creating loader %s: %w", name, err)
		}
		loaders = append(loaders, l)
	}
	return loaders, nil
}
