package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/fetchview/internal/loadable"
)

func TestCollector_RecordsLoaderLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	fail := true
	fetch := func(context.Context) (string, error) {
		if fail {
			return "", errors.New("E1")
		}
		return "ok", nil
	}
	l, err := loadable.New(fetch, nil, loadable.WithName("panel"), loadable.WithObserver(c))
	require.NoError(t, err)

	ctx := context.Background()
	l.InitialLoad(ctx)
	fail = false
	l.Retry(ctx)
	l.Refresh(ctx)

	assert.InDelta(t, 1, testutil.ToFloat64(c.fetchesStarted.WithLabelValues("panel", "initial")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.fetchesStarted.WithLabelValues("panel", "retry")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.fetchesStarted.WithLabelValues("panel", "refresh")), 0)

	assert.InDelta(t, 1, testutil.ToFloat64(c.fetchesFinished.WithLabelValues("panel", "initial", "failure")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.fetchesFinished.WithLabelValues("panel", "retry", "success")), 0)

	assert.InDelta(t, 2, testutil.ToFloat64(c.transitions.WithLabelValues("panel", "idle", "loading"))+
		testutil.ToFloat64(c.transitions.WithLabelValues("panel", "error", "loading")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.transitions.WithLabelValues("panel", "loading", "dataLoaded")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.transitions.WithLabelValues("panel", "dataLoaded", "dataLoaded")), 0,
		"refresh replaces loaded content without passing through loading")

	assert.InDelta(t, 1, testutil.ToFloat64(c.state.WithLabelValues("panel", "dataLoaded")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(c.state.WithLabelValues("panel", "error")), 0)

	assert.Equal(t, 2, testutil.CollectAndCount(c.fetchDuration))
}

func TestCollector_DroppedOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.FetchFinished("p", loadable.TriggerRefresh, loadable.OutcomeSuperseded, 10*time.Millisecond)
	c.FetchFinished("p", loadable.TriggerRetry, loadable.OutcomeCancelled, time.Millisecond)

	assert.InDelta(t, 1, testutil.ToFloat64(c.fetchesFinished.WithLabelValues("p", "refresh", "superseded")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.fetchesFinished.WithLabelValues("p", "retry", "cancelled")), 0)
}

func TestNewCollector_RegistersOnRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.FetchStarted("p", loadable.TriggerInitial)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "fetchview_fetches_started_total")
}
