package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/fetchview/internal/loadable"
)

func TestSimulated_Items(t *testing.T) {
	s := NewSimulated(Config{Name: "row", Items: 3})

	items, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"row-1 (fetch #1)", "row-2 (fetch #1)", "row-3 (fetch #1)"}, items)
	assert.Equal(t, 1, s.Calls())
}

func TestSimulated_FailureSchedule(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want []bool // failure per call
	}{
		{"never", Config{Items: 1}, []bool{false, false, false}},
		{"fail first two", Config{Items: 1, FailFirst: 2}, []bool{true, true, false, false}},
		{"fail every third", Config{Items: 1, FailEvery: 3}, []bool{false, false, true, false, false, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSimulated(tt.cfg)
			for i, wantFail := range tt.want {
				_, err := s.Fetch(context.Background())
				assert.Equal(t, wantFail, err != nil, "call %d", i+1)
			}
		})
	}
}

func TestSimulated_ErrorsNormalizeEqual(t *testing.T) {
	s := NewSimulated(Config{Name: "a", FailFirst: 2})

	_, err1 := s.Fetch(context.Background())
	_, err2 := s.Fetch(context.Background())
	require.Error(t, err1)
	require.Error(t, err2)
	assert.NotSame(t, err1, err2)

	var coded loadable.Coded
	require.True(t, errors.As(err1, &coded))
	assert.Equal(t, Domain, coded.Domain())
	assert.Equal(t, CodeUnavailable, coded.Code())

	assert.True(t, loadable.Equal(loadable.Failed[int](err1), loadable.Failed[int](err2)))
}

func TestSimulated_HonorsCancellation(t *testing.T) {
	s := NewSimulated(Config{Delay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulated_DrivesLoader(t *testing.T) {
	s := NewSimulated(Config{Name: "x", Items: 1, FailFirst: 1})
	l, err := loadable.New(s.Fetch, nil)
	require.NoError(t, err)

	ctx := context.Background()
	l.InitialLoad(ctx)
	assert.True(t, l.Snapshot().IsFailed())

	l.Retry(ctx)
	items, ok := l.Snapshot().Value()
	require.True(t, ok)
	assert.Equal(t, []string{"x-1 (fetch #2)"}, items)
}
