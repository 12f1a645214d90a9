package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/fetchview/internal/config"
	"github.com/rshade/fetchview/internal/loadable"
)

// isolateEnv points the config home at a temp dir and clears FETCHVIEW_* overrides.
func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)
	t.Setenv(config.EnvProjectDir, "")
	for _, k := range []string{
		config.EnvLogLevel, config.EnvLogFormat, config.EnvLogFile,
		config.EnvDelay, config.EnvFailEvery, config.EnvFailFirst, config.EnvItems,
	} {
		t.Setenv(k, "")
	}
	// Keep console logs quiet in test output.
	t.Setenv(config.EnvLogLevel, "error")
	return home
}

// execute runs the root command with args and returns stdout, stderr and the error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd("test")
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

type snapshotLine struct {
	Panel    string `json:"panel"`
	Attempts int    `json:"attempts"`
	Result   struct {
		State string   `json:"state"`
		Value []string `json:"value"`
		Error string   `json:"error"`
	} `json:"result"`
}

func parseLines(t *testing.T, out string) []snapshotLine {
	t.Helper()
	var lines []snapshotLine
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		var l snapshotLine
		require.NoError(t, json.Unmarshal(sc.Bytes(), &l), "line: %s", sc.Text())
		lines = append(lines, l)
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestNewRootCmd(t *testing.T) {
	root := NewRootCmd("1.2.3")
	require.NotNil(t, root)
	assert.Equal(t, "fetchview", root.Use)
	assert.Equal(t, "1.2.3", root.Version)
	assert.NotNil(t, root.PersistentFlags().Lookup("debug"))
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "demo")
	assert.Contains(t, names, "snapshot")
}

func TestSnapshot_Table(t *testing.T) {
	isolateEnv(t)

	out, _, err := execute(t, "snapshot", "--panels", "2", "--delay", "0")
	require.NoError(t, err)

	assert.Contains(t, out, "PANEL")
	assert.Contains(t, out, "panel-1")
	assert.Contains(t, out, "panel-2")
	assert.Contains(t, out, "dataLoaded")
	assert.Contains(t, out, "5 items")
}

func TestSnapshot_JSON(t *testing.T) {
	isolateEnv(t)

	out, _, err := execute(t, "snapshot", "--panels", "3", "--delay", "0", "--items", "2", "-o", "json")
	require.NoError(t, err)

	lines := parseLines(t, out)
	require.Len(t, lines, 3)
	for i, l := range lines {
		assert.Equal(t, panelName(i), l.Panel, "results keep panel order")
		assert.Equal(t, 1, l.Attempts)
		assert.Equal(t, "dataLoaded", l.Result.State)
		assert.Len(t, l.Result.Value, 2)
	}
}

func TestSnapshot_RetriesRecover(t *testing.T) {
	isolateEnv(t)

	out, _, err := execute(t, "snapshot", "--panels", "2", "--delay", "0",
		"--fail-first", "1", "--retries", "2", "-o", "json")
	require.NoError(t, err)

	for _, l := range parseLines(t, out) {
		assert.Equal(t, 2, l.Attempts)
		assert.Equal(t, "dataLoaded", l.Result.State)
	}
}

func TestSnapshot_FailedPanelsExitNonZero(t *testing.T) {
	isolateEnv(t)

	out, _, err := execute(t, "snapshot", "--panels", "1", "--delay", "0",
		"--fail-first", "5", "--retries", "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPanelsNotLoaded)

	assert.Contains(t, out, "error")
	assert.Contains(t, out, "fetchview.source:503:panel-1: backend unavailable")
}

func TestSnapshot_Timeout(t *testing.T) {
	isolateEnv(t)

	out, _, err := execute(t, "snapshot", "--panels", "1", "--delay", "1h", "--timeout", "20ms")
	require.ErrorIs(t, err, ErrPanelsNotLoaded)
	assert.Contains(t, out, "loading")
	assert.Contains(t, out, "timed out")
}

func TestSnapshot_Metrics(t *testing.T) {
	isolateEnv(t)

	_, stderr, err := execute(t, "snapshot", "--panels", "2", "--delay", "0", "--metrics")
	require.NoError(t, err)

	assert.Contains(t, stderr, "fetchview_fetches_started_total")
	assert.Contains(t, stderr, `fetchview_fetches_finished_total{loader="panel-1",outcome="success",trigger="initial"} 1`)
	assert.Contains(t, stderr, `fetchview_loader_state{loader="panel-2",state="dataLoaded"} 1`)
}

func TestSnapshot_ConfigFile(t *testing.T) {
	home := isolateEnv(t)
	path := filepath.Join(home, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source:\n  delay: 0s\n  items: 1\n"), 0600))

	out, _, err := execute(t, "snapshot", "--config", path, "--panels", "1", "-o", "json")
	require.NoError(t, err)

	lines := parseLines(t, out)
	require.Len(t, lines, 1)
	assert.Equal(t, []string{"panel-1-1 (fetch #1)"}, lines[0].Result.Value)
}

func TestSnapshot_InvalidArguments(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"bad output", []string{"-o", "xml"}, "unsupported output format"},
		{"negative retries", []string{"--retries", "-1"}, "retries must be >= 0"},
		{"no panels", []string{"--panels", "0"}, "panels must be at least 1"},
		{"negative delay", []string{"--delay", "-1s"}, "delay must not be negative"},
		{"missing config", []string{"--config", "/nonexistent/fetchview.yaml"}, "loading config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			_, _, err := execute(t, append([]string{"snapshot"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDemo_RequiresTerminal(t *testing.T) {
	if isTerminal(os.Stdin) && isTerminal(os.Stdout) {
		t.Skip("test requires a non-interactive stdin or stdout")
	}
	isolateEnv(t)

	_, _, err := execute(t, "demo")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotTerminal)
}

func TestPanelDetail(t *testing.T) {
	assert.Equal(t, "-", panelDetail(loadable.Idle[[]string]()))
	assert.Equal(t, "timed out", panelDetail(loadable.Loading[[]string]()))
	assert.Equal(t, "2 items", panelDetail(loadable.Loaded([]string{"a", "b"})))
}

func TestSnapshot_ProjectOverlay(t *testing.T) {
	isolateEnv(t)
	project := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(project, ".fetchview"), 0750))
	require.NoError(t, os.WriteFile(filepath.Join(project, ".fetchview", "config.yaml"),
		[]byte("source:\n  delay: 0s\n  items: 3\n"), 0600))

	out, _, err := execute(t, "snapshot", "--project-dir", project, "--panels", "1", "-o", "json")
	require.NoError(t, err)

	lines := parseLines(t, out)
	require.Len(t, lines, 1)
	assert.Len(t, lines[0].Result.Value, 3)
}
