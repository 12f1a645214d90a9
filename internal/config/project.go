package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rshade/fetchview/internal/logging"
)

// EnvProjectDir overrides project directory discovery.
const EnvProjectDir = "FETCHVIEW_PROJECT_DIR"

// ErrNoProject is returned by FindProject when no ancestor holds a
// project config.
var ErrNoProject = errors.New("no .fetchview/config.yaml found in any parent directory")

// ResolveProjectDir determines the project-local .fetchview directory path.
// It checks (in order):
//  1. flagValue (--project-dir CLI flag)
//  2. FETCHVIEW_PROJECT_DIR env var
//  3. FindProject(startDir) walk-up
//
// Returns the absolute path to $PROJECT/.fetchview/ or "" if no project was found.
// Does NOT create the directory.
func ResolveProjectDir(ctx context.Context, flagValue, startDir string) string {
	if flagValue != "" {
		return toAbsProjectDir(ctx, flagValue)
	}

	if envDir := os.Getenv(EnvProjectDir); envDir != "" {
		return toAbsProjectDir(ctx, envDir)
	}

	projectRoot, err := FindProject(startDir)
	if err != nil {
		if !errors.Is(err, ErrNoProject) {
			logger := logging.FromContext(ctx)
			logger.Warn().
				Str("component", "config").
				Err(err).
				Str("start_dir", startDir).
				Msg("unexpected error during project discovery")
		}
		return ""
	}

	return toAbsProjectDir(ctx, projectRoot)
}

// FindProject walks up from dir and returns the first directory containing
// .fetchview/config.yaml. The user's home directory is skipped, since its
// .fetchview holds the global config.
func FindProject(dir string) (string, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}
	home, _ := os.UserHomeDir()

	for {
		if current != home {
			candidate := filepath.Join(current, configDirName, configFileName)
			if _, statErr := os.Stat(candidate); statErr == nil {
				return current, nil
			}
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", ErrNoProject
		}
		current = parent
	}
}

// toAbsProjectDir converts dir to an absolute path and appends ".fetchview"
// unless the path already ends with it.
func toAbsProjectDir(ctx context.Context, dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		logger := logging.FromContext(ctx)
		logger.Warn().
			Str("component", "config").
			Err(err).
			Str("dir", dir).
			Msg("failed to resolve absolute path for project directory")
		abs = dir
	}

	if filepath.Base(abs) == configDirName {
		return abs
	}
	return filepath.Join(abs, configDirName)
}
