package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Top-level YAML config key names used for shallow merge.
const (
	keyLogging = "logging"
	keySource  = "source"
)

// ShallowMergeYAML loads a YAML file and merges its top-level sections onto
// target. A section present in the overlay replaces the target's section,
// with fields the overlay leaves out taking their defaults. Absent sections
// and unknown keys leave target unchanged.
func ShallowMergeYAML(target *Config, overlayPath string) error {
	if target == nil {
		return errors.New("nil target *Config in ShallowMergeYAML")
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", overlayPath, err)
	}

	var overlay map[string]yaml.Node
	if err = yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing overlay YAML from %s: %w", overlayPath, err)
	}

	for key, node := range overlay {
		if err = applySection(target, key, &node); err != nil {
			return fmt.Errorf("applying overlay section %q: %w", key, err)
		}
	}
	return nil
}

// applySection decodes node onto a default-valued copy of the section named
// key and stores it in target.
func applySection(target *Config, key string, node *yaml.Node) error {
	defaults := New()
	switch key {
	case keyLogging:
		v := defaults.Logging
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Logging = v
	case keySource:
		v := defaults.Source
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Source = v
	}
	return nil
}
