package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a loaded document fails the
// field-by-field validation Load performs after unmarshalling.
var ErrInvalidConfig = errors.New("config: invalid input configuration")

// Load reads and validates an InputConfig document from path.
func Load(path string) (InputConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return InputConfig{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg InputConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return InputConfig{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return InputConfig{}, err
	}
	return cfg, nil
}

// validate checks the fields Compile's downstream stages require to be
// present, logging recoverable oddities rather than rejecting them.
func validate(cfg *InputConfig) error {
	if cfg.PartNum == "" {
		return fmt.Errorf("%w: part_num is required", ErrInvalidConfig)
	}
	if len(cfg.Vertices) == 0 {
		return fmt.Errorf("%w: vertices must be non-empty", ErrInvalidConfig)
	}
	for name, e := range cfg.Edges {
		if _, ok := cfg.Vertices[e.ProducedBy]; !ok {
			return fmt.Errorf("%w: edge %q produced_by %q is not a known vertex", ErrInvalidConfig, name, e.ProducedBy)
		}
		if _, ok := cfg.Vertices[e.ConsumedBy]; !ok {
			return fmt.Errorf("%w: edge %q consumed_by %q is not a known vertex", ErrInvalidConfig, name, e.ConsumedBy)
		}
	}
	if len(cfg.GroupingConstraints) == 0 {
		logrus.WithField("part_num", cfg.PartNum).Debug("config: grouping_constraints is empty")
	}
	return nil
}

// Write serializes out to path as YAML.
func Write(path string, out OutputConfig) error {
	raw, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("config: marshalling output: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	logrus.WithField("path", path).WithField("status", out.FloorplanStatus).Info("config: wrote output configuration")
	return nil
}
