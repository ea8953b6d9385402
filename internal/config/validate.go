package config

import (
	"fmt"
	"strings"
)

// Validate reports configuration values that cannot be repaired by normalize.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.BaseDir) == "" {
		return fmt.Errorf("paths.base_dir is required")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	total := c.Scoring.IntegrityWeight + c.Scoring.ContentWeight + c.Scoring.DeliveryWeight + c.Scoring.VocalWeight
	if total <= 0 {
		return fmt.Errorf("scoring weights must sum to a positive value")
	}
	if diff := total - 1.0; diff > 0.001 || diff < -0.001 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %.3f", total)
	}
	return nil
}
