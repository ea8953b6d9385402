package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAnalysis()
	c.normalizeWorkflow()
	c.normalizeLogging()
	c.Audio.Command = strings.TrimSpace(c.Audio.Command)
	if c.Audio.TimeoutSeconds <= 0 {
		c.Audio.TimeoutSeconds = defaultAudioTimeout
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.BaseDir, err = expandPath(c.Paths.BaseDir); err != nil {
		return fmt.Errorf("paths.base_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.UsersDir) == "" {
		c.Paths.UsersDir = filepath.Join(c.Paths.BaseDir, "users")
	}
	if c.Paths.UsersDir, err = expandPath(c.Paths.UsersDir); err != nil {
		return fmt.Errorf("paths.users_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.CascadeDir, err = expandPath(c.Paths.CascadeDir); err != nil {
		return fmt.Errorf("paths.cascade_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAnalysis() {
	if c.Analysis.FrameSampleInterval <= 0 {
		c.Analysis.FrameSampleInterval = defaultFrameSampleInterval
	}
	if c.Analysis.DetailSampleInterval <= 0 {
		c.Analysis.DetailSampleInterval = defaultDetailSampleInterval
	}
	if c.Analysis.FaceMovementThreshold <= 0 {
		c.Analysis.FaceMovementThreshold = defaultFaceMovementThreshold
	}
	if c.Analysis.EyeMovementThreshold <= 0 {
		c.Analysis.EyeMovementThreshold = defaultEyeMovementThreshold
	}
	if c.Analysis.MaxFrameWidth <= 0 {
		c.Analysis.MaxFrameWidth = defaultMaxFrameWidth
	}
	if c.Analysis.MaxSuspiciousEvents <= 0 {
		c.Analysis.MaxSuspiciousEvents = defaultMaxSuspiciousEvents
	}
	if c.Analysis.CheatingThreshold <= 0 {
		c.Analysis.CheatingThreshold = defaultCheatingThreshold
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.PollInterval <= 0 {
		c.Workflow.PollInterval = defaultPollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Workflow.Workers <= 0 {
		c.Workflow.Workers = defaultWorkers
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
