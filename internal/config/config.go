package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	BaseDir    string `toml:"base_dir"`
	UsersDir   string `toml:"users_dir"`
	LogDir     string `toml:"log_dir"`
	CascadeDir string `toml:"cascade_dir"`
}

// Analysis contains tuning parameters for the video integrity analysis.
type Analysis struct {
	// FrameSampleInterval controls sampling: one of every N decoded frames is analyzed.
	FrameSampleInterval int `toml:"frame_sample_interval"`
	// DetailSampleInterval controls trace retention: every Nth analyzed record is kept.
	DetailSampleInterval  int     `toml:"detail_sample_interval"`
	FaceMovementThreshold float64 `toml:"face_movement_threshold"`
	EyeMovementThreshold  float64 `toml:"eye_movement_threshold"`
	MaxFrameWidth         int     `toml:"max_frame_width"`
	MaxSuspiciousEvents   int     `toml:"max_suspicious_events"`
	CheatingThreshold     float64 `toml:"cheating_threshold"`
}

// Scoring contains the weights applied when aggregating final results.
type Scoring struct {
	IntegrityWeight float64 `toml:"integrity_weight"`
	ContentWeight   float64 `toml:"content_weight"`
	DeliveryWeight  float64 `toml:"delivery_weight"`
	VocalWeight     float64 `toml:"vocal_weight"`
	// ScorerSeed seeds the placeholder question scorer; 0 derives a seed from the clock.
	ScorerSeed int64 `toml:"scorer_seed"`
}

// Audio contains configuration for the external audio-processing pipeline.
type Audio struct {
	Enabled bool `toml:"enabled"`
	// Command is the external audio pipeline binary. It is invoked with
	// session id, username, audio path, and base directory as arguments.
	Command        string `toml:"command"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Workflow contains daemon timing and concurrency settings.
type Workflow struct {
	PollInterval       int `toml:"poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	Workers            int `toml:"workers"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for proctor.
//
// Configuration sections by subsystem:
//   - Paths: artifact directories and detection cascade location
//   - Analysis: sampling intervals and movement thresholds
//   - Scoring: final-result aggregation weights and scorer seed
//   - Audio: external audio pipeline handoff
//   - Workflow: daemon polling intervals and worker count
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Analysis Analysis `toml:"analysis"`
	Scoring  Scoring  `toml:"scoring"`
	Audio    Audio    `toml:"audio"`
	Workflow Workflow `toml:"workflow"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/proctor/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("proctor.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.BaseDir, c.Paths.UsersDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// UserDir returns the artifact directory for a user.
func (c *Config) UserDir(username string) string {
	return filepath.Join(c.Paths.UsersDir, username)
}

// SessionDir returns the artifact directory for one interview session.
func (c *Config) SessionDir(username, sessionID string) string {
	return filepath.Join(c.UserDir(username), "interview", sessionID)
}

// DatabasePath returns the location of the session database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.BaseDir, "sessions.db")
}

// FFmpegBinary returns the ffmpeg executable name used for decoding and extraction.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
