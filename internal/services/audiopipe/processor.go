package audiopipe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"proctor/internal/config"
	"proctor/internal/fileutil"
)

// MetricsFile is the artifact the external pipeline writes into the session
// directory when it finishes.
const MetricsFile = "audio_analysis.json"

// Metrics are the speech measurements this core reads back.
type Metrics struct {
	VocalConfidence float64        `json:"vocal_confidence"`
	Fillers         map[string]int `json:"fillers"`
	RateWPM         float64        `json:"rate_wpm"`
}

// Analysis is the metrics artifact envelope.
type Analysis struct {
	Metrics    Metrics `json:"metrics"`
	Transcript string  `json:"transcript,omitempty"`
}

// TotalFillers sums all filler-word counts.
func (m Metrics) TotalFillers() int {
	total := 0
	for _, count := range m.Fillers {
		total += count
	}
	return total
}

// ReadMetrics loads the metrics artifact from a session directory. A missing
// artifact returns ok=false; the pipeline may simply not have finished yet.
func ReadMetrics(dir string) (Analysis, bool, error) {
	var analysis Analysis
	err := fileutil.ReadJSON(filepath.Join(dir, MetricsFile), &analysis)
	if errors.Is(err, os.ErrNotExist) {
		return Analysis{}, false, nil
	}
	if err != nil {
		return Analysis{}, false, fmt.Errorf("audiopipe: read metrics: %w", err)
	}
	return analysis, true, nil
}

// Processor invokes the configured external speech-analysis command.
type Processor struct {
	command       []string
	timeout       time.Duration
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewProcessor builds a processor from configuration. A disabled or empty
// audio command yields a processor whose Enabled reports false.
func NewProcessor(cfg *config.Config) *Processor {
	p := &Processor{timeout: time.Duration(cfg.Audio.TimeoutSeconds) * time.Second}
	if cfg.Audio.Enabled {
		p.command = strings.Fields(cfg.Audio.Command)
	}
	return p
}

// WithCommandRunner sets a custom command runner (for testing).
func (p *Processor) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	p.commandRunner = runner
}

// Enabled reports whether an external command is configured.
func (p *Processor) Enabled() bool {
	return p != nil && len(p.command) > 0
}

// Process invokes the external pipeline with the collaborator contract
// arguments. The call blocks until the command exits or the timeout fires;
// callers run it fire-and-forget.
func (p *Processor) Process(ctx context.Context, sessionID, username, audioPath, baseDir string) error {
	if !p.Enabled() {
		return nil
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	args := append(append([]string{}, p.command[1:]...), sessionID, username, audioPath, baseDir)
	if p.commandRunner != nil {
		return p.commandRunner(ctx, p.command[0], args...)
	}

	cmd := exec.CommandContext(ctx, p.command[0], args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("audiopipe: %s: %w: %s", p.command[0], err, strings.TrimSpace(string(output)))
	}
	return nil
}
