package procstatus

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"proctor/internal/analysis"
	"proctor/internal/fileutil"
)

// StatusFile is the artifact filename within a session directory.
const StatusFile = "interview_analysis.json"

// Status is the processing-status artifact. Field names are the external
// contract; the audio pipeline and result pollers read them by key.
type Status struct {
	SessionID              string            `json:"session_id"`
	ProcessingCompleted    bool              `json:"processing_completed"`
	ProcessingTimestamp    string            `json:"processing_timestamp"`
	CheatingAnalysis       *analysis.Summary `json:"cheating_analysis"`
	AudioExtracted         bool              `json:"audio_extracted"`
	AudioProcessingStarted bool              `json:"audio_processing_started"`
	VideoAnalyzed          bool              `json:"video_analyzed"`
	Error                  string            `json:"error,omitempty"`
}

// New returns a status stamped with the current time.
func New(sessionID string) Status {
	return Status{
		SessionID:           sessionID,
		ProcessingTimestamp: time.Now().Format(time.RFC3339),
	}
}

// Write replaces the status artifact in dir under the artifact lock.
func Write(dir string, status Status) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("procstatus: create session dir: %w", err)
	}
	path := filepath.Join(dir, StatusFile)

	lock := flock.New(lockPath(path))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("procstatus: acquire lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	if err := fileutil.WriteJSON(path, status); err != nil {
		return fmt.Errorf("procstatus: write status: %w", err)
	}
	return nil
}

// Read loads the status artifact from dir. A missing artifact returns the
// zero value and ok=false; pollers treat that as "not yet processed".
func Read(dir string) (Status, bool, error) {
	path := filepath.Join(dir, StatusFile)

	var status Status
	err := fileutil.ReadJSON(path, &status)
	if errors.Is(err, os.ErrNotExist) {
		return Status{}, false, nil
	}
	if err != nil {
		return Status{}, false, fmt.Errorf("procstatus: read status: %w", err)
	}
	return status, true, nil
}

// MarkProcessingCompleted flips the completion flag under the artifact lock,
// preserving all other fields. The audio pipeline calls this when it finishes.
func MarkProcessingCompleted(dir string) error {
	path := filepath.Join(dir, StatusFile)

	lock := flock.New(lockPath(path))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("procstatus: acquire lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	var status Status
	if err := fileutil.ReadJSON(path, &status); err != nil {
		return fmt.Errorf("procstatus: read status for completion: %w", err)
	}
	status.ProcessingCompleted = true
	status.ProcessingTimestamp = time.Now().Format(time.RFC3339)

	if err := fileutil.WriteJSON(path, status); err != nil {
		return fmt.Errorf("procstatus: write completed status: %w", err)
	}
	return nil
}

func lockPath(artifactPath string) string {
	return artifactPath + ".lock"
}
