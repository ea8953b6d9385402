package analysis

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"proctor/internal/fileutil"
)

// Artifact filenames emitted into a session directory.
const (
	EyeAnalysisFile         = "eye_analysis.json"
	DetailedEyeAnalysisFile = "detailed_eye_analysis.json"
	NarrativeReportFile     = "cheating_analysis.txt"
)

const (
	narrativeEventLimit = 10
	detailTrailingLimit = 50
)

// detailedReport pairs the summary with the trailing detail trace.
type detailedReport struct {
	Summary      Summary     `json:"summary"`
	FrameSamples interface{} `json:"frame_samples"`
}

// EmitReports writes the three analysis artifacts into dir: the summary
// artifact, the detailed artifact with the trailing frame samples, and the
// human-readable narrative.
func EmitReports(dir string, result Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("analysis: create report dir: %w", err)
	}

	if err := fileutil.WriteJSON(filepath.Join(dir, EyeAnalysisFile), result.Summary); err != nil {
		return fmt.Errorf("analysis: write summary artifact: %w", err)
	}

	samples := result.FrameSamples
	if len(samples) > detailTrailingLimit {
		samples = samples[len(samples)-detailTrailingLimit:]
	}
	detailed := detailedReport{Summary: result.Summary, FrameSamples: samples}
	if err := fileutil.WriteJSON(filepath.Join(dir, DetailedEyeAnalysisFile), detailed); err != nil {
		return fmt.Errorf("analysis: write detailed artifact: %w", err)
	}

	narrative := RenderNarrative(result.Summary)
	if err := fileutil.WriteFileAtomic(filepath.Join(dir, NarrativeReportFile), []byte(narrative), 0o644); err != nil {
		return fmt.Errorf("analysis: write narrative report: %w", err)
	}
	return nil
}

// RenderNarrative formats the operator-facing text report. Section order is
// fixed; pollers scrape it positionally.
func RenderNarrative(summary Summary) string {
	var b strings.Builder

	b.WriteString("INTERVIEW INTEGRITY ANALYSIS REPORT\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	b.WriteString("VIDEO STATISTICS\n")
	fmt.Fprintf(&b, "  Duration:        %.1f seconds\n", summary.VideoDuration)
	fmt.Fprintf(&b, "  Frame rate:      %.1f fps\n", summary.VideoFPS)
	fmt.Fprintf(&b, "  Analysis rate:   %.1f fps\n", summary.AnalysisFPS)
	fmt.Fprintf(&b, "  Frames analyzed: %d of %d\n\n", summary.TotalFramesAnalyzed, summary.TotalFrames)

	b.WriteString("BEHAVIORAL ANALYSIS\n")
	fmt.Fprintf(&b, "  Looking away:    %.1f%% of analyzed frames\n", summary.LookingAwayPercentage)
	fmt.Fprintf(&b, "  No face visible: %.1f%% of analyzed frames\n", summary.NoFacePercentage)
	fmt.Fprintf(&b, "  Suspicious events: %d\n\n", summary.TotalSuspiciousMovements)

	fmt.Fprintf(&b, "CHEATING SCORE: %.1f / 100\n", summary.CheatingScore)
	if summary.IsCheatingDetected {
		b.WriteString("VERDICT: suspicious behavior detected\n\n")
	} else {
		b.WriteString("VERDICT: no suspicious behavior detected\n\n")
	}

	b.WriteString("NOTES\n")
	b.WriteString("  Frames are sampled, not exhaustively analyzed; short glances\n")
	b.WriteString("  between samples may be missed. Wide frames are downscaled\n")
	b.WriteString("  before detection.\n\n")

	if len(summary.SuspiciousMovements) > 0 {
		b.WriteString("SUSPICIOUS MOMENTS\n")
		limit := len(summary.SuspiciousMovements)
		if limit > narrativeEventLimit {
			limit = narrativeEventLimit
		}
		for _, event := range summary.SuspiciousMovements[:limit] {
			fmt.Fprintf(&b, "  t=%.1fs face_movement=%.1f eye_movement=%.1f faces=%d eyes=%d\n",
				event.Timestamp, event.FaceMovement, event.EyeMovement,
				event.FacesDetected, event.EyesDetected)
		}
		b.WriteString("\n")
	}

	if summary.Error != "" {
		fmt.Fprintf(&b, "ANALYSIS ERROR: %s\n\n", summary.Error)
	}

	timestamp := summary.AnalysisTimestamp
	if timestamp == "" {
		timestamp = time.Now().Format(time.RFC3339)
	}
	fmt.Fprintf(&b, "Analysis completed: %s\n", timestamp)
	return b.String()
}
