package analysis

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"proctor/internal/vision"
)

func sampleSummary() Summary {
	return Summary{
		VideoDuration:         30,
		VideoFPS:              24,
		AnalysisFPS:           8,
		TotalFrames:           720,
		TotalFramesAnalyzed:   240,
		LookingAwayFrames:     12,
		NoFaceFrames:          3,
		LookingAwayPercentage: 5,
		NoFacePercentage:      1.25,
		CheatingScore:         8.875,
		SuspiciousMovements: []SuspiciousMovement{
			{Timestamp: 4.5, FaceMovement: 40, FacesDetected: 1, EyesDetected: 2, Type: "suspicious_behavior"},
		},
		TotalSuspiciousMovements: 1,
		AnalysisTimestamp:        "2026-01-15T10:30:00Z",
	}
}

func TestEmitReportsWritesAllArtifacts(t *testing.T) {
	dir := t.TempDir()
	result := Result{
		Summary: sampleSummary(),
		FrameSamples: []vision.FrameAnalysis{
			{FacesDetected: 1, EyesDetected: 2, FrameNumber: 30, Timestamp: 1.25},
		},
	}

	if err := EmitReports(dir, result); err != nil {
		t.Fatalf("EmitReports: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, EyeAnalysisFile))
	if err != nil {
		t.Fatalf("read summary artifact: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode summary artifact: %v", err)
	}
	for _, key := range []string{
		"video_duration", "video_fps", "analysis_fps", "total_frames",
		"total_frames_analyzed", "looking_away_frames", "no_face_frames",
		"looking_away_percentage", "no_face_percentage", "cheating_score",
		"is_cheating_detected", "suspicious_movements",
		"total_suspicious_movements", "analysis_timestamp",
	} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("summary artifact missing key %q", key)
		}
	}
	if _, ok := decoded["error"]; ok {
		t.Error("error key must be omitted when empty")
	}

	raw, err = os.ReadFile(filepath.Join(dir, DetailedEyeAnalysisFile))
	if err != nil {
		t.Fatalf("read detailed artifact: %v", err)
	}
	var detailed struct {
		Summary      Summary                `json:"summary"`
		FrameSamples []vision.FrameAnalysis `json:"frame_samples"`
	}
	if err := json.Unmarshal(raw, &detailed); err != nil {
		t.Fatalf("decode detailed artifact: %v", err)
	}
	if detailed.Summary.CheatingScore != 8.875 {
		t.Errorf("detailed summary score = %v", detailed.Summary.CheatingScore)
	}
	if len(detailed.FrameSamples) != 1 || detailed.FrameSamples[0].FrameNumber != 30 {
		t.Errorf("unexpected frame samples: %+v", detailed.FrameSamples)
	}

	if _, err := os.Stat(filepath.Join(dir, NarrativeReportFile)); err != nil {
		t.Errorf("narrative report missing: %v", err)
	}
}

func TestEmitReportsTrimsDetailTrace(t *testing.T) {
	samples := make([]vision.FrameAnalysis, 80)
	for i := range samples {
		samples[i].FrameNumber = (i + 1) * 30
	}
	dir := t.TempDir()
	if err := EmitReports(dir, Result{Summary: sampleSummary(), FrameSamples: samples}); err != nil {
		t.Fatalf("EmitReports: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, DetailedEyeAnalysisFile))
	if err != nil {
		t.Fatalf("read detailed artifact: %v", err)
	}
	var detailed struct {
		FrameSamples []vision.FrameAnalysis `json:"frame_samples"`
	}
	if err := json.Unmarshal(raw, &detailed); err != nil {
		t.Fatalf("decode detailed artifact: %v", err)
	}
	if len(detailed.FrameSamples) != 50 {
		t.Fatalf("expected trailing 50 samples, got %d", len(detailed.FrameSamples))
	}
	if detailed.FrameSamples[0].FrameNumber != 31*30 {
		t.Errorf("expected trace to start at sample 31, got frame %d", detailed.FrameSamples[0].FrameNumber)
	}
}

func TestRenderNarrativeSectionOrder(t *testing.T) {
	text := RenderNarrative(sampleSummary())

	sections := []string{
		"INTERVIEW INTEGRITY ANALYSIS REPORT",
		"VIDEO STATISTICS",
		"BEHAVIORAL ANALYSIS",
		"CHEATING SCORE: 8.9 / 100",
		"VERDICT: no suspicious behavior detected",
		"NOTES",
		"SUSPICIOUS MOMENTS",
		"Analysis completed: 2026-01-15T10:30:00Z",
	}
	pos := -1
	for _, section := range sections {
		idx := strings.Index(text, section)
		if idx < 0 {
			t.Fatalf("narrative missing section %q:\n%s", section, text)
		}
		if idx < pos {
			t.Errorf("section %q out of order", section)
		}
		pos = idx
	}
}

func TestRenderNarrativeCapsSuspiciousMoments(t *testing.T) {
	summary := sampleSummary()
	summary.SuspiciousMovements = nil
	for i := 0; i < 15; i++ {
		summary.SuspiciousMovements = append(summary.SuspiciousMovements, SuspiciousMovement{
			Timestamp: float64(i), Type: "suspicious_behavior",
		})
	}
	summary.TotalSuspiciousMovements = 15

	text := RenderNarrative(summary)
	if got := strings.Count(text, "face_movement="); got != 10 {
		t.Errorf("expected 10 listed moments, got %d", got)
	}
}

func TestRenderNarrativeDegraded(t *testing.T) {
	summary := DegradedSummary("no analyzable frames in video")
	text := RenderNarrative(summary)

	if !strings.Contains(text, "ANALYSIS ERROR: no analyzable frames in video") {
		t.Errorf("degraded narrative missing error section:\n%s", text)
	}
	if !strings.Contains(text, "VERDICT: no suspicious behavior detected") {
		t.Error("degraded narrative must not claim detection")
	}
}
