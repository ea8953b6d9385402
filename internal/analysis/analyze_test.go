package analysis

import (
	"context"
	"errors"
	"image"
	"io"
	"math"
	"testing"

	"proctor/internal/media/frames"
	"proctor/internal/services"
)

// fakeStream replays synthetic frames at a fixed rate.
type fakeStream struct {
	total int
	fps   float64
	index int
	img   *image.Gray
}

func newFakeStream(total int, fps float64) *fakeStream {
	return &fakeStream{total: total, fps: fps, img: image.NewGray(image.Rect(0, 0, 320, 240))}
}

func (f *fakeStream) Next(ctx context.Context) (frames.Frame, error) {
	if err := ctx.Err(); err != nil {
		return frames.Frame{}, err
	}
	if f.index >= f.total {
		return frames.Frame{}, io.EOF
	}
	f.index++
	return frames.Frame{Index: f.index, Timestamp: float64(f.index) / f.fps, Image: f.img}, nil
}

func (f *fakeStream) FPS() float64     { return f.fps }
func (f *fakeStream) TotalFrames() int { return f.total }
func (f *fakeStream) Duration() float64 {
	return float64(f.total) / f.fps
}

// scriptedDetector returns per-call detections, repeating the last script
// entry once exhausted.
type scriptedDetector struct {
	script []scriptEntry
	call   int
}

type scriptEntry struct {
	faces []image.Rectangle
	eyes  []image.Point
}

func (s *scriptedDetector) current() scriptEntry {
	if len(s.script) == 0 {
		return scriptEntry{}
	}
	idx := s.call
	if idx >= len(s.script) {
		idx = len(s.script) - 1
	}
	return s.script[idx]
}

func (s *scriptedDetector) DetectFaces(*image.Gray) []image.Rectangle {
	entry := s.current()
	s.call++
	return entry.faces
}

func (s *scriptedDetector) DetectEyes(*image.Gray, image.Rectangle) []image.Point {
	// DetectEyes runs after DetectFaces for the same frame; call was already
	// advanced, so look one entry back.
	idx := s.call - 1
	if idx >= len(s.script) {
		idx = len(s.script) - 1
	}
	if idx < 0 {
		return nil
	}
	return s.script[idx].eyes
}

func steadyFace() scriptEntry {
	return scriptEntry{
		faces: []image.Rectangle{image.Rect(120, 80, 200, 160)},
		eyes:  []image.Point{{X: 140, Y: 110}, {X: 180, Y: 110}},
	}
}

func TestAnalyzeSteadySubjectScoresZero(t *testing.T) {
	// Scenario: 30 seconds at 24 fps with a motionless face and eye pair.
	src := newFakeStream(720, 24)
	det := &scriptedDetector{script: []scriptEntry{steadyFace()}}

	result, err := Analyze(context.Background(), src, det, DefaultOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	summary := result.Summary

	if summary.TotalFramesAnalyzed != 240 {
		t.Errorf("expected 240 analyzed frames (1 in 3 of 720), got %d", summary.TotalFramesAnalyzed)
	}
	if summary.LookingAwayPercentage != 0 {
		t.Errorf("expected 0%% looking away, got %v", summary.LookingAwayPercentage)
	}
	if summary.CheatingScore != 0 {
		t.Errorf("expected zero score, got %v", summary.CheatingScore)
	}
	if summary.IsCheatingDetected {
		t.Error("steady subject must not be flagged")
	}
	if summary.VideoDuration != 30 {
		t.Errorf("expected 30s duration, got %v", summary.VideoDuration)
	}
	if summary.AnalysisFPS != 8 {
		t.Errorf("expected analysis rate 8 fps, got %v", summary.AnalysisFPS)
	}
	if summary.Error != "" {
		t.Errorf("unexpected error field: %q", summary.Error)
	}
}

func TestAnalyzeNoFaceEverywhereClampsToMaximum(t *testing.T) {
	src := newFakeStream(720, 24)
	det := &scriptedDetector{} // empty script: no detections, ever

	result, err := Analyze(context.Background(), src, det, DefaultOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	summary := result.Summary

	if summary.NoFacePercentage != 100 {
		t.Errorf("expected 100%% no-face, got %v", summary.NoFacePercentage)
	}
	if summary.LookingAwayPercentage != 100 {
		t.Errorf("expected 100%% looking away, got %v", summary.LookingAwayPercentage)
	}
	if summary.CheatingScore != 100 {
		t.Errorf("expected clamped score 100, got %v", summary.CheatingScore)
	}
	if !summary.IsCheatingDetected {
		t.Error("expected detection flag at maximum score")
	}
	if len(summary.SuspiciousMovements) != 20 {
		t.Errorf("expected retained events capped at 20, got %d", len(summary.SuspiciousMovements))
	}
	if summary.TotalSuspiciousMovements != 240 {
		t.Errorf("expected true event total 240, got %d", summary.TotalSuspiciousMovements)
	}
}

func TestAnalyzeFaceJumpProducesSuspiciousEvent(t *testing.T) {
	// Frames 3 and 6 are the two analyzed frames; the face centroid jumps
	// 40px between them, above the 25px threshold. The script is indexed by
	// analyzed frame, not decoded frame.
	moved := scriptEntry{
		faces: []image.Rectangle{image.Rect(160, 80, 240, 160)},
		eyes:  []image.Point{{X: 180, Y: 110}, {X: 220, Y: 110}},
	}
	script := []scriptEntry{steadyFace(), moved}
	src := newFakeStream(6, 24)
	det := &scriptedDetector{script: script}

	result, err := Analyze(context.Background(), src, det, DefaultOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	summary := result.Summary

	if summary.TotalSuspiciousMovements != 1 {
		t.Fatalf("expected one suspicious event, got %d", summary.TotalSuspiciousMovements)
	}
	event := summary.SuspiciousMovements[0]
	if math.Abs(event.FaceMovement-40) > 0.5 {
		t.Errorf("expected face movement near 40, got %v", event.FaceMovement)
	}
	if event.Type != "suspicious_behavior" {
		t.Errorf("unexpected event type %q", event.Type)
	}
	if event.Timestamp != 0.25 {
		t.Errorf("expected event at t=0.25s (frame 6 at 24fps), got %v", event.Timestamp)
	}
}

func TestAnalyzePartialEyeDetectionIsNotAnEvent(t *testing.T) {
	// A steady face with only one resolvable eye counts toward the
	// looking-away rate but records no suspicious events, so the score is
	// the looking-away component alone.
	oneEye := scriptEntry{
		faces: []image.Rectangle{image.Rect(120, 80, 200, 160)},
		eyes:  []image.Point{{X: 140, Y: 110}},
	}
	src := newFakeStream(720, 24)
	det := &scriptedDetector{script: []scriptEntry{oneEye}}

	result, err := Analyze(context.Background(), src, det, DefaultOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	summary := result.Summary

	if summary.LookingAwayPercentage != 100 {
		t.Errorf("expected 100%% looking away, got %v", summary.LookingAwayPercentage)
	}
	if summary.NoFacePercentage != 0 {
		t.Errorf("expected 0%% no-face, got %v", summary.NoFacePercentage)
	}
	if summary.TotalSuspiciousMovements != 0 {
		t.Errorf("expected no suspicious events, got %d", summary.TotalSuspiciousMovements)
	}
	if len(summary.SuspiciousMovements) != 0 {
		t.Errorf("expected empty event list, got %d entries", len(summary.SuspiciousMovements))
	}
	if math.Abs(summary.CheatingScore-70) > 0.001 {
		t.Errorf("expected score 70 (looking-away component only), got %v", summary.CheatingScore)
	}
}

func TestAnalyzeEmptyStreamDegrades(t *testing.T) {
	src := newFakeStream(0, 24)
	det := &scriptedDetector{}

	result, err := Analyze(context.Background(), src, det, DefaultOptions())
	if !errors.Is(err, services.ErrNoAnalyzableFrames) {
		t.Fatalf("expected ErrNoAnalyzableFrames, got %v", err)
	}
	summary := result.Summary
	if summary.TotalFramesAnalyzed != 0 {
		t.Errorf("expected zero analyzed frames, got %d", summary.TotalFramesAnalyzed)
	}
	if summary.Error == "" {
		t.Error("degraded summary must carry an error string")
	}
	if summary.CheatingScore != 0 || summary.IsCheatingDetected {
		t.Errorf("degraded summary must not flag: score=%v detected=%v", summary.CheatingScore, summary.IsCheatingDetected)
	}
}

func TestAnalyzeRetainsEveryTenthRecord(t *testing.T) {
	src := newFakeStream(720, 24)
	det := &scriptedDetector{script: []scriptEntry{steadyFace()}}

	result, err := Analyze(context.Background(), src, det, DefaultOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	// 240 analyzed frames retain one in ten.
	if len(result.FrameSamples) != 24 {
		t.Errorf("expected 24 retained samples, got %d", len(result.FrameSamples))
	}
	for _, sample := range result.FrameSamples {
		if sample.FrameNumber%3 != 0 {
			t.Errorf("retained sample from unsampled frame %d", sample.FrameNumber)
		}
	}
}

func TestComputeScoreClampsAndThresholds(t *testing.T) {
	tests := []struct {
		name     string
		laPct    float64
		nfPct    float64
		events   int
		want     float64
		detected bool
	}{
		{"all zero", 0, 0, 0, 0, false},
		{"looking away only", 50, 0, 0, 35, true},
		{"no face only", 0, 50, 0, 15, false},
		{"movement penalty capped", 0, 0, 100, 25, false},
		{"exactly at threshold", 0, 100, 0, 30, false},
		{"clamped to 100", 100, 100, 50, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeScore(tt.laPct, tt.nfPct, tt.events)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("ComputeScore(%v, %v, %d) = %v, want %v", tt.laPct, tt.nfPct, tt.events, got, tt.want)
			}
			if detected := got > 30; detected != tt.detected {
				t.Errorf("detection flag for score %v = %v, want %v", got, detected, tt.detected)
			}
		})
	}
}

func TestComputeScoreMonotonicInLookingAway(t *testing.T) {
	prev := -1.0
	for la := 0.0; la <= 100; la += 5 {
		score := ComputeScore(la, 20, 4)
		if score < prev {
			t.Fatalf("score decreased from %v to %v at looking_away=%v", prev, score, la)
		}
		if score < 0 || score > 100 {
			t.Fatalf("score %v outside [0,100] at looking_away=%v", score, la)
		}
		prev = score
	}
}
