package analysis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"proctor/internal/logging"
	"proctor/internal/media/frames"
	"proctor/internal/services"
	"proctor/internal/vision"
)

// SuspiciousMovement is one flagged frame retained for operator review.
type SuspiciousMovement struct {
	Timestamp     float64 `json:"timestamp"`
	FaceMovement  float64 `json:"face_movement"`
	EyeMovement   float64 `json:"eye_movement"`
	FacesDetected int     `json:"faces_detected"`
	EyesDetected  int     `json:"eyes_detected"`
	Type          string  `json:"type"`
}

// Summary is the integrity verdict for one recording. Field names are read
// back by key by the result aggregator and the processing-status artifact.
type Summary struct {
	VideoDuration            float64              `json:"video_duration"`
	VideoFPS                 float64              `json:"video_fps"`
	AnalysisFPS              float64              `json:"analysis_fps"`
	TotalFrames              int                  `json:"total_frames"`
	TotalFramesAnalyzed      int                  `json:"total_frames_analyzed"`
	LookingAwayFrames        int                  `json:"looking_away_frames"`
	NoFaceFrames             int                  `json:"no_face_frames"`
	LookingAwayPercentage    float64              `json:"looking_away_percentage"`
	NoFacePercentage         float64              `json:"no_face_percentage"`
	CheatingScore            float64              `json:"cheating_score"`
	IsCheatingDetected       bool                 `json:"is_cheating_detected"`
	SuspiciousMovements      []SuspiciousMovement `json:"suspicious_movements"`
	TotalSuspiciousMovements int                  `json:"total_suspicious_movements"`
	AnalysisTimestamp        string               `json:"analysis_timestamp"`
	Error                    string               `json:"error,omitempty"`
}

// Result bundles the summary with the retained per-frame trace.
type Result struct {
	Summary      Summary
	FrameSamples []vision.FrameAnalysis
}

// Options tunes the sampling cadence and scoring limits of an analysis run.
type Options struct {
	Thresholds vision.Thresholds
	// FrameSampleInterval analyzes one decoded frame in every interval.
	FrameSampleInterval int
	// DetailSampleInterval retains one analyzed record in every interval for
	// the detailed trace.
	DetailSampleInterval int
	// MaxSuspiciousEvents caps the retained event list; the true total is
	// still reported.
	MaxSuspiciousEvents int
	CheatingThreshold   float64
	Logger              *slog.Logger
}

// DefaultOptions returns the production sampling and scoring configuration.
func DefaultOptions() Options {
	return Options{
		Thresholds:           vision.DefaultThresholds(),
		FrameSampleInterval:  3,
		DetailSampleInterval: 10,
		MaxSuspiciousEvents:  20,
		CheatingThreshold:    30,
	}
}

const suspiciousBehaviorType = "suspicious_behavior"

const progressLogInterval = 50

// FrameStream is the subset of the frame source the analyzer consumes.
type FrameStream interface {
	Next(ctx context.Context) (frames.Frame, error)
	FPS() float64
	TotalFrames() int
	Duration() float64
}

// Analyze drives the detector across every sampled frame of the stream and
// returns the scored summary plus the retained detail trace. A stream that
// yields no analyzable frames produces a degraded summary and
// services.ErrNoAnalyzableFrames.
func Analyze(ctx context.Context, src FrameStream, det vision.Detector, opts Options) (Result, error) {
	opts = normalizeOptions(opts)
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	var (
		state      vision.State
		analyzed   int
		looking    int
		noFace     int
		events     []SuspiciousMovement
		eventTotal int
		samples    []vision.FrameAnalysis
	)

	for {
		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{Summary: DegradedSummary(err.Error())}, services.Wrap(services.ErrUnreadableMedia, "analysis", "analyze", "decode frame", err)
		}
		if frame.Index%opts.FrameSampleInterval != 0 {
			continue
		}

		var fa vision.FrameAnalysis
		fa, state = vision.AnalyzeFrame(det, frame.Image, state, opts.Thresholds)
		fa.Timestamp = frame.Timestamp
		fa.FrameNumber = frame.Index
		analyzed++

		if fa.LookingAway {
			looking++
			// An event needs actual movement or a vanished face. A frame
			// flagged only because fewer than two eyes resolved is counted
			// in the looking-away rate but is not an event.
			if fa.FacesDetected == 0 ||
				fa.FaceMovement > opts.Thresholds.FaceMovement ||
				fa.EyeMovement > opts.Thresholds.EyeMovement {
				eventTotal++
				if len(events) < opts.MaxSuspiciousEvents {
					events = append(events, SuspiciousMovement{
						Timestamp:     fa.Timestamp,
						FaceMovement:  fa.FaceMovement,
						EyeMovement:   fa.EyeMovement,
						FacesDetected: fa.FacesDetected,
						EyesDetected:  fa.EyesDetected,
						Type:          suspiciousBehaviorType,
					})
				}
			}
		}
		if fa.FacesDetected == 0 {
			noFace++
		}
		if analyzed%opts.DetailSampleInterval == 0 {
			samples = append(samples, fa)
		}
		if analyzed%progressLogInterval == 0 {
			logger.Info("analysis progress",
				logging.Int("frames_analyzed", analyzed),
				logging.Int("frames_total", src.TotalFrames()),
				logging.Int("suspicious_events", eventTotal))
		}
	}

	if analyzed == 0 {
		summary := DegradedSummary("no analyzable frames in video")
		summary.VideoDuration = src.Duration()
		summary.VideoFPS = src.FPS()
		summary.TotalFrames = src.TotalFrames()
		return Result{Summary: summary}, services.Wrap(services.ErrNoAnalyzableFrames, "analysis", "analyze", "zero frames sampled", nil)
	}

	laPct := 100 * float64(looking) / float64(analyzed)
	nfPct := 100 * float64(noFace) / float64(analyzed)
	score := ComputeScore(laPct, nfPct, eventTotal)

	summary := Summary{
		VideoDuration:            src.Duration(),
		VideoFPS:                 src.FPS(),
		AnalysisFPS:              analysisFPS(src.FPS(), opts.FrameSampleInterval),
		TotalFrames:              src.TotalFrames(),
		TotalFramesAnalyzed:      analyzed,
		LookingAwayFrames:        looking,
		NoFaceFrames:             noFace,
		LookingAwayPercentage:    laPct,
		NoFacePercentage:         nfPct,
		CheatingScore:            score,
		IsCheatingDetected:       score > opts.CheatingThreshold,
		SuspiciousMovements:      events,
		TotalSuspiciousMovements: eventTotal,
		AnalysisTimestamp:        time.Now().Format(time.RFC3339),
	}
	return Result{Summary: summary, FrameSamples: samples}, nil
}

// ComputeScore folds the looking-away rate, no-face rate, and suspicious
// event count into the [0,100] composite score.
func ComputeScore(lookingAwayPct, noFacePct float64, suspiciousEvents int) float64 {
	base := lookingAwayPct * 0.7
	noFacePenalty := noFacePct * 0.3
	movementPenalty := float64(suspiciousEvents) * 2.5
	if movementPenalty > 25 {
		movementPenalty = 25
	}
	score := base + noFacePenalty + movementPenalty
	if score > 100 {
		score = 100
	}
	return score
}

// DegradedSummary is the zero-score, non-detected summary used when a
// recording cannot be analyzed. The error string is the only signal carried
// forward; the failure never propagates past the coordinator.
func DegradedSummary(message string) Summary {
	return Summary{
		AnalysisTimestamp: time.Now().Format(time.RFC3339),
		Error:             message,
	}
}

func analysisFPS(fps float64, interval int) float64 {
	if fps <= 0 || interval <= 0 {
		return 0
	}
	return fps / float64(interval)
}

func normalizeOptions(opts Options) Options {
	def := DefaultOptions()
	if opts.FrameSampleInterval <= 0 {
		opts.FrameSampleInterval = def.FrameSampleInterval
	}
	if opts.DetailSampleInterval <= 0 {
		opts.DetailSampleInterval = def.DetailSampleInterval
	}
	if opts.MaxSuspiciousEvents <= 0 {
		opts.MaxSuspiciousEvents = def.MaxSuspiciousEvents
	}
	if opts.CheatingThreshold <= 0 {
		opts.CheatingThreshold = def.CheatingThreshold
	}
	if opts.Thresholds == (vision.Thresholds{}) {
		opts.Thresholds = def.Thresholds
	}
	return opts
}
