package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"sync"

	"proctor/internal/analysis"
	"proctor/internal/config"
	"proctor/internal/logging"
	"proctor/internal/media/frames"
	"proctor/internal/procstatus"
	"proctor/internal/services"
	"proctor/internal/services/audiopipe"
	"proctor/internal/session"
	"proctor/internal/vision"
)

// ExtractedAudioFile is the WAV written next to the recording when the
// session has no separate audio artifact.
const ExtractedAudioFile = "interview_audio.wav"

// SourceOpener opens a frame stream for a recording; swapped out in tests.
type SourceOpener func(ctx context.Context, ffprobeBinary, ffmpegBinary, path string) (analysis.FrameStream, func() error, error)

// Coordinator runs session analysis jobs on a bounded worker pool.
type Coordinator struct {
	cfg      *config.Config
	store    *session.Store
	detector vision.Detector
	audio    *audiopipe.Processor
	logger   *slog.Logger

	open SourceOpener

	slots chan struct{}
	wg    sync.WaitGroup

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewCoordinator builds a coordinator. A nil logger discards.
func NewCoordinator(cfg *config.Config, store *session.Store, detector vision.Detector, audio *audiopipe.Processor, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = logging.NewNop()
	}
	workers := cfg.Workflow.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Coordinator{
		cfg:      cfg,
		store:    store,
		detector: detector,
		audio:    audio,
		logger:   logger,
		open:     defaultSourceOpener,
		slots:    make(chan struct{}, workers),
		inFlight: make(map[string]struct{}),
	}
}

// WithSourceOpener overrides how recordings are opened (for testing).
func (c *Coordinator) WithSourceOpener(open SourceOpener) {
	c.open = open
}

// Submit schedules a session for processing and returns immediately. The job
// waits for a worker slot off the caller's goroutine. A session already in
// flight is not submitted twice.
func (c *Coordinator) Submit(ctx context.Context, rec *session.Record) {
	c.mu.Lock()
	if _, busy := c.inFlight[rec.SessionID]; busy {
		c.mu.Unlock()
		return
	}
	c.inFlight[rec.SessionID] = struct{}{}
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			delete(c.inFlight, rec.SessionID)
			c.mu.Unlock()
		}()
		select {
		case c.slots <- struct{}{}:
			defer func() { <-c.slots }()
		case <-ctx.Done():
			return
		}
		c.process(ctx, rec)
	}()
}

// Wait blocks until every submitted job has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// process runs one session end to end. Every failure path lands in the
// status artifact; nothing propagates to the submitter.
func (c *Coordinator) process(ctx context.Context, rec *session.Record) {
	ctx = services.WithSessionID(ctx, rec.SessionID)
	ctx = services.WithUsername(ctx, rec.Username)
	logger := logging.WithContext(ctx, c.logger)

	status := procstatus.New(rec.SessionID)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("session processing panicked",
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())))
			status.Error = fmt.Sprintf("internal error: %v", r)
			c.finish(ctx, rec, status)
		}
	}()

	sessionDir := c.cfg.SessionDir(rec.Username, rec.SessionID)
	logger.Info("processing session", logging.String("dir", sessionDir))

	audioPath := c.prepareAudio(ctx, logger, rec, sessionDir, &status)
	c.analyzeVideo(ctx, logger, rec, sessionDir, &status)

	startAudio := audioPath != "" && c.audio.Enabled()
	status.AudioProcessingStarted = startAudio
	status.ProcessingCompleted = status.VideoAnalyzed && !startAudio
	c.finish(ctx, rec, status)

	// The status artifact must exist before the collaborator can complete it,
	// so the handoff happens after finish.
	if startAudio {
		c.startAudioPipeline(ctx, logger, rec, audioPath, sessionDir)
	}
}

// prepareAudio returns the session's audio path, extracting one from the
// recording when missing. Extraction failure is logged and the run continues
// audio-less.
func (c *Coordinator) prepareAudio(ctx context.Context, logger *slog.Logger, rec *session.Record, sessionDir string, status *procstatus.Status) string {
	if rec.AudioFile != "" {
		status.AudioExtracted = true
		return filepath.Join(sessionDir, rec.AudioFile)
	}
	if rec.RecordingFile == "" {
		return ""
	}

	source := filepath.Join(sessionDir, rec.RecordingFile)
	dest := filepath.Join(sessionDir, ExtractedAudioFile)
	if err := audiopipe.ExtractAudio(ctx, c.cfg.FFmpegBinary(), source, dest); err != nil {
		logger.Warn("audio extraction failed, continuing without audio", logging.Error(err))
		return ""
	}
	status.AudioExtracted = true
	return dest
}

func (c *Coordinator) analyzeVideo(ctx context.Context, logger *slog.Logger, rec *session.Record, sessionDir string, status *procstatus.Status) {
	if rec.RecordingFile == "" {
		status.Error = "session has no recording"
		return
	}
	recording := filepath.Join(sessionDir, rec.RecordingFile)

	src, closeSrc, err := c.open(ctx, c.cfg.FFprobeBinary(), c.cfg.FFmpegBinary(), recording)
	if err != nil {
		logger.Warn("recording unreadable, emitting degraded analysis", logging.Error(err))
		c.emitDegraded(logger, sessionDir, err, status)
		return
	}
	defer func() { _ = closeSrc() }()

	opts := analysis.Options{
		Thresholds: vision.Thresholds{
			FaceMovement:  c.cfg.Analysis.FaceMovementThreshold,
			EyeMovement:   c.cfg.Analysis.EyeMovementThreshold,
			MaxFrameWidth: c.cfg.Analysis.MaxFrameWidth,
		},
		FrameSampleInterval:  c.cfg.Analysis.FrameSampleInterval,
		DetailSampleInterval: c.cfg.Analysis.DetailSampleInterval,
		MaxSuspiciousEvents:  c.cfg.Analysis.MaxSuspiciousEvents,
		CheatingThreshold:    c.cfg.Analysis.CheatingThreshold,
		Logger:               logger,
	}
	result, err := analysis.Analyze(ctx, src, c.detector, opts)
	if err != nil {
		if services.Degradable(err) {
			logger.Warn("analysis degraded", logging.Error(err))
			summary := result.Summary
			status.CheatingAnalysis = &summary
			if emitErr := analysis.EmitReports(sessionDir, result); emitErr != nil {
				logger.Error("emit degraded reports", logging.Error(emitErr))
			}
			return
		}
		status.Error = err.Error()
		logger.Error("video analysis failed", logging.Error(err))
		return
	}

	if err := analysis.EmitReports(sessionDir, result); err != nil {
		status.Error = err.Error()
		logger.Error("emit analysis reports", logging.Error(err))
		return
	}
	summary := result.Summary
	status.CheatingAnalysis = &summary
	status.VideoAnalyzed = true
	logger.Info("video analysis completed",
		logging.Float64("cheating_score", summary.CheatingScore),
		logging.Bool("detected", summary.IsCheatingDetected))
}

// startAudioPipeline hands the audio artifact to the external collaborator on
// a supervised goroutine. When the collaborator exits successfully the
// supervisor flips the status completion flag; on failure the session stays
// not-completed and the warning is the record of why.
func (c *Coordinator) startAudioPipeline(ctx context.Context, logger *slog.Logger, rec *session.Record, audioPath, sessionDir string) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.audio.Process(ctx, rec.SessionID, rec.Username, audioPath, c.cfg.Paths.BaseDir); err != nil {
			logger.Warn("audio pipeline invocation failed", logging.Error(err))
			return
		}
		if err := procstatus.MarkProcessingCompleted(sessionDir); err != nil {
			logger.Error("mark processing completed after audio", logging.Error(err))
		}
	}()
}

func (c *Coordinator) emitDegraded(logger *slog.Logger, sessionDir string, cause error, status *procstatus.Status) {
	summary := analysis.DegradedSummary(cause.Error())
	status.CheatingAnalysis = &summary
	if err := analysis.EmitReports(sessionDir, analysis.Result{Summary: summary}); err != nil {
		logger.Error("emit degraded reports", logging.Error(err))
	}
}

// finish persists the status artifact and marks the session processed. A
// session is marked processed even after a failure; the error-flavored status
// is the record of what happened, and there is no automatic retry.
func (c *Coordinator) finish(ctx context.Context, rec *session.Record, status procstatus.Status) {
	sessionDir := c.cfg.SessionDir(rec.Username, rec.SessionID)
	logger := logging.WithContext(ctx, c.logger)

	if err := procstatus.Write(sessionDir, status); err != nil {
		logger.Error("persist processing status", logging.Error(err))
	}
	if err := c.store.MarkProcessed(context.WithoutCancel(ctx), rec.SessionID); err != nil {
		logger.Error("mark session processed", logging.Error(err))
	}
	logger.Info("session processing finished",
		logging.Bool("video_analyzed", status.VideoAnalyzed),
		logging.Bool("audio_started", status.AudioProcessingStarted),
		logging.Bool("completed", status.ProcessingCompleted))
}

func defaultSourceOpener(ctx context.Context, ffprobeBinary, ffmpegBinary, path string) (analysis.FrameStream, func() error, error) {
	src, err := frames.Open(ctx, ffprobeBinary, ffmpegBinary, path)
	if err != nil {
		if !errors.Is(err, services.ErrUnreadableMedia) {
			err = services.Wrap(services.ErrUnreadableMedia, "pipeline", "open", path, err)
		}
		return nil, nil, err
	}
	return src, src.Close, nil
}
