package results

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"proctor/internal/analysis"
	"proctor/internal/config"
	"proctor/internal/fileutil"
	"proctor/internal/logging"
	"proctor/internal/services/audiopipe"
	"proctor/internal/session"
)

// Artifact filenames. FinalResultsFile lives in the session directory;
// LatestResultsFile is the convenience copy in the user directory.
const (
	FinalResultsFile  = "final_results.json"
	LatestResultsFile = "latest_results.json"
)

const resultsVersion = "1.0"

// OverallScores is the weighted score block of the final result.
type OverallScores struct {
	IntegrityScore     float64 `json:"integrity_score"`
	ContentScore       float64 `json:"content_score"`
	DeliveryScore      float64 `json:"delivery_score"`
	VocalConfidence    float64 `json:"vocal_confidence"`
	OverallScore       float64 `json:"overall_score"`
	IsCheatingDetected bool    `json:"is_cheating_detected"`
}

// QuestionPerformance is one question's graded entry.
type QuestionPerformance struct {
	QuestionIndex   int     `json:"question_index"`
	Question        string  `json:"question,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`
	Answered        bool    `json:"answered"`
	RelevanceScore  float64 `json:"relevance_score"`
	ConfidenceScore float64 `json:"confidence_score"`
	ClarityScore    float64 `json:"clarity_score"`
}

// Feedback is one categorized feedback entry.
type Feedback struct {
	Category string `json:"category"`
	Type     string `json:"type"`
	Message  string `json:"message"`
}

// FinalResult is the graded outcome artifact. Field names are the external
// contract.
type FinalResult struct {
	SessionID           string                `json:"session_id"`
	Username            string                `json:"username"`
	InterviewDate       string                `json:"interview_date"`
	RoleApplied         string                `json:"role_applied,omitempty"`
	Duration            float64               `json:"duration"`
	QuestionsTotal      int                   `json:"questions_total"`
	QuestionsAnswered   int                   `json:"questions_answered"`
	OverallScores       OverallScores         `json:"overall_scores"`
	QuestionPerformance []QuestionPerformance `json:"question_performance"`
	Feedback            []Feedback            `json:"feedback"`
	CheatingAnalysis    *analysis.Summary     `json:"cheating_analysis"`
	AudioAnalysis       *audiopipe.Analysis   `json:"audio_analysis"`
	GenerationTimestamp string                `json:"generation_timestamp"`
	ResultsVersion      string                `json:"results_version"`
}

// Aggregator computes and persists final results.
type Aggregator struct {
	cfg    *config.Config
	store  *session.Store
	scorer QuestionScorer
	logger *slog.Logger
}

// New builds an aggregator. A nil scorer falls back to the seeded heuristic;
// a nil logger discards.
func New(cfg *config.Config, store *session.Store, scorer QuestionScorer, logger *slog.Logger) *Aggregator {
	if scorer == nil {
		seed := cfg.Scoring.ScorerSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		scorer = NewHeuristicScorer(seed)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Aggregator{cfg: cfg, store: store, scorer: scorer, logger: logger}
}

// Generate returns the session's final result, computing and persisting it if
// no artifact exists yet. With force set, the result is recomputed and the
// artifact replaced.
func (a *Aggregator) Generate(ctx context.Context, username, sessionID string, force bool) (*FinalResult, error) {
	sessionDir := a.cfg.SessionDir(username, sessionID)
	resultPath := filepath.Join(sessionDir, FinalResultsFile)

	if !force {
		var existing FinalResult
		err := fileutil.ReadJSON(resultPath, &existing)
		if err == nil {
			return &existing, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("results: read existing result: %w", err)
		}
	}

	rec, err := a.store.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var summary *analysis.Summary
	var loaded analysis.Summary
	if err := fileutil.ReadJSON(filepath.Join(sessionDir, analysis.EyeAnalysisFile), &loaded); err == nil {
		summary = &loaded
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("results: read integrity summary: %w", err)
	}

	audio, audioOK, err := audiopipe.ReadMetrics(sessionDir)
	if err != nil {
		return nil, err
	}

	result := a.compute(rec, summary, audio, audioOK)

	if err := fileutil.WriteJSON(resultPath, result); err != nil {
		return nil, fmt.Errorf("results: write final result: %w", err)
	}
	latestPath := filepath.Join(a.cfg.UserDir(username), LatestResultsFile)
	if err := fileutil.WriteJSON(latestPath, result); err != nil {
		return nil, fmt.Errorf("results: write latest copy: %w", err)
	}

	a.logger.Info("final results generated",
		logging.String(logging.FieldSessionID, sessionID),
		logging.String(logging.FieldUsername, username),
		logging.Float64("overall_score", result.OverallScores.OverallScore))
	return result, nil
}

func (a *Aggregator) compute(rec *session.Record, summary *analysis.Summary, audio audiopipe.Analysis, audioOK bool) *FinalResult {
	performance := a.scoreQuestions(rec)

	var relevanceSum, deliverySum float64
	for _, entry := range performance {
		relevanceSum += entry.RelevanceScore
		deliverySum += (entry.ConfidenceScore + entry.ClarityScore) / 2
	}
	contentScore := 0.0
	deliveryScore := 0.0
	if len(performance) > 0 {
		contentScore = relevanceSum / float64(len(performance)) * 100
		deliveryScore = deliverySum / float64(len(performance)) * 100
	}

	cheatingScore := 0.0
	cheatingDetected := false
	if summary != nil {
		cheatingScore = summary.CheatingScore
		cheatingDetected = summary.IsCheatingDetected
	}
	integrityScore := 100 - cheatingScore
	if integrityScore < 0 {
		integrityScore = 0
	}

	vocalConfidence := a.scorer.VocalConfidence(rec.SessionID) * 100
	var audioAnalysis *audiopipe.Analysis
	if audioOK {
		vocalConfidence = audio.Metrics.VocalConfidence * 100
		audioAnalysis = &audio
	}

	weights := a.cfg.Scoring
	overall := weights.IntegrityWeight*integrityScore +
		weights.ContentWeight*contentScore +
		weights.DeliveryWeight*deliveryScore +
		weights.VocalWeight*vocalConfidence

	scores := OverallScores{
		IntegrityScore:     integrityScore,
		ContentScore:       contentScore,
		DeliveryScore:      deliveryScore,
		VocalConfidence:    vocalConfidence,
		OverallScore:       overall,
		IsCheatingDetected: cheatingDetected,
	}

	return &FinalResult{
		SessionID:           rec.SessionID,
		Username:            rec.Username,
		InterviewDate:       rec.StartTime.UTC().Format("2006-01-02"),
		RoleApplied:         rec.RoleApplied,
		Duration:            rec.DurationSeconds,
		QuestionsTotal:      rec.QuestionsTotal,
		QuestionsAnswered:   rec.QuestionsAnswered,
		OverallScores:       scores,
		QuestionPerformance: performance,
		Feedback:            buildFeedback(scores, audio.Metrics, audioOK),
		CheatingAnalysis:    summary,
		AudioAnalysis:       audioAnalysis,
		GenerationTimestamp: time.Now().Format(time.RFC3339),
		ResultsVersion:      resultsVersion,
	}
}

func (a *Aggregator) scoreQuestions(rec *session.Record) []QuestionPerformance {
	timings, err := rec.Timings()
	if err != nil {
		a.logger.Warn("unreadable question timings",
			logging.String(logging.FieldSessionID, rec.SessionID),
			logging.Error(err))
	}
	byIndex := make(map[int]session.QuestionTiming, len(timings))
	for _, timing := range timings {
		byIndex[timing.QuestionIndex] = timing
	}

	count := rec.QuestionsTotal
	if count < len(timings) {
		count = len(timings)
	}

	performance := make([]QuestionPerformance, 0, count)
	for i := 0; i < count; i++ {
		scores := a.scorer.ScoreQuestion(rec.SessionID, i)
		entry := QuestionPerformance{
			QuestionIndex:   i,
			RelevanceScore:  scores.Relevance,
			ConfidenceScore: scores.Confidence,
			ClarityScore:    scores.Clarity,
		}
		if timing, ok := byIndex[i]; ok {
			entry.Question = timing.Question
			entry.DurationSeconds = timing.DurationSeconds
			entry.Answered = timing.Answered
		}
		performance = append(performance, entry)
	}
	return performance
}
