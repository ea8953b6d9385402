package results

import (
	"hash/fnv"
	"math/rand"
)

// Scores is one question's scoring triple, each value in [0,1].
type Scores struct {
	Relevance  float64
	Confidence float64
	Clarity    float64
}

// QuestionScorer produces per-question scores and the vocal-confidence
// fallback used when no audio metrics artifact exists.
type QuestionScorer interface {
	ScoreQuestion(sessionID string, questionIndex int) Scores
	VocalConfidence(sessionID string) float64
}

// HeuristicScorer is the default scorer. It derives every value from the
// seed, session id, and question index, so repeat generation for the same
// session is deterministic.
type HeuristicScorer struct {
	Seed int64
}

// NewHeuristicScorer returns a scorer with the given seed.
func NewHeuristicScorer(seed int64) *HeuristicScorer {
	return &HeuristicScorer{Seed: seed}
}

// ScoreQuestion returns a triple in the placeholder band [0.60, 0.95].
func (s *HeuristicScorer) ScoreQuestion(sessionID string, questionIndex int) Scores {
	rng := s.rng(sessionID, int64(questionIndex))
	return Scores{
		Relevance:  placeholderValue(rng),
		Confidence: placeholderValue(rng),
		Clarity:    placeholderValue(rng),
	}
}

// VocalConfidence returns the fallback vocal score in [0.60, 0.95].
func (s *HeuristicScorer) VocalConfidence(sessionID string) float64 {
	return placeholderValue(s.rng(sessionID, -1))
}

func (s *HeuristicScorer) rng(sessionID string, salt int64) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(sessionID))
	return rand.New(rand.NewSource(s.Seed ^ int64(h.Sum64()) ^ salt)) //nolint:gosec
}

func placeholderValue(rng *rand.Rand) float64 {
	return 0.60 + 0.35*rng.Float64()
}

// FixedScorer returns the same triple for every question; used in tests.
type FixedScorer struct {
	Scores Scores
	Vocal  float64
}

func (f FixedScorer) ScoreQuestion(string, int) Scores { return f.Scores }

func (f FixedScorer) VocalConfidence(string) float64 { return f.Vocal }
