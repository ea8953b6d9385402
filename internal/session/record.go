package session

import (
	"encoding/json"
	"fmt"
	"time"
)

// QuestionTiming captures how long a candidate spent on one question.
type QuestionTiming struct {
	QuestionIndex   int     `json:"question_index"`
	Question        string  `json:"question,omitempty"`
	StartedAt       string  `json:"started_at,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`
	Answered        bool    `json:"answered"`
}

// Record is one interview attempt. TimingsJSON holds the serialized
// per-question timing list; use Timings and SetTimings rather than touching
// it directly.
type Record struct {
	ID                int64
	SessionID         string
	Username          string
	RoleApplied       string
	StartTime         time.Time
	EndTime           *time.Time
	QuestionsTotal    int
	QuestionsAnswered int
	TimingsJSON       string
	RecordingFile     string
	AudioFile         string
	DurationSeconds   float64
	Completed         bool
	Processed         bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Timings decodes the per-question timing list. An empty field decodes to nil.
func (r *Record) Timings() ([]QuestionTiming, error) {
	if r.TimingsJSON == "" {
		return nil, nil
	}
	var timings []QuestionTiming
	if err := json.Unmarshal([]byte(r.TimingsJSON), &timings); err != nil {
		return nil, fmt.Errorf("session: decode timings: %w", err)
	}
	return timings, nil
}

// SetTimings serializes the timing list into the record.
func (r *Record) SetTimings(timings []QuestionTiming) error {
	if len(timings) == 0 {
		r.TimingsJSON = ""
		return nil
	}
	data, err := json.Marshal(timings)
	if err != nil {
		return fmt.Errorf("session: encode timings: %w", err)
	}
	r.TimingsJSON = string(data)
	return nil
}

// CompletionRate returns answered questions as a fraction of the total, in
// [0,1]. Zero-question sessions rate as zero.
func (r *Record) CompletionRate() float64 {
	if r.QuestionsTotal <= 0 {
		return 0
	}
	return float64(r.QuestionsAnswered) / float64(r.QuestionsTotal)
}
