package results

import (
	"fmt"

	"proctor/internal/services/audiopipe"
)

// Feedback entry types.
const (
	FeedbackPositive    = "positive"
	FeedbackImprovement = "improvement"
)

func buildFeedback(scores OverallScores, audio audiopipe.Metrics, audioOK bool) []Feedback {
	var feedback []Feedback

	if scores.IsCheatingDetected {
		feedback = append(feedback, Feedback{
			Category: "integrity",
			Type:     FeedbackImprovement,
			Message:  "Suspicious behavior was detected during the interview. Keep your attention on the screen and stay in frame.",
		})
	} else {
		feedback = append(feedback, Feedback{
			Category: "integrity",
			Type:     FeedbackPositive,
			Message:  "No suspicious behavior detected. Good focus throughout the interview.",
		})
	}

	feedback = append(feedback, bandedFeedback("content", scores.ContentScore,
		"Strong, relevant answers across the interview.",
		"Answers were mostly on topic; add more specifics to strengthen them.",
		"Answers often drifted off topic. Practice structuring responses around the question asked."))

	feedback = append(feedback, bandedFeedback("delivery", scores.DeliveryScore,
		"Confident, clear delivery.",
		"Delivery was adequate; work on projecting more confidence.",
		"Delivery needs work. Practice speaking clearly and at a steady pace."))

	if audioOK {
		if total := audio.TotalFillers(); total > 10 {
			feedback = append(feedback, Feedback{
				Category: "speech",
				Type:     FeedbackImprovement,
				Message:  fmt.Sprintf("Heavy use of filler words (%d). Pause silently instead of saying um or like.", total),
			})
		} else if total > 5 {
			feedback = append(feedback, Feedback{
				Category: "speech",
				Type:     FeedbackImprovement,
				Message:  fmt.Sprintf("Some filler words noted (%d). A brief pause reads better than a filler.", total),
			})
		} else {
			feedback = append(feedback, Feedback{
				Category: "speech",
				Type:     FeedbackPositive,
				Message:  "Minimal filler words. Clean, deliberate speech.",
			})
		}

		switch {
		case audio.RateWPM > 0 && audio.RateWPM < 120:
			feedback = append(feedback, Feedback{
				Category: "pace",
				Type:     FeedbackImprovement,
				Message:  fmt.Sprintf("Speaking pace was slow (%.0f wpm). Aim for 120-180 words per minute.", audio.RateWPM),
			})
		case audio.RateWPM > 180:
			feedback = append(feedback, Feedback{
				Category: "pace",
				Type:     FeedbackImprovement,
				Message:  fmt.Sprintf("Speaking pace was fast (%.0f wpm). Slow down so answers land clearly.", audio.RateWPM),
			})
		case audio.RateWPM > 0:
			feedback = append(feedback, Feedback{
				Category: "pace",
				Type:     FeedbackPositive,
				Message:  fmt.Sprintf("Comfortable speaking pace (%.0f wpm).", audio.RateWPM),
			})
		}
	}

	return feedback
}

func bandedFeedback(category string, score float64, high, mid, low string) Feedback {
	switch {
	case score >= 80:
		return Feedback{Category: category, Type: FeedbackPositive, Message: high}
	case score >= 60:
		return Feedback{Category: category, Type: FeedbackImprovement, Message: mid}
	default:
		return Feedback{Category: category, Type: FeedbackImprovement, Message: low}
	}
}
