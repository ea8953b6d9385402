package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnreadableMedia marks videos whose container cannot be opened or decoded.
	ErrUnreadableMedia = errors.New("unreadable media")
	// ErrNoAnalyzableFrames marks videos that decoded but produced zero sampled frames.
	ErrNoAnalyzableFrames = errors.New("no analyzable frames")
	// ErrAudioExtraction marks audio extraction failures; the pipeline continues audio-less.
	ErrAudioExtraction = errors.New("audio extraction failed")
	// ErrExternalTool marks failures of external binaries (ffmpeg, ffprobe, audio pipeline).
	ErrExternalTool = errors.New("external tool error")
	// ErrConfiguration marks invalid or missing configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks missing sessions or artifacts.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Degradable reports whether an analysis error should degrade into the
// zero-score summary instead of failing the pipeline run.
func Degradable(err error) bool {
	return errors.Is(err, ErrUnreadableMedia) || errors.Is(err, ErrNoAnalyzableFrames)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
