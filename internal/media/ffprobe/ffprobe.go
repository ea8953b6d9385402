package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index        int    `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
	RFrameRate   string `json:"r_frame_rate"`
	NBFrames     string `json:"nb_frames"`
	Duration     string `json:"duration"`
	Channels     int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-count_packets", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(output)))
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// FirstVideoStream returns the first video stream, if any.
func (r Result) FirstVideoStream() (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return stream, true
		}
	}
	return Stream{}, false
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	d := parseFloat(r.Format.Duration)
	if math.IsNaN(d) || d < 0 {
		return 0
	}
	return d
}

// FPS returns the stream's nominal frame rate, or 0 when unknown.
func (s Stream) FPS() float64 {
	for _, raw := range []string{s.AvgFrameRate, s.RFrameRate} {
		if fps := parseRational(raw); fps > 0 {
			return fps
		}
	}
	return 0
}

// FrameCount returns the stream's total frame count, or an estimate derived
// from duration and frame rate when the container does not carry one.
func (s Stream) FrameCount(containerDuration float64) int {
	if n, err := strconv.Atoi(strings.TrimSpace(s.NBFrames)); err == nil && n > 0 {
		return n
	}
	duration := parseFloat(s.Duration)
	if math.IsNaN(duration) || duration <= 0 {
		duration = containerDuration
	}
	if fps := s.FPS(); fps > 0 && duration > 0 {
		return int(math.Round(duration * fps))
	}
	return 0
}

// parseRational parses ffprobe rate strings such as "24/1" or "30000/1001".
func parseRational(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" || cleaned == "0/0" {
		return 0
	}
	num, den, found := strings.Cut(cleaned, "/")
	n := parseFloat(num)
	if math.IsNaN(n) {
		return 0
	}
	if !found {
		return n
	}
	d := parseFloat(den)
	if math.IsNaN(d) || d == 0 {
		return 0
	}
	return n / d
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
