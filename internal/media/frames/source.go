package frames

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strings"

	"proctor/internal/media/ffprobe"
	"proctor/internal/services"
)

// Frame is one decoded grayscale video frame. Index is 1-based and strictly
// increasing; Timestamp is seconds from the start of the video.
type Frame struct {
	Index     int
	Timestamp float64
	Image     *image.Gray
}

// Source streams decoded frames from a video artifact.
type Source struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	reader *bufio.Reader

	width       int
	height      int
	fps         float64
	totalFrames int

	index  int
	img    *image.Gray
	closed bool
}

// Open inspects the video with ffprobe and starts an ffmpeg child process
// decoding it to gray8 rawvideo. Containers that cannot be inspected, or that
// carry no video stream, fail with services.ErrUnreadableMedia.
func Open(ctx context.Context, ffprobeBinary, ffmpegBinary, path string) (*Source, error) {
	probe, err := ffprobe.Inspect(ctx, ffprobeBinary, path)
	if err != nil {
		return nil, services.Wrap(services.ErrUnreadableMedia, "frames", "open", path, err)
	}
	stream, ok := probe.FirstVideoStream()
	if !ok {
		return nil, services.Wrap(services.ErrUnreadableMedia, "frames", "open", fmt.Sprintf("%s: no video stream", path), nil)
	}
	if stream.Width <= 0 || stream.Height <= 0 {
		return nil, services.Wrap(services.ErrUnreadableMedia, "frames", "open", fmt.Sprintf("%s: invalid dimensions %dx%d", path, stream.Width, stream.Height), nil)
	}

	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, ffmpegBinary,
		"-hide_banner",
		"-loglevel", "error",
		"-i", path,
		"-map", "0:v:0",
		"-f", "rawvideo",
		"-pix_fmt", "gray",
		"-",
	) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, services.Wrap(services.ErrUnreadableMedia, "frames", "open", "stdout pipe", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, services.Wrap(services.ErrUnreadableMedia, "frames", "open", "start ffmpeg", err)
	}

	return &Source{
		cmd:         cmd,
		stdout:      stdout,
		reader:      bufio.NewReaderSize(stdout, 1<<16),
		width:       stream.Width,
		height:      stream.Height,
		fps:         stream.FPS(),
		totalFrames: stream.FrameCount(probe.DurationSeconds()),
		img:         image.NewGray(image.Rect(0, 0, stream.Width, stream.Height)),
	}, nil
}

// FPS returns the nominal frame rate reported by the container, or 0 when unknown.
func (s *Source) FPS() float64 { return s.fps }

// TotalFrames returns the reported or estimated frame count, or 0 when unknown.
func (s *Source) TotalFrames() int { return s.totalFrames }

// Width returns the frame width in pixels.
func (s *Source) Width() int { return s.width }

// Height returns the frame height in pixels.
func (s *Source) Height() int { return s.height }

// Duration returns total frames divided by fps, or 0 when either is unknown.
func (s *Source) Duration() float64 {
	if s.fps <= 0 {
		return 0
	}
	return float64(s.totalFrames) / s.fps
}

// Next returns the next decoded frame. It returns io.EOF once the stream is
// exhausted. The returned frame's image buffer is owned by the source and
// overwritten by the following call.
func (s *Source) Next(ctx context.Context) (Frame, error) {
	if s.closed {
		return Frame{}, errors.New("frames: source closed")
	}
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	if _, err := io.ReadFull(s.reader, s.img.Pix); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("frames: read frame %d: %w", s.index+1, err)
	}

	s.index++
	timestamp := float64(s.index)
	if s.fps > 0 {
		timestamp = float64(s.index) / s.fps
	}
	return Frame{Index: s.index, Timestamp: timestamp, Image: s.img}, nil
}

// Close terminates the decoder and reaps the child process.
func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	_ = s.stdout.Close()
	if err := s.cmd.Wait(); err != nil {
		// The decoder is routinely abandoned mid-stream; a non-zero exit
		// after a deliberate close is not actionable.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil
		}
		return err
	}
	return nil
}
