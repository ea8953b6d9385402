package audiopipe

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"proctor/internal/services"
)

// ExtractAudio extracts the full audio stream from a recording as a mono
// 16kHz WAV file, the format the speech pipeline consumes.
func ExtractAudio(ctx context.Context, ffmpegBinary, source, dest string) error {
	args := buildExtractArgs(source, dest)
	cmd := exec.CommandContext(ctx, ffmpegBinary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		detail := strings.TrimSpace(string(output))
		return services.Wrap(services.ErrAudioExtraction, "audiopipe", "extract",
			fmt.Sprintf("ffmpeg extract: %s", detail), err)
	}
	return nil
}

func buildExtractArgs(source, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
}
