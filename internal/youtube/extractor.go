package youtube

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

const audioQuality = "192K"

var ErrYtDlpNotAvailable = fmt.Errorf("yt-dlp not available")

// Download extracts the audio track of videoID as mp3 at outputPath using
// yt-dlp. The caller validates the produced file.
func (c *Client) Download(ctx context.Context, videoID, outputPath string) error {
	if err := c.checkYtDlpAvailable(); err != nil {
		return err
	}

	watchURL := fmt.Sprintf("%s/watch?v=%s", defaultBaseURL, videoID)

	// yt-dlp substitutes the final extension after transcoding, so hand
	// it a template rather than the literal .mp3 path.
	template := strings.TrimSuffix(outputPath, ".mp3") + ".%(ext)s"

	args := []string{
		"--no-playlist",
		"--format", "bestaudio/best",
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", audioQuality,
		"--output", template,
		"--quiet",
		"--no-warnings",
		watchURL,
	}

	cmd := exec.CommandContext(ctx, c.ytdlp, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("yt-dlp failed: %w\noutput: %s", err, string(output))
	}
	return nil
}

func (c *Client) checkYtDlpAvailable() error {
	if _, err := exec.LookPath(c.ytdlp); err != nil {
		return fmt.Errorf("%w: %v", ErrYtDlpNotAvailable, err)
	}
	return nil
}
