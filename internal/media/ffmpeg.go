package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"althingi-pipeline/internal/fileutil"
)

// ExtractAudio converts a video container into the raw mono 16-bit PCM WAV
// the cutter consumes, via ffmpeg. The output lands in rawDir named after the
// video. An existing raw WAV is reused; the conversion itself writes to a
// temp name and renames so an interrupted run never leaves a half WAV that
// passes the skip check.
func ExtractAudio(ctx context.Context, videoPath, rawDir string) (string, error) {
	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", rawDir, err)
	}
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	out := filepath.Join(rawDir, base+".wav")
	if fileutil.Exists(out) {
		return out, nil
	}

	tmp := filepath.Join(rawDir, "."+base+".tmp.wav")
	defer os.Remove(tmp)

	// ffmpeg -y -i input -ac 1 -ar 44100 -sample_fmt s16 -f wav tmp
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y", "-i", videoPath,
		"-ac", "1", "-ar", "44100",
		"-sample_fmt", "s16",
		"-f", "wav",
		tmp,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg: %w", err)
	}
	if err := os.Rename(tmp, out); err != nil {
		return "", err
	}
	return out, nil
}
