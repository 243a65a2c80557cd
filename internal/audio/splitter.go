package audio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"althingi-pipeline/internal/fileutil"
)

// SplitClip re-splits one labeled clip so every output stays at or below
// ceiling seconds, the hard limit of the downstream transcription service.
// A clip already under the ceiling is copied through unchanged. Longer clips
// are divided into ceil(duration/ceiling) equal-length chunks, named by a
// 1-based index before the extension. Returns the paths written or skipped.
func SplitClip(srcPath, dstDir string, ceiling float64) ([]string, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return nil, fmt.Errorf("open clip: %w", err)
	}
	streamer, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode clip: %w", err)
	}
	buf := beep.NewBuffer(format)
	buf.Append(streamer)
	streamer.Close()
	f.Close()

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dstDir, err)
	}

	base := filepath.Base(srcPath)
	duration := format.SampleRate.D(buf.Len()).Seconds()
	if duration <= ceiling {
		dst := filepath.Join(dstDir, base)
		if _, err := fileutil.CopyAtomic(srcPath, dst, false); err != nil {
			return nil, fmt.Errorf("copy clip: %w", err)
		}
		return []string{dst}, nil
	}

	numSplits := int(math.Ceil(duration / ceiling))
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	var out []string
	for i := 0; i < numSplits; i++ {
		// Sample-exact equal partition: chunk durations sum to the source.
		from := i * buf.Len() / numSplits
		to := (i + 1) * buf.Len() / numSplits
		dst := filepath.Join(dstDir, fmt.Sprintf("%s_%d%s", stem, i+1, ext))
		out = append(out, dst)
		if fileutil.Exists(dst) {
			continue
		}
		if err := writeWavAtomic(dst, buf, from, to, format); err != nil {
			return nil, fmt.Errorf("write chunk %s: %w", dst, err)
		}
	}
	return out, nil
}
