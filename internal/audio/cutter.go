package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/sirupsen/logrus"

	"althingi-pipeline/internal/fileutil"
	"althingi-pipeline/internal/segmenter"
)

// DefaultTailSec closes the final, open segment of a video when no later
// boundary exists to derive its end from.
const DefaultTailSec = 10

// CutSegments slices the per-video raw WAV into one clip per cue. A cue's end
// is the next cue's start minus one second, so clips never overlap; the last
// cue gets the default tail. Clips that already exist on disk are skipped.
func CutSegments(cues []segmenter.Cue, rawWavPath, outDir string, lg *logrus.Entry) error {
	if len(cues) == 0 {
		return nil
	}

	f, err := os.Open(rawWavPath)
	if err != nil {
		return fmt.Errorf("open raw audio: %w", err)
	}
	streamer, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("decode raw audio: %w", err)
	}
	buf := beep.NewBuffer(format)
	buf.Append(streamer)
	streamer.Close()
	f.Close()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", outDir, err)
	}

	for i, cue := range cues {
		startSec := cue.StartSec
		var endSec int
		if i+1 < len(cues) {
			endSec = cues[i+1].StartSec - 1
		} else {
			endSec = startSec + DefaultTailSec
		}
		if endSec <= startSec {
			lg.WithFields(logrus.Fields{"start": startSec, "end": endSec}).Warn("degenerate segment, skipping")
			continue
		}

		outPath := filepath.Join(outDir, ClipName(cue.Text, startSec, endSec))
		if fileutil.Exists(outPath) {
			continue
		}

		from := clamp(format.SampleRate.N(time.Duration(startSec)*time.Second), buf.Len())
		to := clamp(format.SampleRate.N(time.Duration(endSec)*time.Second), buf.Len())
		if from >= to {
			lg.WithField("clip", outPath).Warn("segment lies past end of audio, skipping")
			continue
		}

		if err := writeWavAtomic(outPath, buf, from, to, format); err != nil {
			return fmt.Errorf("write clip %s: %w", outPath, err)
		}
		lg.WithFields(logrus.Fields{
			"clip":     filepath.Base(outPath),
			"start":    startSec,
			"end":      endSec,
			"duration": endSec - startSec,
		}).Info("clip written")
	}
	return nil
}

// CutFromLog parses a segment log and cuts the matching raw audio.
func CutFromLog(logPath, rawWavPath, outDir string, minLen int, lg *logrus.Entry) error {
	f, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("open segment log: %w", err)
	}
	cues, err := segmenter.ParseCues(f, minLen)
	f.Close()
	if err != nil {
		return fmt.Errorf("parse segment log: %w", err)
	}
	return CutSegments(cues, rawWavPath, outDir, lg)
}

func clamp(n, max int) int {
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}

// writeWavAtomic encodes buf[from:to) into a temp file and renames it into
// place, so an interrupted export never looks like a finished clip.
func writeWavAtomic(path string, buf *beep.Buffer, from, to int, format beep.Format) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp_clip_*.wav")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := wav.Encode(tmp, buf.Streamer(from, to), format); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
