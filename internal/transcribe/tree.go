package transcribe

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"althingi-pipeline/internal/classify"
	"althingi-pipeline/internal/fileutil"
)

// Tree walks the short-clip tree (<shortDir>/<video>/<party>/*.wav) and
// writes one transcript per clip into the mirrored textDir. Clips in the
// unlabeled bucket are not transcribed; clips whose transcript already exists
// are skipped.
func Tree(ctx context.Context, be Backend, shortDir, textDir string, lg *logrus.Entry) error {
	return filepath.WalkDir(shortDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == classify.Unlabeled {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".wav") {
			return nil
		}

		rel, err := filepath.Rel(shortDir, path)
		if err != nil {
			return err
		}
		outPath := filepath.Join(textDir, strings.TrimSuffix(rel, ".wav")+".txt")
		if fileutil.Exists(outPath) {
			return nil
		}

		text, err := be.Transcribe(ctx, path)
		if err != nil {
			return fmt.Errorf("transcribe %s: %w", rel, err)
		}
		if err := fileutil.WriteAtomic(outPath, []byte(text), 0o644); err != nil {
			return fmt.Errorf("write transcript %s: %w", outPath, err)
		}
		lg.WithField("clip", rel).Info("transcript written")
		return nil
	})
}
