package classify

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"althingi-pipeline/internal/fileutil"
)

// LabelDir routes every processed clip of one video into its party bucket
// under labeledDir. All party bucket directories plus the unlabeled bucket
// are created up front. A video whose labeled directory already exists is
// skipped wholesale, which is the stage's resumability checkpoint.
func LabelDir(processedDir, labeledDir string, table *Table, lg *logrus.Entry) (Summary, error) {
	sum := NewSummary()

	if fileutil.Exists(labeledDir) {
		lg.WithField("dir", labeledDir).Info("labeled dir exists, skipping")
		return sum, nil
	}

	buckets := append(table.Parties(), Unlabeled)
	for _, b := range buckets {
		if err := os.MkdirAll(filepath.Join(labeledDir, b), 0o755); err != nil {
			return sum, fmt.Errorf("mkdir bucket %s: %w", b, err)
		}
	}

	files, err := os.ReadDir(processedDir)
	if err != nil {
		return sum, fmt.Errorf("read processed dir: %w", err)
	}
	for _, de := range files {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		party := table.Classify(name)
		sum.Add(party)

		src := filepath.Join(processedDir, name)
		dst := filepath.Join(labeledDir, party, name)
		if _, err := fileutil.CopyAtomic(src, dst, false); err != nil {
			return sum, fmt.Errorf("copy %s: %w", name, err)
		}
	}

	lg.WithFields(logrus.Fields{
		"clips":     sum.Total,
		"unlabeled": sum.ByParty[Unlabeled],
	}).Info("labeling done")
	return sum, nil
}
