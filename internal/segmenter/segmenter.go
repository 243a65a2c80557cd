package segmenter

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"althingi-pipeline/internal/config"
	"althingi-pipeline/internal/fileutil"
	"althingi-pipeline/internal/ocr"
)

// FrameSampler yields OCR readings for sampled frames of one video. The gocv
// implementation lives in internal/ocr; tests substitute a fake.
type FrameSampler interface {
	// SampleSpeaker seeks to frameIndex and OCRs the speaker caption band.
	// ok=false signals end of stream; an unreadable frame is end of stream,
	// not an error.
	SampleSpeaker(frameIndex int) (ocr.Reading, bool, error)
	// SampleTopic OCRs the topic caption band of the last sampled frame.
	SampleTopic() (ocr.Reading, error)
	// PersistAudit writes the original frame plus both masked debug images.
	PersistAudit(dir string, frameIndex int) error
}

// Driver walks a video at a fixed frame stride and appends a log block each
// time the speaker caption changes.
type Driver struct {
	cfg config.Segmenter
	det *Detector
	log *logrus.Entry
	now func() time.Time
}

func NewDriver(cfg config.Segmenter, log *logrus.Entry) *Driver {
	return &Driver{
		cfg: cfg,
		det: NewDetector(cfg.MinCaptionLen, cfg.MaxCaptionLen, cfg.Threshold),
		log: log,
		now: time.Now,
	}
}

// LogPath is the per-video segment log location under logsRoot.
func LogPath(logsRoot, videoID string) string {
	return filepath.Join(logsRoot, videoID, videoID+".txt")
}

// Run processes one video. An existing log file means the video was already
// processed and the call is a no-op, which is what makes batch runs
// resumable. The final segment is deliberately left open in the log; cutting
// applies the default duration.
func (d *Driver) Run(sampler FrameSampler, videoID, logsRoot, framesRoot string) error {
	logPath := LogPath(logsRoot, videoID)
	if fileutil.Exists(logPath) {
		d.log.WithField("video", videoID).Info("segment log exists, skipping")
		return nil
	}
	framesDir := filepath.Join(framesRoot, videoID)
	for _, dir := range []string{filepath.Dir(logPath), framesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open segment log: %w", err)
	}
	defer f.Close()

	vlog := d.log.WithField("video", videoID)
	active := ""
	segOpen := false
	frame := d.cfg.WarmupFrames

	for {
		reading, ok, err := sampler.SampleSpeaker(frame)
		if err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
		if !ok {
			vlog.WithField("frame", frame).Info("end of stream")
			break
		}

		changed, score := d.det.HasChanged(active, reading.Text())
		if changed {
			sec := frameToSeconds(frame, d.cfg.FPS)
			if segOpen {
				if err := WriteEnd(f, sec); err != nil {
					return fmt.Errorf("write end: %w", err)
				}
			}

			topic, err := sampler.SampleTopic()
			if err != nil {
				return fmt.Errorf("frame %d topic: %w", frame, err)
			}

			active = reading.Text()
			segOpen = true
			entry := Entry{
				Timestamp: d.now(),
				Score:     score,
				VideoID:   videoID,
				StartSec:  sec,
				Frame:     frame,
				Speaker:   active,
				Topic:     topic.Text(),
				EndSec:    -1,
			}
			if err := WriteBlock(f, entry); err != nil {
				return fmt.Errorf("write block: %w", err)
			}
			if err := sampler.PersistAudit(framesDir, frame); err != nil {
				vlog.WithField("frame", frame).WithError(err).Warn("audit images not written")
			}

			vlog.WithFields(logrus.Fields{
				"frame":   frame,
				"start":   Clock(sec),
				"score":   score,
				"speaker": flatten(active),
			}).Info("new segment")
		}

		frame += d.cfg.FrameStride
	}
	return nil
}

func frameToSeconds(frame int, fps float64) int {
	return int(float64(frame) / fps)
}
