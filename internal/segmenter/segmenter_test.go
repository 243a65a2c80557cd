package segmenter

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"althingi-pipeline/internal/config"
	"althingi-pipeline/internal/ocr"
)

// fakeSampler feeds scripted speaker readings; index is the frame number.
type fakeSampler struct {
	frames     []string
	topic      string
	auditCalls int
}

func (f *fakeSampler) SampleSpeaker(frameIndex int) (ocr.Reading, bool, error) {
	if frameIndex < 0 || frameIndex >= len(f.frames) {
		return ocr.NoReading(), false, nil
	}
	if f.frames[frameIndex] == "" {
		return ocr.NoReading(), true, nil
	}
	return ocr.TextReading(f.frames[frameIndex]), true, nil
}

func (f *fakeSampler) SampleTopic() (ocr.Reading, error) {
	return ocr.TextReading(f.topic), nil
}

func (f *fakeSampler) PersistAudit(dir string, frameIndex int) error {
	f.auditCalls++
	return nil
}

func testSegmenterConfig() config.Segmenter {
	c := config.Default().Segmenter
	// One frame per second and no warm-up makes frame indices readable.
	c.FPS = 1
	c.WarmupFrames = 0
	c.FrameStride = 1
	return c
}

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestDriverEmitsContiguousSegments(t *testing.T) {
	t.Parallel()

	sampler := &fakeSampler{
		frames: []string{
			"aaaaaaaaaaaa", "aaaaaaaaaaaa", "aaaaaaaaaaab", // noise only
			"bbbbbbbbbbbb", "bbbbbbbbbbbb",
		},
		topic: "Löng yfirskrift",
	}

	logsRoot := t.TempDir()
	framesRoot := t.TempDir()
	d := NewDriver(testSegmenterConfig(), quietLog())
	if err := d.Run(sampler, "vid1", logsRoot, framesRoot); err != nil {
		t.Fatalf("Run: %v", err)
	}

	raw, err := os.ReadFile(LogPath(logsRoot, "vid1"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(raw)

	if got := strings.Count(text, "Speaker:"); got != 2 {
		t.Fatalf("Speaker blocks=%d, want 2 (noise must not open segments)\n%s", got, text)
	}
	// First segment closed exactly where the second starts.
	if !strings.Contains(text, "End: 0:03") {
		t.Fatalf("missing End at second boundary:\n%s", text)
	}
	if !strings.Contains(text, "Start: 0:03") {
		t.Fatalf("missing Start of second segment:\n%s", text)
	}
	// Final segment stays open: exactly one End line.
	if got := strings.Count(text, "End:"); got != 1 {
		t.Fatalf("End lines=%d, want 1 (final segment stays open)\n%s", got, text)
	}
	if sampler.auditCalls != 2 {
		t.Fatalf("auditCalls=%d, want one per boundary", sampler.auditCalls)
	}

	cues, err := ParseCues(strings.NewReader(text), 7)
	if err != nil {
		t.Fatalf("ParseCues: %v", err)
	}
	if len(cues) != 2 || cues[0].StartSec != 0 || cues[1].StartSec != 3 {
		t.Fatalf("cues=%+v, want starts 0 and 3", cues)
	}
}

func TestDriverUnreadableFrameIsEndOfStream(t *testing.T) {
	t.Parallel()

	sampler := &fakeSampler{frames: []string{"aaaaaaaaaaaa"}, topic: "t"}
	d := NewDriver(testSegmenterConfig(), quietLog())
	if err := d.Run(sampler, "vid1", t.TempDir(), t.TempDir()); err != nil {
		t.Fatalf("Run must treat an unreadable frame as end of stream, got %v", err)
	}
}

func TestDriverSkipsAlreadyProcessedVideo(t *testing.T) {
	t.Parallel()

	logsRoot := t.TempDir()
	logPath := LogPath(logsRoot, "vid1")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	existing := "Speaker: fyrri keyrsla\nStart: 0:00\n"
	if err := os.WriteFile(logPath, []byte(existing), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	sampler := &fakeSampler{frames: []string{"aaaaaaaaaaaa"}, topic: "t"}
	d := NewDriver(testSegmenterConfig(), quietLog())
	if err := d.Run(sampler, "vid1", logsRoot, t.TempDir()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	raw, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if string(raw) != existing {
		t.Fatalf("existing log was modified:\n%s", raw)
	}
}

func TestDriverHonorsWarmupAndStride(t *testing.T) {
	t.Parallel()

	cfg := testSegmenterConfig()
	cfg.WarmupFrames = 4
	cfg.FrameStride = 2

	frames := make([]string, 10)
	frames[0] = "cccccccccccc" // inside warm-up, must never be seen
	frames[4] = "aaaaaaaaaaaa"
	frames[6] = "aaaaaaaaaaaa"
	frames[8] = "bbbbbbbbbbbb"
	sampler := &fakeSampler{frames: frames, topic: "t"}

	logsRoot := t.TempDir()
	d := NewDriver(cfg, quietLog())
	if err := d.Run(sampler, "vid1", logsRoot, t.TempDir()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	raw, err := os.ReadFile(LogPath(logsRoot, "vid1"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(raw)
	if strings.Contains(text, "ccccccccccccc") {
		t.Fatalf("warm-up frames must be skipped entirely:\n%s", text)
	}
	if !strings.Contains(text, "Frame: 4\n") || !strings.Contains(text, "Frame: 8\n") {
		t.Fatalf("expected boundaries at frames 4 and 8:\n%s", text)
	}
}
