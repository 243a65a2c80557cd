package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultTuning(t *testing.T) {
	t.Parallel()

	c := Default()
	if c.Segmenter.FPS != 25 {
		t.Fatalf("fps = %v", c.Segmenter.FPS)
	}
	if c.Segmenter.WarmupFrames != 4000 || c.Segmenter.FrameStride != 500 {
		t.Fatalf("warmup/stride = %d/%d", c.Segmenter.WarmupFrames, c.Segmenter.FrameStride)
	}
	if c.Segmenter.MinCaptionLen != 7 || c.Segmenter.MaxCaptionLen != 150 {
		t.Fatalf("caption gates = %d/%d", c.Segmenter.MinCaptionLen, c.Segmenter.MaxCaptionLen)
	}
	if c.Segmenter.Threshold != 0.7 {
		t.Fatalf("threshold = %v", c.Segmenter.Threshold)
	}
	if c.Segmenter.OCR.Language != "isl" || c.Segmenter.OCR.PageSegMode != 6 {
		t.Fatalf("ocr = %+v", c.Segmenter.OCR)
	}
	if c.Segmenter.SpeakerBand != (Rect{Top: 700, Bottom: 1000, Left: 150, Right: 1600}) {
		t.Fatalf("speaker band = %+v", c.Segmenter.SpeakerBand)
	}
	if c.Audio.ChunkCeilingSec != 59.5 {
		t.Fatalf("chunk ceiling = %v", c.Audio.ChunkCeilingSec)
	}
	if c.Paths.PartyMap != "data/party_mapping.json" {
		t.Fatalf("party map path = %q", c.Paths.PartyMap)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_ENV", "")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Segmenter.Threshold != 0.7 || c.Segmenter.FPS != 25 {
		t.Fatalf("defaults not applied: %+v", c.Segmenter)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_ENV", "")

	yml := `segmenter:
  similarity_threshold: 0.85
  frame_stride: 250
paths:
  videos: /srv/videos
`
	if err := os.WriteFile("config.yaml", []byte(yml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Segmenter.Threshold != 0.85 || c.Segmenter.FrameStride != 250 {
		t.Fatalf("overrides not applied: %+v", c.Segmenter)
	}
	if c.Paths.Videos != "/srv/videos" {
		t.Fatalf("paths override not applied: %q", c.Paths.Videos)
	}
	// Untouched keys keep their production values.
	if c.Segmenter.WarmupFrames != 4000 || c.Segmenter.OCR.Language != "isl" {
		t.Fatalf("defaults lost on merge: %+v", c.Segmenter)
	}
}

func TestLoadPrefersEnvScopedPath(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_ENV", "prod")

	if err := os.MkdirAll(filepath.Join("config", "prod"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	scoped := "segmenter:\n  fps: 30\n"
	if err := os.WriteFile(filepath.Join("config", "prod", "config.yaml"), []byte(scoped), 0o644); err != nil {
		t.Fatalf("write scoped config: %v", err)
	}
	if err := os.WriteFile("config.yaml", []byte("segmenter:\n  fps: 10\n"), 0o644); err != nil {
		t.Fatalf("write fallback config: %v", err)
	}

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Segmenter.FPS != 30 {
		t.Fatalf("env-scoped config not preferred, fps = %v", c.Segmenter.FPS)
	}
}
