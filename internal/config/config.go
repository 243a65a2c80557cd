package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Rect is a crop rectangle in frame pixel coordinates.
type Rect struct {
	Top    int `yaml:"top"`
	Bottom int `yaml:"bottom"`
	Left   int `yaml:"left"`
	Right  int `yaml:"right"`
}

// HSVRange is an inclusive lower/upper bound pair in HSV space.
type HSVRange struct {
	Lower [3]float64 `yaml:"lower"`
	Upper [3]float64 `yaml:"upper"`
}

// GrayRange is an inclusive intensity bound pair for single-channel masking.
type GrayRange struct {
	Lower float64 `yaml:"lower"`
	Upper float64 `yaml:"upper"`
}

type OCR struct {
	Language    string `yaml:"language"`      // tesseract language, e.g. "isl"
	PageSegMode int    `yaml:"page_seg_mode"` // tesseract PSM
}

type Segmenter struct {
	FPS           float64   `yaml:"fps"`
	WarmupFrames  int       `yaml:"warmup_frames"` // first captionless frames, skipped entirely
	FrameStride   int       `yaml:"frame_stride"`
	MinCaptionLen int       `yaml:"min_caption_len"`
	MaxCaptionLen int       `yaml:"max_caption_len"`
	Threshold     float64   `yaml:"similarity_threshold"`
	SpeakerBand   Rect      `yaml:"speaker_band"`
	TopicBand     Rect      `yaml:"topic_band"`
	SpeakerColor  HSVRange  `yaml:"speaker_color"`
	TopicColor    GrayRange `yaml:"topic_color"`
	OCR           OCR       `yaml:"ocr"`
}

type Audio struct {
	ChunkCeilingSec float64 `yaml:"chunk_ceiling_sec"`
}

type Transcribe struct {
	Backend  string `yaml:"backend"` // remote|openai
	Host     string `yaml:"host"`
	Model    string `yaml:"model"`
	Language string `yaml:"language"`
}

type Paths struct {
	Catalog   string `yaml:"catalog"`
	Videos    string `yaml:"videos"`
	RawAudio  string `yaml:"raw_audio"`
	Processed string `yaml:"processed"`
	Labeled   string `yaml:"labeled"`
	Short     string `yaml:"short"`
	Text      string `yaml:"text"`
	Logs      string `yaml:"logs"`
	PartyMap  string `yaml:"party_map"`
}

type Root struct {
	Pipeline struct {
		Name   string `yaml:"name"`
		LogLvl string `yaml:"log_level"`
	} `yaml:"pipeline"`
	Segmenter  Segmenter  `yaml:"segmenter"`
	Audio      Audio      `yaml:"audio"`
	Transcribe Transcribe `yaml:"transcribe"`
	Paths      Paths      `yaml:"paths"`
}

// Default mirrors the tuning the pipeline has been run with in production:
// yellow speaker captions, near-white topic captions, 25 fps source material.
func Default() *Root {
	var c Root
	c.Pipeline.Name = "althingi-pipeline"
	c.Segmenter = Segmenter{
		FPS:           25,
		WarmupFrames:  4000,
		FrameStride:   500,
		MinCaptionLen: 7,
		MaxCaptionLen: 150,
		Threshold:     0.7,
		SpeakerBand:   Rect{Top: 700, Bottom: 1000, Left: 150, Right: 1600},
		TopicBand:     Rect{Top: 800, Bottom: 1000, Left: 150, Right: 1700},
		SpeakerColor: HSVRange{
			Lower: [3]float64{29, 100, 100},
			Upper: [3]float64{33, 255, 255},
		},
		TopicColor: GrayRange{Lower: 240, Upper: 255},
		OCR:        OCR{Language: "isl", PageSegMode: 6},
	}
	c.Audio = Audio{ChunkCeilingSec: 59.5}
	c.Transcribe = Transcribe{Backend: "remote", Language: "is-IS"}
	c.Paths = Paths{
		Catalog:   "data/meetings.xlsx",
		Videos:    "videos",
		RawAudio:  "audio/raw",
		Processed: "audio/processed",
		Labeled:   "audio/labeled",
		Short:     "audio/short",
		Text:      "text/labeled",
		Logs:      "logs/topic",
		PartyMap:  "data/party_mapping.json",
	}
	return &c
}

func Load() (*Root, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	guess := []string{
		filepath.Join("config", env, "config.yaml"),
		"config.yaml",
	}
	var err error
	for _, p := range guess {
		var f *os.File
		f, err = os.Open(p)
		if err != nil {
			continue
		}
		cfg := Default()
		err = yaml.NewDecoder(f).Decode(cfg)
		f.Close()
		if err == nil {
			return cfg, nil
		}
	}
	if err == nil || os.IsNotExist(err) {
		// No config file is fine, production defaults apply.
		return Default(), nil
	}
	return nil, err
}
