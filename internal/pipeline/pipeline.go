package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"althingi-pipeline/internal/audio"
	"althingi-pipeline/internal/catalog"
	"althingi-pipeline/internal/classify"
	"althingi-pipeline/internal/config"
	"althingi-pipeline/internal/download"
	"althingi-pipeline/internal/media"
	"althingi-pipeline/internal/ocr"
	"althingi-pipeline/internal/segmenter"
	"althingi-pipeline/internal/transcribe"
)

// Pipeline runs the batch stages over every session video under the
// configured roots. Each stage is independently resumable: outputs that
// already exist are skipped, so re-running after a crash picks up where the
// previous run stopped. Videos are processed one at a time; a failing video
// is logged and the batch moves on.
type Pipeline struct {
	cfg *config.Root
	log *logrus.Entry
}

func New(cfg *config.Root, log *logrus.Entry) *Pipeline {
	return &Pipeline{cfg: cfg, log: log}
}

// Download fetches every catalog meeting's recording with byte-range resume.
func (p *Pipeline) Download(ctx context.Context) error {
	meetings, err := catalog.Load(p.cfg.Paths.Catalog)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p.cfg.Paths.Videos, 0o755); err != nil {
		return err
	}
	for _, m := range meetings {
		dest := filepath.Join(p.cfg.Paths.Videos, m.VideoID()+".mp4")
		lg := p.log.WithField("meeting", m.Number)
		if err := download.Fetch(ctx, m.VideoURL, dest, lg); err != nil {
			lg.WithError(err).Warn("download failed, moving on")
		}
	}
	return nil
}

// ToAudio extracts raw mono PCM WAV from every downloaded video.
func (p *Pipeline) ToAudio(ctx context.Context) error {
	videos, err := listVideos(p.cfg.Paths.Videos)
	if err != nil {
		return err
	}
	for _, v := range videos {
		if _, err := media.ExtractAudio(ctx, v, p.cfg.Paths.RawAudio); err != nil {
			p.log.WithField("video", v).WithError(err).Warn("audio extraction failed, moving on")
		}
	}
	return nil
}

// Segment walks each video's frames and writes the per-video segment log.
func (p *Pipeline) Segment(ctx context.Context) error {
	videos, err := listVideos(p.cfg.Paths.Videos)
	if err != nil {
		return err
	}

	ext, err := ocr.NewExtractor(p.cfg.Segmenter.OCR)
	if err != nil {
		return err
	}
	defer ext.Close()

	driver := segmenter.NewDriver(p.cfg.Segmenter, p.log)
	framesRoot := filepath.Join(filepath.Dir(p.cfg.Paths.Logs), "frames")

	for _, v := range videos {
		if err := ctx.Err(); err != nil {
			return err
		}
		videoID := strings.TrimSuffix(filepath.Base(v), filepath.Ext(v))
		if err := p.segmentOne(driver, ext, v, videoID, framesRoot); err != nil {
			p.log.WithField("video", videoID).WithError(err).Warn("segmentation failed, moving on")
		}
	}
	return nil
}

func (p *Pipeline) segmentOne(driver *segmenter.Driver, ext *ocr.Extractor, videoPath, videoID, framesRoot string) error {
	sampler, err := ocr.NewVideoSampler(videoPath, ext,
		ocr.SpeakerMask(p.cfg.Segmenter), ocr.TopicMask(p.cfg.Segmenter))
	if err != nil {
		return err
	}
	defer sampler.Close()
	return driver.Run(sampler, videoID, p.cfg.Paths.Logs, framesRoot)
}

// Cut slices each video's raw WAV into one clip per logged segment.
func (p *Pipeline) Cut(ctx context.Context) error {
	videoIDs, err := listLogDirs(p.cfg.Paths.Logs)
	if err != nil {
		return err
	}
	for _, id := range videoIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		lg := p.log.WithField("video", id)
		err := audio.CutFromLog(
			segmenter.LogPath(p.cfg.Paths.Logs, id),
			filepath.Join(p.cfg.Paths.RawAudio, id+".wav"),
			filepath.Join(p.cfg.Paths.Processed, id),
			p.cfg.Segmenter.MinCaptionLen,
			lg,
		)
		if err != nil {
			lg.WithError(err).Warn("cutting failed, moving on")
		}
	}
	return nil
}

// Label classifies every processed clip into its party bucket.
func (p *Pipeline) Label(ctx context.Context) error {
	table, err := classify.LoadTable(p.cfg.Paths.PartyMap)
	if err != nil {
		return err
	}

	videoIDs, err := listSubdirs(p.cfg.Paths.Processed)
	if err != nil {
		return err
	}
	total := classify.NewSummary()
	for _, id := range videoIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		lg := p.log.WithField("video", id)
		sum, err := classify.LabelDir(
			filepath.Join(p.cfg.Paths.Processed, id),
			filepath.Join(p.cfg.Paths.Labeled, id),
			table, lg,
		)
		if err != nil {
			lg.WithError(err).Warn("labeling failed, moving on")
			continue
		}
		total.Merge(sum)
	}
	p.log.WithFields(logrus.Fields{
		"clips":          total.Total,
		"unlabeled_rate": total.UnlabeledRate(),
	}).Info("labeling summary")
	return nil
}

// Split re-splits labeled clips so every output respects the duration
// ceiling the transcription service enforces.
func (p *Pipeline) Split(ctx context.Context) error {
	videoIDs, err := listSubdirs(p.cfg.Paths.Labeled)
	if err != nil {
		return err
	}
	for _, id := range videoIDs {
		parties, err := listSubdirs(filepath.Join(p.cfg.Paths.Labeled, id))
		if err != nil {
			return err
		}
		for _, party := range parties {
			srcDir := filepath.Join(p.cfg.Paths.Labeled, id, party)
			dstDir := filepath.Join(p.cfg.Paths.Short, id, party)
			if err := p.splitDir(ctx, srcDir, dstDir); err != nil {
				p.log.WithField("dir", srcDir).WithError(err).Warn("splitting failed, moving on")
			}
		}
	}
	return nil
}

func (p *Pipeline) splitDir(ctx context.Context, srcDir, dstDir string) error {
	files, err := os.ReadDir(srcDir)
	if err != nil {
		return err
	}
	for _, de := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".wav") {
			continue
		}
		src := filepath.Join(srcDir, de.Name())
		if _, err := audio.SplitClip(src, dstDir, p.cfg.Audio.ChunkCeilingSec); err != nil {
			return fmt.Errorf("split %s: %w", de.Name(), err)
		}
	}
	return nil
}

// Transcribe sends every short labeled clip to the configured backend.
func (p *Pipeline) Transcribe(ctx context.Context) error {
	var be transcribe.Backend
	switch p.cfg.Transcribe.Backend {
	case "openai":
		be = transcribe.NewOpenAI(os.Getenv("OPENAI_API_KEY"), p.cfg.Transcribe.Model)
	case "remote", "":
		host := p.cfg.Transcribe.Host
		if host == "" {
			host = os.Getenv("TRANSCRIBE_URL")
		}
		be = transcribe.NewRemote(host, p.cfg.Transcribe.Language)
	default:
		return fmt.Errorf("unknown transcription backend %q", p.cfg.Transcribe.Backend)
	}
	return transcribe.Tree(ctx, be, p.cfg.Paths.Short, p.cfg.Paths.Text, p.log)
}

// Run executes all stages in order, one full stage at a time.
func (p *Pipeline) Run(ctx context.Context) error {
	stages := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"download", p.Download},
		{"toaudio", p.ToAudio},
		{"segment", p.Segment},
		{"cut", p.Cut},
		{"label", p.Label},
		{"split", p.Split},
		{"transcribe", p.Transcribe},
	}
	for _, s := range stages {
		p.log.WithField("stage", s.name).Info("stage starting")
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("stage %s: %w", s.name, err)
		}
	}
	return nil
}

func listVideos(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read video dir: %w", err)
	}
	var out []string
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".mp4") {
			continue
		}
		out = append(out, filepath.Join(dir, de.Name()))
	}
	return out, nil
}

func listSubdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, de := range entries {
		if de.IsDir() {
			out = append(out, de.Name())
		}
	}
	return out, nil
}

// listLogDirs mirrors listSubdirs but tolerates stray files in the log root.
func listLogDirs(dir string) ([]string, error) {
	out, err := listSubdirs(dir)
	if err != nil {
		return nil, fmt.Errorf("read log dir: %w", err)
	}
	return out, nil
}
