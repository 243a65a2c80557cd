package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"althingi-pipeline/internal/config"
	"althingi-pipeline/internal/logger"
	"althingi-pipeline/internal/pipeline"
)

func main() {
	_ = godotenv.Load() // loads .env

	root := &cobra.Command{
		Use:           "pipeline",
		Short:         "Turns parliamentary session recordings into labeled, transcription-ready audio clips",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	stages := []struct {
		name  string
		short string
		fn    func(*pipeline.Pipeline, context.Context) error
	}{
		{"download", "Fetch session recordings from the meetings catalog", (*pipeline.Pipeline).Download},
		{"toaudio", "Extract raw mono PCM audio from downloaded videos", (*pipeline.Pipeline).ToAudio},
		{"segment", "Detect speaker/topic caption changes and write segment logs", (*pipeline.Pipeline).Segment},
		{"cut", "Cut raw audio into per-segment clips", (*pipeline.Pipeline).Cut},
		{"label", "Classify clips into party buckets", (*pipeline.Pipeline).Label},
		{"split", "Re-split clips above the duration ceiling", (*pipeline.Pipeline).Split},
		{"transcribe", "Transcribe short labeled clips", (*pipeline.Pipeline).Transcribe},
		{"run", "Run all stages in order", (*pipeline.Pipeline).Run},
	}
	for _, s := range stages {
		fn := s.fn
		name := s.name
		root.AddCommand(&cobra.Command{
			Use:   name,
			Short: s.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				log := logger.New().WithRun(name)
				log.WithField("pipeline", cfg.Pipeline.Name).Info("stage invoked")
				return fn(pipeline.New(cfg, log), cmd.Context())
			},
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		logger.New().WithError(err).Fatal("pipeline failed")
	}
}
