package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"crack-inspector/config"
	telegram "crack-inspector/internal/api"
	app "crack-inspector/internal/application"
	"crack-inspector/internal/container"
	"crack-inspector/internal/logger"
)

const usage = `Usage:
  crack-inspector [-config crack.yaml] batch [-dir DIR] [-out DIR] [image ...]
  crack-inspector [-config crack.yaml] bot
  crack-inspector [-config crack.yaml] visualize -images DIR -masks DIR [-out DIR] [-label 1] [-alpha 0.6] [-mask-ext .png]

With input.loader: gocv (binary built with -tags gocv) OpenCV reads its image size
limit once at startup, so export it before launching, for example:
  OPENCV_IO_MAX_IMAGE_PIXELS=1099511627776 crack-inspector batch -dir orthophotos
The value must be at least input.max_image_pixels.
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	global := flag.NewFlagSet("crack-inspector", flag.ContinueOnError)
	configPath := global.String("config", "", "path to YAML config (default $CRACK_CONFIG)")
	global.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		global.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd, rest := global.Arg(0), global.Args()[1:]; cmd {
	case "batch":
		return runBatch(ctx, cfg, log, rest)
	case "bot":
		return runBot(ctx, cfg, log)
	case "visualize":
		return runVisualize(ctx, cfg, log, rest)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n%s", cmd, usage)
		return 2
	}
}

func runBatch(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string) int {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	dir := fs.String("dir", cfg.Input.Dir, "directory with images")
	out := fs.String("out", cfg.Output.Dir, "directory for masks, overlays and reports")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg.Output.Dir = *out

	paths := fs.Args()
	if len(paths) == 0 {
		if *dir == "" {
			log.Error().Msg("no images: pass -dir or image paths")
			return 2
		}
		var err error
		paths, err = app.CollectImages(*dir, cfg.Input.Extensions)
		if err != nil {
			log.Error().Err(err).Msg("failed to list images")
			return 1
		}
	}

	c, err := container.New(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to build services")
		return 1
	}
	defer c.Close()

	report, err := c.InspectionService.ProcessBatch(ctx, paths)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("batch failed")
		return 1
	}
	if report == nil {
		return 1
	}

	cracked := 0
	for _, result := range report.Results {
		if result.HasCracks() {
			cracked++
		}
	}
	log.Info().
		Str("run", report.ID.String()).
		Int("images", report.Processed()).
		Int("with_cracks", cracked).
		Int("failed", len(report.Failures)).
		Str("out", cfg.Output.Dir).
		Msg("done")

	if errors.Is(err, context.Canceled) {
		return 130
	}
	if len(report.Failures) > 0 {
		return 3
	}
	return 0
}

func runVisualize(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string) int {
	fs := flag.NewFlagSet("visualize", flag.ContinueOnError)
	images := fs.String("images", cfg.Input.Dir, "directory with original images")
	masks := fs.String("masks", "", "directory with label masks named like the images")
	out := fs.String("out", "visualization", "directory for side-by-side comparisons")
	label := fs.Uint("label", 1, "class value of cracks in the masks")
	alpha := fs.Float64("alpha", 0.6, "overlay opacity")
	maskExt := fs.String("mask-ext", ".png", "mask file extension")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *images == "" || *masks == "" {
		log.Error().Msg("visualize needs -images and -masks")
		return 2
	}

	paths, err := app.CollectImages(*images, cfg.Input.Extensions)
	if err != nil {
		log.Error().Err(err).Msg("failed to list images")
		return 1
	}

	renderer, err := container.NewGroundTruthRenderer(cfg, *alpha, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to build renderer")
		return 1
	}
	renderer.Label = uint32(*label)
	renderer.MaskExt = *maskExt

	stats, err := renderer.RenderDir(ctx, paths, *masks, *out)
	if errors.Is(err, context.Canceled) {
		return 130
	}
	if err != nil {
		log.Error().Err(err).Msg("visualize failed")
		return 1
	}
	log.Info().Int("rendered", stats.Rendered).Int("skipped", stats.Skipped).Str("out", *out).Msg("done")
	return 0
}

func runBot(ctx context.Context, cfg *config.Config, log zerolog.Logger) int {
	if cfg.TelegramToken == "" {
		log.Error().Msg("TELEGRAM_TOKEN is required")
		return 1
	}

	// Собираем сервисы приложения
	c, err := container.New(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to build services")
		return 1
	}
	defer c.Close()

	// Создаём бота
	bot, err := telegram.NewBot(cfg.TelegramToken, c.SessionService, c.InspectionService, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to create bot")
		return 1
	}

	log.Info().Msg("bot is running")
	if err := bot.Run(ctx); err != nil {
		log.Error().Err(err).Msg("bot error")
		return 1
	}
	return 0
}
