package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Ferdagulay/apps-challenge/internal/caption"
	"github.com/Ferdagulay/apps-challenge/internal/genimage"
	"github.com/Ferdagulay/apps-challenge/internal/http/handlers"
	httpapi "github.com/Ferdagulay/apps-challenge/internal/http/httpapi"
	"github.com/Ferdagulay/apps-challenge/internal/infra"
	"github.com/Ferdagulay/apps-challenge/internal/pipeline"
	"github.com/Ferdagulay/apps-challenge/internal/session"
)

func main() {
	// Load .env (optional)
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	store, err := session.NewStore(cfg.OutputDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare output directory")
	}

	var captioner caption.Captioner
	switch cfg.CaptionProvider {
	case "gemini":
		gem, err := caption.NewGeminiCaptioner(ctx, caption.GeminiOptions{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to build gemini captioner")
		}
		defer gem.Close()
		captioner = gem
	default:
		oai, err := caption.NewOpenAICaptioner(caption.OpenAIOptions{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.CaptionModel,
			Timeout: cfg.CaptionTimeout,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to build openai captioner")
		}
		captioner = oai
	}

	generator, err := genimage.NewOpenAIGenerator(genimage.GeneratorOptions{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.ImageModel,
		Size:    cfg.ImageSize,
		Timeout: cfg.GenerationTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build image generator")
	}
	editor, err := genimage.NewEditor(genimage.EditorOptions{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.EditModel,
		Timeout: cfg.GenerationTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build image editor")
	}
	fetcher := genimage.NewFetcher(genimage.FetcherOptions{
		Grace:   cfg.FetchGrace,
		MaxWait: cfg.FetchMaxWait,
	})

	pipe, err := pipeline.New(pipeline.Options{
		Store:     store,
		Captioner: captioner,
		Generator: generator,
		Editor:    editor,
		Fetcher:   fetcher,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build pipeline")
	}

	app := handlers.NewApp(pipe, logger, cfg.OutputDir, cfg.MaxUploadBytes)

	router := httpapi.NewRouter(app, logger, httpapi.Options{
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		OutputDir:       cfg.OutputDir,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
