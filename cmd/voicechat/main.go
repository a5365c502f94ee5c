package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/x/term"

	"voice-chat/config"
	"voice-chat/internal/application"
	"voice-chat/internal/console"
	"voice-chat/internal/domain"
	"voice-chat/internal/infra/audio"
	"voice-chat/internal/infra/httpapi"
	"voice-chat/internal/infra/lemonfox"
	"voice-chat/internal/infra/openrouter"
	"voice-chat/internal/infra/secret"
	"voice-chat/internal/infra/speech"
	"voice-chat/internal/infra/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	// the console owns stdout
	var logOut io.Writer = os.Stdout
	if cfg.Audio.Source == config.SourceMicrophone {
		logOut = os.Stderr
	}
	logger := setupLogger(cfg.Log, logOut)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("voice chat error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	if keys, err := store.Keys(ctx); err == nil {
		logger.Debug("storage opened", "path", cfg.Storage.Path, "keys", keys)
	}

	var sealer application.Sealer
	if cfg.Storage.EncryptCredentials {
		s, err := secret.NewFromKeyFile(cfg.Storage.KeyFile)
		if err != nil {
			return fmt.Errorf("loading credential key: %w", err)
		}
		sealer = s
	}

	credentials := application.NewCredentialStore(store, sealer)
	if err := credentials.Seed(ctx, domain.Credentials{
		TranscriptionKey: cfg.Transcription.APIKey,
		ChatKey:          cfg.Chat.APIKey,
	}); err != nil {
		logger.Warn("seeding credentials from config", "error", err)
	}

	conversation := application.NewConversationLog(store, logger)
	turns, err := conversation.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading conversation: %w", err)
	}

	speaker, closeSpeaker := createSpeaker(cfg.Speech, logger)
	defer closeSpeaker()

	deps := application.Dependencies{
		STT: lemonfox.NewClient(cfg.Transcription.Language,
			lemonfox.WithBaseURL(cfg.Transcription.BaseURL),
			lemonfox.WithFileMode(lemonfox.FileMode(cfg.Transcription.FileMode)),
		),
		Chat:         openrouter.NewClient(cfg.Chat.Model, openrouter.WithBaseURL(cfg.Chat.BaseURL)),
		Speaker:      speaker,
		Conversation: conversation,
		Credentials:  credentials,
		Session:      application.NewSession(cfg.Speech.Enabled),
		SpeechRate:   cfg.Speech.Rate,
	}

	logger.Info("starting voice chat",
		"audio_source", cfg.Audio.Source,
		"turns", len(turns),
		"model", cfg.Chat.Model,
	)

	switch cfg.Audio.Source {
	case config.SourceHTTP:
		return runHTTP(ctx, cfg.Audio, deps, logger)
	case config.SourceFile:
		return runDropFolder(ctx, cfg.Audio, deps, logger)
	default:
		return runConsole(ctx, cfg.Audio, deps, logger)
	}
}

func runConsole(ctx context.Context, cfg config.AudioConfig, deps application.Dependencies, logger *slog.Logger) error {
	mic := audio.NewMicrophone(cfg.SampleRate, cfg.RecordingsDir, logger)
	defer mic.Close()

	line := console.NewTerminal()
	defer line.Close()

	deps.Recorder = mic
	deps.Permission = console.NewPermissionPrompt(line)
	orchestrator := application.NewOrchestrator(deps, logger)

	// zero on error; the renderer falls back to 80 columns
	width, _, _ := term.GetSize(os.Stdout.Fd())

	return console.New(line, os.Stdout, orchestrator, console.NewRenderer(width), logger).Run(ctx)
}

func runHTTP(ctx context.Context, cfg config.AudioConfig, deps application.Dependencies, logger *slog.Logger) error {
	orchestrator := application.NewOrchestrator(deps, logger)

	server := httpapi.NewServer(cfg.HTTPAddr, cfg.AuthToken, cfg.RateLimit, orchestrator, logger,
		httpapi.WithTrustProxy(cfg.TrustProxy),
	)
	if err := server.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	return server.Stop()
}

func runDropFolder(ctx context.Context, cfg config.AudioConfig, deps application.Dependencies, logger *slog.Logger) error {
	orchestrator := application.NewOrchestrator(deps, logger)

	folder := audio.NewDropFolder(cfg.WatchDir, logger)
	return folder.Run(ctx, func(ctx context.Context, rec *domain.Recording) error {
		result, err := orchestrator.SubmitRecording(ctx, rec)
		if err != nil {
			return err
		}
		logger.Info("turn complete", "transcript", result.Transcript, "reply", result.Reply)
		return nil
	})
}

func createSpeaker(cfg config.SpeechConfig, logger *slog.Logger) (application.Speaker, func()) {
	if cfg.Engine == string(speech.EngineNone) {
		return application.NoopSpeaker{}, func() {}
	}

	speaker, err := speech.NewCommandSpeaker(speech.Engine(cfg.Engine), cfg.Voice, logger)
	if err != nil {
		logger.Warn("speech output unavailable", "engine", cfg.Engine, "error", err)
		return application.NoopSpeaker{}, func() {}
	}

	logger.Info("speech output ready", "engine", speaker.Engine())
	return speaker, func() { speaker.Close() }
}

func setupLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
