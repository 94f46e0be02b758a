package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"voicerecorder/internal/audio"
	"voicerecorder/internal/config"
	"voicerecorder/internal/playback"
	"voicerecorder/internal/ports"
	"voicerecorder/internal/providers/deepgram"
	"voicerecorder/internal/providers/openai"
	"voicerecorder/internal/providers/unison"
	"voicerecorder/internal/telemetry"
	"voicerecorder/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Controller *usecase.RecorderController
	Config     config.Config
	Store      *playback.Store
	Logger     *slog.Logger
	// Handler serves published recordings and metrics next to the frontend assets.
	Handler  http.Handler
	Shutdown func(context.Context) error
}

// Build wires all backend dependencies for the current runtime.
func Build(eventSink ports.EventSink) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	logger := telemetry.NewLogger(cfg.Telemetry, os.Stderr)
	shutdown, metrics, err := telemetry.Setup(context.Background(), cfg.Telemetry, logger)
	if err != nil {
		return Services{}, err
	}

	store := playback.NewStore()
	controller := usecase.NewRecorderController(
		audio.NewFFMPEGCapture(cfg.Audio.RecorderCommand),
		newTranscriber(cfg, logger),
		store,
		eventSink,
		logger,
		usecase.Config{
			Audio: ports.AudioConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
				Codec:       cfg.Audio.Codec,
				Container:   cfg.Audio.Container,
			},
			MimeType:  cfg.Audio.MimeType,
			ChunkSize: cfg.Session.ChunkSize,
		},
	)

	mux := http.NewServeMux()
	mux.Handle(playback.PathPrefix, store)
	mux.Handle("/metrics", metrics)

	logger.Info("recorder ready",
		slog.String("provider", cfg.Upload.Provider),
		slog.String("input", cfg.Audio.InputFormat+":"+cfg.Audio.InputDevice),
		slog.String("container", cfg.Audio.Container),
	)

	return Services{
		Controller: controller,
		Config:     cfg,
		Store:      store,
		Logger:     logger,
		Handler:    mux,
		Shutdown:   shutdown,
	}, nil
}

func newTranscriber(cfg config.Config, logger *slog.Logger) ports.Transcriber {
	switch cfg.Upload.Provider {
	case config.ProviderDeepgram:
		if cfg.Deepgram.APIKey == "" {
			logger.Warn("deepgram provider selected without DEEPGRAM_API_KEY")
		}
		return deepgram.NewProvider(deepgram.Config{
			APIKey:      cfg.Deepgram.APIKey,
			APIBaseURL:  cfg.Deepgram.APIBaseURL,
			Model:       cfg.Deepgram.Model,
			Language:    cfg.Deepgram.Language,
			SmartFormat: cfg.Deepgram.SmartFormat,
		}, logger)
	case config.ProviderOpenAI:
		if cfg.OpenAI.APIKey == "" {
			logger.Warn("openai provider selected without OPENAI_API_KEY")
		}
		return openai.NewProvider(openai.Config{
			APIKey:   cfg.OpenAI.APIKey,
			BaseURL:  cfg.OpenAI.BaseURL,
			Model:    cfg.OpenAI.Model,
			Language: cfg.OpenAI.Language,
		}, logger)
	default:
		return unison.NewClient(unison.Config{
			Endpoint: cfg.Upload.Endpoint,
			Name:     cfg.Upload.Name,
			Email:    cfg.Upload.Email,
			Field:    cfg.Upload.Field,
			FileName: cfg.Upload.FileName,
			Timeout:  cfg.Upload.Timeout,
		}, logger)
	}
}
