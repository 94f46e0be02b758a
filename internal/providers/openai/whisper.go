package openai

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"voicerecorder/internal/domain"
)

// Config controls the OpenAI Whisper transcription backend.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
	FileName string
}

// Provider implements ports.Transcriber with the OpenAI audio API.
type Provider struct {
	cfg    Config
	client *goopenai.Client
	log    *slog.Logger
}

func NewProvider(cfg Config, log *slog.Logger) *Provider {
	if cfg.Model == "" {
		cfg.Model = goopenai.Whisper1
	}
	if cfg.FileName == "" {
		cfg.FileName = "recorded_audio.webm"
	}
	if log == nil {
		log = slog.Default()
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &Provider{cfg: cfg, client: goopenai.NewClientWithConfig(clientCfg), log: log}
}

func (p *Provider) Transcribe(ctx context.Context, artifact domain.Artifact) (string, error) {
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		return "", errors.New("OPENAI_API_KEY is not configured")
	}
	if len(artifact.Data) == 0 {
		return "", &domain.UploadError{Message: "recording is empty"}
	}

	resp, err := p.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    p.cfg.Model,
		FilePath: p.cfg.FileName,
		Reader:   bytes.NewReader(artifact.Data),
		Language: p.cfg.Language,
		Format:   goopenai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", translateError(err)
	}

	p.log.Debug("openai transcription complete", slog.Int("chars", len(resp.Text)))
	return strings.TrimSpace(resp.Text), nil
}

func translateError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return &domain.UploadError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message, Err: err}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		message := strings.TrimSpace(string(reqErr.Body))
		if message == "" {
			message = http.StatusText(reqErr.HTTPStatusCode)
		}
		return &domain.UploadError{StatusCode: reqErr.HTTPStatusCode, Message: message, Err: err}
	}
	return &domain.UploadError{Message: err.Error(), Err: err}
}
