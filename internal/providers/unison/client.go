package unison

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"voicerecorder/internal/domain"
)

const (
	DefaultEndpoint = "https://eventnub.onrender.com/api/music-unison/transcribe-audio"
	DefaultName     = "John"
	DefaultEmail    = "john@gmail.com"
	DefaultField    = "audio"
	DefaultFileName = "recorded_audio"

	maxErrorBody = 64 << 10
)

// Config controls the Music Unison transcription upload.
type Config struct {
	Endpoint string
	Name     string
	Email    string
	Field    string
	FileName string
	// Timeout of zero means the request is bounded only by its context.
	Timeout time.Duration
}

// Client posts recordings as multipart forms and reads back the transcript.
type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

func NewClient(cfg Config, log *slog.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.Email == "" {
		cfg.Email = DefaultEmail
	}
	if cfg.Field == "" {
		cfg.Field = DefaultField
	}
	if cfg.FileName == "" {
		cfg.FileName = DefaultFileName
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, log: log}
}

type transcribeResponse struct {
	Transcript *string `json:"transcript"`
}

func (c *Client) Transcribe(ctx context.Context, artifact domain.Artifact) (string, error) {
	if len(artifact.Data) == 0 {
		return "", &domain.UploadError{Message: "recording is empty"}
	}

	body, contentType, err := c.buildForm(artifact)
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	c.log.Debug("uploading recording",
		slog.String("endpoint", c.cfg.Endpoint),
		slog.Int("bytes", artifact.Size()),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		// No server response: surface the transport failure itself.
		return "", &domain.UploadError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		message := strings.TrimSpace(string(raw))
		if message == "" {
			message = resp.Status
		}
		return "", &domain.UploadError{StatusCode: resp.StatusCode, Message: message}
	}

	var decoded transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &domain.UploadError{
			StatusCode: resp.StatusCode,
			Message:    "invalid transcription response",
			Err:        err,
		}
	}
	if decoded.Transcript == nil {
		return "", &domain.UploadError{
			StatusCode: resp.StatusCode,
			Message:    "transcription response did not include a transcript",
		}
	}
	return *decoded.Transcript, nil
}

func (c *Client) buildForm(artifact domain.Artifact) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("name", c.cfg.Name); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("email", c.cfg.Email); err != nil {
		return nil, "", err
	}

	mimeType := artifact.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, c.cfg.Field, c.cfg.FileName))
	header.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(artifact.Data); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &body, mw.FormDataContentType(), nil
}
