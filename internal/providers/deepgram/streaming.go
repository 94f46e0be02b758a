package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"voicerecorder/internal/domain"
)

const defaultFrameSize = 8192

// Config controls Deepgram websocket settings.
type Config struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	Language    string
	SmartFormat bool
	FrameSize   int
}

// Provider implements ports.Transcriber by streaming a finished recording
// through the Deepgram listen websocket.
type Provider struct {
	cfg    Config
	dialer *websocket.Dialer
	log    *slog.Logger
}

func NewProvider(cfg Config, log *slog.Logger) *Provider {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.deepgram.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	if cfg.FrameSize <= 0 {
		cfg.FrameSize = defaultFrameSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &Provider{cfg: cfg, dialer: websocket.DefaultDialer, log: log}
}

func (p *Provider) Transcribe(ctx context.Context, artifact domain.Artifact) (string, error) {
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		return "", errors.New("DEEPGRAM_API_KEY is not configured")
	}
	if len(artifact.Data) == 0 {
		return "", &domain.UploadError{Message: "recording is empty"}
	}

	wsURL, err := buildListenURL(p.cfg)
	if err != nil {
		return "", err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+p.cfg.APIKey)

	conn, resp, err := p.dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		return "", handshakeError(resp, err)
	}

	session := newStreamingSession(conn)
	session.start(frames(artifact.Data, p.cfg.FrameSize))

	stop := context.AfterFunc(ctx, func() { _ = session.Close() })
	defer stop()

	streamErr := session.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}

	raw := session.aggregator.Raw()
	if raw == "" && streamErr != nil {
		return "", streamErr
	}
	if streamErr != nil {
		p.log.Warn("deepgram stream ended with error after transcript", slog.String("error", streamErr.Error()))
	}
	return raw, nil
}

func handshakeError(resp *http.Response, err error) error {
	if resp == nil {
		return &domain.UploadError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	message := strings.TrimSpace(string(body))
	if message == "" {
		message = resp.Status
	}
	return &domain.UploadError{StatusCode: resp.StatusCode, Message: message, Err: err}
}

func frames(data []byte, size int) [][]byte {
	out := make([][]byte, 0, len(data)/size+1)
	for start := 0; start < len(data); start += size {
		end := min(start+size, len(data))
		out = append(out, data[start:end])
	}
	return out
}

type streamingSession struct {
	conn       *websocket.Conn
	aggregator *transcriptAggregator

	done chan struct{}
	wg   sync.WaitGroup

	errMu sync.Mutex
	err   error

	closeOnce sync.Once
}

func newStreamingSession(conn *websocket.Conn) *streamingSession {
	return &streamingSession{
		conn:       conn,
		aggregator: newTranscriptAggregator(),
		done:       make(chan struct{}),
	}
}

func (s *streamingSession) start(audio [][]byte) {
	s.wg.Add(2)
	go s.readLoop()
	go s.writeLoop(audio)
	go func() {
		s.wg.Wait()
		close(s.done)
		_ = s.conn.Close()
	}()
}

func (s *streamingSession) Wait() error {
	<-s.done
	return s.waitErr()
}

func (s *streamingSession) Close() error {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
	})
	<-s.done
	return s.waitErr()
}

func (s *streamingSession) waitErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *streamingSession) setErr(err error) {
	if err == nil {
		return
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return
	}

	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *streamingSession) writeLoop(audio [][]byte) {
	defer s.wg.Done()

	for _, chunk := range audio {
		if err := s.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			s.setErr(fmt.Errorf("failed to send audio: %w", err))
			return
		}
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`)); err != nil {
		s.setErr(fmt.Errorf("failed to close stream: %w", err))
	}
}

func (s *streamingSession) readLoop() {
	defer s.wg.Done()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.setErr(fmt.Errorf("failed to read provider event: %w", err))
			return
		}

		var response deepgramResponse
		if err := json.Unmarshal(payload, &response); err != nil {
			continue
		}

		if strings.EqualFold(response.Type, "Error") {
			message := strings.TrimSpace(response.Message)
			if message == "" {
				message = "deepgram returned an unknown error"
			}
			s.setErr(&domain.UploadError{Message: message})
			_ = s.conn.Close()
			return
		}

		transcript := extractTranscript(response)
		if transcript == "" {
			continue
		}
		s.aggregator.Add(transcript, response.IsFinal || response.SpeechFinal)
	}
}

type deepgramResponse struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`

	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`

	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func extractTranscript(response deepgramResponse) string {
	if len(response.Channel.Alternatives) > 0 {
		if text := strings.TrimSpace(response.Channel.Alternatives[0].Transcript); text != "" {
			return text
		}
	}
	if len(response.Results.Channels) > 0 && len(response.Results.Channels[0].Alternatives) > 0 {
		return strings.TrimSpace(response.Results.Channels[0].Alternatives[0].Transcript)
	}
	return ""
}

// buildListenURL targets containerized audio, so encoding and sample rate are
// left for Deepgram to read from the container header.
func buildListenURL(cfg Config) (string, error) {
	base := strings.TrimSpace(cfg.APIBaseURL)
	if base == "" {
		base = "https://api.deepgram.com/v1"
	}

	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	base = strings.TrimRight(base, "/")

	listenURL, err := url.Parse(base + "/listen")
	if err != nil {
		return "", fmt.Errorf("invalid Deepgram API base URL: %w", err)
	}

	query := listenURL.Query()
	query.Set("model", cfg.Model)
	query.Set("interim_results", "false")
	query.Set("smart_format", fmt.Sprintf("%t", cfg.SmartFormat))
	if cfg.Language != "" {
		query.Set("language", cfg.Language)
	}
	listenURL.RawQuery = query.Encode()
	return listenURL.String(), nil
}
