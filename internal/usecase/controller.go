package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"voicerecorder/internal/domain"
	"voicerecorder/internal/ports"
)

var (
	ErrNoActiveSession      = errors.New("no active recording session")
	ErrAlreadyRecording     = errors.New("recording already in progress")
	ErrRecordingInProgress  = errors.New("stop the recording before uploading")
	ErrUploadInProgress     = errors.New("upload already in progress")
	ErrNoRecordingAvailable = errors.New("no recording available to upload")
	ErrResetRequired        = errors.New("reset before starting a new recording")
	ErrEmptyRecording       = errors.New("recording captured no audio")
	ErrSessionReset         = errors.New("recorder was reset")
)

const instrumentationName = "voicerecorder/internal/usecase"

// Config controls capture and finalization behavior.
type Config struct {
	Audio     ports.AudioConfig
	MimeType  string
	ChunkSize int
}

// RecorderController owns the widget state: capture sessions, the current
// artifact and the last upload outcome.
type RecorderController struct {
	audio     ports.AudioCapture
	uploader  ports.Transcriber
	publisher ports.ArtifactPublisher
	events    ports.EventSink
	finalizer artifactFinalizer
	log       *slog.Logger
	cfg       Config

	tracer     trace.Tracer
	recordings metric.Int64Counter
	uploads    metric.Int64Counter

	mu           sync.Mutex
	state        domain.RecorderState
	starting     bool
	current      *recordingSession
	artifact     *domain.Artifact
	transcript   string
	errText      string
	generation   uint64
	uploadCancel context.CancelFunc
}

func NewRecorderController(
	audio ports.AudioCapture,
	uploader ports.Transcriber,
	publisher ports.ArtifactPublisher,
	events ports.EventSink,
	log *slog.Logger,
	cfg Config,
) *RecorderController {
	if cfg.ChunkSize < 256 {
		cfg.ChunkSize = 4096
	}
	if log == nil {
		log = slog.Default()
	}

	meter := otel.Meter(instrumentationName)
	recordings, err := meter.Int64Counter("recorder.recordings", metric.WithDescription("Finalized recordings"))
	if err != nil {
		log.Warn("failed to create recordings counter", slog.String("error", err.Error()))
	}
	uploads, err := meter.Int64Counter("recorder.uploads", metric.WithDescription("Upload attempts by outcome"))
	if err != nil {
		log.Warn("failed to create uploads counter", slog.String("error", err.Error()))
	}

	return &RecorderController{
		audio:      audio,
		uploader:   uploader,
		publisher:  publisher,
		events:     events,
		finalizer:  newArtifactFinalizer(publisher, cfg.MimeType),
		log:        log,
		cfg:        cfg,
		tracer:     otel.Tracer(instrumentationName),
		recordings: recordings,
		uploads:    uploads,
		state:      domain.RecorderStateIdle,
	}
}

// Start opens a new capture session. ctx bounds the lifetime of the capture.
func (c *RecorderController) Start(ctx context.Context) (domain.Snapshot, error) {
	c.mu.Lock()
	if err := c.startAllowedLocked(); err != nil {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, err
	}
	c.starting = true
	generation := c.generation
	c.mu.Unlock()

	sessionCtx, cancel := context.WithCancel(ctx)
	audioSession, err := c.audio.Start(sessionCtx, c.cfg.Audio)
	if err != nil {
		cancel()
		c.mu.Lock()
		c.starting = false
		snap := c.snapshotLocked()
		c.mu.Unlock()

		c.log.Warn("capture start failed", slog.String("error", err.Error()))
		c.events.SessionError(domain.ErrorCodeCapture, err.Error())
		return snap, err
	}

	active := &recordingSession{
		cancel: cancel,
		audio:  audioSession,
		chunks: newChunkBuffer(),
		done:   make(chan struct{}),
	}
	go pumpAudioChunks(active.audio, active.chunks, c.cfg.ChunkSize, c.events, active.done)

	c.mu.Lock()
	c.starting = false
	if generation != c.generation {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.discardSession(active)
		return snap, ErrSessionReset
	}
	c.current = active
	c.state = domain.RecorderStateRecording
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.log.Info("recording started")
	c.events.SessionStateChanged(snap, domain.StateReasonRecordingStarted)
	return snap, nil
}

// Stop ends the active capture and publishes the finalized artifact.
func (c *RecorderController) Stop(ctx context.Context) (domain.Snapshot, error) {
	c.mu.Lock()
	active := c.current
	if active == nil {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, ErrNoActiveSession
	}
	c.current = nil
	generation := c.generation
	c.mu.Unlock()

	_, span := c.tracer.Start(ctx, "recorder.stop")
	defer span.End()

	if err := active.audio.Stop(); err != nil {
		c.log.Warn("audio stop failed", slog.String("error", err.Error()))
		c.events.SessionError(domain.ErrorCodeAudioStop, "failed to stop audio capture cleanly")
	}
	<-active.done
	_ = active.audio.Close()
	active.cancel()

	span.SetAttributes(attribute.Int("recorder.chunks", active.chunks.Count()))
	artifact, finalizeErr := c.finalizer.Finalize(active.chunks)

	c.mu.Lock()
	if generation != c.generation {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		if finalizeErr == nil {
			c.publisher.Revoke(artifact.URL)
		}
		return snap, ErrSessionReset
	}

	if finalizeErr != nil {
		c.state = domain.RecorderStateIdle
		if c.artifact != nil {
			c.state = domain.RecorderStateStopped
		}
		snap := c.snapshotLocked()
		c.mu.Unlock()

		span.RecordError(finalizeErr)
		span.SetStatus(codes.Error, finalizeErr.Error())
		c.log.Warn("recording not finalized", slog.String("error", finalizeErr.Error()))
		if !errors.Is(finalizeErr, ErrEmptyRecording) {
			c.events.SessionError(domain.ErrorCodeCapture, finalizeErr.Error())
		}
		c.events.SessionStateChanged(snap, domain.StateReasonRecordingEmpty)
		return snap, finalizeErr
	}

	previous := c.artifact
	c.artifact = &artifact
	c.state = domain.RecorderStateStopped
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if previous != nil {
		c.publisher.Revoke(previous.URL)
	}
	if c.recordings != nil {
		c.recordings.Add(ctx, 1)
	}
	span.SetAttributes(attribute.Int("recorder.bytes", artifact.Size()))
	c.log.Info("recording finalized",
		slog.String("id", artifact.ID),
		slog.Int("bytes", artifact.Size()),
		slog.String("url", artifact.URL),
	)
	c.events.SessionStateChanged(snap, domain.StateReasonRecordingStopped)
	return snap, nil
}

// Reset discards every piece of state and returns the recorder to idle.
// It is safe to call in any state.
func (c *RecorderController) Reset() domain.Snapshot {
	c.mu.Lock()
	active := c.current
	cancelUpload := c.uploadCancel
	c.current = nil
	c.uploadCancel = nil
	c.generation++
	c.artifact = nil
	c.transcript = ""
	c.errText = ""
	c.state = domain.RecorderStateIdle
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if cancelUpload != nil {
		cancelUpload()
	}
	if active != nil {
		c.discardSession(active)
	}
	c.publisher.Reset()

	c.log.Info("recorder reset")
	c.events.SessionStateChanged(snap, domain.StateReasonReset)
	return snap
}

// Status returns a copy of the current state.
func (c *RecorderController) Status() domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *RecorderController) startAllowedLocked() error {
	if c.starting {
		return ErrAlreadyRecording
	}
	switch c.state {
	case domain.RecorderStateRecording:
		return ErrAlreadyRecording
	case domain.RecorderStateUploading:
		return ErrUploadInProgress
	case domain.RecorderStateResult, domain.RecorderStateError:
		return ErrResetRequired
	default:
		return nil
	}
}

func (c *RecorderController) snapshotLocked() domain.Snapshot {
	snap := domain.Snapshot{
		State:      c.state,
		Recording:  c.state == domain.RecorderStateRecording,
		Uploading:  c.state == domain.RecorderStateUploading,
		Transcript: c.transcript,
		Error:      c.errText,
	}
	if c.artifact != nil {
		snap.AudioURL = c.artifact.URL
		snap.AudioMimeType = c.artifact.MimeType
		snap.AudioBytes = c.artifact.Size()
	}
	return snap
}

func (c *RecorderController) discardSession(active *recordingSession) {
	_ = active.audio.Stop()
	active.cancel()
	<-active.done
	_ = active.audio.Close()
}
