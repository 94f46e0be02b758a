package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"voicerecorder/internal/domain"
)

// Upload sends the current artifact for transcription. Exactly one attempt is
// made. On success the transcript replaces any prior error; on failure the
// error is stored and a prior transcript is kept.
func (c *RecorderController) Upload(ctx context.Context) (domain.Snapshot, error) {
	c.mu.Lock()
	if err := c.uploadAllowedLocked(); err != nil {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, err
	}
	artifact := *c.artifact
	generation := c.generation
	uploadCtx, cancel := context.WithCancel(ctx)
	c.uploadCancel = cancel
	c.state = domain.RecorderStateUploading
	snap := c.snapshotLocked()
	c.mu.Unlock()
	defer cancel()

	c.events.SessionStateChanged(snap, domain.StateReasonUploadStarted)

	uploadCtx, span := c.tracer.Start(uploadCtx, "recorder.upload")
	span.SetAttributes(
		attribute.String("recorder.artifact_id", artifact.ID),
		attribute.Int("recorder.bytes", artifact.Size()),
	)
	transcript, uploadErr := c.uploader.Transcribe(uploadCtx, artifact)
	if uploadErr != nil {
		span.RecordError(uploadErr)
		span.SetStatus(codes.Error, uploadErr.Error())
	}
	span.End()

	c.mu.Lock()
	if generation != c.generation {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.log.Info("discarding upload outcome after reset")
		return snap, ErrSessionReset
	}
	c.uploadCancel = nil

	if uploadErr != nil {
		message := uploadErrorMessage(uploadErr)
		c.errText = message
		c.state = domain.RecorderStateError
		snap := c.snapshotLocked()
		c.mu.Unlock()

		c.countUpload(ctx, "failure")
		c.log.Warn("upload failed", slog.String("artifact", artifact.ID), slog.String("error", uploadErr.Error()))
		c.events.SessionError(domain.ErrorCodeUpload, message)
		c.events.SessionStateChanged(snap, domain.StateReasonUploadFailed)
		return snap, uploadErr
	}

	c.transcript = transcript
	c.errText = ""
	c.state = domain.RecorderStateResult
	snap = c.snapshotLocked()
	c.mu.Unlock()

	c.countUpload(ctx, "success")
	c.log.Info("transcript received", slog.String("artifact", artifact.ID), slog.Int("chars", len(transcript)))
	c.events.SessionStateChanged(snap, domain.StateReasonTranscriptReceived)
	return snap, nil
}

func (c *RecorderController) uploadAllowedLocked() error {
	switch {
	case c.state == domain.RecorderStateRecording || c.starting:
		return ErrRecordingInProgress
	case c.state == domain.RecorderStateUploading:
		return ErrUploadInProgress
	case c.artifact == nil:
		return ErrNoRecordingAvailable
	default:
		return nil
	}
}

func (c *RecorderController) countUpload(ctx context.Context, outcome string) {
	if c.uploads == nil {
		return
	}
	c.uploads.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// uploadErrorMessage extracts the text to display for a failed upload.
func uploadErrorMessage(err error) string {
	var uploadErr *domain.UploadError
	if errors.As(err, &uploadErr) {
		if message := strings.TrimSpace(uploadErr.Message); message != "" {
			return message
		}
	}
	return err.Error()
}
