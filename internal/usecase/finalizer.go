package usecase

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"voicerecorder/internal/domain"
	"voicerecorder/internal/ports"
)

type artifactFinalizer struct {
	publisher ports.ArtifactPublisher
	mimeType  string
	now       func() time.Time
}

func newArtifactFinalizer(publisher ports.ArtifactPublisher, mimeType string) artifactFinalizer {
	if mimeType == "" {
		mimeType = "audio/webm"
	}
	return artifactFinalizer{publisher: publisher, mimeType: mimeType, now: time.Now}
}

// Finalize concatenates the session chunks into one artifact and publishes it.
func (f artifactFinalizer) Finalize(chunks *chunkBuffer) (domain.Artifact, error) {
	data := chunks.Bytes()
	if len(data) == 0 {
		return domain.Artifact{}, ErrEmptyRecording
	}

	artifact := domain.Artifact{
		ID:        uuid.NewString(),
		Data:      data,
		MimeType:  f.mimeType,
		CreatedAt: f.now(),
	}

	url, err := f.publisher.Publish(artifact)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("publish recording: %w", err)
	}
	artifact.URL = url
	return artifact, nil
}
