package ports

import (
	"context"
	"io"

	"voicerecorder/internal/domain"
)

// AudioConfig describes how the microphone should be captured and encoded.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
	Codec       string
	Container   string
}

// AudioSession is a live encoder session. Reads yield encoded chunks until
// the session is stopped and the container is flushed.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture opens microphone encoder sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// Transcriber uploads a finalized recording and returns its transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, artifact domain.Artifact) (string, error)
}

// ArtifactPublisher turns finalized recordings into playable URLs.
type ArtifactPublisher interface {
	Publish(artifact domain.Artifact) (string, error)
	Revoke(url string)
	Reset()
}

// EventSink emits backend state/events to the UI.
type EventSink interface {
	SessionStateChanged(snapshot domain.Snapshot, reason domain.StateReason)
	SessionError(code domain.ErrorCode, detail string)
}
