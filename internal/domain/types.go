package domain

import (
	"errors"
	"fmt"
	"time"
)

// RecorderState models the record/upload lifecycle of the widget.
type RecorderState string

const (
	RecorderStateIdle      RecorderState = "idle"
	RecorderStateRecording RecorderState = "recording"
	RecorderStateStopped   RecorderState = "stopped"
	RecorderStateUploading RecorderState = "uploading"
	RecorderStateResult    RecorderState = "has_result"
	RecorderStateError     RecorderState = "has_error"
)

// StateReason provides a structured reason for state transitions.
type StateReason string

const (
	StateReasonReady              StateReason = "ready"
	StateReasonRecordingStarted   StateReason = "recording_started"
	StateReasonRecordingStopped   StateReason = "recording_stopped"
	StateReasonRecordingEmpty     StateReason = "recording_empty"
	StateReasonUploadStarted      StateReason = "upload_started"
	StateReasonTranscriptReceived StateReason = "transcript_received"
	StateReasonUploadFailed       StateReason = "upload_failed"
	StateReasonReset              StateReason = "reset"
)

// ErrorCode identifies non-fatal and fatal backend errors.
type ErrorCode string

const (
	ErrorCodeStartup     ErrorCode = "startup"
	ErrorCodeCapture     ErrorCode = "capture"
	ErrorCodeAudioStop   ErrorCode = "audio_stop"
	ErrorCodeAudioStream ErrorCode = "audio_stream"
	ErrorCodeUpload      ErrorCode = "upload"
)

var (
	ErrPermissionDenied = errors.New("microphone permission denied")
	ErrNoDeviceFound    = errors.New("no audio input device found")
)

// Artifact is a finalized recording plus its playable reference.
type Artifact struct {
	ID        string    `json:"id"`
	Data      []byte    `json:"-"`
	MimeType  string    `json:"mimeType"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

func (a Artifact) Size() int {
	return len(a.Data)
}

// Snapshot is a point-in-time copy of the recorder state.
type Snapshot struct {
	State         RecorderState `json:"state"`
	Recording     bool          `json:"recording"`
	Uploading     bool          `json:"uploading"`
	AudioURL      string        `json:"audioUrl,omitempty"`
	AudioMimeType string        `json:"audioMimeType,omitempty"`
	AudioBytes    int           `json:"audioBytes"`
	Transcript    string        `json:"transcript,omitempty"`
	Error         string        `json:"error,omitempty"`
}

// UploadError is returned by transcription clients when an upload fails.
// Message is the text shown to the user.
type UploadError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *UploadError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upload failed (%d): %s", e.StatusCode, e.Message)
	}
	return "upload failed: " + e.Message
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
