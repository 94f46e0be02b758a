package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"voicerecorder/internal/domain"
	"voicerecorder/internal/ports"
)

func TestRecorderControllerStartStopProducesArtifact(t *testing.T) {
	t.Parallel()

	audio := newFakeAudioSession("ef", "ab", "cd")
	publisher := newFakePublisher()
	events := &fakeEventSink{}
	controller := newTestController(&fakeAudioCapture{sessions: []ports.AudioSession{audio}}, &fakeTranscriber{}, publisher, events)

	snap, err := controller.Start(context.Background())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if !snap.Recording || snap.Uploading || snap.State != domain.RecorderStateRecording {
		t.Fatalf("unexpected recording snapshot: %+v", snap)
	}

	snap, err = controller.Stop(context.Background())
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if snap.Recording || snap.State != domain.RecorderStateStopped {
		t.Fatalf("unexpected stopped snapshot: %+v", snap)
	}
	if snap.AudioURL == "" || snap.AudioMimeType != "audio/webm" || snap.AudioBytes != 6 {
		t.Fatalf("unexpected artifact in snapshot: %+v", snap)
	}

	published := publisher.snapshotPublished()
	if len(published) != 1 {
		t.Fatalf("expected exactly one artifact, got %d", len(published))
	}
	if string(published[0].Data) != "abcdef" {
		t.Fatalf("expected chunks in arrival order, got %q", string(published[0].Data))
	}
	if audio.stopCount() != 1 {
		t.Fatalf("expected capture to be stopped once, got %d", audio.stopCount())
	}

	states := events.snapshotStates()
	if len(states) != 2 {
		t.Fatalf("expected 2 state transitions, got %d", len(states))
	}
	if states[0].reason != domain.StateReasonRecordingStarted || states[1].reason != domain.StateReasonRecordingStopped {
		t.Fatalf("unexpected reasons: %+v", states)
	}
}

func TestRecorderControllerStopWithoutActiveSession(t *testing.T) {
	t.Parallel()

	controller := newTestController(&fakeAudioCapture{}, &fakeTranscriber{}, newFakePublisher(), &fakeEventSink{})

	snap, err := controller.Stop(context.Background())
	if !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
	if snap.State != domain.RecorderStateIdle || snap.Recording {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestRecorderControllerStartWhileRecordingIsRejected(t *testing.T) {
	t.Parallel()

	capture := &fakeAudioCapture{sessions: []ports.AudioSession{newFakeAudioSession("", "a"), newFakeAudioSession("", "b")}}
	controller := newTestController(capture, &fakeTranscriber{}, newFakePublisher(), &fakeEventSink{})

	if _, err := controller.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := controller.Start(context.Background()); !errors.Is(err, ErrAlreadyRecording) {
		t.Fatalf("expected ErrAlreadyRecording, got %v", err)
	}
	if capture.callCount() != 1 {
		t.Fatalf("expected a single capture session, got %d", capture.callCount())
	}
	if !controller.Status().Recording {
		t.Fatalf("expected original session to keep recording")
	}
}

func TestRecorderControllerChunksAreScopedPerSession(t *testing.T) {
	t.Parallel()

	publisher := newFakePublisher()
	capture := &fakeAudioCapture{sessions: []ports.AudioSession{
		newFakeAudioSession("", "first"),
		newFakeAudioSession("", "second"),
	}}
	controller := newTestController(capture, &fakeTranscriber{}, publisher, &fakeEventSink{})

	if _, err := controller.Start(context.Background()); err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	first, err := controller.Stop(context.Background())
	if err != nil {
		t.Fatalf("first stop failed: %v", err)
	}

	if _, err := controller.Start(context.Background()); err != nil {
		t.Fatalf("second start failed: %v", err)
	}
	second, err := controller.Stop(context.Background())
	if err != nil {
		t.Fatalf("second stop failed: %v", err)
	}

	published := publisher.snapshotPublished()
	if len(published) != 2 || string(published[1].Data) != "second" {
		t.Fatalf("expected second artifact to hold only its own chunks, got %+v", published)
	}
	if first.AudioURL == second.AudioURL {
		t.Fatalf("expected a new playable URL for the new recording")
	}
	if revoked := publisher.snapshotRevoked(); len(revoked) != 1 || revoked[0] != first.AudioURL {
		t.Fatalf("expected superseded artifact to be revoked, got %v", revoked)
	}
}

func TestRecorderControllerStartCaptureFailure(t *testing.T) {
	t.Parallel()

	events := &fakeEventSink{}
	capture := &fakeAudioCapture{err: fmt.Errorf("%w: pulse refused", domain.ErrPermissionDenied)}
	controller := newTestController(capture, &fakeTranscriber{}, newFakePublisher(), events)

	snap, err := controller.Start(context.Background())
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected permission error, got %v", err)
	}
	if snap.Recording || snap.State != domain.RecorderStateIdle {
		t.Fatalf("expected idle after failed start, got %+v", snap)
	}

	errs := events.snapshotErrors()
	if len(errs) != 1 || errs[0].code != domain.ErrorCodeCapture {
		t.Fatalf("expected capture error event, got %+v", errs)
	}

	// A failed start must not block a later attempt.
	capture.setErr(nil)
	capture.sessions = []ports.AudioSession{newFakeAudioSession("", "a")}
	if _, err := controller.Start(context.Background()); err != nil {
		t.Fatalf("retry start failed: %v", err)
	}
}

func TestRecorderControllerEmptyRecording(t *testing.T) {
	t.Parallel()

	publisher := newFakePublisher()
	controller := newTestController(
		&fakeAudioCapture{sessions: []ports.AudioSession{newFakeAudioSession("")}},
		&fakeTranscriber{},
		publisher,
		&fakeEventSink{},
	)

	if _, err := controller.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	snap, err := controller.Stop(context.Background())
	if !errors.Is(err, ErrEmptyRecording) {
		t.Fatalf("expected ErrEmptyRecording, got %v", err)
	}
	if snap.State != domain.RecorderStateIdle || snap.AudioURL != "" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if len(publisher.snapshotPublished()) != 0 {
		t.Fatalf("expected nothing published")
	}
}

func TestRecorderControllerUploadWithoutRecording(t *testing.T) {
	t.Parallel()

	transcriber := &fakeTranscriber{transcript: "never"}
	controller := newTestController(&fakeAudioCapture{}, transcriber, newFakePublisher(), &fakeEventSink{})

	snap, err := controller.Upload(context.Background())
	if !errors.Is(err, ErrNoRecordingAvailable) {
		t.Fatalf("expected ErrNoRecordingAvailable, got %v", err)
	}
	if snap.Uploading {
		t.Fatalf("expected uploading=false")
	}
	if transcriber.callCount() != 0 {
		t.Fatalf("expected no upload to be sent")
	}
}

func TestRecorderControllerUploadSuccess(t *testing.T) {
	t.Parallel()

	transcriber := &fakeTranscriber{transcript: "hello world"}
	events := &fakeEventSink{}
	controller := newTestController(
		&fakeAudioCapture{sessions: []ports.AudioSession{newFakeAudioSession("", "audio")}},
		transcriber,
		newFakePublisher(),
		events,
	)
	recordOnce(t, controller)

	snap, err := controller.Upload(context.Background())
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if snap.Transcript != "hello world" || snap.Error != "" {
		t.Fatalf("unexpected result snapshot: %+v", snap)
	}
	if snap.Uploading || snap.State != domain.RecorderStateResult {
		t.Fatalf("expected upload to finish, got %+v", snap)
	}
	if got := transcriber.lastArtifact(); string(got.Data) != "audio" || got.MimeType != "audio/webm" {
		t.Fatalf("unexpected uploaded artifact: %+v", got)
	}

	states := events.snapshotStates()
	if states[len(states)-2].reason != domain.StateReasonUploadStarted || !states[len(states)-2].snapshot.Uploading {
		t.Fatalf("expected upload_started with uploading=true, got %+v", states[len(states)-2])
	}
	if states[len(states)-1].reason != domain.StateReasonTranscriptReceived {
		t.Fatalf("unexpected final reason: %s", states[len(states)-1].reason)
	}
}

func TestRecorderControllerUploadFailureKeepsTranscript(t *testing.T) {
	t.Parallel()

	transcriber := &fakeTranscriber{transcript: "hello world"}
	events := &fakeEventSink{}
	controller := newTestController(
		&fakeAudioCapture{sessions: []ports.AudioSession{newFakeAudioSession("", "audio")}},
		transcriber,
		newFakePublisher(),
		events,
	)
	recordOnce(t, controller)

	if _, err := controller.Upload(context.Background()); err != nil {
		t.Fatalf("first upload failed: %v", err)
	}

	transcriber.setResult("", &domain.UploadError{StatusCode: 400, Message: "bad audio"})
	snap, err := controller.Upload(context.Background())
	var uploadErr *domain.UploadError
	if !errors.As(err, &uploadErr) {
		t.Fatalf("expected upload error, got %v", err)
	}
	if snap.Error != "bad audio" {
		t.Fatalf("expected server message, got %q", snap.Error)
	}
	if snap.Transcript != "hello world" {
		t.Fatalf("expected prior transcript to be kept, got %q", snap.Transcript)
	}
	if snap.Uploading || snap.State != domain.RecorderStateError {
		t.Fatalf("unexpected failure snapshot: %+v", snap)
	}

	errs := events.snapshotErrors()
	if len(errs) == 0 || errs[len(errs)-1].code != domain.ErrorCodeUpload || errs[len(errs)-1].detail != "bad audio" {
		t.Fatalf("expected upload error event, got %+v", errs)
	}

	// A later success clears the error.
	transcriber.setResult("second take", nil)
	snap, err = controller.Upload(context.Background())
	if err != nil {
		t.Fatalf("retry upload failed: %v", err)
	}
	if snap.Error != "" || snap.Transcript != "second take" {
		t.Fatalf("expected error cleared on success, got %+v", snap)
	}
}

func TestRecorderControllerUploadPlainErrorMessage(t *testing.T) {
	t.Parallel()

	controller := newTestController(
		&fakeAudioCapture{sessions: []ports.AudioSession{newFakeAudioSession("", "audio")}},
		&fakeTranscriber{err: errors.New("dial tcp: connection refused")},
		newFakePublisher(),
		&fakeEventSink{},
	)
	recordOnce(t, controller)

	snap, err := controller.Upload(context.Background())
	if err == nil {
		t.Fatalf("expected upload error")
	}
	if snap.Error != "dial tcp: connection refused" {
		t.Fatalf("unexpected error text: %q", snap.Error)
	}
}

func TestRecorderControllerUploadingFlagLifetime(t *testing.T) {
	t.Parallel()

	transcriber := &fakeTranscriber{
		transcript: "done",
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	controller := newTestController(
		&fakeAudioCapture{sessions: []ports.AudioSession{newFakeAudioSession("", "audio")}},
		transcriber,
		newFakePublisher(),
		&fakeEventSink{},
	)
	recordOnce(t, controller)

	result := make(chan error, 1)
	go func() {
		_, err := controller.Upload(context.Background())
		result <- err
	}()
	<-transcriber.started

	status := controller.Status()
	if !status.Uploading || status.Recording {
		t.Fatalf("expected uploading only, got %+v", status)
	}
	if _, err := controller.Upload(context.Background()); !errors.Is(err, ErrUploadInProgress) {
		t.Fatalf("expected ErrUploadInProgress, got %v", err)
	}
	if _, err := controller.Start(context.Background()); !errors.Is(err, ErrUploadInProgress) {
		t.Fatalf("expected start to be rejected while uploading, got %v", err)
	}

	close(transcriber.release)
	if err := <-result; err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if controller.Status().Uploading {
		t.Fatalf("expected uploading=false after completion")
	}
}

func TestRecorderControllerUploadWhileRecording(t *testing.T) {
	t.Parallel()

	capture := &fakeAudioCapture{sessions: []ports.AudioSession{newFakeAudioSession("", "a"), newFakeAudioSession("", "b")}}
	transcriber := &fakeTranscriber{transcript: "x"}
	controller := newTestController(capture, transcriber, newFakePublisher(), &fakeEventSink{})
	recordOnce(t, controller)

	if _, err := controller.Start(context.Background()); err != nil {
		t.Fatalf("second start failed: %v", err)
	}
	if _, err := controller.Upload(context.Background()); !errors.Is(err, ErrRecordingInProgress) {
		t.Fatalf("expected ErrRecordingInProgress, got %v", err)
	}
	if transcriber.callCount() != 0 {
		t.Fatalf("expected no upload while recording")
	}
}

func TestRecorderControllerStartAfterResultRequiresReset(t *testing.T) {
	t.Parallel()

	capture := &fakeAudioCapture{sessions: []ports.AudioSession{newFakeAudioSession("", "a"), newFakeAudioSession("", "b")}}
	controller := newTestController(capture, &fakeTranscriber{transcript: "x"}, newFakePublisher(), &fakeEventSink{})
	recordOnce(t, controller)

	if _, err := controller.Upload(context.Background()); err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if _, err := controller.Start(context.Background()); !errors.Is(err, ErrResetRequired) {
		t.Fatalf("expected ErrResetRequired, got %v", err)
	}

	controller.Reset()
	if _, err := controller.Start(context.Background()); err != nil {
		t.Fatalf("start after reset failed: %v", err)
	}
}

func TestRecorderControllerResetClearsState(t *testing.T) {
	t.Parallel()

	publisher := newFakePublisher()
	events := &fakeEventSink{}
	controller := newTestController(
		&fakeAudioCapture{sessions: []ports.AudioSession{newFakeAudioSession("", "audio")}},
		&fakeTranscriber{err: &domain.UploadError{Message: "bad audio"}},
		publisher,
		events,
	)
	recordOnce(t, controller)
	if _, err := controller.Upload(context.Background()); err == nil {
		t.Fatalf("expected upload failure")
	}

	snap := controller.Reset()
	want := domain.Snapshot{State: domain.RecorderStateIdle}
	if snap != want {
		t.Fatalf("expected initial snapshot, got %+v", snap)
	}
	if controller.Status() != want {
		t.Fatalf("expected status to match initial snapshot")
	}
	if publisher.resetCount() != 1 {
		t.Fatalf("expected published artifacts to be dropped")
	}

	states := events.snapshotStates()
	if states[len(states)-1].reason != domain.StateReasonReset {
		t.Fatalf("expected reset reason, got %s", states[len(states)-1].reason)
	}
}

func TestRecorderControllerResetWhileRecording(t *testing.T) {
	t.Parallel()

	audio := newFakeAudioSession("", "a")
	publisher := newFakePublisher()
	controller := newTestController(&fakeAudioCapture{sessions: []ports.AudioSession{audio}}, &fakeTranscriber{}, publisher, &fakeEventSink{})

	if _, err := controller.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	snap := controller.Reset()
	if snap.Recording || snap.State != domain.RecorderStateIdle {
		t.Fatalf("unexpected snapshot after reset: %+v", snap)
	}
	if audio.stopCount() == 0 {
		t.Fatalf("expected capture to be stopped on reset")
	}
	if len(publisher.snapshotPublished()) != 0 {
		t.Fatalf("expected discarded session not to publish")
	}
	if _, err := controller.Stop(context.Background()); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession after reset, got %v", err)
	}
}

func TestRecorderControllerResetDuringUploadDropsOutcome(t *testing.T) {
	t.Parallel()

	transcriber := &fakeTranscriber{
		transcript: "late",
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	controller := newTestController(
		&fakeAudioCapture{sessions: []ports.AudioSession{newFakeAudioSession("", "audio")}},
		transcriber,
		newFakePublisher(),
		&fakeEventSink{},
	)
	recordOnce(t, controller)

	result := make(chan error, 1)
	go func() {
		_, err := controller.Upload(context.Background())
		result <- err
	}()
	<-transcriber.started

	controller.Reset()

	select {
	case err := <-result:
		if !errors.Is(err, ErrSessionReset) {
			t.Fatalf("expected ErrSessionReset, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected reset to cancel the upload")
	}

	status := controller.Status()
	if status.Transcript != "" || status.Error != "" || status.Uploading || status.State != domain.RecorderStateIdle {
		t.Fatalf("expected reset state to survive the orphaned upload, got %+v", status)
	}
}

func TestRecorderControllerStopReportsAudioStopError(t *testing.T) {
	t.Parallel()

	audio := newFakeAudioSession("", "abc")
	audio.stopErr = errors.New("device busy")
	events := &fakeEventSink{}
	controller := newTestController(&fakeAudioCapture{sessions: []ports.AudioSession{audio}}, &fakeTranscriber{}, newFakePublisher(), events)

	if _, err := controller.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	snap, err := controller.Stop(context.Background())
	if err != nil {
		t.Fatalf("stop should still finalize: %v", err)
	}
	if snap.AudioBytes != 3 {
		t.Fatalf("expected artifact despite stop error, got %+v", snap)
	}

	errs := events.snapshotErrors()
	if len(errs) == 0 || errs[0].code != domain.ErrorCodeAudioStop {
		t.Fatalf("expected audio stop error event, got %+v", errs)
	}
}

func newTestController(
	capture ports.AudioCapture,
	transcriber ports.Transcriber,
	publisher ports.ArtifactPublisher,
	events ports.EventSink,
) *RecorderController {
	return NewRecorderController(capture, transcriber, publisher, events, nil, Config{ChunkSize: 512})
}

func recordOnce(t *testing.T, controller *RecorderController) {
	t.Helper()
	if _, err := controller.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := controller.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
}

type fakeAudioCapture struct {
	mu       sync.Mutex
	sessions []ports.AudioSession
	err      error
	calls    int
}

func (f *fakeAudioCapture) Start(_ context.Context, _ ports.AudioConfig) (ports.AudioSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.calls >= len(f.sessions) {
		return nil, errors.New("no audio session configured")
	}
	session := f.sessions[f.calls]
	f.calls++
	return session, nil
}

func (f *fakeAudioCapture) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeAudioCapture) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeAudioSession yields its chunks, blocks until Stop, then yields the
// trailer (like a container flush) and EOF.
type fakeAudioSession struct {
	mu          sync.Mutex
	chunks      [][]byte
	trailer     []byte
	trailerSent bool
	stopped     chan struct{}
	stopOnce    sync.Once
	stopCalls   int
	stopErr     error
}

func newFakeAudioSession(trailer string, chunks ...string) *fakeAudioSession {
	session := &fakeAudioSession{trailer: []byte(trailer), stopped: make(chan struct{})}
	for _, chunk := range chunks {
		session.chunks = append(session.chunks, []byte(chunk))
	}
	return session
}

func (f *fakeAudioSession) Read(p []byte) (int, error) {
	f.mu.Lock()
	if len(f.chunks) > 0 {
		n := copy(p, f.chunks[0])
		f.chunks = f.chunks[1:]
		f.mu.Unlock()
		return n, nil
	}
	f.mu.Unlock()

	<-f.stopped

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.trailerSent && len(f.trailer) > 0 {
		f.trailerSent = true
		return copy(p, f.trailer), nil
	}
	return 0, io.EOF
}

func (f *fakeAudioSession) Close() error { return nil }

func (f *fakeAudioSession) Stop() error {
	f.mu.Lock()
	f.stopCalls++
	err := f.stopErr
	f.mu.Unlock()
	f.stopOnce.Do(func() { close(f.stopped) })
	return err
}

func (f *fakeAudioSession) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopCalls
}

type fakeTranscriber struct {
	mu         sync.Mutex
	transcript string
	err        error
	calls      int
	artifact   domain.Artifact

	started chan struct{}
	release chan struct{}
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, artifact domain.Artifact) (string, error) {
	f.mu.Lock()
	f.calls++
	f.artifact = artifact
	transcript, err := f.transcript, f.err
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return transcript, err
}

func (f *fakeTranscriber) setResult(transcript string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcript = transcript
	f.err = err
}

func (f *fakeTranscriber) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeTranscriber) lastArtifact() domain.Artifact {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.artifact
}

type fakePublisher struct {
	mu        sync.Mutex
	published []domain.Artifact
	revoked   []string
	resets    int
	err       error
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{}
}

func (f *fakePublisher) Publish(artifact domain.Artifact) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.published = append(f.published, artifact)
	return "/recordings/" + artifact.ID + ".webm", nil
}

func (f *fakePublisher) Revoke(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, url)
}

func (f *fakePublisher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
}

func (f *fakePublisher) snapshotPublished() []domain.Artifact {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Artifact, len(f.published))
	copy(out, f.published)
	return out
}

func (f *fakePublisher) snapshotRevoked() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.revoked))
	copy(out, f.revoked)
	return out
}

func (f *fakePublisher) resetCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resets
}

type fakeEventSink struct {
	mu sync.Mutex

	states []stateEvent
	errors []errEvent
}

type stateEvent struct {
	snapshot domain.Snapshot
	reason   domain.StateReason
}

type errEvent struct {
	code   domain.ErrorCode
	detail string
}

func (f *fakeEventSink) SessionStateChanged(snapshot domain.Snapshot, reason domain.StateReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, stateEvent{snapshot: snapshot, reason: reason})
}

func (f *fakeEventSink) SessionError(code domain.ErrorCode, detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, errEvent{code: code, detail: detail})
}

func (f *fakeEventSink) snapshotStates() []stateEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]stateEvent, len(f.states))
	copy(out, f.states)
	return out
}

func (f *fakeEventSink) snapshotErrors() []errEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]errEvent, len(f.errors))
	copy(out, f.errors)
	return out
}
