package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"voicerecorder/internal/bootstrap"
	"voicerecorder/internal/config"
	"voicerecorder/internal/domain"
	"voicerecorder/internal/presenter"
	"voicerecorder/internal/usecase"
)

const (
	eventView  = "recorder:view"
	eventError = "recorder:error"
)

// App is the Wails application root.
type App struct {
	ctx context.Context

	controller *usecase.RecorderController
	cfg        config.Config
	log        *slog.Logger
	shutdownFn func(context.Context) error
	bootErr    error

	mu      sync.RWMutex
	handler http.Handler

	emit   func(ctx context.Context, name string, data ...interface{})
	reload func(ctx context.Context)
}

func NewApp() *App {
	return &App{
		log:    slog.Default(),
		emit:   runtime.EventsEmit,
		reload: runtime.WindowReloadApp,
	}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a)
	if err != nil {
		a.bootErr = err
		a.log.Error("startup failed", slog.String("error", err.Error()))
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.cfg = services.Config
	a.controller = services.Controller
	a.log = services.Logger
	a.shutdownFn = services.Shutdown
	a.mu.Lock()
	a.handler = services.Handler
	a.mu.Unlock()

	a.SessionStateChanged(a.controller.Status(), domain.StateReasonReady)
}

func (a *App) shutdown(ctx context.Context) {
	if a.controller != nil {
		a.controller.Reset()
	}
	if a.shutdownFn != nil {
		if err := a.shutdownFn(ctx); err != nil {
			a.log.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}
}

// assetHandler answers asset server requests the embedded frontend cannot:
// published recordings and metrics.
func (a *App) assetHandler() http.Handler {
	return http.HandlerFunc(a.serveAsset)
}

func (a *App) serveAsset(w http.ResponseWriter, r *http.Request) {
	a.mu.RLock()
	handler := a.handler
	a.mu.RUnlock()

	if handler == nil {
		http.Error(w, "recorder is not ready", http.StatusServiceUnavailable)
		return
	}
	handler.ServeHTTP(w, r)
}

// StartRecording opens the microphone and begins a new recording.
func (a *App) StartRecording() (presenter.View, error) {
	if err := a.requireReady(); err != nil {
		return a.GetView(), err
	}
	snap, err := a.controller.Start(a.ctx)
	return presenter.Render(snap), err
}

// StopRecording finalizes the current recording for playback.
func (a *App) StopRecording() (presenter.View, error) {
	if err := a.requireReady(); err != nil {
		return a.GetView(), err
	}
	snap, err := a.controller.Stop(a.ctx)
	if errors.Is(err, usecase.ErrNoActiveSession) {
		return presenter.Render(snap), nil
	}
	return presenter.Render(snap), err
}

// UploadRecording sends the recording for transcription. Upload failures are
// part of the returned view rather than an error.
func (a *App) UploadRecording() (presenter.View, error) {
	if err := a.requireReady(); err != nil {
		return a.GetView(), err
	}
	snap, err := a.controller.Upload(a.ctx)
	if errors.Is(err, usecase.ErrSessionReset) || (err != nil && snap.State == domain.RecorderStateError) {
		return presenter.Render(snap), nil
	}
	return presenter.Render(snap), err
}

// ResetPage discards all recorder state and reloads the window.
func (a *App) ResetPage() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.controller.Reset()
	if a.ctx != nil && a.reload != nil {
		a.reload(a.ctx)
	}
	return nil
}

// GetView returns the rendered widget for the current state.
func (a *App) GetView() presenter.View {
	view := presenter.Render(a.GetStatus())
	if a.bootErr != nil {
		view.Error = a.bootErr.Error()
		view.Controls = presenter.Controls{UploadLabel: view.Controls.UploadLabel}
	}
	return view
}

// GetStatus returns the current recorder snapshot.
func (a *App) GetStatus() domain.Snapshot {
	if a.controller == nil {
		if a.bootErr != nil {
			return domain.Snapshot{State: domain.RecorderStateError, Error: a.bootErr.Error()}
		}
		return domain.Snapshot{State: domain.RecorderStateIdle}
	}
	return a.controller.Status()
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	info := map[string]string{
		"provider":         a.cfg.Upload.Provider,
		"audioInput":       a.cfg.Audio.InputDevice,
		"audioInputFormat": a.cfg.Audio.InputFormat,
		"container":        a.cfg.Audio.Container,
		"mimeType":         a.cfg.Audio.MimeType,
	}
	switch a.cfg.Upload.Provider {
	case config.ProviderDeepgram:
		info["model"] = a.cfg.Deepgram.Model
		info["language"] = a.cfg.Deepgram.Language
	case config.ProviderOpenAI:
		info["model"] = a.cfg.OpenAI.Model
		info["language"] = a.cfg.OpenAI.Language
	default:
		info["endpoint"] = a.cfg.Upload.Endpoint
	}
	return info
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.controller == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// SessionStateChanged emits the rendered view after every state change.
func (a *App) SessionStateChanged(snapshot domain.Snapshot, reason domain.StateReason) {
	if a.ctx == nil || a.emit == nil {
		return
	}
	a.emit(a.ctx, eventView, map[string]interface{}{
		"reason":  string(reason),
		"message": stateReasonMessage(reason),
		"view":    presenter.Render(snapshot),
	})
}

// SessionError emits backend errors to the UI.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	if a.ctx == nil || a.emit == nil {
		return
	}
	a.emit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func stateReasonMessage(reason domain.StateReason) string {
	switch reason {
	case domain.StateReasonReady:
		return "Ready to record"
	case domain.StateReasonRecordingStarted:
		return "Recording..."
	case domain.StateReasonRecordingStopped:
		return "Recording ready for playback"
	case domain.StateReasonRecordingEmpty:
		return "Nothing was recorded"
	case domain.StateReasonUploadStarted:
		return "Uploading..."
	case domain.StateReasonTranscriptReceived:
		return "Transcript received"
	case domain.StateReasonUploadFailed:
		return "Upload failed"
	case domain.StateReasonReset:
		return "Recorder reset"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeCapture:
		return "Microphone unavailable"
	case domain.ErrorCodeAudioStop:
		return "Audio stop issue"
	case domain.ErrorCodeAudioStream:
		return "Audio streaming issue"
	case domain.ErrorCodeUpload:
		return "Upload failed"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
