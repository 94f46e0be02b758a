package presenter

import (
	"github.com/samber/lo"

	"voicerecorder/internal/domain"
)

const (
	Title       = "Transcription Feature Test for Music Unison (Demo)"
	Preamble    = "For a better transcription process, please take note of the following:"
	NoResult    = "No result"
	ResultLabel = "Result: "
)

var instructions = []string{
	"Ensure that your environment is free of noise",
	"Be loud and clear",
	"Click upload button to send to server and get transcription",
	"Click reset button before any new recording",
	"You can try different recordings (normal speech, singing a song etc.)",
}

// AudioSource is one <source> entry of the player.
type AudioSource struct {
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
}

// Controls gates which buttons the user may press.
type Controls struct {
	StartEnabled  bool   `json:"startEnabled"`
	StopEnabled   bool   `json:"stopEnabled"`
	UploadEnabled bool   `json:"uploadEnabled"`
	UploadLabel   string `json:"uploadLabel"`
	ResetEnabled  bool   `json:"resetEnabled"`
}

// View is everything the frontend needs to draw the widget.
type View struct {
	Title        string        `json:"title"`
	Preamble     string        `json:"preamble"`
	Instructions []string      `json:"instructions"`
	ShowPlayer   bool          `json:"showPlayer"`
	Sources      []AudioSource `json:"sources"`
	Error        string        `json:"error,omitempty"`
	HasResult    bool          `json:"hasResult"`
	Transcript   string        `json:"transcript,omitempty"`
	ResultLine   string        `json:"resultLine"`
	Controls     Controls      `json:"controls"`
	State        string        `json:"state"`
}

// Render maps a recorder snapshot to its view.
func Render(snap domain.Snapshot) View {
	view := View{
		Title:        Title,
		Preamble:     Preamble,
		Instructions: append([]string(nil), instructions...),
		ShowPlayer:   snap.AudioURL != "",
		Sources:      []AudioSource{},
		Error:        snap.Error,
		HasResult:    snap.Transcript != "",
		Transcript:   snap.Transcript,
		ResultLine:   resultLine(snap.Transcript),
		Controls: Controls{
			StartEnabled:  !snap.Recording && !snap.Uploading,
			StopEnabled:   snap.Recording,
			UploadEnabled: !snap.Uploading,
			UploadLabel:   lo.Ternary(snap.Uploading, "Uploading", "Upload"),
			ResetEnabled:  true,
		},
		State: string(snap.State),
	}

	if view.ShowPlayer {
		view.Sources = append(view.Sources, AudioSource{
			URL:      snap.AudioURL,
			MimeType: lo.Ternary(snap.AudioMimeType == "", "audio/webm", snap.AudioMimeType),
		})
	}
	return view
}

func resultLine(transcript string) string {
	if transcript == "" {
		return NoResult
	}
	return ResultLabel + transcript
}
