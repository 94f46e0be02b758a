package playback

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/wailsapp/mimetype"

	"voicerecorder/internal/domain"
)

// PathPrefix is where published recordings are served.
const PathPrefix = "/recordings/"

var extensions = map[string]string{
	"audio/webm": ".webm",
	"audio/ogg":  ".ogg",
	"audio/mpeg": ".mp3",
	"audio/wav":  ".wav",
	"audio/mp4":  ".m4a",
}

// Store keeps finalized recordings in memory and serves them to the player.
// It is the desktop counterpart of a browser object URL.
type Store struct {
	mu    sync.RWMutex
	items map[string]domain.Artifact
}

func NewStore() *Store {
	return &Store{items: make(map[string]domain.Artifact)}
}

// Publish registers the artifact and returns its playable URL.
func (s *Store) Publish(artifact domain.Artifact) (string, error) {
	if artifact.ID == "" {
		return "", errors.New("artifact has no id")
	}

	mimeType, ext := describe(artifact)
	artifact.MimeType = mimeType
	name := artifact.ID + ext

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[name] = artifact
	return PathPrefix + name, nil
}

// Revoke drops a single published URL. Unknown URLs are ignored.
func (s *Store) Revoke(url string) {
	name := strings.TrimPrefix(url, PathPrefix)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, name)
}

// Reset drops every published recording.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]domain.Artifact)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !strings.HasPrefix(r.URL.Path, PathPrefix) {
		http.NotFound(w, r)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, PathPrefix)
	s.mu.RLock()
	artifact, ok := s.items[name]
	s.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", artifact.MimeType)
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, name, artifact.CreatedAt, bytes.NewReader(artifact.Data))
}

func describe(artifact domain.Artifact) (string, string) {
	if ext, ok := extensions[artifact.MimeType]; ok {
		return artifact.MimeType, ext
	}
	detected := mimetype.Detect(artifact.Data)
	mimeType := artifact.MimeType
	if mimeType == "" {
		mimeType = detected.String()
	}
	return mimeType, detected.Extension()
}
