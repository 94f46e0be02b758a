package playback

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"voicerecorder/internal/domain"
)

func TestStorePublishAndServe(t *testing.T) {
	t.Parallel()

	store := NewStore()
	url, err := store.Publish(domain.Artifact{ID: "abc", Data: []byte("webm-bytes"), MimeType: "audio/webm", CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if url != "/recordings/abc.webm" {
		t.Fatalf("unexpected url: %q", url)
	}

	rec := httptest.NewRecorder()
	store.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "audio/webm" {
		t.Fatalf("unexpected content type: %q", got)
	}
	body, _ := io.ReadAll(rec.Body)
	if string(body) != "webm-bytes" {
		t.Fatalf("unexpected body: %q", string(body))
	}
}

func TestStoreServesRanges(t *testing.T) {
	t.Parallel()

	store := NewStore()
	url, err := store.Publish(domain.Artifact{ID: "r", Data: []byte("0123456789"), MimeType: "audio/ogg"})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, url, nil)
	req.Header.Set("Range", "bytes=2-4")
	rec := httptest.NewRecorder()
	store.ServeHTTP(rec, req)

	if rec.Code != http.StatusPartialContent || rec.Body.String() != "234" {
		t.Fatalf("unexpected range response: %d %q", rec.Code, rec.Body.String())
	}
}

func TestStoreRevokeAndReset(t *testing.T) {
	t.Parallel()

	store := NewStore()
	first, _ := store.Publish(domain.Artifact{ID: "one", Data: []byte("a"), MimeType: "audio/webm"})
	second, _ := store.Publish(domain.Artifact{ID: "two", Data: []byte("b"), MimeType: "audio/webm"})

	store.Revoke(first)
	rec := httptest.NewRecorder()
	store.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, first, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected revoked url to 404, got %d", rec.Code)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one remaining artifact, got %d", store.Len())
	}

	store.Reset()
	rec = httptest.NewRecorder()
	store.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, second, nil))
	if rec.Code != http.StatusNotFound || store.Len() != 0 {
		t.Fatalf("expected reset to drop all artifacts")
	}
}

func TestStoreRejectsInvalidRequests(t *testing.T) {
	t.Parallel()

	store := NewStore()
	if _, err := store.Publish(domain.Artifact{Data: []byte("x")}); err == nil {
		t.Fatalf("expected error for artifact without id")
	}

	rec := httptest.NewRecorder()
	store.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/recordings/x.webm", strings.NewReader("")))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	store.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 outside prefix, got %d", rec.Code)
	}
}

func TestDescribeDetectsUnknownMimeType(t *testing.T) {
	t.Parallel()

	wav := append([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), make([]byte, 32)...)
	mimeType, ext := describe(domain.Artifact{Data: wav})
	if !strings.Contains(mimeType, "wav") || ext != ".wav" {
		t.Fatalf("expected wav detection, got %q %q", mimeType, ext)
	}
}
