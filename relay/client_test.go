package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func fakeInferenceServer(t *testing.T, status int, body any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/verify-audio" {
			t.Errorf("path = %s, want /verify-audio", r.URL.Path)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("expected multipart body: %v", err)
		} else if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("expected multipart field 'file': %v", err)
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
}

func TestAnalyze_ObservedSentenceMapsToObserved(t *testing.T) {
	t.Parallel()

	srv := fakeInferenceServer(t, http.StatusOK, map[string]any{
		"verdict":       ObservedSentence,
		"exceeded_axes": []string{"cr_g_geometry", "spectral_flatness"},
		"cnn_score":     0.93,
	})
	defer srv.Close()

	c := NewInferenceClient(srv.URL, 5*time.Second, nil)
	out, err := c.Analyze(context.Background(), File{Name: "clip.wav", Data: make([]byte, 5_000_000)}, OrientationBalanced)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if out.Verdict != VerdictObserved {
		t.Fatalf("verdict = %s, want observed", out.Verdict)
	}
	if out.StatusLabel != StatusExceeded {
		t.Fatalf("crgStatus = %s, want %s", out.StatusLabel, StatusExceeded)
	}
	if out.PrimaryExceededAxis == nil || *out.PrimaryExceededAxis != "cr_g_geometry" {
		t.Fatalf("primary axis = %v, want cr_g_geometry", out.PrimaryExceededAxis)
	}
	if out.Notice != nil {
		t.Fatalf("real outcome must not carry a fallback notice, got %q", *out.Notice)
	}
}

func TestAnalyze_OtherSentenceMapsToNotObserved(t *testing.T) {
	t.Parallel()

	for _, verdict := range []string{
		"AI signal evidence was not observed.",
		"AI signal evidence was observed",  // missing period: not an exact match
		"ai signal evidence was observed.", // case differs: not an exact match
		"Totally new wording.",
		"",
	} {
		srv := fakeInferenceServer(t, http.StatusOK, map[string]any{"verdict": verdict})
		c := NewInferenceClient(srv.URL, 5*time.Second, nil)
		out, err := c.Analyze(context.Background(), File{Name: "a.wav", Data: []byte("x")}, OrientationBalanced)
		srv.Close()
		if err != nil {
			t.Fatalf("Analyze(%q) error: %v", verdict, err)
		}
		if out.Verdict != VerdictNotObserved {
			t.Fatalf("Analyze(%q) verdict = %s, want not_observed", verdict, out.Verdict)
		}
		if out.StatusLabel != StatusWithinBounds {
			t.Fatalf("Analyze(%q) crgStatus = %s, want %s", verdict, out.StatusLabel, StatusWithinBounds)
		}
	}
}

func TestAnalyze_Non2xxIsRelayError(t *testing.T) {
	t.Parallel()

	srv := fakeInferenceServer(t, http.StatusBadGateway, map[string]any{"error": "upstream down"})
	defer srv.Close()

	c := NewInferenceClient(srv.URL, 5*time.Second, nil)
	_, err := c.Analyze(context.Background(), File{Name: "a.wav", Data: []byte("x")}, OrientationAI)
	var relayErr *RelayError
	if !errors.As(err, &relayErr) {
		t.Fatalf("expected *RelayError, got %T: %v", err, err)
	}
}

func TestAnalyze_ConnectionRefusedIsRelayError(t *testing.T) {
	t.Parallel()

	// Reserve a port, then close the listener so nothing is serving it.
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewInferenceClient(url, 2*time.Second, nil)
	_, err := c.Analyze(context.Background(), File{Name: "a.wav", Data: []byte("x")}, OrientationHuman)
	var relayErr *RelayError
	if !errors.As(err, &relayErr) {
		t.Fatalf("expected *RelayError, got %T: %v", err, err)
	}
}

func TestAnalyze_ForwardsOrientation(t *testing.T) {
	t.Parallel()

	var gotOrientation string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOrientation = r.URL.Query().Get("orientation")
		_ = json.NewEncoder(w).Encode(map[string]any{"verdict": notObservedSentence})
	}))
	defer srv.Close()

	c := NewInferenceClient(srv.URL, 5*time.Second, nil)
	if _, err := c.Analyze(context.Background(), File{Name: "a.wav", Data: []byte("x")}, OrientationAI); err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if gotOrientation != "ai_oriented" {
		t.Fatalf("orientation query = %q, want ai_oriented", gotOrientation)
	}
}
