package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(baseURL string) *Service {
	return NewService(NewInferenceClient(baseURL, 2*time.Second, nil), NewFallbackProvider(), nil)
}

func TestProcess_RealOutcomeWhenServerUp(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"verdict":       ObservedSentence,
			"exceeded_axes": []string{"cr_g_geometry"},
		})
	}))
	defer srv.Close()

	out, err := newTestService(srv.URL).Process(context.Background(), File{Name: "clip.wav", Data: make([]byte, 5_000_000)}, OrientationBalanced)
	require.NoError(t, err)
	assert.Equal(t, VerdictObserved, out.Verdict)
	assert.Equal(t, StatusExceeded, out.StatusLabel)
	assert.Nil(t, out.Notice, "real outcome must not be marked degraded")
}

func TestProcess_FallsBackWhenServerUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close() // nothing listening anymore

	out, err := newTestService(url).Process(context.Background(), File{Name: "clip.wav", Data: make([]byte, 5_000_000)}, OrientationBalanced)
	require.NoError(t, err, "relay failures must be absorbed")
	// 5_000_000 % 100 = 0 < 50
	assert.Equal(t, VerdictNotObserved, out.Verdict)
	require.NotNil(t, out.Notice)
	assert.Equal(t, FallbackNotice, *out.Notice)
}

func TestProcess_FallsBackOn5xx(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	out, err := newTestService(srv.URL).Process(context.Background(), File{Name: "clip.wav", Data: make([]byte, 130)}, OrientationAI)
	require.NoError(t, err)
	require.NotNil(t, out.Notice)
	// 130 % 100 = 30 >= 30
	assert.Equal(t, VerdictObserved, out.Verdict)
}

func TestProcess_SingleAttemptNoRetry(t *testing.T) {
	t.Parallel()

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestService(srv.URL).Process(context.Background(), File{Name: "a.wav", Data: []byte("x")}, OrientationHuman)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "the external server gets exactly one attempt before fallback")
}
