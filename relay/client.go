package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ObservedSentence is the exact verdict wording the inference server emits for
// a positive finding. The mapping to the closed verdict enum is an exact-string
// contract with the external API: this sentence maps to observed, anything
// else maps to not_observed. Do not loosen the match.
const ObservedSentence = "AI signal evidence was observed."

// notObservedSentence is the known negative wording. It is only used to detect
// drift: a sentence matching neither constant still maps to not_observed, but
// gets logged so a reworded API does not silently pass as a clean result.
const notObservedSentence = "AI signal evidence was not observed."

// inferenceResponse mirrors the external server's JSON body. cnn_score is
// accepted but never surfaced toward the verdict.
type inferenceResponse struct {
	Verdict          string          `json:"verdict"`
	ExceededAxes     []string        `json:"exceeded_axes"`
	CNNScore         *float64        `json:"cnn_score"`
	Metadata         json.RawMessage `json:"metadata"`
	DetailedAnalysis json.RawMessage `json:"detailed_analysis"`
}

// InferenceClient relays files to the external inference server over multipart
// POST and maps its response into the UI verdict vocabulary.
type InferenceClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.SugaredLogger
}

// NewInferenceClient builds a client for the given base URL. timeout <= 0
// leaves the outbound call unbounded.
func NewInferenceClient(baseURL string, timeout time.Duration, logger *zap.SugaredLogger) *InferenceClient {
	hc := &http.Client{}
	if timeout > 0 {
		hc.Timeout = timeout
	}
	return &InferenceClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  hc,
		logger:  logger,
	}
}

// Analyze issues a single multipart POST to {base}/verify-audio. Any transport
// failure or non-2xx status returns a *RelayError; no retry is attempted here.
func (c *InferenceClient) Analyze(ctx context.Context, file File, orientation Orientation) (*VerificationOutcome, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", file.Name)
	if err != nil {
		return nil, &RelayError{Op: "build multipart body", Err: err}
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, &RelayError{Op: "build multipart body", Err: err}
	}
	if err := mw.Close(); err != nil {
		return nil, &RelayError{Op: "build multipart body", Err: err}
	}

	endpoint := fmt.Sprintf("%s/verify-audio?orientation=%s", c.baseURL, url.QueryEscape(string(orientation)))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, &RelayError{Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &RelayError{Op: "call inference server", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RelayError{Op: "call inference server", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RelayError{Op: "read response", Err: err}
	}
	var ir inferenceResponse
	if err := json.Unmarshal(raw, &ir); err != nil {
		return nil, &RelayError{Op: "decode response", Err: err}
	}

	return c.mapResponse(&ir, orientation), nil
}

// mapResponse converts the free-text verdict sentence into the closed enum.
func (c *InferenceClient) mapResponse(ir *inferenceResponse, orientation Orientation) *VerificationOutcome {
	verdict := VerdictNotObserved
	switch ir.Verdict {
	case ObservedSentence:
		verdict = VerdictObserved
	case notObservedSentence:
		// expected negative wording
	default:
		if c.logger != nil {
			c.logger.Warnw("unrecognized verdict wording from inference server, mapping to not_observed",
				"verdict", ir.Verdict)
		}
	}

	out := &VerificationOutcome{
		Verdict:          verdict,
		StatusLabel:      StatusWithinBounds,
		ExceededAxes:     ir.ExceededAxes,
		Orientation:      orientation,
		DetailedAnalysis: ir.DetailedAnalysis,
	}
	if out.ExceededAxes == nil {
		out.ExceededAxes = []string{}
	}
	if verdict == VerdictObserved {
		out.StatusLabel = StatusExceeded
	}
	if len(out.ExceededAxes) > 0 {
		primary := out.ExceededAxes[0]
		out.PrimaryExceededAxis = &primary
	}
	return out
}
