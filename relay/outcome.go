package relay

import (
	"context"
	"encoding/json"
	"fmt"
)

// Verdict is the closed two-valued forensic conclusion surfaced to end users.
// It is never a probability; this is a product constraint, not an engineering one.
type Verdict string

const (
	VerdictObserved    Verdict = "observed"
	VerdictNotObserved Verdict = "not_observed"
)

// Orientation biases the analysis: toward flagging AI, balanced, or toward
// assuming human origin. It affects the fallback threshold and is forwarded to
// the inference server untouched.
type Orientation string

const (
	OrientationAI       Orientation = "ai_oriented"
	OrientationBalanced Orientation = "balanced"
	OrientationHuman    Orientation = "human_oriented"
)

// ParseOrientation validates a caller-supplied orientation string, defaulting
// to balanced for the empty string.
func ParseOrientation(s string) (Orientation, error) {
	switch Orientation(s) {
	case OrientationAI, OrientationBalanced, OrientationHuman:
		return Orientation(s), nil
	case "":
		return OrientationBalanced, nil
	default:
		return "", fmt.Errorf("relay: unknown orientation %q", s)
	}
}

// Status labels in the UI's CR-G vocabulary.
const (
	StatusExceeded     = "CR-G_exceeded"
	StatusWithinBounds = "CR-G_within_bounds"
)

// VerificationOutcome is what the presentation layer renders. Immutable once
// produced. Notice is non-nil exactly when the outcome came from the local
// fallback; it is the only way a caller can tell the two paths apart, so it is
// load-bearing and always set truthfully.
type VerificationOutcome struct {
	Verdict             Verdict         `json:"verdict"`
	StatusLabel         string          `json:"crgStatus"`
	PrimaryExceededAxis *string         `json:"primaryExceededAxis"`
	ExceededAxes        []string        `json:"exceededAxes"`
	Orientation         Orientation     `json:"orientation"`
	Notice              *string         `json:"notice"`
	DetailedAnalysis    json.RawMessage `json:"detailedAnalysis,omitempty"`
}

// File is one uploaded audio file in flight. The bytes live only for the
// duration of a single request.
type File struct {
	Name string
	Data []byte
}

// Size returns the byte length, the only property the fallback needs.
func (f File) Size() int64 { return int64(len(f.Data)) }

// OutcomeProvider produces a verdict for a file. The HTTP client and the local
// fallback are the two implementations; the Service selects between them.
type OutcomeProvider interface {
	Analyze(ctx context.Context, file File, orientation Orientation) (*VerificationOutcome, error)
}

// RelayError reports a network or HTTP failure talking to the external
// inference server. It is recoverable: the caller substitutes the fallback.
type RelayError struct {
	Op  string
	Err error
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("relay: %s: %v", e.Op, e.Err)
}

func (e *RelayError) Unwrap() error { return e.Err }
