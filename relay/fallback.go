package relay

import "context"

// FallbackNotice is attached to every outcome synthesized locally. The
// presentation layer shows it so a degraded estimate is never mistaken for a
// real analysis result.
const FallbackNotice = "Analysis service unavailable. A deterministic local estimate was returned instead of a full CR-G analysis."

// fallbackThresholds maps orientation to the cutoff in the 0-99 seeded range.
// A lower threshold flags more files, which is what an ai_oriented bias means.
var fallbackThresholds = map[Orientation]int64{
	OrientationAI:       30,
	OrientationBalanced: 50,
	OrientationHuman:    70,
}

// FallbackProvider synthesizes a verdict locally when the inference server is
// unreachable. The result is a pure function of file size and orientation, so
// repeated attempts on the same upload agree with each other.
type FallbackProvider struct{}

// NewFallbackProvider returns the deterministic local provider.
func NewFallbackProvider() *FallbackProvider { return &FallbackProvider{} }

// Analyze derives a seed from the file size and compares it against the
// orientation's threshold. It never fails.
func (p *FallbackProvider) Analyze(_ context.Context, file File, orientation Orientation) (*VerificationOutcome, error) {
	return fallbackOutcome(file.Size(), orientation), nil
}

func fallbackOutcome(size int64, orientation Orientation) *VerificationOutcome {
	threshold, ok := fallbackThresholds[orientation]
	if !ok {
		threshold = fallbackThresholds[OrientationBalanced]
	}
	seed := size % 100

	notice := FallbackNotice
	out := &VerificationOutcome{
		Verdict:      VerdictNotObserved,
		StatusLabel:  StatusWithinBounds,
		ExceededAxes: []string{},
		Orientation:  orientation,
		Notice:       &notice,
	}
	if seed >= threshold {
		out.Verdict = VerdictObserved
		out.StatusLabel = StatusExceeded
		axis := "CR-G"
		out.ExceededAxes = []string{axis}
		out.PrimaryExceededAxis = &axis
	}
	return out
}
