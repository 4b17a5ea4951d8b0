package relay

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Service is the real-then-fallback strategy over two OutcomeProviders. It
// guarantees the caller always receives a well-formed VerificationOutcome:
// the external server gets exactly one attempt, and any *RelayError is
// absorbed by substituting the deterministic local fallback. If bounded
// retries are ever wanted, they belong here as an explicit policy, not inside
// the client.
type Service struct {
	primary  OutcomeProvider
	fallback OutcomeProvider
	logger   *zap.SugaredLogger
}

// NewService wires a primary provider with a fallback.
func NewService(primary, fallback OutcomeProvider, logger *zap.SugaredLogger) *Service {
	return &Service{primary: primary, fallback: fallback, logger: logger}
}

// Process obtains a verdict for the file. Relay failures are non-fatal; only a
// failure of the fallback itself (which cannot happen with the deterministic
// provider) propagates as an error.
func (s *Service) Process(ctx context.Context, file File, orientation Orientation) (*VerificationOutcome, error) {
	out, err := s.primary.Analyze(ctx, file, orientation)
	if err == nil {
		return out, nil
	}

	var relayErr *RelayError
	if !errors.As(err, &relayErr) {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Warnw("inference server unavailable, using local fallback",
			"file", file.Name, "orientation", orientation, "err", err)
	}
	return s.fallback.Analyze(ctx, file, orientation)
}
