package genai

import (
	"context"
	"errors"

	apperrors "renovation-scope/internal/common/errors"
	"renovation-scope/internal/common/metrics"
)

// ErrRejected marks a reply that arrived but failed validation.
var ErrRejected = errors.New("generation output rejected")

// Attempt makes one generation call and parses the reply. Every failure
// except caller cancellation comes back as a GENERATION_UNAVAILABLE error;
// cancellation returns the context error unchanged.
func Attempt[T any](ctx context.Context, c Client, req Request, parse func(string) (T, error)) (T, error) {
	var zero T

	if c == nil {
		metrics.RecordGeneration(req.Component, metrics.OutcomeDisabled)
		return zero, apperrors.NewGenerationUnavailableError("disabled", ErrDisabled)
	}

	raw, err := c.Generate(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			metrics.RecordGeneration(req.Component, metrics.OutcomeCanceled)
			return zero, ctx.Err()
		}
		metrics.RecordGeneration(req.Component, metrics.OutcomeUnavailable)
		return zero, apperrors.NewGenerationUnavailableError("unavailable", err)
	}

	out, err := parse(raw)
	if err != nil {
		metrics.RecordGeneration(req.Component, metrics.OutcomeRejected)
		return zero, apperrors.NewGenerationUnavailableError("rejected", errors.Join(ErrRejected, err))
	}

	metrics.RecordGeneration(req.Component, metrics.OutcomeAccepted)
	return out, nil
}
