// Package strategy runs ordered alternatives where the first successful
// result wins.
package strategy

import (
	"context"
	"errors"
	"fmt"

	apperrors "renovation-scope/internal/common/errors"
	"renovation-scope/internal/common/logger"
)

// ErrExhausted is wrapped when every strategy of a chain failed.
var ErrExhausted = errors.New("all strategies failed")

// Strategy is one named alternative.
type Strategy[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// Chain tries its strategies in order.
type Chain[T any] struct {
	component  string
	logger     logger.Logger
	strategies []Strategy[T]
}

func NewChain[T any](component string, log logger.Logger, strategies ...Strategy[T]) *Chain[T] {
	return &Chain[T]{
		component:  component,
		logger:     logger.ForComponent(log, component),
		strategies: strategies,
	}
}

// Resolve returns the first successful result and the name of the strategy
// that produced it. A canceled context stops the chain without trying the
// remaining strategies.
func (c *Chain[T]) Resolve(ctx context.Context, caseID string) (T, string, error) {
	var zero T
	var errs []error

	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return zero, "", apperrors.NewRequestCanceledError(err)
		}

		out, err := s.Run(ctx)
		if err == nil {
			return out, s.Name, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, "", apperrors.NewRequestCanceledError(ctxErr)
		}

		c.logger.Warn("strategy failed, falling back", map[string]interface{}{
			"caseId":   caseID,
			"strategy": s.Name,
			"reason":   err.Error(),
		})
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
	}

	return zero, "", apperrors.NewInternalError(
		fmt.Errorf("%s: %w: %w", c.component, ErrExhausted, errors.Join(errs...)))
}
