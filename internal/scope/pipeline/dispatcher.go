// Package pipeline routes scope requests to the four supported actions and
// composes loading, generation, parsing, fallback and estimation for each.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "renovation-scope/internal/common/errors"
	"renovation-scope/internal/common/logger"
	"renovation-scope/internal/common/metrics"
	"renovation-scope/internal/common/observability"
	"renovation-scope/internal/models"
	"renovation-scope/internal/scope/estimator"
	"renovation-scope/internal/scope/fallback"
	"renovation-scope/internal/scope/genai"
	"renovation-scope/internal/scope/knowledge"
	"renovation-scope/internal/scope/parser"
	"renovation-scope/internal/scope/shape"
)

const statusSuccess = "success"

// ContextLoader resolves the case a request refers to.
type ContextLoader interface {
	Load(ctx context.Context, req models.ScopeRequest) (models.CaseContext, error)
}

// Dispatcher is stateless between calls and safe for concurrent use.
type Dispatcher struct {
	loader    ContextLoader
	client    genai.Client
	parser    *parser.Parser
	fallback  *fallback.Generator
	estimator *estimator.Estimator
	obs       *observability.Observability
	logger    logger.Logger
}

type settings struct {
	newID func() string
	now   func() time.Time
	obs   *observability.Observability
}

type Option func(*settings)

// WithIDGenerator replaces the line item id source.
func WithIDGenerator(newID func() string) Option {
	return func(s *settings) { s.newID = newID }
}

// WithClock replaces the clock used for cost data labels.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithObservability records every run on the OpenTelemetry meter.
func WithObservability(obs *observability.Observability) Option {
	return func(s *settings) { s.obs = obs }
}

// New wires a dispatcher. A nil client runs every action on its fallback path.
func New(loader ContextLoader, kb *knowledge.Base, client genai.Client, log logger.Logger, opts ...Option) *Dispatcher {
	s := settings{now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}

	p := parser.New(s.newID)
	return &Dispatcher{
		loader:    loader,
		client:    client,
		parser:    p,
		fallback:  fallback.New(kb, s.newID),
		estimator: estimator.New(kb, client, p, log, estimator.WithClock(s.now)),
		obs:       s.obs,
		logger:    logger.ForComponent(log, "pipeline"),
	}
}

// Dispatch runs one request. On error no partial result is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, req models.ScopeRequest) (res *models.ScopeResult, err error) {
	start := time.Now()
	action := actionLabel(req.Action)

	defer func() {
		if r := recover(); r != nil {
			res, err = nil, apperrors.NewInternalError(fmt.Errorf("panic: %v", r))
		}

		status := statusSuccess
		if err != nil {
			stdErr := apperrors.Normalize(err)
			err = stdErr
			status = strings.ToLower(string(stdErr.Code))
			d.logFailure(req, stdErr)
		}

		elapsed := time.Since(start)
		metrics.ScopeRequests.WithLabelValues(action, status).Inc()
		metrics.ScopeRequestDuration.WithLabelValues(action).Observe(elapsed.Seconds())
		d.obs.RecordRun(ctx, action, status, elapsed)
	}()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	c, err := d.loader.Load(ctx, req)
	if err != nil {
		return nil, err
	}

	switch req.Action {
	case models.ActionAnalyzeAndGenerate:
		return d.analyze(ctx, c)
	case models.ActionEstimateCosts:
		return d.estimate(ctx, c, req)
	case models.ActionGenerateDescription:
		return d.describe(ctx, c, req)
	default:
		return d.fromDescription(ctx, c, req)
	}
}

func validateRequest(req models.ScopeRequest) error {
	if strings.TrimSpace(req.CaseID) == "" {
		return apperrors.NewValidationError("case_id is required")
	}
	if !req.Action.Valid() {
		return apperrors.NewValidationError("Invalid action")
	}
	if req.AreaSqm != nil && (*req.AreaSqm < 0 || *req.AreaSqm > shape.MaxMeasure) {
		return apperrors.NewValidationError(fmt.Sprintf("area_sqm must be between 0 and %d", shape.MaxMeasure))
	}
	switch req.Action {
	case models.ActionEstimateCosts:
		if len(req.LineItems) == 0 {
			return apperrors.NewValidationError("line_items required for cost estimation")
		}
	case models.ActionGenerateDescription:
		if len(req.LineItems) == 0 {
			return apperrors.NewValidationError("line_items required")
		}
	}
	return nil
}

func (d *Dispatcher) logFailure(req models.ScopeRequest, err *apperrors.StandardError) {
	fields := map[string]interface{}{
		"caseId":    req.CaseID,
		"action":    string(req.Action),
		"category":  req.Category,
		"errorCode": string(err.Code),
		"details":   err.Details,
	}
	switch {
	case apperrors.IsBusinessError(err.Code):
		d.logger.Info("request rejected", fields)
	case err.Code == apperrors.ErrCodeRequestCanceled:
		d.logger.Info("request canceled", fields)
	default:
		d.logger.Error("request failed", fields)
	}
}

func actionLabel(a models.Action) string {
	if a.Valid() {
		return string(a)
	}
	return "unknown"
}
