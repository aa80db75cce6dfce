package pipeline

import (
	"context"
	"fmt"
	"sync"

	apperrors "renovation-scope/internal/common/errors"
	"renovation-scope/internal/common/metrics"
	"renovation-scope/internal/models"
	"renovation-scope/internal/scope/estimator"
	"renovation-scope/internal/scope/genai"
	"renovation-scope/internal/scope/parser"
	"renovation-scope/internal/scope/prompt"
	"renovation-scope/internal/scope/strategy"
)

// Components name the fallback sites in logs and metrics.
const (
	componentAnalysis        = "analysis"
	componentRoomAnalysis    = "analysis.room_analysis"
	componentLineItems       = "analysis.line_items"
	componentNarrative       = "analysis.scope_description"
	componentDescription     = "description"
	componentFromDescription = "from_description"

	strategyAI       = "ai"
	strategyTemplate = "template"
)

func (d *Dispatcher) request(component string, c models.CaseContext, in prompt.Input) (genai.Request, error) {
	instr, err := prompt.Compile(in)
	if err != nil {
		return genai.Request{}, apperrors.NewInternalError(err)
	}
	return genai.Request{
		Component: component,
		CaseID:    c.CaseID,
		System:    instr.System,
		User:      instr.User,
	}, nil
}

// analyze makes one generation call; its three sections are accepted or
// replaced independently.
func (d *Dispatcher) analyze(ctx context.Context, c models.CaseContext) (*models.ScopeResult, error) {
	genReq, err := d.request(componentAnalysis, c, prompt.Input{Action: models.ActionAnalyzeAndGenerate, Context: c})
	if err != nil {
		return nil, err
	}

	var (
		once   sync.Once
		parsed parser.Analysis
		genErr error
	)
	generated := func(ctx context.Context) (parser.Analysis, error) {
		once.Do(func() {
			parsed, genErr = genai.Attempt(ctx, d.client, genReq, d.parser.ParseAnalysis)
		})
		return parsed, genErr
	}

	rooms, _, err := strategy.NewChain(componentRoomAnalysis, d.logger,
		strategy.Strategy[models.RoomAnalysis]{Name: strategyAI, Run: func(ctx context.Context) (models.RoomAnalysis, error) {
			a, err := generated(ctx)
			if err != nil {
				return models.RoomAnalysis{}, err
			}
			if a.RoomAnalysisErr != nil {
				return models.RoomAnalysis{}, sectionRejected(componentRoomAnalysis, a.RoomAnalysisErr)
			}
			return *a.RoomAnalysis, nil
		}},
		strategy.Strategy[models.RoomAnalysis]{Name: strategyTemplate, Run: func(context.Context) (models.RoomAnalysis, error) {
			return d.fallback.RoomAnalysis(), nil
		}},
	).Resolve(ctx, c.CaseID)
	if err != nil {
		return nil, err
	}

	items, _, err := strategy.NewChain(componentLineItems, d.logger,
		strategy.Strategy[[]models.LineItem]{Name: strategyAI, Run: func(ctx context.Context) ([]models.LineItem, error) {
			a, err := generated(ctx)
			if err != nil {
				return nil, err
			}
			if a.LineItemsErr != nil {
				return nil, sectionRejected(componentLineItems, a.LineItemsErr)
			}
			return a.LineItems, nil
		}},
		strategy.Strategy[[]models.LineItem]{Name: strategyTemplate, Run: func(context.Context) ([]models.LineItem, error) {
			return d.fallback.LineItems(c.Category), nil
		}},
	).Resolve(ctx, c.CaseID)
	if err != nil {
		return nil, err
	}

	narrative, _, err := strategy.NewChain(componentNarrative, d.logger,
		strategy.Strategy[string]{Name: strategyAI, Run: func(ctx context.Context) (string, error) {
			a, err := generated(ctx)
			if err != nil {
				return "", err
			}
			if a.NarrativeErr != nil {
				return "", sectionRejected(componentNarrative, a.NarrativeErr)
			}
			return a.Narrative, nil
		}},
		strategy.Strategy[string]{Name: strategyTemplate, Run: func(context.Context) (string, error) {
			return d.fallback.AnalysisNarrative(c), nil
		}},
	).Resolve(ctx, c.CaseID)
	if err != nil {
		return nil, err
	}

	return &models.ScopeResult{
		Success:          true,
		RoomAnalysis:     &rooms,
		LineItems:        items,
		ScopeDescription: narrative,
	}, nil
}

// sectionRejected counts a section that failed inside an accepted reply.
func sectionRejected(component string, err error) error {
	metrics.RecordGeneration(component, metrics.OutcomeRejected)
	return apperrors.NewGenerationUnavailableError("rejected", err)
}

func (d *Dispatcher) estimate(ctx context.Context, c models.CaseContext, req models.ScopeRequest) (*models.ScopeResult, error) {
	est, err := d.estimator.Estimate(ctx, estimator.Input{
		Context:   c,
		LineItems: req.LineItems,
		AreaSqm:   req.AreaSqm,
	})
	if err != nil {
		return nil, err
	}

	res := &models.ScopeResult{Success: true, DataSource: est.DataSource}
	res.SetCost(est.Estimate)
	return res, nil
}

func (d *Dispatcher) describe(ctx context.Context, c models.CaseContext, req models.ScopeRequest) (*models.ScopeResult, error) {
	genReq, err := d.request(componentDescription, c, prompt.Input{
		Action:    models.ActionGenerateDescription,
		Context:   c,
		LineItems: req.LineItems,
	})
	if err != nil {
		return nil, err
	}

	narrative, _, err := strategy.NewChain(componentDescription, d.logger,
		strategy.Strategy[string]{Name: strategyAI, Run: func(ctx context.Context) (string, error) {
			return genai.Attempt(ctx, d.client, genReq, d.parser.ParseNarrative)
		}},
		strategy.Strategy[string]{Name: strategyTemplate, Run: func(context.Context) (string, error) {
			return d.fallback.DescriptionNarrative(c, req.LineItems), nil
		}},
	).Resolve(ctx, c.CaseID)
	if err != nil {
		return nil, err
	}

	return &models.ScopeResult{Success: true, ScopeDescription: narrative}, nil
}

// fromDescription treats the reply as one unit: any rejection replaces the
// whole result with the template and heuristic estimate.
func (d *Dispatcher) fromDescription(ctx context.Context, c models.CaseContext, req models.ScopeRequest) (*models.ScopeResult, error) {
	freeText := c.Description
	if freeText == "" {
		return nil, apperrors.NewValidationError("Keine Beschreibung vorhanden")
	}

	genReq, err := d.request(componentFromDescription, c, prompt.Input{
		Action:   models.ActionGenerateFromDescription,
		Context:  c,
		FreeText: freeText,
		AreaSqm:  req.AreaSqm,
	})
	if err != nil {
		return nil, err
	}

	res, _, err := strategy.NewChain(componentFromDescription, d.logger,
		strategy.Strategy[*models.ScopeResult]{Name: strategyAI, Run: func(ctx context.Context) (*models.ScopeResult, error) {
			out, err := genai.Attempt(ctx, d.client, genReq, d.parser.ParseFromDescription)
			if err != nil {
				return nil, err
			}
			rooms := out.RoomAnalysis
			res := &models.ScopeResult{
				Success:          true,
				RoomAnalysis:     &rooms,
				LineItems:        out.LineItems,
				ScopeDescription: out.Narrative,
			}
			cost, err := estimator.Finalize(out.Costs)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", parser.ErrUnusable, err)
			}
			res.SetCost(cost)
			return res, nil
		}},
		strategy.Strategy[*models.ScopeResult]{Name: strategyTemplate, Run: func(context.Context) (*models.ScopeResult, error) {
			items := d.fallback.LineItems(c.Category)
			rooms := d.fallback.RoomAnalysis()
			res := &models.ScopeResult{
				Success:          true,
				RoomAnalysis:     &rooms,
				LineItems:        items,
				ScopeDescription: d.fallback.FromDescriptionNarrative(c, freeText),
			}
			est, err := d.estimator.Heuristic(c.Category, len(items), req.AreaSqm)
			if err != nil {
				return nil, err
			}
			res.SetCost(est.Estimate)
			return res, nil
		}},
	).Resolve(ctx, c.CaseID)
	if err != nil {
		return nil, err
	}
	return res, nil
}
