package casestore

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	apperrors "renovation-scope/internal/common/errors"
	"renovation-scope/internal/common/logger"
	"renovation-scope/internal/models"
)

// Loader builds the CaseContext of a request. The case and its documents
// are fetched concurrently; a failed document lookup only empties the
// document list.
type Loader struct {
	cases  CaseStore
	docs   DocumentSource
	logger logger.Logger
}

// NewLoader creates a loader. docs may be nil when no document index is
// configured.
func NewLoader(cases CaseStore, docs DocumentSource, log logger.Logger) *Loader {
	return &Loader{
		cases:  cases,
		docs:   docs,
		logger: logger.ForComponent(log, "case_loader"),
	}
}

func (l *Loader) Load(ctx context.Context, req models.ScopeRequest) (models.CaseContext, error) {
	var (
		sc   models.ServiceCase
		docs = []models.Document{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sc, err = l.cases.GetCase(gctx, req.CaseID)
		return err
	})

	if l.docs != nil && req.Action == models.ActionAnalyzeAndGenerate && len(req.DocumentIDs) > 0 {
		g.Go(func() error {
			found, err := l.docs.Documents(gctx, req.DocumentIDs)
			if err != nil {
				if gctx.Err() == nil {
					l.logger.Warn("document lookup failed, continuing without documents", map[string]interface{}{
						"caseId": req.CaseID,
						"reason": err.Error(),
					})
				}
				return nil
			}
			docs = found
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		switch {
		case ctx.Err() != nil:
			return models.CaseContext{}, apperrors.NewRequestCanceledError(ctx.Err())
		case errors.Is(err, ErrCaseNotFound):
			return models.CaseContext{}, apperrors.NewCaseNotFoundError(req.CaseID)
		default:
			return models.CaseContext{}, apperrors.NewCaseLookupFailedError(err)
		}
	}

	c := models.NewCaseContext(sc, req)
	c.Documents = docs
	return c, nil
}
