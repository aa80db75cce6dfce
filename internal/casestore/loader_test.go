package casestore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	apperrors "renovation-scope/internal/common/errors"
	"renovation-scope/internal/common/logger"
	"renovation-scope/internal/models"
)

type mockDocuments struct {
	mock.Mock
}

func (m *mockDocuments) Documents(ctx context.Context, ids []string) ([]models.Document, error) {
	args := m.Called(ctx, ids)
	docs, _ := args.Get(0).([]models.Document)
	return docs, args.Error(1)
}

func storedCases() *countingStore {
	return &countingStore{cases: map[string]models.ServiceCase{
		"case-1": {ID: "case-1", Category: "sanitaer", PropertyAddress: "Hauptstraße 5", Description: "Bad alt"},
	}}
}

func TestLoader_MergesRequestOverrides(t *testing.T) {
	loader := NewLoader(storedCases(), nil, logger.NewTestLogger(t))

	c, err := loader.Load(context.Background(), models.ScopeRequest{
		CaseID:         "case-1",
		Action:         models.ActionEstimateCosts,
		Category:       "elektro",
		UnitDescriptor: "WE 3",
		Location:       " ",
	})
	require.NoError(t, err)

	assert.Equal(t, "case-1", c.CaseID)
	assert.Equal(t, "elektro", c.Category)
	assert.Equal(t, "Hauptstraße 5", c.PropertyAddress)
	assert.Equal(t, "WE 3", c.UnitDescriptor)
	assert.Equal(t, "Hauptstraße 5", c.Location)
	assert.Equal(t, "Bad alt", c.Description)
	assert.Empty(t, c.Documents)
}

func TestLoader_Documents(t *testing.T) {
	docs := &mockDocuments{}
	docs.On("Documents", mock.Anything, []string{"d1"}).
		Return([]models.Document{{ID: "d1", Name: "Grundriss.pdf"}}, nil).Once()

	c, err := NewLoader(storedCases(), docs, logger.NewTestLogger(t)).Load(context.Background(), models.ScopeRequest{
		CaseID:      "case-1",
		Action:      models.ActionAnalyzeAndGenerate,
		DocumentIDs: []string{"d1"},
	})
	require.NoError(t, err)
	assert.Equal(t, []models.Document{{ID: "d1", Name: "Grundriss.pdf"}}, c.Documents)
	docs.AssertExpectations(t)
}

func TestLoader_DocumentsOnlyForAnalysis(t *testing.T) {
	docs := &mockDocuments{}
	_, err := NewLoader(storedCases(), docs, logger.NewTestLogger(t)).Load(context.Background(), models.ScopeRequest{
		CaseID:      "case-1",
		Action:      models.ActionGenerateDescription,
		DocumentIDs: []string{"d1"},
	})
	require.NoError(t, err)
	docs.AssertNotCalled(t, "Documents", mock.Anything, mock.Anything)
}

func TestLoader_DocumentFailureIsLogged(t *testing.T) {
	docs := &mockDocuments{}
	docs.On("Documents", mock.Anything, mock.Anything).Return(nil, errors.New("es down"))
	log, logs := logger.NewObservedLogger(zapcore.WarnLevel)

	c, err := NewLoader(storedCases(), docs, log).Load(context.Background(), models.ScopeRequest{
		CaseID:      "case-1",
		Action:      models.ActionAnalyzeAndGenerate,
		DocumentIDs: []string{"d1"},
	})
	require.NoError(t, err)
	assert.NotNil(t, c.Documents)
	assert.Empty(t, c.Documents)
	assert.Equal(t, 1, logs.FilterMessage("document lookup failed, continuing without documents").Len())
}

func TestLoader_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		store    *countingStore
		cancel   bool
		wantCode apperrors.ErrorCode
	}{
		{name: "not found", store: &countingStore{cases: map[string]models.ServiceCase{}}, wantCode: apperrors.ErrCodeCaseNotFound},
		{name: "store failure", store: &countingStore{err: errors.New("timeout")}, wantCode: apperrors.ErrCodeCaseLookupFailed},
		{name: "canceled", store: &countingStore{err: context.Canceled}, cancel: true, wantCode: apperrors.ErrCodeRequestCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.cancel {
				cancel()
			}

			_, err := NewLoader(tt.store, nil, logger.NewTestLogger(t)).Load(ctx, models.ScopeRequest{CaseID: "case-1"})
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, tt.wantCode), err.Error())
		})
	}
}
