package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	apperrors "renovation-scope/internal/common/errors"
	"renovation-scope/internal/common/logger"
	"renovation-scope/internal/models"
)

// ==========================
// Test Helpers
// ==========================

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, req models.ScopeRequest) (*models.ScopeResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScopeResult), args.Error(1)
}

func newTestRouter(t *testing.T, d Dispatcher, checks map[string]Check) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterConfig{
		ScopeHandler:   NewScopeHandler(d),
		HealthHandler:  NewHealthHandler(checks),
		AllowedOrigins: []string{"https://app.example.com"},
		Logger:         logger.NewTestLogger(t),
	})
}

func post(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, ScopePath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// ==========================
// Scope Endpoint Tests
// ==========================

func TestGenerate_Success(t *testing.T) {
	lo, mid, hi := int64(10000), int64(10000), int64(20000)
	d := &MockDispatcher{}
	d.On("Dispatch", mock.Anything, mock.MatchedBy(func(req models.ScopeRequest) bool {
		return req.CaseID == "case-1" && req.Action == models.ActionEstimateCosts && len(req.LineItems) == 1
	})).Return(&models.ScopeResult{
		Success:         true,
		CostEstimateMin: &lo,
		CostEstimateMid: &mid,
		CostEstimateMax: &hi,
		DataSource:      "Richtwerte elektro",
	}, nil).Once()

	rec := post(newTestRouter(t, d, nil), `{
		"case_id": "case-1",
		"action": "estimate_costs",
		"line_items": [{"description": "Steckdosen setzen", "quantity": 4, "unit": "Stk"}]
	}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(10000), body["cost_estimate_min"])
	assert.Equal(t, "Richtwerte elektro", body["data_source"])
	assert.NotContains(t, body, "line_items")
	d.AssertExpectations(t)
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		dispatched error
		wantStatus int
		wantError  string
	}{
		{
			name:       "body is not json",
			body:       `case_id=1`,
			wantStatus: http.StatusBadRequest,
			wantError:  "request body must be a JSON object",
		},
		{
			name:       "body is an array",
			body:       `[]`,
			wantStatus: http.StatusBadRequest,
			wantError:  "request body must be a JSON object",
		},
		{
			name:       "schema violation",
			body:       `{"case_id": 7}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "case_id: expected string",
		},
		{
			name:       "validation from pipeline",
			body:       `{"case_id": "c", "action": "estimate_costs"}`,
			dispatched: apperrors.NewValidationError("line_items required for cost estimation"),
			wantStatus: http.StatusBadRequest,
			wantError:  "line_items required for cost estimation",
		},
		{
			name:       "unknown case",
			body:       `{"case_id": "nope", "action": "analyze_and_generate"}`,
			dispatched: apperrors.NewCaseNotFoundError("nope"),
			wantStatus: http.StatusNotFound,
			wantError:  "Service case not found",
		},
		{
			name:       "internal failure is hidden",
			body:       `{"case_id": "c", "action": "analyze_and_generate"}`,
			dispatched: apperrors.NewCaseLookupFailedError(errors.New("pq: password authentication failed")),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &MockDispatcher{}
			if tt.dispatched != nil {
				d.On("Dispatch", mock.Anything, mock.Anything).Return(nil, tt.dispatched).Once()
			}

			rec := post(newTestRouter(t, d, nil), tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			assert.Contains(t, body["error"], tt.wantError)
			assert.NotContains(t, rec.Body.String(), "password")
			d.AssertExpectations(t)
		})
	}
}

func TestGenerate_PreflightHandledByCORS(t *testing.T) {
	r := newTestRouter(t, &MockDispatcher{}, nil)

	req := httptest.NewRequest(http.MethodOptions, ScopePath, nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_AllowAllWhenUnconfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(nil))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

// ==========================
// Health Endpoint Tests
// ==========================

func TestHealthAndReady(t *testing.T) {
	healthy := func(context.Context) error { return nil }
	broken := func(context.Context) error { return errors.New("down") }

	tests := []struct {
		name       string
		checks     map[string]Check
		wantStatus int
		wantFailed []interface{}
	}{
		{"no checks", nil, http.StatusOK, nil},
		{"all healthy", map[string]Check{"postgres": healthy, "redis": healthy}, http.StatusOK, nil},
		{"some failing", map[string]Check{"redis": broken, "postgres": healthy, "elasticsearch": broken}, http.StatusServiceUnavailable, []interface{}{"elasticsearch", "redis"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, &MockDispatcher{}, tt.checks)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, http.StatusOK, rec.Code)

			rec = httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantFailed != nil {
				assert.Equal(t, tt.wantFailed, decodeBody(t, rec)["failing"])
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t, &MockDispatcher{}, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestLogger_LevelByStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, logs := logger.NewObservedLogger(zapcore.InfoLevel)

	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/ok", "/bad", "/boom"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "/bad", entries[1].ContextMap()["path"])
}
