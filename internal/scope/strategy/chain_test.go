package strategy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	apperrors "renovation-scope/internal/common/errors"
	"renovation-scope/internal/common/logger"
)

func constant(name string, v int, err error, calls *[]string) Strategy[int] {
	return Strategy[int]{
		Name: name,
		Run: func(ctx context.Context) (int, error) {
			*calls = append(*calls, name)
			return v, err
		},
	}
}

func TestChain_Resolve(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name       string
		build      func(calls *[]string) []Strategy[int]
		wantValue  int
		wantWinner string
		wantCalls  []string
		wantCode   apperrors.ErrorCode
	}{
		{
			name: "first wins",
			build: func(calls *[]string) []Strategy[int] {
				return []Strategy[int]{constant("ai", 1, nil, calls), constant("heuristic", 2, nil, calls)}
			},
			wantValue:  1,
			wantWinner: "ai",
			wantCalls:  []string{"ai"},
		},
		{
			name: "falls through on failure",
			build: func(calls *[]string) []Strategy[int] {
				return []Strategy[int]{constant("ai", 0, boom, calls), constant("heuristic", 2, nil, calls)}
			},
			wantValue:  2,
			wantWinner: "heuristic",
			wantCalls:  []string{"ai", "heuristic"},
		},
		{
			name: "all fail is internal",
			build: func(calls *[]string) []Strategy[int] {
				return []Strategy[int]{constant("ai", 0, boom, calls), constant("heuristic", 0, boom, calls)}
			},
			wantCalls: []string{"ai", "heuristic"},
			wantCode:  apperrors.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []string
			log, logs := logger.NewObservedLogger(zapcore.DebugLevel)
			chain := NewChain("cost_estimate", log, tt.build(&calls)...)

			v, winner, err := chain.Resolve(context.Background(), "case-1")
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, apperrors.IsCode(err, tt.wantCode))
				assert.ErrorIs(t, err, ErrExhausted)
				assert.ErrorIs(t, err, boom)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantValue, v)
			assert.Equal(t, tt.wantWinner, winner)
			assert.Equal(t, len(calls)-1, logs.FilterMessage("strategy failed, falling back").Len())
		})
	}
}

func TestChain_FallbackIsLoggedWithContext(t *testing.T) {
	var calls []string
	log, logs := logger.NewObservedLogger(zapcore.DebugLevel)
	chain := NewChain("narrative", log,
		constant("ai", 0, errors.New("timeout"), &calls),
		constant("template", 1, nil, &calls),
	)

	_, _, err := chain.Resolve(context.Background(), "case-9")
	require.NoError(t, err)

	entries := logs.FilterMessage("strategy failed, falling back").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "narrative", fields["component"])
	assert.Equal(t, "case-9", fields["caseId"])
	assert.Equal(t, "timeout", fields["reason"])
}

func TestChain_CancellationStopsFallback(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var fallbackRan bool

	chain := NewChain("narrative", logger.NewNoOpLogger(),
		Strategy[string]{Name: "ai", Run: func(ctx context.Context) (string, error) {
			cancel()
			return "", ctx.Err()
		}},
		Strategy[string]{Name: "template", Run: func(ctx context.Context) (string, error) {
			fallbackRan = true
			return "text", nil
		}},
	)

	_, _, err := chain.Resolve(ctx, "case-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeRequestCanceled))
	assert.False(t, fallbackRan)
}

func TestChain_AlreadyCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls []string
	_, _, err := NewChain("x", nil, constant("ai", 1, nil, &calls)).Resolve(ctx, "case-1")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeRequestCanceled))
	assert.Empty(t, calls)
}
