package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservability_RecordRun(t *testing.T) {
	reg := promclient.NewRegistry()
	obs, err := New("scope-test", reg)
	require.NoError(t, err)
	defer obs.Shutdown(context.Background())

	obs.RecordRun(context.Background(), "estimate_costs", "success", 12*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	joined := strings.Join(names, ",")
	assert.Contains(t, joined, "scope_pipeline_runs")
	assert.Contains(t, joined, "scope_pipeline_duration")
}

func TestObservability_NilIsNoOp(t *testing.T) {
	var obs *Observability
	assert.NotPanics(t, func() {
		obs.RecordRun(context.Background(), "a", "b", time.Second)
	})
	assert.NoError(t, obs.Shutdown(context.Background()))
}
