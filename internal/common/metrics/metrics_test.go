package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordGeneration(t *testing.T) {
	before := testutil.ToFloat64(Fallbacks.WithLabelValues("metrics-test"))

	RecordGeneration("metrics-test", OutcomeAccepted)
	RecordGeneration("metrics-test", OutcomeCanceled)
	assert.Equal(t, before, testutil.ToFloat64(Fallbacks.WithLabelValues("metrics-test")))

	RecordGeneration("metrics-test", OutcomeRejected)
	RecordGeneration("metrics-test", OutcomeDisabled)
	assert.Equal(t, before+2, testutil.ToFloat64(Fallbacks.WithLabelValues("metrics-test")))
	assert.Equal(t, 1.0, testutil.ToFloat64(GenerationAttempts.WithLabelValues("metrics-test", OutcomeRejected)))
}
