package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRunRecorder(t *testing.T) {
	before := testutil.ToFloat64(RunsCompleted.WithLabelValues("test", "done"))

	rec := StartRun("test")
	rec.Finish("done")

	assert.Equal(t, before+1, testutil.ToFloat64(RunsCompleted.WithLabelValues("test", "done")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(RunsStarted.WithLabelValues("test")), 1.0)
}

func TestRecordTokensSkipsZero(t *testing.T) {
	before := testutil.ToFloat64(TokensTotal.WithLabelValues("prompt"))
	RecordTokens(0, 5)
	assert.Equal(t, before, testutil.ToFloat64(TokensTotal.WithLabelValues("prompt")))
}
