package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bonesbb/HASPR/internal/generation"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.SetRunInfo("run-1", "fixed", "test")

	r.ObserveEvaluation("fixed", 3*time.Millisecond, generation.Missing{Irradiance: 2, Albedo: 5})
	r.ObserveEvaluation("fixed", 4*time.Millisecond, generation.Missing{Irradiance: 1})
	r.ObserveFailure("fixed")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.evaluations.WithLabelValues("fixed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.failures.WithLabelValues("fixed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.missingSamples.WithLabelValues("fixed", "irradiance")))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.missingSamples.WithLabelValues("fixed", "albedo")))

	path := filepath.Join(t.TempDir(), "haspr.prom")
	require.NoError(t, r.WriteTextfile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `haspr_evaluations_total{model="fixed"} 2`)
	assert.Contains(t, string(b), `haspr_run_info{model="fixed",run_id="run-1",version="test"} 1`)
}
