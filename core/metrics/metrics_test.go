package metrics_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pagekit/core/metrics"
)

func TestCollector(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := metrics.New("site", reg)
	require.NoError(t, err)

	m.RequestFinished("rendered", http.StatusOK, 20*time.Millisecond)
	m.RequestFinished("rendered", http.StatusOK, 10*time.Millisecond)
	m.RequestFinished("redirect", http.StatusFound, time.Millisecond)
	m.LoaderExecuted("user", nil, time.Millisecond)
	m.LoaderExecuted("user", errors.New("boom"), time.Millisecond)
	m.ViolationObserved("response_sent")

	count, err := testutil.GatherAndCount(reg, "site_pipeline_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per outcome/code pair")

	count, err = testutil.GatherAndCount(reg, "site_loader_executions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = testutil.GatherAndCount(reg, "site_pipeline_violations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCollectorDuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := metrics.New("site", reg)
	require.NoError(t, err)

	_, err = metrics.New("site", reg)
	assert.ErrorIs(t, err, metrics.ErrRegister)
}
