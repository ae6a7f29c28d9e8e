package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/assessmentsync/internal/metrics"
	"github.com/agentstation/assessmentsync/pkg/differ"
	"github.com/agentstation/assessmentsync/pkg/sync"
)

func scrape(t *testing.T, h http.Handler, path string) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestObserve(t *testing.T) {
	rec := metrics.New()

	res := sync.NewResult("run-1", false)
	res.Internal, res.External, res.Matched = 4, 5, 3
	res.Changes.Add(differ.Change{AssignmentID: 1, Setting: "markingworkflow", Type: differ.ChangeTypeUpdate, Applied: true})
	res.Changes.Add(differ.Change{AssignmentID: 1, Setting: "sendlatenotifications", Type: differ.ChangeTypeForced, Applied: true})
	res.Changes.Add(differ.Change{AssignmentID: 2, Setting: "markingworkflow", Type: differ.ChangeTypeUpdate, Applied: false})
	res.Finish(nil)
	res.Duration = 2 * time.Second
	rec.Observe(res)
	rec.Observe(nil)

	body := scrape(t, rec.Handler(), "/metrics")
	assert.Contains(t, body, `assessmentsync_runs_total{status="0"} 1`)
	assert.Contains(t, body, `assessmentsync_setting_writes_total{setting="markingworkflow",type="update"} 1`)
	assert.Contains(t, body, `assessmentsync_setting_writes_total{setting="sendlatenotifications",type="forced"} 1`)
	assert.Contains(t, body, `assessmentsync_last_run_records{kind="matched"} 3`)
	assert.Contains(t, body, "assessmentsync_run_duration_seconds_count 1")
	assert.NotContains(t, body, "assessmentsync_last_success_timestamp_seconds 0\n")
}

func TestMux(t *testing.T) {
	rec := metrics.New()
	mux := rec.Mux()

	assert.Equal(t, `{"status":"ok"}`, scrape(t, mux, "/healthz"))
	assert.Contains(t, scrape(t, mux, "/metrics"), "assessmentsync_last_success_timestamp_seconds")
}

func TestNilRecorder(t *testing.T) {
	var rec *metrics.Recorder
	rec.Observe(sync.NewResult("x", false))
}
