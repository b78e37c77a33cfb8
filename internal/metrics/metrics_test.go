package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordExit(t *testing.T) {
	r := NewRun("bigearthnet_classifier", "bigearthnet")
	r.RecordCheckpoint()
	r.RecordCheckpoint()
	r.RecordExit(3, 90*time.Second, time.Unix(1700000000, 0))

	assert.Equal(t, 3.0, testutil.ToFloat64(r.exitCode.With(r.labels)))
	assert.Equal(t, 90.0, testutil.ToFloat64(r.duration.With(r.labels)))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(r.completion.With(r.labels)))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.checkpoints.With(r.labels)))

	count, err := testutil.GatherAndCount(r.Registry())
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestPush(t *testing.T) {
	var gotPath, gotBody, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotMethod = req.Method
		gotPath = req.URL.Path
		b, _ := io.ReadAll(req.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewRun("bigearthnet_classifier", "bigearthnet")
	r.RecordExit(0, time.Second, time.Now())

	require.NoError(t, r.Push(context.Background(), srv.URL, "trainlaunch", "run-1"))
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/metrics/job/trainlaunch/run_id/run-1", gotPath)
	assert.NotEmpty(t, gotBody)
}

func TestPushFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewRun("a", "d")
	err := r.Push(context.Background(), srv.URL, "trainlaunch", "run-1")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "failed to push metrics"))
}
