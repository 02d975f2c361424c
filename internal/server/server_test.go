// internal/server/server_test.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analyzer "github.com/kamisoel/gait-analyzer"
	"github.com/kamisoel/gait-analyzer/internal/config"
	"github.com/kamisoel/gait-analyzer/internal/store"
	"github.com/kamisoel/gait-analyzer/pkg/estimate"
	"github.com/kamisoel/gait-analyzer/pkg/pose"
)

type stubEstimator struct {
	seq *pose.Sequence
	err error
}

func (s *stubEstimator) Name() string { return "stub" }

func (s *stubEstimator) Estimate(ctx context.Context, videoPath string, opts estimate.Options) (*pose.Sequence, error) {
	return s.seq, s.err
}

func walkSequence(frames int, fps, cycleSec float64) *pose.Sequence {
	s := pose.NewSequence(frames, pose.NumJoints, fps)
	omega := 2 * math.Pi / (cycleSec * fps)
	for i := 0; i < frames; i++ {
		hipX := 0.02 * float64(i)
		f := s.Frames[i]
		f[pose.MHip] = pose.Point{hipX, 0, 1}
		f[pose.RHip] = pose.Point{hipX, 0.1, 1}
		f[pose.LHip] = pose.Point{hipX, -0.1, 1}
		f[pose.RAnkle] = pose.Point{hipX + 0.3*math.Sin(omega*float64(i)), 0.1, 0.05}
		f[pose.LAnkle] = pose.Point{hipX + 0.3*math.Sin(omega*float64(i)+math.Pi), -0.1, 0.05}
		f[pose.RKnee] = pose.Point{hipX, 0.1, 0.5}
		f[pose.LKnee] = pose.Point{hipX, -0.1, 0.5}
	}
	return s
}

func newTestServer(t *testing.T, est estimate.Estimator) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Uploads.PerMinute = 1000

	st, err := store.Open(cfg.DBPath())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	srv := New(cfg, st, analyzer.New(est, analyzer.DefaultOptions()))
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return srv, ts
}

func uploadVideo(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("video", "walk.mp4")
	require.NoError(t, err)
	_, err = fw.Write([]byte("not a real video"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/api/v1/uploads", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Upload string `json:"upload"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Upload)
	return body.Upload
}

func startAnalysis(t *testing.T, ts *httptest.Server, upload string) string {
	t.Helper()
	req := fmt.Sprintf(`{"upload":%q}`, upload)
	resp, err := http.Post(ts.URL+"/api/v1/analyses", "application/json", strings.NewReader(req))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var rec store.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	require.NotEmpty(t, rec.ID)
	require.Equal(t, store.StatusPending, rec.Status)
	return rec.ID
}

func waitForStatus(t *testing.T, ts *httptest.Server, id, want string) store.Record {
	t.Helper()
	var rec store.Record
	require.Eventually(t, func() bool {
		resp, err := http.Get(ts.URL + "/api/v1/analyses/" + id)
		if err != nil || resp.StatusCode != http.StatusOK {
			return false
		}
		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
			return false
		}
		return rec.Status == want
	}, 5*time.Second, 20*time.Millisecond)
	return rec
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, &stubEstimator{})
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAnalysisLifecycle(t *testing.T) {
	_, ts := newTestServer(t, &stubEstimator{seq: walkSequence(300, 50, 1.0)})

	upload := uploadVideo(t, ts)
	id := startAnalysis(t, ts, upload)
	rec := waitForStatus(t, ts, id, store.StatusDone)

	var sum analyzer.Summary
	require.NoError(t, json.Unmarshal(rec.Summary, &sum))
	assert.Equal(t, 300, sum.Frames)
	assert.Greater(t, sum.Cadence, 0.0)

	// Listings include the finished record.
	resp, err := http.Get(ts.URL + "/api/v1/analyses")
	require.NoError(t, err)
	defer resp.Body.Close()
	var recs []store.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&recs))
	require.Len(t, recs, 1)
	assert.Equal(t, id, recs[0].ID)
}

func TestAnalysisFailure(t *testing.T) {
	_, ts := newTestServer(t, &stubEstimator{err: fmt.Errorf("model not found")})

	upload := uploadVideo(t, ts)
	id := startAnalysis(t, ts, upload)
	rec := waitForStatus(t, ts, id, store.StatusFailed)
	assert.Contains(t, rec.Error, "model not found")
}

func TestFigures(t *testing.T) {
	_, ts := newTestServer(t, &stubEstimator{seq: walkSequence(300, 50, 1.0)})

	upload := uploadVideo(t, ts)
	id := startAnalysis(t, ts, upload)
	waitForStatus(t, ts, id, store.StatusDone)

	for _, kind := range []string{"pose", "angles", "stride", "phasespace"} {
		resp, err := http.Get(ts.URL + "/api/v1/analyses/" + id + "/figures/" + kind)
		require.NoError(t, err, kind)
		var fig struct {
			Data   []map[string]any `json:"data"`
			Layout map[string]any   `json:"layout"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&fig), kind)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, kind)
		assert.NotEmpty(t, fig.Data, kind)
	}

	resp, err := http.Get(ts.URL + "/api/v1/analyses/" + id + "/figures/bogus")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBadRequests(t *testing.T) {
	_, ts := newTestServer(t, &stubEstimator{})

	// Unknown upload handle.
	resp, err := http.Post(ts.URL+"/api/v1/analyses", "application/json",
		strings.NewReader(`{"upload":"nope/missing.mp4"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Traversal attempt.
	resp, err = http.Post(ts.URL+"/api/v1/analyses", "application/json",
		strings.NewReader(`{"upload":"../../etc/passwd"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Missing record.
	resp, err = http.Get(ts.URL + "/api/v1/analyses/does-not-exist")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteAnalysis(t *testing.T) {
	_, ts := newTestServer(t, &stubEstimator{seq: walkSequence(300, 50, 1.0)})

	upload := uploadVideo(t, ts)
	id := startAnalysis(t, ts, upload)
	waitForStatus(t, ts, id, store.StatusDone)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/analyses/"+id, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/v1/analyses/" + id)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
