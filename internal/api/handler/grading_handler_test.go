package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pavan-Hosatti/Farm2Market/internal/api/dto"
	"github.com/Pavan-Hosatti/Farm2Market/internal/api/handler"
	"github.com/Pavan-Hosatti/Farm2Market/internal/api/router"
	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/classifier"
	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/domain"
	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/notify"
	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/runner"
	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/sampler"
	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/store"
)

type fakeReader struct {
	remaining int
}

func (r *fakeReader) Next() (image.Image, error) {
	if r.remaining == 0 {
		return nil, io.EOF
	}
	r.remaining--
	return image.NewRGBA(image.Rect(0, 0, 2, 2)), nil
}

func (r *fakeReader) Close() error { return nil }

type fakeDecoder struct{ frames int }

func (d *fakeDecoder) Open(context.Context, string) (sampler.FrameReader, error) {
	return &fakeReader{remaining: d.frames}, nil
}

type classifyFunc func(ctx context.Context, frame image.Image) ([]float64, error)

func (f classifyFunc) Classify(ctx context.Context, frame image.Image) ([]float64, error) {
	return f(ctx, frame)
}

type signalNotifier struct {
	mu sync.Mutex
	ch chan notify.Outcome
}

func (n *signalNotifier) Notify(_ context.Context, outcome notify.Outcome) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ch <- outcome
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type apiEnv struct {
	router   *gin.Engine
	store    *store.MemoryStore
	notifier *signalNotifier
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := classifier.NewRegistry()
	registry.Register("tomato", classifyFunc(
		func(context.Context, image.Image) ([]float64, error) {
			return []float64{0.9, 0.05, 0.05}, nil
		},
	))

	jobStore := store.NewMemoryStore()
	notifier := &signalNotifier{ch: make(chan notify.Outcome, 16)}

	jobRunner := runner.New(&runner.Config{
		Logger:   discardLogger(),
		Store:    jobStore,
		Sampler:  sampler.New(&fakeDecoder{frames: 3}, discardLogger()),
		Registry: registry,
		Notifier: notifier,
		Sampling: sampler.Params{Stride: 1, MaxFrames: 30},
	})

	deps := &handler.Dependencies{
		Logger:   discardLogger(),
		Store:    jobStore,
		Registry: registry,
		Runner:   jobRunner,
		TempDir:  t.TempDir(),
	}

	return &apiEnv{
		router:   router.SetupRouter(deps, 0),
		store:    jobStore,
		notifier: notifier,
	}
}

func multipartVideo(t *testing.T, cropType string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	if payload != nil {
		fw, err := w.CreateFormFile("video", "clip.mp4")
		require.NoError(t, err)
		_, err = fw.Write(payload)
		require.NoError(t, err)
	}
	if cropType != "" {
		require.NoError(t, w.WriteField("crop_type", cropType))
	}
	require.NoError(t, w.Close())

	return body, w.FormDataContentType()
}

func (env *apiEnv) waitOutcome(t *testing.T) notify.Outcome {
	t.Helper()
	select {
	case outcome := <-env.notifier.ch:
		return outcome
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for job outcome")
		return notify.Outcome{}
	}
}

func TestSubmitJobValidation(t *testing.T) {
	tests := []struct {
		name     string
		cropType string
		payload  []byte
		wantMsg  string
	}{
		{
			name:     "missing video file",
			cropType: "tomato",
			payload:  nil,
			wantMsg:  "No video file uploaded",
		},
		{
			name:     "empty video file",
			cropType: "tomato",
			payload:  []byte{},
			wantMsg:  "empty",
		},
		{
			name:    "missing crop type",
			payload: []byte("video-bytes"),
			wantMsg: "crop_type is required",
		},
		{
			name:     "unknown crop type",
			cropType: "durian",
			payload:  []byte("video-bytes"),
			wantMsg:  "Model not available for crop",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newAPIEnv(t)

			body, contentType := multipartVideo(t, tt.cropType, tt.payload)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/grading/jobs", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			env.router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantMsg)

			// Validation failures never create a job
			stats, err := env.store.Stats(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 0, stats.TotalJobs)
		})
	}
}

func TestSubmitAndPollJob(t *testing.T) {
	env := newAPIEnv(t)

	body, contentType := multipartVideo(t, "tomato", []byte("video-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/grading/jobs", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var submitted dto.SubmitJobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitted))
	require.NotEmpty(t, submitted.JobID)

	// Wait for background processing to finish
	outcome := env.waitOutcome(t)
	assert.Equal(t, domain.JobStatusCompleted, outcome.Status)

	// Repeated polls return the identical terminal payload
	var previous []byte
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/grading/jobs/"+submitted.JobID, nil)
		env.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var status dto.JobStatusResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		assert.Equal(t, submitted.JobID, status.JobID)
		assert.Equal(t, domain.JobStatusCompleted, status.Status)
		assert.Equal(t, "tomato", status.CropType)
		require.NotNil(t, status.Result)
		assert.Equal(t, "A", status.Result.Grade)
		assert.Equal(t, 3, status.Result.FramesAnalyzed)
		assert.Empty(t, status.Error)

		if previous != nil {
			assert.JSONEq(t, string(previous), rec.Body.String())
		}
		previous = rec.Body.Bytes()
	}
}

func TestGetJobNotFound(t *testing.T) {
	env := newAPIEnv(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/grading/jobs/00000000-0000-0000-0000-000000000000", nil)
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	env := newAPIEnv(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var health dto.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, []string{"tomato"}, health.ModelsLoaded)
	assert.Equal(t, 1, health.TotalModels)
	assert.Equal(t, 0, health.ActiveJobs)
	assert.Equal(t, 0, health.TotalJobs)
}

func TestListJobs(t *testing.T) {
	env := newAPIEnv(t)

	body, contentType := multipartVideo(t, "tomato", []byte("video-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/grading/jobs", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	env.waitOutcome(t)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/grading/jobs", nil)
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var list dto.ListJobsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.TotalJobs)
	require.Len(t, list.Jobs, 1)
	assert.Equal(t, domain.JobStatusCompleted, list.Jobs[0].Status)
	assert.Equal(t, "tomato", list.Jobs[0].CropType)
}
