package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/medgraph/loader/internal/ingestion"
)

type fakeStatus struct {
	status ingestion.RunStatus
}

func (f *fakeStatus) Status() ingestion.RunStatus { return f.status }

type fakeVerifier struct {
	err error
}

func (f *fakeVerifier) Verify(context.Context) error { return f.err }

func TestStatusHandler(t *testing.T) {
	src := &fakeStatus{status: ingestion.RunStatus{
		RunID: "run-1",
		State: ingestion.StateRunning,
		Files: []ingestion.FileJob{
			{Kind: "papers", File: "C01_Papers.tsv", Status: ingestion.FileRunning},
		},
	}}
	h := NewStatusHandler(src)

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got ingestion.RunStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "run-1", got.RunID)
	require.Len(t, got.Files, 1)
	require.Equal(t, ingestion.FileRunning, got.Files[0].Status)
}

func TestHealthz(t *testing.T) {
	h := NewHealthHandler(nil)
	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz(t *testing.T) {
	h := NewHealthHandler(&fakeVerifier{})
	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	h = NewHealthHandler(&fakeVerifier{err: errors.New("unreachable")})
	rec = httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
