package server

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/gorbf/numeric"
)

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	var resp Response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestEvaluate(t *testing.T) {
	s := New(numeric.Native, 0, nil)
	rec, resp := do(t, s, http.MethodPost, "/evaluate",
		`{"expr": "R", "points": [[-1], [0], [1]], "centers": [[0]], "shape": [2]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []interface{}{
		[]interface{}{2.0}, []interface{}{0.0}, []interface{}{2.0},
	}, resp.Result)
}

func TestEvaluate_BasisAndTolerance(t *testing.T) {
	s := New(numeric.Portable, 0, nil)
	body := `{"expr": "sin(EPS*R)/(EPS*R)", "tolerance": 0.001, "points": [[0, 0]], "centers": [[0, 0]]}`
	rec, resp := do(t, s, http.MethodPost, "/evaluate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.InDelta(t, 1.0, resp.Result.([]interface{})[0].([]interface{})[0].(float64), 1e-12)

	rec, resp = do(t, s, http.MethodPost, "/evaluate", `{"basis": "exp", "points": [[1]], "centers": [[0]], "diff": [1]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.InDelta(t, -math.Exp(-1), resp.Result.([]interface{})[0].([]interface{})[0].(float64), 1e-12)
}

func TestEvaluate_ReusesEngines(t *testing.T) {
	s := New(numeric.Native, 0, nil)
	body := `{"basis": "ga", "points": [[0, 1]], "centers": [[1, 1]], "diff": [1, 0]}`
	for i := 0; i < 3; i++ {
		rec, _ := do(t, s, http.MethodPost, "/evaluate", body)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.Len(t, s.engines, 1)
	e := s.lru.Front().Value.(*cachedEngine).engine
	assert.Equal(t, 1, e.CacheStats().Compilations)
	assert.Equal(t, 2, e.CacheStats().Hits)
}

func TestEvaluate_EvictsLeastRecentlyUsed(t *testing.T) {
	s := New(numeric.Native, 0, nil, WithLimits(Limits{MaxEngines: 2}))
	for _, expr := range []string{"R", "R^3", "R", "R^5"} {
		body := `{"expr": "` + expr + `", "points": [[1]], "centers": [[0]]}`
		rec, _ := do(t, s, http.MethodPost, "/evaluate", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	require.Len(t, s.engines, 2)
	assert.Equal(t, 2, s.lru.Len())
	var kept []string
	for el := s.lru.Front(); el != nil; el = el.Next() {
		kept = append(kept, el.Value.(*cachedEngine).engine.Source().String())
	}
	assert.Equal(t, []string{"R^5", "R"}, kept)
}

func TestLimits(t *testing.T) {
	s := New(numeric.Native, 0, nil, WithLimits(Limits{MaxDim: 2, MaxOrder: 3}))
	tests := []struct {
		name string
		path string
		body string
	}{
		{"order", "/evaluate", `{"expr": "R", "points": [[1]], "centers": [[0]], "diff": [4]}`},
		{"dimensions", "/evaluate", `{"expr": "R", "points": [[1, 2, 3]], "centers": [[0, 0, 0]]}`},
		{"signature length", "/derive", `{"expr": "R", "diff": [0, 0, 0]}`},
		{"derive order", "/derive", `{"expr": "R", "diff": [2, 2]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, resp := do(t, s, http.MethodPost, tc.path, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Contains(t, resp.Error, "exceeds limits")
		})
	}
	assert.Empty(t, s.engines)

	rec, _ := do(t, s, http.MethodPost, "/derive", `{"expr": "R", "diff": [2, 1]}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestEvaluate_Errors(t *testing.T) {
	s := New(numeric.Native, 0, nil)
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"unknown field", `{"basis": "ga", "points": [[0]], "centers": [[0]], "bogus": 1}`, http.StatusBadRequest},
		{"trailing data", `{"basis": "ga", "points": [[0]], "centers": [[0]]} {}`, http.StatusBadRequest},
		{"no source", `{"points": [[0]], "centers": [[0]]}`, http.StatusBadRequest},
		{"unknown basis", `{"basis": "nope", "points": [[0]], "centers": [[0]]}`, http.StatusBadRequest},
		{"syntax", `{"expr": "R +", "points": [[0]], "centers": [[0]]}`, http.StatusBadRequest},
		{"ragged", `{"basis": "ga", "points": [[0, 1], [0]], "centers": [[0, 0]]}`, http.StatusBadRequest},
		{"dimensions", `{"basis": "ga", "points": [[0, 1]], "centers": [[0]]}`, http.StatusBadRequest},
		{"signature", `{"basis": "ga", "points": [[0]], "centers": [[0]], "diff": [1, 1]}`, http.StatusBadRequest},
		{"backend", `{"basis": "ga", "backend": "fortran", "points": [[0]], "centers": [[0]]}`, http.StatusBadRequest},
		{"limit", `{"expr": "exp(1/R)", "tolerance": 0.1, "points": [[1]], "centers": [[0]]}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, resp := do(t, s, http.MethodPost, "/evaluate", tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, resp.Error)
		})
	}

	rec, _ := do(t, s, http.MethodGet, "/evaluate", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	big := bytes.Repeat([]byte(" "), maxBodyBytes+1)
	req := httptest.NewRequest(http.MethodPost, "/evaluate", bytes.NewReader(big))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDerive(t *testing.T) {
	s := New(numeric.Native, 0, nil)
	rec, resp := do(t, s, http.MethodPost, "/derive", `{"expr": "R^2", "diff": [2]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "2*EPS^2", resp.String)
	assert.NotEmpty(t, resp.LaTeX)
	assert.IsType(t, map[string]interface{}{}, resp.Result)

	rec, resp = do(t, s, http.MethodPost, "/derive", `{"tree": {"type": "sym", "name": "R"}, "diff": [0, -1]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp.Error, "derivative order")
}

func TestCatalogAndHealth(t *testing.T) {
	s := New(numeric.Native, 0, nil)
	rec, resp := do(t, s, http.MethodGet, "/catalog", "")
	require.Equal(t, http.StatusOK, rec.Code)
	entries, ok := resp.Result.([]interface{})
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(entries), 13)

	rec, _ = do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRecoverFromPanic(t *testing.T) {
	s := New(numeric.Native, 0, nil)
	h := s.recovered(func(http.ResponseWriter, *http.Request) { panic("boom") })
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/evaluate", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestListenAndServe_Shutdown(t *testing.T) {
	s := New(numeric.Native, 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
