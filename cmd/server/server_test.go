package main

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ZanzyTHEbar/hacs-api/internal/analysis"
	"github.com/ZanzyTHEbar/hacs-api/internal/config"
	"github.com/ZanzyTHEbar/hacs-api/internal/model"
	"github.com/ZanzyTHEbar/hacs-api/internal/model/modeltest"
	"github.com/ZanzyTHEbar/hacs-api/internal/monitoring"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router  *gin.Engine
	metrics *monitoring.Metrics
}

func setupTestServer(t *testing.T, modelDir string, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Model.Dir = modelDir
	for _, m := range mutate {
		m(cfg)
	}
	require.NoError(t, cfg.Validate())

	metrics := monitoring.NewMetrics()
	logger := monitoring.NewLoggerWithWriter(io.Discard, "error", "json")
	analyzer := analysis.NewAnalyzer(model.NewStore(cfg.Model.Dir), cfg.Explain.TopN)

	s := newServer(cfg, analyzer, metrics, logger)
	return &testServer{router: s.setupRouter(), metrics: metrics}
}

func uploadRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest("POST", "/predict", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestWelcomeEndpoint(t *testing.T) {
	ts := setupTestServer(t, modeltest.WriteDir(t))

	req, _ := http.NewRequest("GET", "/", nil)
	w := ts.do(req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Welcome to the Hazardous Asteroid Detection System API!"}`, w.Body.String())
}

func TestHealthEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		modelDir   func(t *testing.T) string
		status     string
		modelReady bool
		features   float64
	}{
		{
			name:       "model loaded",
			modelDir:   func(t *testing.T) string { return modeltest.WriteDir(t) },
			status:     "ok",
			modelReady: true,
			features:   float64(len(modeltest.FeatureNames())),
		},
		{
			name:       "model missing",
			modelDir:   func(t *testing.T) string { return t.TempDir() },
			status:     "degraded",
			modelReady: false,
			features:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupTestServer(t, tt.modelDir(t))

			req, _ := http.NewRequest("GET", "/health", nil)
			w := ts.do(req)

			assert.Equal(t, http.StatusOK, w.Code)
			body := decode(t, w)
			assert.Equal(t, tt.status, body["status"])
			assert.Equal(t, tt.modelReady, body["model_ready"])
			assert.Equal(t, tt.features, body["features"])
			assert.Equal(t, Version, body["version"])
			assert.NotEmpty(t, body["timestamp"])
		})
	}
}

func TestHealthEndpoint_MethodNotAllowed(t *testing.T) {
	ts := setupTestServer(t, modeltest.WriteDir(t))

	for _, method := range []string{"POST", "PUT", "DELETE"} {
		req, _ := http.NewRequest(method, "/health", nil)
		assert.Equal(t, http.StatusNotFound, ts.do(req).Code, method)
	}
}

func TestPredictEndpoint_Hazardous(t *testing.T) {
	ts := setupTestServer(t, modeltest.WriteDir(t))

	w := ts.do(uploadRequest(t, "file", "eros.yaml", []byte(modeltest.HazardousDocument)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "HAZARDOUS", body["classification"])
	assert.Equal(t, true, body["is_hazardous"])

	confidence := body["confidence"].(map[string]interface{})
	hazard := confidence["hazard_probability"].(float64)
	nonHazard := confidence["non_hazard_probability"].(float64)
	assert.InDelta(t, 1.0, hazard+nonHazard, 1e-9)
	assert.Equal(t, "92.41%", confidence["hazard_probability_percent"])

	interp := body["interpretability"].(map[string]interface{})
	assert.Equal(t, "VERY HIGH", interp["confidence_level"])
	features := interp["top_5_influential_features"].([]interface{})
	assert.Len(t, features, 5)
	for _, f := range features {
		entry := f.(map[string]interface{})
		assert.NotEmpty(t, entry["explanation"], "feature %v", entry["feature"])
	}
	assert.True(t, strings.HasPrefix(interp["summary"].(string), "Classification: HAZARDOUS (92.4% confidence)"))

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, int64(1), atomic.LoadInt64(&ts.metrics.HazardousCount))
}

func TestPredictEndpoint_NonHazardous(t *testing.T) {
	ts := setupTestServer(t, modeltest.WriteDir(t))

	w := ts.do(uploadRequest(t, "file", "distant.yml", []byte(modeltest.SafeDocument)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "NON-HAZARDOUS", body["classification"])
	assert.Equal(t, false, body["is_hazardous"])
	assert.Equal(t, int64(1), atomic.LoadInt64(&ts.metrics.NonHazardousCount))
}

func TestPredictEndpoint_InvalidRequests(t *testing.T) {
	tests := []struct {
		name     string
		request  func(t *testing.T) *http.Request
		status   int
		category string
		detail   string
	}{
		{
			name: "non-yaml extension",
			request: func(t *testing.T) *http.Request {
				return uploadRequest(t, "file", "asteroid.json", []byte(`{"Name": 1}`))
			},
			status:   http.StatusBadRequest,
			category: "invalid_upload",
			detail:   "Only YAML files are accepted",
		},
		{
			name: "missing file field",
			request: func(t *testing.T) *http.Request {
				return uploadRequest(t, "document", "asteroid.yaml", []byte(modeltest.HazardousDocument))
			},
			status:   http.StatusBadRequest,
			category: "invalid_upload",
			detail:   "multipart field 'file' is required",
		},
		{
			name: "not multipart",
			request: func(t *testing.T) *http.Request {
				req, _ := http.NewRequest("POST", "/predict", strings.NewReader(`{}`))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
			status:   http.StatusBadRequest,
			category: "invalid_upload",
		},
		{
			name: "malformed yaml",
			request: func(t *testing.T) *http.Request {
				return uploadRequest(t, "file", "broken.yaml", []byte("Name: [unclosed\n"))
			},
			status:   http.StatusBadRequest,
			category: "invalid_document",
			detail:   "Invalid YAML format",
		},
		{
			name: "invalid date",
			request: func(t *testing.T) *http.Request {
				doc := strings.Replace(modeltest.HazardousDocument, `"2017-04-06"`, `"someday"`, 1)
				return uploadRequest(t, "file", "date.yaml", []byte(doc))
			},
			status:   http.StatusBadRequest,
			category: "invalid_date",
			detail:   "Epoch Osculation",
		},
		{
			name: "missing feature",
			request: func(t *testing.T) *http.Request {
				doc := strings.Replace(modeltest.HazardousDocument, "Aphelion Dist: 2.005\n", "", 1)
				return uploadRequest(t, "file", "partial.yaml", []byte(doc))
			},
			status:   http.StatusBadRequest,
			category: "missing_feature",
			detail:   "Aphelion Dist",
		},
	}

	ts := setupTestServer(t, modeltest.WriteDir(t))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(tt.request(t))
			assert.Equal(t, tt.status, w.Code)

			body := decode(t, w)
			assert.Equal(t, tt.category, body["category"])
			if tt.detail != "" {
				assert.Contains(t, body["detail"], tt.detail)
			}
			assert.NotContains(t, w.Body.String(), "stack")
		})
	}
}

func TestPredictEndpoint_NonFiniteValues(t *testing.T) {
	tests := []struct {
		name   string
		from   string
		to     string
		detail string
	}{
		{
			name:   "velocity overflows engineered feature",
			from:   "Relative Velocity km per sec: 25.0",
			to:     "Relative Velocity km per sec: 1e308",
			detail: `feature "velocity_km_per_day" is not a finite number`,
		},
		{
			name:   "infinite velocity",
			from:   "Relative Velocity km per sec: 25.0",
			to:     "Relative Velocity km per sec: .inf",
			detail: `field "Relative Velocity km per sec": value must be a finite number`,
		},
		{
			name:   "infinite mean motion",
			from:   "Mean Motion: 0.59",
			to:     "Mean Motion: .inf",
			detail: `field "Mean Motion": value must be a finite number`,
		},
		{
			name:   "miss distance overflows scaling",
			from:   "Miss Dist.(Astronomical): 0.05",
			to:     "Miss Dist.(Astronomical): 1.7e308",
			detail: `feature "Miss Dist.(Astronomical)" is out of range for the model`,
		},
	}

	ts := setupTestServer(t, modeltest.WriteDir(t))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := strings.Replace(modeltest.HazardousDocument, tt.from, tt.to, 1)
			require.NotEqual(t, modeltest.HazardousDocument, doc)

			w := ts.do(uploadRequest(t, "file", "eros.yaml", []byte(doc)))
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			body := decode(t, w)
			assert.Equal(t, "invalid_document", body["category"])
			assert.Contains(t, body["detail"], tt.detail)
		})
	}

	assert.Equal(t, int64(0), atomic.LoadInt64(&ts.metrics.PredictionCount))
	assert.Equal(t, map[string]int64{"invalid_document": int64(len(tests))}, ts.metrics.GetPredictionFailures())
}

func TestPredictEndpoint_OversizedUpload(t *testing.T) {
	ts := setupTestServer(t, modeltest.WriteDir(t), func(cfg *config.Config) {
		cfg.Server.MaxUploadBytes = 512
	})

	big := modeltest.HazardousDocument + "# " + strings.Repeat("x", 2048) + "\n"
	w := ts.do(uploadRequest(t, "file", "big.yaml", []byte(big)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_upload", decode(t, w)["category"])
}

func TestPredictEndpoint_ModelUnavailable(t *testing.T) {
	ts := setupTestServer(t, t.TempDir())

	for i := 0; i < 2; i++ {
		w := ts.do(uploadRequest(t, "file", "eros.yaml", []byte(modeltest.HazardousDocument)))
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		body := decode(t, w)
		assert.Equal(t, "model_unavailable", body["category"])
		assert.NotContains(t, body["detail"], "no such file")
	}

	failures := ts.metrics.GetPredictionFailures()
	assert.Equal(t, int64(2), failures["model_unavailable"])
}

func TestPredictEndpoint_MethodNotAllowed(t *testing.T) {
	ts := setupTestServer(t, modeltest.WriteDir(t))

	req, _ := http.NewRequest("GET", "/predict", nil)
	assert.Equal(t, http.StatusNotFound, ts.do(req).Code)
}

func TestServer_SecurityAndCORSHeaders(t *testing.T) {
	ts := setupTestServer(t, modeltest.WriteDir(t))

	req, _ := http.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("X-Request-ID", "trace-42")
	w := ts.do(req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "trace-42", w.Header().Get("X-Request-ID"))
}

func TestServer_RateLimit(t *testing.T) {
	ts := setupTestServer(t, modeltest.WriteDir(t), func(cfg *config.Config) {
		cfg.Server.RateLimitPerMin = 2 // burst floor of 5
	})

	codes := make([]int, 0, 6)
	for i := 0; i < 6; i++ {
		req, _ := http.NewRequest("GET", "/", nil)
		req.RemoteAddr = "10.1.1.1:4000"
		codes = append(codes, ts.do(req).Code)
	}

	assert.Equal(t, []int{200, 200, 200, 200, 200, 429}, codes)
	assert.Equal(t, int64(1), atomic.LoadInt64(&ts.metrics.RateLimitIPBlocks))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t, modeltest.WriteDir(t))

	ts.do(uploadRequest(t, "file", "eros.yaml", []byte(modeltest.HazardousDocument)))
	ts.do(uploadRequest(t, "file", "eros.txt", []byte(modeltest.HazardousDocument)))

	req, _ := http.NewRequest("GET", "/metrics", nil)
	w := ts.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	predictions := body["predictions"].(map[string]interface{})
	assert.Equal(t, float64(1), predictions["total"])
	assert.Equal(t, float64(1), predictions["hazardous"])
}

func TestServer_ConcurrentPredictions(t *testing.T) {
	ts := setupTestServer(t, modeltest.WriteDir(t), func(cfg *config.Config) {
		cfg.Server.RateLimitPerMin = 10000
	})

	docs := []string{modeltest.HazardousDocument, modeltest.SafeDocument}
	expected := []string{"HAZARDOUS", "NON-HAZARDOUS"}

	requests := make([]*http.Request, 20)
	for i := range requests {
		requests[i] = uploadRequest(t, "file", "doc.yaml", []byte(docs[i%2]))
	}

	var wg sync.WaitGroup
	results := make([]string, len(requests))
	for i := range requests {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := httptest.NewRecorder()
			ts.router.ServeHTTP(w, requests[i])
			var body map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err == nil {
				results[i], _ = body["classification"].(string)
			}
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		assert.Equal(t, expected[i%2], got, "request %d", i)
	}
	assert.Equal(t, int64(20), atomic.LoadInt64(&ts.metrics.PredictionCount))
}
