package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	_ "github.com/ZanzyTHEbar/hacs-api/docs"
	"github.com/ZanzyTHEbar/hacs-api/internal/analysis"
	"github.com/ZanzyTHEbar/hacs-api/internal/config"
	"github.com/ZanzyTHEbar/hacs-api/internal/document"
	apperrors "github.com/ZanzyTHEbar/hacs-api/internal/errors"
	"github.com/ZanzyTHEbar/hacs-api/internal/monitoring"
	"github.com/ZanzyTHEbar/hacs-api/internal/security"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Version is reported by /health
const Version = "1.0.0"

const (
	uploadField  = "file"
	predictRoute = "/predict"
)

// WelcomeResponse is the body of GET /
type WelcomeResponse struct {
	Message string `json:"message"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status     string `json:"status"`
	ModelReady bool   `json:"model_ready"`
	Features   int    `json:"features"`
	Timestamp  string `json:"timestamp"`
	Version    string `json:"version"`
}

// server bundles the handler dependencies
type server struct {
	cfg      *config.Config
	analyzer *analysis.Analyzer
	metrics  *monitoring.Metrics
	logger   *monitoring.Logger
	security *security.SecurityMiddleware
}

func newServer(cfg *config.Config, analyzer *analysis.Analyzer, metrics *monitoring.Metrics, logger *monitoring.Logger) *server {
	sm := security.NewSecurityMiddleware(security.SecurityConfig{
		MaxRequestsPerMin: cfg.Server.RateLimitPerMin,
		MaxUploadBytes:    cfg.Server.MaxUploadBytes,
		RequestTimeout:    cfg.Server.RequestTimeout,
	})
	sm.OnRateLimited = func(ip string) {
		metrics.IncrementRateLimitIPBlock()
	}

	return &server{
		cfg:      cfg,
		analyzer: analyzer,
		metrics:  metrics,
		logger:   logger,
		security: sm,
	}
}

func corsConfig(origins []string) cors.Config {
	cc := cors.DefaultConfig()
	cc.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	cc.AllowHeaders = []string{"Origin", "Content-Type", "Accept", security.RequestIDHeader}
	cc.ExposeHeaders = []string{security.RequestIDHeader}

	for _, o := range origins {
		if o == "*" {
			cc.AllowAllOrigins = true
			return cc
		}
	}
	cc.AllowOrigins = origins
	cc.AllowCredentials = true
	return cc
}

// setupRouter builds the gin engine with middleware and routes
func (s *server) setupRouter() *gin.Engine {
	r := gin.New()

	r.Use(security.RequestID())
	// half the request timeout counts as slow
	r.Use(monitoring.MonitoringMiddleware(s.metrics, s.logger, predictRoute, s.cfg.Server.RequestTimeout/2))
	r.Use(apperrors.ErrorHandler())
	r.Use(apperrors.RecoveryHandler())
	r.Use(cors.New(corsConfig(s.cfg.Server.AllowedOrigins)))

	r.Use(s.security.SecurityHeaders)
	r.Use(s.security.RequestTimeout)
	r.Use(s.security.ValidateContentType)
	r.Use(s.security.RateLimitByIP)

	r.GET("/", s.handleWelcome)
	r.GET("/health", s.handleHealth)
	r.GET("/metrics", s.handleMetrics)
	r.POST(predictRoute, s.security.LimitBody, s.handlePredict)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// handleWelcome godoc
// @Summary Welcome banner
// @Produce json
// @Success 200 {object} WelcomeResponse
// @Router / [get]
func (s *server) handleWelcome(c *gin.Context) {
	c.JSON(http.StatusOK, WelcomeResponse{Message: "Welcome to the Hazardous Asteroid Detection System API!"})
}

// handleHealth godoc
// @Summary Service and model readiness
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (s *server) handleHealth(c *gin.Context) {
	status := "ok"
	if !s.analyzer.Ready() {
		status = "degraded"
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:     status,
		ModelReady: s.analyzer.Ready(),
		Features:   s.analyzer.FeatureCount(),
		Timestamp:  time.Now().Format(time.RFC3339),
		Version:    Version,
	})
}

// handleMetrics godoc
// @Summary Request and prediction counters
// @Produce json
// @Router /metrics [get]
func (s *server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.metrics.GetStats())
}

// handlePredict godoc
// @Summary Classify an asteroid document
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "YAML document (.yaml or .yml)"
// @Success 200 {object} analysis.PredictionResponse
// @Failure 400 {object} apperrors.AppError
// @Failure 500 {object} apperrors.AppError
// @Router /predict [post]
func (s *server) handlePredict(c *gin.Context) {
	start := time.Now()

	filename, data, err := s.readUpload(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	pred, err := s.analyzer.AnalyzeDocument(c.Request.Context(), data)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, pred.Response())
	// a render failure is attached to the context and answered by ErrorHandler
	if len(c.Errors) > 0 {
		s.metrics.RecordPredictionFailure(string(apperrors.CategoryInternal))
		return
	}

	s.metrics.RecordPrediction(pred.Result.Label)
	s.logger.PredictionLogger(
		filename,
		pred.Result.Label,
		pred.Result.HazardProbability,
		pred.Explanation.Confidence.ConfidenceLevel,
		time.Since(start),
	)
}

// readUpload returns the uploaded file name and contents
func (s *server) readUpload(c *gin.Context) (string, []byte, error) {
	header, err := c.FormFile(uploadField)
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return "", nil, apperrors.NewInvalidUploadError(
				fmt.Sprintf("File exceeds the maximum upload size of %d bytes", maxErr.Limit))
		case errors.Is(err, http.ErrMissingFile):
			return "", nil, apperrors.NewInvalidUploadError("No file uploaded: multipart field 'file' is required")
		default:
			return "", nil, apperrors.NewInvalidUploadError("Request must be multipart/form-data with a 'file' field")
		}
	}

	if !document.HasYAMLExtension(header.Filename) {
		return "", nil, apperrors.NewInvalidUploadError("Only YAML files are accepted")
	}

	file, err := header.Open()
	if err != nil {
		return "", nil, apperrors.NewInternalError("failed to open uploaded file", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, apperrors.NewInternalError("failed to read uploaded file", err)
	}
	return header.Filename, data, nil
}

// fail counts the failure and writes the error response
func (s *server) fail(c *gin.Context, err error) {
	appErr := apperrors.ToAppError(err)
	s.metrics.RecordPredictionFailure(string(appErr.Category))
	apperrors.Respond(c, appErr)
}
