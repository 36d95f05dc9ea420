package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/assetze/ghaudit/internal/adapter/transport"
	"github.com/assetze/ghaudit/internal/domain"
	"github.com/assetze/ghaudit/internal/usecase/workflow"
)

// WorkflowRunner is the inbound port the HTTP layer exposes.
type WorkflowRunner interface {
	Run(ctx context.Context, token string) (domain.WorkflowState, error)
}

// Server serves the token verification workflow over HTTP.
type Server struct {
	engine *gin.Engine
	runner WorkflowRunner
	logger transport.Logger
}

// NewServer constructs the HTTP server and registers its routes.
func NewServer(runner WorkflowRunner, logger transport.Logger) *Server {
	if logger == nil {
		logger = transport.NopLogger{}
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine: engine,
		runner: runner,
		logger: logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.health)

	v1 := s.engine.Group("/api/v1")
	v1.POST("/verify-token", s.verifyToken)
}

// Handler exposes the underlying http.Handler (for tests).
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.LogInfo(ctx, "http server listening", map[string]interface{}{"addr": addr})

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type verifyTokenRequest struct {
	Token string `json:"token"`
}

type verifyTokenResponse struct {
	TokenValid             bool     `json:"token_valid"`
	Scopes                 []string `json:"scopes"`
	Analysis               string   `json:"analysis"`
	RemediationSuggestions string   `json:"remediation_suggestions"`
	StatusCodeFromGitHub   int      `json:"status_code_from_github"`
}

func (s *Server) verifyToken(c *gin.Context) {
	var req verifyTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token not provided"})
		return
	}

	state, err := s.runner.Run(c.Request.Context(), strings.TrimSpace(req.Token))
	if err != nil {
		if errors.Is(err, workflow.ErrEmptyToken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Token not provided"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result := state.VerificationResult
	if result == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification produced no result"})
		return
	}

	scopes := result.Scopes
	if scopes == nil {
		scopes = []string{}
	}

	c.JSON(http.StatusOK, verifyTokenResponse{
		TokenValid:             result.Valid,
		Scopes:                 scopes,
		Analysis:               state.AnalysisMessage,
		RemediationSuggestions: state.RemediationSuggestions,
		StatusCodeFromGitHub:   result.StatusCode,
	})
}
