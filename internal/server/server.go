// Package server exposes the workflow over a local HTTP API. Each screen
// of the original desktop tool maps to state-in/view-out endpoints: a
// handler queries fresh state and renders it; nothing holds references to
// live view objects between requests.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/ksugimori/docscan/internal/common"
	"github.com/ksugimori/docscan/internal/export"
	"github.com/ksugimori/docscan/internal/extract"
	"github.com/ksugimori/docscan/internal/extract/gemini"
	"github.com/ksugimori/docscan/internal/filestore"
	"github.com/ksugimori/docscan/internal/repository"
	"github.com/ksugimori/docscan/internal/scan"
)

// sessionExtractor lets the session credential be set or replaced without
// rebuilding the scan service. The key lives in memory only.
type sessionExtractor struct {
	mu    sync.RWMutex
	inner extract.FieldExtractor
}

func (s *sessionExtractor) Extract(ctx context.Context, req extract.Request) (extract.Fields, error) {
	s.mu.RLock()
	inner := s.inner
	s.mu.RUnlock()
	if inner == nil {
		return extract.Fields{}, common.ErrMissingCredential
	}
	return inner.Extract(ctx, req)
}

func (s *sessionExtractor) Configured() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inner != nil && s.inner.Configured()
}

func (s *sessionExtractor) set(inner extract.FieldExtractor) {
	s.mu.Lock()
	s.inner = inner
	s.mu.Unlock()
}

// Server wires repositories and services behind the HTTP API.
type Server struct {
	cfg        *common.Config
	conditions repository.ConditionRepository
	lists      repository.DocumentListRepository
	documents  repository.DocumentRepository
	results    repository.ExtractionResultRepository
	files      *filestore.Store
	exporter   *export.Service
	scanner    *scan.Service
	session    *sessionExtractor
	logger     *slog.Logger
}

func New(
	cfg *common.Config,
	conditions repository.ConditionRepository,
	lists repository.DocumentListRepository,
	documents repository.DocumentRepository,
	results repository.ExtractionResultRepository,
	files *filestore.Store,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	session := &sessionExtractor{}
	if cfg.Extractor.APIKey != "" {
		session.set(gemini.NewClient(gemini.Config{
			APIKey:   cfg.Extractor.APIKey,
			BaseURL:  cfg.Extractor.BaseURL,
			Model:    cfg.Extractor.Model,
			Timeout:  cfg.Extractor.Timeout,
			JSONMode: cfg.Extractor.JSONMode,
		}, logger))
	}
	return &Server{
		cfg:        cfg,
		conditions: conditions,
		lists:      lists,
		documents:  documents,
		results:    results,
		files:      files,
		exporter:   export.NewService(documents, logger),
		scanner:    scan.NewService(documents, conditions, results, files, session, logger),
		session:    session,
		logger:     logger,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	api := r.Group("/api")
	{
		api.GET("/conditions", s.listConditions)
		api.POST("/conditions", s.createCondition)
		api.PUT("/conditions/:id", s.updateCondition)
		api.DELETE("/conditions/:id", s.deleteCondition)

		api.GET("/lists", s.listLists)
		api.POST("/lists", s.createList)
		api.PUT("/lists/:id", s.renameList)
		api.DELETE("/lists/:id", s.deleteList)

		api.GET("/lists/:id/documents", s.listDocuments)
		api.POST("/lists/:id/documents", s.uploadDocuments)
		api.GET("/lists/:id/export", s.exportList)

		api.GET("/documents/:id/results", s.documentResults)
		api.POST("/documents/:id/scan", s.scanDocument)
		api.DELETE("/documents", s.deleteDocuments)

		api.PUT("/session/credential", s.setCredential)
	}
	return r
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Server.Addr, Handler: s.Router()}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server.listen", "addr", s.cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("server.shutdown")
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Info("server.request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}

type credentialRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

// setCredential stores the extraction credential for this session only;
// it is never written to disk.
func (s *Server) setCredential(c *gin.Context) {
	var req credentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.ValidationErrorf("api_key is required"))
		return
	}
	s.session.set(gemini.NewClient(gemini.Config{
		APIKey:   req.APIKey,
		BaseURL:  s.cfg.Extractor.BaseURL,
		Model:    s.cfg.Extractor.Model,
		Timeout:  s.cfg.Extractor.Timeout,
		JSONMode: s.cfg.Extractor.JSONMode,
	}, s.logger))
	c.JSON(http.StatusOK, gin.H{"configured": true})
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		respondError(c, common.ValidationErrorf("invalid id %q", c.Param("id")))
		return 0, false
	}
	return uint(id), true
}
