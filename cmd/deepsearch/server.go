// Package main provides the DeepSearchStack server implementation.
package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Trafexofive/DeepSearchStack/api/handlers"
	"github.com/Trafexofive/DeepSearchStack/config"
	"github.com/Trafexofive/DeepSearchStack/internal/metrics"
	"github.com/Trafexofive/DeepSearchStack/internal/server"
	"github.com/Trafexofive/DeepSearchStack/internal/telemetry"
	"github.com/Trafexofive/DeepSearchStack/llmgateway"
	"github.com/Trafexofive/DeepSearchStack/pipeline"
	"github.com/Trafexofive/DeepSearchStack/search"
	"github.com/Trafexofive/DeepSearchStack/session"
)

// Server is the DeepSearchStack boundary process: it wires the pipeline
// components together, mounts the HTTP surface over them, and manages the
// HTTP/metrics server pair and graceful shutdown.
type Server struct {
	cfg        *config.Config
	configPath string
	logger     *zap.Logger
	telemetry  *telemetry.Providers

	httpManager    *server.Manager
	metricsManager *server.Manager

	sessionStore session.Store

	healthHandler     *handlers.HealthHandler
	deepSearchHandler *handlers.DeepSearchHandler
	sessionHandler    *handlers.SessionHandler
	providersHandler  *handlers.ProvidersHandler
	completionHandler *handlers.CompletionHandler

	metricsCollector *metrics.Collector

	hotReloadManager *config.HotReloadManager
	configAPIHandler *config.ConfigAPIHandler

	wg sync.WaitGroup
}

// NewServer creates a new server instance.
func NewServer(cfg *config.Config, configPath string, logger *zap.Logger, otelProviders *telemetry.Providers) *Server {
	return &Server{
		cfg:        cfg,
		configPath: configPath,
		logger:     logger,
		telemetry:  otelProviders,
	}
}

// Start initializes every pipeline component and boundary handler and
// launches the HTTP + metrics servers.
func (s *Server) Start() error {
	s.metricsCollector = metrics.NewCollector("deepsearch", s.logger)

	if err := s.initPipeline(); err != nil {
		return fmt.Errorf("failed to init pipeline: %w", err)
	}

	if err := s.initHotReloadManager(); err != nil {
		return fmt.Errorf("failed to init hot reload manager: %w", err)
	}

	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.Bool("hot_reload_enabled", s.configPath != ""),
	)

	return nil
}

// initPipeline builds the search fan-out, scraper, chunker/vector store,
// retriever, LLM router/synthesizer and orchestrator, plus the session
// store, then wraps them in their boundary handlers.
func (s *Server) initPipeline() error {
	ctx := context.Background()

	searchRegistry := search.NewRegistryFromConfig(s.cfg.Search, s.logger)
	recorder := metrics.NewRecorder(256, 0)
	fanout := search.NewFanout(searchRegistry, s.metricsCollector, recorder, s.logger)
	ranker := search.NewRanker(nil)

	crawler := pipeline.NewHTTPCrawler(s.cfg.Services.Crawler, s.logger)
	scraper := pipeline.NewScraper(crawler, s.cfg.Scraping, s.logger)

	var vectorStore pipeline.VectorStore
	if s.cfg.Services.VectorStore != "" {
		vectorStore = pipeline.NewHTTPVectorStore(s.cfg.Services.VectorStore, s.logger)
	} else {
		vectorStore = pipeline.NewLocalVectorStore(s.logger)
	}
	chunker := pipeline.NewChunker(vectorStore, s.cfg.RAG, "", s.logger)
	retriever := pipeline.NewRetriever(vectorStore, s.cfg.RAG, s.logger)

	llmRegistry, err := llmgateway.NewRegistryFromConfig(ctx, s.cfg.LLM, s.logger)
	if err != nil {
		return fmt.Errorf("build llm registry: %w", err)
	}
	router := llmgateway.NewRouter(llmRegistry, recorder, s.logger)
	synthesizer := pipeline.NewSynthesizer(router, s.cfg.Synthesis, s.logger)

	orchestrator := pipeline.NewOrchestrator(fanout, ranker, scraper, chunker, retriever, synthesizer,
		s.cfg.Scraping, s.cfg.RAG, s.cfg.Synthesis, s.logger)

	sessionStore, err := session.NewStore(ctx, *s.cfg, s.logger)
	if err != nil {
		return fmt.Errorf("build session store: %w", err)
	}
	s.sessionStore = sessionStore

	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.deepSearchHandler = handlers.NewDeepSearchHandler(orchestrator, sessionStore, s.logger)
	s.sessionHandler = handlers.NewSessionHandler(sessionStore, s.logger)
	s.providersHandler = handlers.NewProvidersHandler(searchRegistry, llmRegistry, s.logger)
	s.completionHandler = handlers.NewCompletionHandler(router, s.logger)

	s.logger.Info("Pipeline initialized")
	return nil
}

func (s *Server) initHotReloadManager() error {
	opts := []config.HotReloadOption{
		config.WithHotReloadLogger(s.logger),
	}
	if s.configPath != "" {
		opts = append(opts, config.WithConfigPath(s.configPath))
	}

	s.hotReloadManager = config.NewHotReloadManager(s.cfg, opts...)

	s.hotReloadManager.OnChange(func(change config.ConfigChange) {
		s.logger.Info("Configuration changed",
			zap.String("path", change.Path),
			zap.String("source", change.Source),
			zap.Bool("requires_restart", change.RequiresRestart),
		)
	})

	s.hotReloadManager.OnReload(func(oldConfig, newConfig *config.Config) {
		s.logger.Info("Configuration reloaded")
		s.cfg = newConfig
	})

	ctx := context.Background()
	if err := s.hotReloadManager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start hot reload manager: %w", err)
	}

	s.configAPIHandler = config.NewConfigAPIHandler(s.hotReloadManager)
	return nil
}

func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.healthHandler.HandleHealth)
	mux.HandleFunc("/healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("/ready", s.healthHandler.HandleReady)
	mux.HandleFunc("/readyz", s.healthHandler.HandleReady)
	mux.HandleFunc("/version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	mux.HandleFunc("/deepsearch", s.deepSearchHandler.HandleStream)
	mux.HandleFunc("/deepsearch/quick", s.deepSearchHandler.HandleQuick)
	mux.HandleFunc("/completion", s.completionHandler.HandleCompletion)
	mux.HandleFunc("/providers", s.providersHandler.HandleList)

	mux.HandleFunc("/sessions", s.handleSessionsCollection)
	mux.HandleFunc("/sessions/", s.handleSessionsItem)

	if s.configAPIHandler != nil {
		s.configAPIHandler.RegisterRoutes(mux)
		s.logger.Info("Configuration API registered")
	}

	skipAuthPaths := []string{"/health", "/healthz", "/ready", "/readyz", "/version", "/metrics"}
	handler := Chain(mux,
		Recovery(s.logger),
		RequestLogger(s.logger),
		CORS(s.cfg.Server.CORSAllowedOrigins),
		RateLimiter(context.Background(), float64(s.cfg.Server.RateLimitRPS), s.cfg.Server.RateLimitBurst, s.logger),
		APIKeyAuth(s.cfg.Server.APIKeys, skipAuthPaths, s.cfg.Server.AllowQueryAPIKey, s.logger),
	)

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     120 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)
	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

// handleSessionsCollection dispatches /sessions by method: net/http's mux
// doesn't split by verb on its own.
func (s *Server) handleSessionsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.sessionHandler.HandleCreate(w, r)
	case http.MethodGet:
		s.sessionHandler.HandleList(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleSessionsItem dispatches /sessions/{id} by method.
func (s *Server) handleSessionsItem(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.sessionHandler.HandleGet(w, r)
	case http.MethodDelete:
		s.sessionHandler.HandleDelete(w, r)
	default:
		w.Header().Set("Allow", "GET, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)
	if err := s.metricsManager.Start(); err != nil {
		return err
	}

	s.logger.Info("Metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// WaitForShutdown blocks until a shutdown signal arrives, then cleans up.
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}
	s.Shutdown()
}

// Shutdown gracefully tears down every managed resource.
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	ctx := context.Background()

	if s.hotReloadManager != nil {
		if err := s.hotReloadManager.Stop(); err != nil {
			s.logger.Error("Hot reload manager shutdown error", zap.Error(err))
		}
	}

	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}

	if s.sessionStore != nil {
		if err := s.sessionStore.Close(); err != nil {
			s.logger.Error("Session store shutdown error", zap.Error(err))
		}
	}

	if s.telemetry != nil {
		if err := s.telemetry.Shutdown(ctx); err != nil {
			s.logger.Error("Telemetry shutdown error", zap.Error(err))
		}
	}

	s.wg.Wait()

	s.logger.Info("Graceful shutdown completed")
}
