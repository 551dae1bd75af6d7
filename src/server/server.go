package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"mt5-bridge/src/gateway"
	"mt5-bridge/src/interfaces"
	"mt5-bridge/src/logger"
	"mt5-bridge/src/metrics"
	"mt5-bridge/src/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// -----------------------------------------------------------------------------
// BridgeServer
//
// Owns the listener, the session registry and the REST status surface. One
// websocket connection is one session; business logic lives in the gateway.
// -----------------------------------------------------------------------------

type BridgeServer struct {
	Config  *models.MConfig
	Logger  *logger.Logger
	Gateway *gateway.ProxyGateway
	Metrics *metrics.MetricsState
	Journal interfaces.IJournal // nil when storage is disabled

	engine *gin.Engine
	srv    *http.Server

	// Session registry (hub pattern)
	sessions   map[*Session]struct{}
	register   chan *Session
	unregister chan *Session
	draining   chan struct{} // one drain request per shutdown
	drained    chan struct{} // closed once the registry empties while draining
	done       chan struct{}
	hubStopped chan struct{}
	stopOnce   sync.Once
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewBridgeServer(cfg *models.MConfig, log *logger.Logger, gw *gateway.ProxyGateway, ms *metrics.MetricsState, journal interfaces.IJournal) *BridgeServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &BridgeServer{
		Config:     cfg,
		Logger:     log,
		Gateway:    gw,
		Metrics:    ms,
		Journal:    journal,
		engine:     gin.New(),
		sessions:   make(map[*Session]struct{}),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		draining:   make(chan struct{}),
		drained:    make(chan struct{}),
		done:       make(chan struct{}),
		hubStopped: make(chan struct{}),
	}
	s.engine.Use(gin.Recovery())

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *BridgeServer) setupRoutes() {
	// REST status endpoints (read-only)
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/metrics", s.getMetrics)
	s.engine.GET("/api/config", s.getConfig)
	s.engine.GET("/api/requests", s.getRecentRequests)

	// Prometheus exposition
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// RPC endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *BridgeServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting bridge server on %s", addr)

	go s.runHub()

	s.srv = &http.Server{
		Addr:    addr,
		Handler: s.engine,
	}

	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// -----------------------------------------------------------------------------

// Stop closes the listener, asks every session to finish up, and waits up to
// grace for the registry to drain. In-flight requests complete and their
// responses are flushed ahead of the close frame; only stragglers still
// connected when the grace deadline passes are force-closed.
func (s *BridgeServer) Stop(grace time.Duration) error {
	deadline := time.Now().Add(grace)
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	var err error
	if s.srv != nil {
		err = s.srv.Shutdown(ctx)
	}

	select {
	case s.draining <- struct{}{}:
	case <-s.hubStopped:
	}

	select {
	case <-s.drained:
	case <-time.After(time.Until(deadline)):
		s.Logger.Warning("sessions did not drain within %s, forcing close", grace)
	case <-s.hubStopped:
	}

	s.stopOnce.Do(func() { close(s.done) })

	select {
	case <-s.hubStopped:
	case <-time.After(grace):
		s.Logger.Warning("session registry did not stop within %s", grace)
	}
	return err
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *BridgeServer) getHealth(c *gin.Context) {
	snap := s.Metrics.Snapshot()

	c.JSON(200, gin.H{
		"status":             "ok",
		"active_sessions":    snap.ActiveSessions,
		"platform_connected": s.Gateway.Connected(),
	})
}

// -----------------------------------------------------------------------------

func (s *BridgeServer) getMetrics(c *gin.Context) {
	c.JSON(200, s.Metrics.Snapshot())
}

// -----------------------------------------------------------------------------

// getRecentRequests serves the journal tail, newest first.
func (s *BridgeServer) getRecentRequests(c *gin.Context) {
	if s.Journal == nil {
		c.JSON(200, []models.MJournalEntry{})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 1000 {
		limit = 50
	}

	entries, err := s.Journal.Recent(limit)
	if err != nil {
		s.Logger.Warning("journal read failed: %v", err)
		c.JSON(500, gin.H{"error": "journal unavailable"})
		return
	}
	if entries == nil {
		entries = []models.MJournalEntry{}
	}
	c.JSON(200, entries)
}

// -----------------------------------------------------------------------------

func (s *BridgeServer) getConfig(c *gin.Context) {
	// Non-secret subset only
	c.JSON(200, gin.H{
		"name":                 s.Config.Name,
		"host":                 s.Config.Host,
		"port":                 s.Config.Port,
		"idle_timeout_seconds": s.Config.IdleTimeoutSeconds,
		"ring_capacity":        s.Config.RingCapacity,
		"platform": gin.H{
			"login":     s.Config.Platform.Login,
			"server":    s.Config.Platform.Server,
			"simulated": s.Config.Platform.Simulated,
		},
	})
}
