// Package server exposes the chat pipeline over HTTP: the chat
// endpoint the Android client talks to, a health probe, and the
// Prometheus metrics endpoint.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Team1-AD-project/EcoGoProject-sub000/chat"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/audit"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/booking"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/bus"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/llm"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/metrics"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/proxy"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/rag"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/session"
	"github.com/Team1-AD-project/EcoGoProject-sub000/internal/profile"
	"github.com/Team1-AD-project/EcoGoProject-sub000/store"
)

type Server struct {
	echoServer *echo.Echo

	Profile *profile.Profile
	Store   *store.Store

	orchestrator *chat.Orchestrator
	metrics      *metrics.Exporter
}

// NewServer wires the chat pipeline and registers the HTTP routes.
func NewServer(_ context.Context, instanceProfile *profile.Profile, storeInstance *store.Store) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	exporter := metrics.NewExporter(metrics.DefaultConfig())

	var busProvider bus.Provider
	if instanceProfile.BusMock {
		busProvider = bus.NewMockProvider()
	} else {
		busProvider = bus.NewNextBusProvider(instanceProfile)
	}

	orchestrator := chat.NewOrchestrator(
		storeInstance,
		session.NewManager(storeInstance),
		rag.NewEngine(instanceProfile.CorpusPath),
		llm.NewClient(instanceProfile),
		proxy.NewClient(instanceProfile),
		busProvider,
		booking.NewExecutor(storeInstance, nil),
		audit.NewSink(storeInstance),
		exporter,
	)

	s := &Server{
		echoServer:   e,
		Profile:      instanceProfile,
		Store:        storeInstance,
		orchestrator: orchestrator,
		metrics:      exporter,
	}

	e.GET("/healthz", s.healthzHandler)
	e.GET("/metrics", echo.WrapHandler(exporter.Handler()))
	e.POST("/api/chat", s.chatHandler)

	return s, nil
}

// Start begins serving in the background. Listen failures after
// startup are logged, not returned.
func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped unexpectedly", "error", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
	slog.Info("server shut down")
}

type chatRequest struct {
	ConversationID string `json:"conversationId"`
	User           struct {
		UserID string `json:"userId"`
		Role   string `json:"role"`
	} `json:"user"`
	Message struct {
		Text string `json:"text"`
	} `json:"message"`
}

func (s *Server) chatHandler(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	userID := req.User.UserID
	if userID == "" {
		userID = "guest"
	}
	isAdmin := req.User.Role == "admin"

	resp := s.orchestrator.HandleChat(c.Request().Context(), userID, isAdmin, req.ConversationID, req.Message.Text)
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) healthzHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.Profile.Version,
	})
}
