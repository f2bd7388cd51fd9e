// Package server exposes the chat backend over HTTP with echo. Every error
// response shares one JSON envelope: {success:false, message, error}.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	htmlrender "github.com/sonnes/lekhak/render/html"
	"github.com/sonnes/lekhak/service"
)

// ShutdownTimeout bounds how long in-flight requests get on shutdown.
const ShutdownTimeout = 10 * time.Second

// Server serves the chat API and the transcript views.
type Server struct {
	Service *service.Service
	HTML    *htmlrender.Renderer
	Logger  *log.Logger

	echo *echo.Echo
}

// New creates a Server with all routes registered.
func New(svc *service.Service, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	html := htmlrender.New()
	html.SessionHref = func(id string) string { return "/session/" + id }
	html.PDFHref = func(id string) string { return "/session/" + id + "/pdf" }

	s := &Server{Service: svc, HTML: html, Logger: logger}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				fields = append(fields, "err", v.Error)
			}
			logger.Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/", s.hello)
	e.GET("/test/testConnection", s.testConnection)

	e.POST("/chat/getResponse", s.getResponse)
	e.GET("/chat/ws", s.chatSocket)

	e.POST("/dealer/appendDealerInfo", s.appendDealerInfo)

	e.POST("/session/uploadSession", s.uploadSession)
	e.POST("/session/clear", s.clearSession)
	e.DELETE("/session/uploads", s.deleteUploads)
	e.GET("/session/:id", s.sessionPage)
	e.GET("/session/:id/pdf", s.sessionPDF)
	e.GET("/session/:id/history", s.sessionHistory)

	e.GET("/sessions", s.sessions)
	e.GET("/sessions/index", s.sessionIndex)

	s.echo = e
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() {
		s.Logger.Info("listening", "addr", addr)
		errc <- s.echo.Start(addr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	s.Logger.Info("shutting down")
	return s.echo.Shutdown(shutdownCtx)
}
