package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spaghettifunk/gardenia/engine"
	"github.com/spaghettifunk/gardenia/engine/core"
)

const API_PREFIX string = "/api"

/**
 * @brief HTTP front of the engine: scene building, export, the photoreal
 * session, artifacts and metrics.
 */
type Server struct {
	echo   *echo.Echo
	engine *engine.Engine
	addr   string
}

func New(eng *engine.Engine) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	SetLevel(e, eng.Config().Log.Level)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		he := fromError(err)
		e.DefaultHTTPErrorHandler(he, c)
		if he.Code >= http.StatusInternalServerError {
			core.LogError("%s %s: %s", c.Request().Method, c.Request().URL, err)
		} else {
			core.LogWarn("%s %s: %s", c.Request().Method, c.Request().URL, err)
		}
	}
	e.Use(middleware.Recover())
	e.Use(LogHandlerFunc)

	s := &Server{echo: e, engine: eng, addr: eng.Config().Server.Addr}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.echo.Group(API_PREFIX)

	api.GET("/scene", s.getScene)
	api.POST("/scene", s.buildScene)
	api.DELETE("/scene", s.resetScene)
	api.GET("/scene/fixtures", s.listFixtures)
	api.POST("/scene/fixtures/:name", s.buildFixture)

	api.POST("/export", s.export)

	api.GET("/photoreal", s.getSession)
	api.POST("/photoreal/start", s.startFirstPass)
	api.POST("/photoreal/regenerate", s.regenerate)
	api.POST("/photoreal/approve", s.approve)
	api.POST("/photoreal/discard", s.discard)
	api.POST("/photoreal/seasonal", s.seasonal)

	api.GET("/artifacts/*", s.getArtifact)

	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(core.MetricsRegistry(), promhttp.HandlerOpts{})))
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start blocks serving on server.addr until Shutdown.
func (s *Server) Start() error {
	core.LogInfo("listening on %s", s.addr)
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		core.LogError("%s", err)
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
