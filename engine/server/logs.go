package server

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/spaghettifunk/gardenia/engine/core"
)

// LogHandlerFunc logs every request and its outcome.
func LogHandlerFunc(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		meth := c.Request().Method
		path := c.Request().URL
		begin := time.Now()
		core.LogDebug("< request %s %s", meth, path)

		err := next(c)

		core.LogInfo("> response %s %s status = %d in %v / error = %v", meth, path, c.Response().Status, time.Since(begin), err)
		return err
	}
}

// SetLevel aligns echo's own logger with the configured level.
func SetLevel(e *echo.Echo, loglevel string) {
	switch strings.ToLower(loglevel) {
	case "debug":
		e.Logger.SetLevel(log.DEBUG)
	case "info":
		e.Logger.SetLevel(log.INFO)
	case "error", "fatal":
		e.Logger.SetLevel(log.ERROR)
	case "off":
		e.Logger.SetLevel(log.OFF)
	default:
		e.Logger.SetLevel(log.WARN)
	}
}
