package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/spaghettifunk/gardenia/engine"
	"github.com/spaghettifunk/gardenia/engine/core"
	"github.com/spaghettifunk/gardenia/engine/photoreal"
	"github.com/spaghettifunk/gardenia/engine/storage"
)

// ErrorMessage is the body of every error response.
type ErrorMessage struct {
	Reason string `json:"reason"`
	Advice string `json:"advice,omitempty"`
	Cause  error  `json:"-"`
}

func (e ErrorMessage) Error() string {
	lines := []string{e.Reason}
	if e.Advice != "" {
		lines = append(lines, e.Advice)
	}
	if e.Cause != nil {
		lines = append(lines, fmt.Sprint(" caused by: ", e.Cause.Error()))
	}
	return strings.Join(lines, "\n")
}

func (e ErrorMessage) Unwrap() error {
	return e.Cause
}

// MarshalJSON keeps echo from flattening the message into {"message": ...}.
func (e ErrorMessage) MarshalJSON() ([]byte, error) {
	type body struct {
		Reason string `json:"reason"`
		Advice string `json:"advice,omitempty"`
	}
	return json.Marshal(body{Reason: e.Reason, Advice: e.Advice})
}

func NewErrorMessage(code int, reason, advice string, cause error) *echo.HTTPError {
	msg := ErrorMessage{Reason: reason, Advice: advice, Cause: cause}
	return echo.NewHTTPError(code, msg).SetInternal(msg)
}

func BadRequest(advice string, err error) *echo.HTTPError {
	return NewErrorMessage(http.StatusBadRequest, "bad request", advice, err)
}

func NotFound(reason string) *echo.HTTPError {
	return NewErrorMessage(http.StatusNotFound, reason, "", nil)
}

/**
 * @brief Maps engine errors onto status codes. Anything not recognised is
 * a 500.
 */
func fromError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	var se *photoreal.StageError
	switch {
	case errors.As(err, &se):
		return NewErrorMessage(http.StatusBadGateway, se.Error(), "the enhancer failed, try again later", err)
	case errors.Is(err, core.ErrInvalidTransition):
		return NewErrorMessage(http.StatusConflict, err.Error(), "check the session state with GET /api/photoreal", err)
	case errors.Is(err, core.ErrSessionNotComplete):
		return NewErrorMessage(http.StatusConflict, err.Error(), "approve the first pass and wait for the second pass", err)
	case errors.Is(err, core.ErrNoScene):
		return NewErrorMessage(http.StatusConflict, err.Error(), "build a scene with POST /api/scene first", err)
	case errors.Is(err, core.ErrNoSurface):
		return NewErrorMessage(http.StatusConflict, err.Error(), "give the scene a non-zero width and height", err)
	case errors.Is(err, core.ErrReadbackDisabled):
		return NewErrorMessage(http.StatusConflict, err.Error(), "enable renderer.preserve_drawing_buffer", err)
	case errors.Is(err, core.ErrNoPlants):
		return NewErrorMessage(http.StatusUnprocessableEntity, err.Error(), "place at least one catalog plant", err)
	case errors.Is(err, storage.ErrNotFound):
		return NewErrorMessage(http.StatusNotFound, "artifact not found", "", err)
	case errors.Is(err, engine.ErrNotRunning):
		return NewErrorMessage(http.StatusServiceUnavailable, "service unavailable", "the engine is starting or shutting down", err)
	}
	return NewErrorMessage(http.StatusInternalServerError, "unexpected error", "", err)
}
