package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/spaghettifunk/gardenia/engine"
	"github.com/spaghettifunk/gardenia/engine/garden"
	"github.com/spaghettifunk/gardenia/engine/photoreal"
	"github.com/spaghettifunk/gardenia/engine/resources"
)

type viewportRequest struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

type seasonalRequest struct {
	StartDay int    `json:"startDay"`
	EndDay   int    `json:"endDay"`
	Style    string `json:"style,omitempty"`
}

type seasonalResponse struct {
	SessionID string                 `json:"sessionId"`
	Images    []garden.SeasonalImage `json:"images"`
}

type fixtureInfo struct {
	Name   string `json:"name"`
	Plants int    `json:"plants"`
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(c echo.Context, v interface{}) error {
	req := c.Request()
	if req.ContentLength == 0 && req.Header.Get(echo.HeaderContentType) == "" {
		return nil
	}
	if mt, _, err := mime.ParseMediaType(req.Header.Get(echo.HeaderContentType)); err != nil || mt != echo.MIMEApplicationJSON {
		return BadRequest("unexpected content type. it should be application/json", err)
	}
	if err := json.NewDecoder(req.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return BadRequest("can not understand the requested json", err)
	}
	return nil
}

func (s *Server) getScene(c echo.Context) error {
	return c.JSON(http.StatusOK, s.engine.SceneStats())
}

func (s *Server) buildScene(c echo.Context) error {
	req := engine.SceneRequest{}
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	if req.Width == 0 || req.Height == 0 {
		cfg := s.engine.Config().Renderer
		req.Width, req.Height = cfg.Width, cfg.Height
	}
	stats, err := s.engine.BuildScene(req)
	if errors.Is(err, engine.ErrNotRunning) {
		return err
	} else if err != nil {
		return BadRequest("check the garden description", err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) resetScene(c echo.Context) error {
	if err := s.engine.ResetScene(); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.engine.SceneStats())
}

func (s *Server) listFixtures(c echo.Context) error {
	out := []fixtureInfo{}
	for _, res := range s.engine.Assets().List(resources.ResourceTypeGarden) {
		if f, ok := res.Data.(*resources.GardenFixture); ok {
			out = append(out, fixtureInfo{Name: res.Name, Plants: len(f.Plants)})
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) buildFixture(c echo.Context) error {
	vp := viewportRequest{}
	if err := decodeJSON(c, &vp); err != nil {
		return err
	}
	if vp.Width == 0 || vp.Height == 0 {
		cfg := s.engine.Config().Renderer
		vp.Width, vp.Height = cfg.Width, cfg.Height
	}
	name := c.Param("name")
	if _, ok := s.engine.Assets().Find(resources.ResourceTypeGarden, name); !ok {
		return NotFound("no garden fixture named " + strconv.Quote(name))
	}
	stats, err := s.engine.BuildFixture(name, vp.Width, vp.Height)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) export(c echo.Context) error {
	vp := viewportRequest{}
	if err := decodeJSON(c, &vp); err != nil {
		return err
	}
	res, err := s.engine.Export(c.Request().Context(), vp.Width, vp.Height)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

func (s *Server) getSession(c echo.Context) error {
	snap, ok := s.engine.Photoreal().Snapshot()
	if !ok {
		return NotFound("no photorealization session, export an image first")
	}
	return c.JSON(http.StatusOK, snap)
}

// accepted answers 202 with the session; the remote pass continues on the
// job system and the client polls GET /api/photoreal.
func accepted(c echo.Context, snap photoreal.Snapshot, err error) error {
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, snap)
}

func (s *Server) startFirstPass(c echo.Context) error {
	snap, err := s.engine.Photoreal().Start()
	return accepted(c, snap, err)
}

func (s *Server) regenerate(c echo.Context) error {
	snap, err := s.engine.Photoreal().Regenerate()
	return accepted(c, snap, err)
}

func (s *Server) approve(c echo.Context) error {
	snap, err := s.engine.Photoreal().Approve()
	return accepted(c, snap, err)
}

func (s *Server) discard(c echo.Context) error {
	snap, err := s.engine.Photoreal().Discard()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snap)
}

func (s *Server) seasonal(c echo.Context) error {
	req := seasonalRequest{}
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	for _, d := range []int{req.StartDay, req.EndDay} {
		if d < 1 || d > garden.DAYS_IN_YEAR {
			return BadRequest("startDay and endDay are days of the year, 1-365", nil)
		}
	}
	snap, _ := s.engine.Photoreal().Snapshot()
	images, err := s.engine.Seasonal(c.Request().Context(), req.StartDay, req.EndDay, req.Style)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, seasonalResponse{SessionID: snap.ID, Images: images})
}

func (s *Server) getArtifact(c echo.Context) error {
	key := c.Param("*")
	info, rc, err := s.engine.Store().Get(c.Request().Context(), key)
	if err != nil {
		return err
	}
	defer rc.Close()
	h := c.Response().Header()
	if info.ETag != "" {
		h.Set("ETag", strconv.Quote(info.ETag))
	}
	h.Set(echo.HeaderContentLength, strconv.FormatInt(info.Size, 10))
	h.Set("Cache-Control", "public, max-age=31536000, immutable")
	contentType := info.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	return c.Stream(http.StatusOK, contentType, rc)
}
