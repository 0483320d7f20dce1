package main

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	slogecho "github.com/samber/slog-echo"
)

// RunAdminAPI serves the operational endpoints: live stats and the
// known-bad-actor hooks. Process-lifetime state only, no persistence.
func (s *Server) RunAdminAPI(ctx context.Context, listen string) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(slogecho.New(s.logger.With("system", "admin-api")))

	e.GET("/admin/stats", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"gateway": s.gateway.GetStats(),
			"reflex":  s.reflex.GetStats(),
		})
	})

	e.POST("/admin/bad-actors/:id", func(c echo.Context) error {
		id := c.Param("id")
		s.reflex.AddKnownBadActor(id)
		s.logger.Info("added known bad actor", "id", id)
		return c.NoContent(http.StatusNoContent)
	})

	e.DELETE("/admin/bad-actors/:id", func(c echo.Context) error {
		id := c.Param("id")
		s.reflex.RemoveKnownBadActor(id)
		s.logger.Info("removed known bad actor", "id", id)
		return c.NoContent(http.StatusNoContent)
	})

	go func() {
		<-ctx.Done()
		_ = e.Shutdown(context.Background())
	}()

	if err := e.Start(listen); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
