package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HandleHealthz reports process liveness.
func (h *Handlers) HandleHealthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
