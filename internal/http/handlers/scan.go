package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/assetscan/assetscan/internal/scan"
)

// HandleScanRun triggers a full scan and blocks until it completes. A trigger
// that arrives while a scan is running is rejected with 409, never queued.
func (h *Handlers) HandleScanRun(c echo.Context) error {
	result, err := h.Scanner.Run(c.Request().Context())
	if err != nil {
		if errors.Is(err, scan.ErrScanInProgress) {
			return jsonError(c, http.StatusConflict, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, result)
}
