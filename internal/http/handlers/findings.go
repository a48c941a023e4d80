package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/assetscan/assetscan/internal/findings"
)

type listFindingsResponse struct {
	Data  []findings.Finding `json:"data"`
	Total int64              `json:"total"`
}

type typeCountsResponse struct {
	Data []findings.TypeCount `json:"data"`
}

type regionCountsResponse struct {
	Data []findings.RegionCount `json:"data"`
}

// HandleFindingsList returns the current scan generation's findings.
func (h *Handlers) HandleFindingsList(c echo.Context) error {
	list, err := h.Findings.ListFindings(c.Request().Context())
	if err != nil {
		return err
	}
	if list == nil {
		list = []findings.Finding{}
	}
	return c.JSON(http.StatusOK, listFindingsResponse{Data: list, Total: int64(len(list))})
}

// HandleFindingsSeverityStatus returns finding counts keyed by severity,
// zero-filled for severities with no findings.
func (h *Handlers) HandleFindingsSeverityStatus(c echo.Context) error {
	counts, err := h.Findings.SeverityStatus(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, counts)
}

// HandleFindingsByResourceType returns finding counts grouped by resource
// type, largest buckets first.
func (h *Handlers) HandleFindingsByResourceType(c echo.Context) error {
	counts, err := h.Findings.IssuesByResourceType(c.Request().Context())
	if err != nil {
		return err
	}
	if counts == nil {
		counts = []findings.TypeCount{}
	}
	return c.JSON(http.StatusOK, typeCountsResponse{Data: counts})
}

// HandleFindingsByRegion returns finding counts grouped by region, with
// region-less findings reported under "unknown".
func (h *Handlers) HandleFindingsByRegion(c echo.Context) error {
	counts, err := h.Findings.IssuesByRegion(c.Request().Context())
	if err != nil {
		return err
	}
	if counts == nil {
		counts = []findings.RegionCount{}
	}
	return c.JSON(http.StatusOK, regionCountsResponse{Data: counts})
}
