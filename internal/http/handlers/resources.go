package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/assetscan/assetscan/internal/asset"
)

type uploadResourcesRequest struct {
	Resources []asset.Resource `json:"resources"`
}

type listResourcesRequest struct {
	Filter     asset.Filter `json:"filter"`
	PageNumber int          `json:"page_number"`
	PageSize   int          `json:"page_size"`
	SortBy     string       `json:"sort_by"`
	SortOrder  string       `json:"sort_order"`
	Search     string       `json:"search_str"`
}

type deleteRequest struct {
	Filter map[string]any `json:"filter"`
}

// HandleResourcesUpload bulk-upserts resource documents.
func (h *Handlers) HandleResourcesUpload(c echo.Context) error {
	var req uploadResourcesRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	if len(req.Resources) == 0 {
		return jsonError(c, http.StatusBadRequest, "resources is required")
	}

	n, err := h.Resources.UpsertResources(c.Request().Context(), req.Resources)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, countResponse{Count: n})
}

// HandleResourcesList returns one page of resources matching the filter.
func (h *Handlers) HandleResourcesList(c echo.Context) error {
	var req listResourcesRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}

	page, err := h.Resources.ListResources(c.Request().Context(), asset.ListQuery{
		Filter:     req.Filter,
		PageNumber: req.PageNumber,
		PageSize:   req.PageSize,
		SortBy:     req.SortBy,
		SortOrder:  req.SortOrder,
		Search:     req.Search,
	})
	if err != nil {
		return err
	}
	if page.Data == nil {
		page.Data = []asset.Resource{}
	}
	return c.JSON(http.StatusOK, page)
}

// HandleResourcesDelete removes every resource matching the filter.
func (h *Handlers) HandleResourcesDelete(c echo.Context) error {
	var req deleteRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}

	n, err := h.Resources.DeleteResources(c.Request().Context(), asset.Filter(req.Filter))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, countResponse{Count: n})
}
