package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/assetscan/assetscan/internal/rules"
)

type uploadRulesRequest struct {
	Rules []rules.Rule `json:"rules"`
}

type listRulesResponse struct {
	Data  []rules.Rule `json:"data"`
	Total int64        `json:"total"`
}

// HandleRulesUpload validates and bulk-upserts rules. A batch with any
// invalid rule is rejected whole, so the evaluator only ever sees rules that
// passed validation.
func (h *Handlers) HandleRulesUpload(c echo.Context) error {
	var req uploadRulesRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	if len(req.Rules) == 0 {
		return jsonError(c, http.StatusBadRequest, "rules is required")
	}
	if errs := rules.ValidateAll(req.Rules); len(errs) > 0 {
		return jsonError(c, http.StatusBadRequest, errors.Join(errs...).Error())
	}

	n, err := h.Rules.UpsertRules(c.Request().Context(), req.Rules)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, countResponse{Count: n})
}

// HandleRulesList returns all stored rules.
func (h *Handlers) HandleRulesList(c echo.Context) error {
	list, err := h.Rules.ListRules(c.Request().Context())
	if err != nil {
		return err
	}
	if list == nil {
		list = []rules.Rule{}
	}
	return c.JSON(http.StatusOK, listRulesResponse{Data: list, Total: int64(len(list))})
}

// HandleRulesDelete removes every rule matching the filter.
func (h *Handlers) HandleRulesDelete(c echo.Context) error {
	var req deleteRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}

	n, err := h.Rules.DeleteRules(c.Request().Context(), rules.Filter(req.Filter))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, countResponse{Count: n})
}
