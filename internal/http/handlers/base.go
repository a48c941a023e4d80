// Package handlers contains the JSON API handler logic split by domain.
package handlers

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/assetscan/assetscan/internal/asset"
	"github.com/assetscan/assetscan/internal/findings"
	"github.com/assetscan/assetscan/internal/rules"
	"github.com/assetscan/assetscan/internal/scan"
)

// ScanRunner is the interface for triggering scans over the API.
type ScanRunner interface {
	Run(ctx context.Context) (scan.Result, error)
}

// Handlers groups all HTTP handlers and shared dependencies.
type Handlers struct {
	Resources asset.Store
	Rules     rules.Store
	Findings  findings.Aggregator
	Scanner   ScanRunner
}

type errorResponse struct {
	Error string `json:"error"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

func jsonError(c echo.Context, status int, msg string) error {
	return c.JSON(status, errorResponse{Error: msg})
}
