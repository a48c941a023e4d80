package httpapp

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/assetscan/assetscan/internal/asset"
	"github.com/assetscan/assetscan/internal/findings"
	"github.com/assetscan/assetscan/internal/http/handlers"
	"github.com/assetscan/assetscan/internal/rules"
)

// EchoServer is the HTTP server wrapper.
type EchoServer struct {
	h *handlers.Handlers
	e *echo.Echo
}

// NewEchoServer creates a new HTTP server.
func NewEchoServer(res asset.Store, rl rules.Store, agg findings.Aggregator, scanner handlers.ScanRunner) (*EchoServer, error) {
	h := &handlers.Handlers{Resources: res, Rules: rl, Findings: agg, Scanner: scanner}
	es := &EchoServer{h: h, e: echo.New()}
	es.e.HideBanner = true
	es.e.Use(middleware.Recover())
	es.registerRoutes()
	return es, nil
}

func (es *EchoServer) registerRoutes() {
	es.e.GET("/healthz", es.h.HandleHealthz)

	api := es.e.Group("/api")
	api.POST("/resources/upload", es.h.HandleResourcesUpload)
	api.POST("/resources/list", es.h.HandleResourcesList)
	api.POST("/resources/delete", es.h.HandleResourcesDelete)
	api.POST("/rules/upload", es.h.HandleRulesUpload)
	api.GET("/rules", es.h.HandleRulesList)
	api.POST("/rules/delete", es.h.HandleRulesDelete)
	api.POST("/scan/run", es.h.HandleScanRun)
	api.GET("/findings", es.h.HandleFindingsList)
	api.GET("/findings/severity-status", es.h.HandleFindingsSeverityStatus)
	api.GET("/findings/by-resource-type", es.h.HandleFindingsByResourceType)
	api.GET("/findings/by-region", es.h.HandleFindingsByRegion)
}

// Start starts the HTTP server.
func (es *EchoServer) Start(addr string) error {
	return es.e.Start(addr)
}

// StartServer starts the HTTP server with a custom http.Server.
func (es *EchoServer) StartServer(server *http.Server) error {
	return es.e.StartServer(server)
}

// Shutdown gracefully shuts down the HTTP server.
func (es *EchoServer) Shutdown(ctx context.Context) error {
	return es.e.Shutdown(ctx)
}
