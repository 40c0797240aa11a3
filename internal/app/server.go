package app

import (
	"github.com/kbukum/deepresearch/bootstrap"
	"github.com/kbukum/deepresearch/internal/api"
	"github.com/kbukum/deepresearch/server"
	"github.com/kbukum/deepresearch/server/middleware"
	"github.com/kbukum/deepresearch/sse"
)

const watchPath = "/api/v1/research/:id/events"

// RegisterServer mounts the research API on a new HTTP server and adds
// the SSE hub and the server to a. Call after Engine.Register so the
// server starts last and stops first.
func RegisterServer(a *bootstrap.App[*Config], e *Engine) (*api.Handler, error) {
	cfg := a.Cfg

	hub := sse.NewComponent(watchPath)
	srv := server.New(cfg.Server, a.Logger)
	srv.ApplyDefaults(cfg.Name, a.Components.HealthAll)

	handler := api.NewHandler(e.Streamer, hub.Hub())
	handler.Register(srv.GinEngine(), middleware.RateLimit(cfg.Server.RateLimit))

	if err := a.RegisterComponent(hub); err != nil {
		return nil, err
	}
	if err := a.RegisterComponent(server.NewComponent(srv)); err != nil {
		return nil, err
	}
	return handler, nil
}
