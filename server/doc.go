// Package server is the HTTP front of the research service: a Gin engine
// served over HTTP/1.1 and h2c, with lifecycle management through the
// component registry.
//
// Middleware (server/middleware) is applied around the whole mux:
// recovery, request id, CORS, body size limit and request logging. Run
// creation is additionally rate limited per client.
//
// Built-in endpoints (server/endpoint): /health, /ready and /info.
package server
