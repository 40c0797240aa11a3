// Package component defines the lifecycle contract for the long-lived parts
// of the research service (LLM backend, SSE hub, HTTP server) and a
// registry that starts them in order and stops them in reverse.
package component
