package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Middleware is the standard net/http middleware shape. The server applies
// its stack around the whole mux so SSE routes and Gin routes share it.
type Middleware func(http.Handler) http.Handler

// Chain composes middlewares; the first is outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// GinWrap adapts mw for a single Gin route group.
func GinWrap(mw Middleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			c.Request = r
			c.Next()
		})
		mw(next).ServeHTTP(c.Writer, c.Request)
	}
}
