package server

import "net/http"

const (
	// AllowHeaders lists the request headers the frontend may send.
	AllowHeaders = "Content-Type,Authorization"
	// DefaultMethods is advertised on routes outside /api and /mcp.
	DefaultMethods = "GET,OPTIONS"
	// APIMethods is advertised on /api routes.
	APIMethods = "POST,OPTIONS"
	// MCPMethods covers the streamable MCP transport.
	MCPMethods = "GET,POST,DELETE,OPTIONS"
)

// CORS writes the cross-origin headers for the single allowed origin on every
// response, whether or not the request carried an Origin header. Nested
// routers can install it again to narrow the advertised methods.
func CORS(origin, methods string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Headers", AllowHeaders)
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Vary", "Origin")
			next.ServeHTTP(w, r)
		})
	}
}
