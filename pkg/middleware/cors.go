package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4/middleware"
)

// AllowedOrigins is the restrictive list of origins permitted to call the API.
var AllowedOrigins = []string{
	"http://localhost:5173",   // Development (vite dev server)
	"http://localhost:4173",   // Development (vite preview)
	"https://app.propdesk.io", // Production app
	"https://propdesk.io",     // Production marketing site
}

// AllowedMethods lists the HTTP methods the API accepts cross-origin.
// OPTIONS is handled automatically by the CORS middleware for preflight.
var AllowedMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

// AllowedHeaders lists the request headers permitted on cross-origin calls.
var AllowedHeaders = []string{
	"Origin",
	"Content-Type",
	"Accept",
	"Authorization",
}

// CORSConfig returns the CORS configuration used by the application.
// Centralised here so that both main.go and tests reference the same config.
// Extra origins (e.g. a staging deployment) can be appended via extraOrigins.
func CORSConfig(extraOrigins ...string) middleware.CORSConfig {
	origins := make([]string, 0, len(AllowedOrigins)+len(extraOrigins))
	origins = append(origins, AllowedOrigins...)
	origins = append(origins, extraOrigins...)

	return middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     AllowedMethods,
		AllowCredentials: true,
		AllowHeaders:     AllowedHeaders,
	}
}
