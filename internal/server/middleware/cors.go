package middleware

import (
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"
)

// CORS allows cross-origin requests from origins matching the pattern.
// Non-matching origins fall through without CORS headers so the browser
// blocks them.
func CORS(pattern *regexp.Regexp) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Response().Header()
			header.Set("Vary", "Origin")

			origin := c.Request().Header.Get("Origin")
			if origin == "" || !pattern.MatchString(origin) {
				return next(c)
			}

			header.Set("Access-Control-Allow-Origin", origin)
			if c.Request().Method != http.MethodOptions {
				return next(c)
			}

			// `*` alone may not cover the Authorization header in Safari 12
			header.Set("Access-Control-Allow-Headers", "*, Authorization")
			header.Set("Access-Control-Allow-Methods", "OPTIONS, POST, PUT, DELETE, GET, PATCH, HEAD")
			header.Set("Access-Control-Max-Age", "3600")
			return c.NoContent(http.StatusNoContent)
		}
	}
}
