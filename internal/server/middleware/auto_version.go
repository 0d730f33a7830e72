package middleware

import (
	"github.com/carousell/ct-go/pkg/httputils"
	"github.com/labstack/echo/v4"
)

// AutoVersion rewrites the request path from the Accept header's version
// parameter (e.g. "version=2" turns /search into /v2/search). Register
// with e.Pre so it runs before routing.
func AutoVersion(args ...httputils.AutoVersioningOption) echo.MiddlewareFunc {
	versioning := httputils.NewAutoVersioning(args...)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			versioning.Handle(c.Response().Writer, c.Request())
			return next(c)
		}
	}
}
