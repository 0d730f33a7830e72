package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/carousell/ct-go/pkg/httputils"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestAutoVersion(t *testing.T) {
	e := echo.New()
	e.Pre(AutoVersion(httputils.WithFallbackVersion("1")))
	e.POST("/v1/search", func(c echo.Context) error {
		return c.String(http.StatusOK, "search v1")
	})
	e.POST("/v2/search", func(c echo.Context) error {
		return c.String(http.StatusOK, "search v2")
	})

	tests := []struct {
		name   string
		accept string
		want   string
	}{
		{name: "explicit v1", accept: "application/json; version=1", want: "search v1"},
		{name: "explicit v2", accept: "application/json; version=2", want: "search v2"},
		{name: "fallback version", accept: "application/json", want: "search v1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/search", nil)
			req.Header.Set(echo.HeaderAccept, tt.accept)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestAutoVersionKeepsVersionedPath(t *testing.T) {
	e := echo.New()
	e.Pre(AutoVersion(httputils.WithFallbackVersion("1")))
	e.GET("/v2/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/v2/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
