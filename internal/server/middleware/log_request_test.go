package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureLogger struct {
	level string
	args  []interface{}
}

func (l *captureLogger) Debugf(string, ...interface{}) {}
func (l *captureLogger) Infof(string, ...interface{})  {}
func (l *captureLogger) Warnf(string, ...interface{})  {}
func (l *captureLogger) Errorf(string, ...interface{}) {}
func (l *captureLogger) Debugw(_ string, args ...interface{}) {
	l.level, l.args = "debug", args
}
func (l *captureLogger) Infow(_ string, args ...interface{}) {
	l.level, l.args = "info", args
}
func (l *captureLogger) Warnw(_ string, args ...interface{}) {
	l.level, l.args = "warn", args
}
func (l *captureLogger) Errorw(_ string, args ...interface{}) {
	l.level, l.args = "error", args
}

func loggedValue(t *testing.T, args []interface{}, key string) interface{} {
	t.Helper()
	for i := 0; i+1 < len(args); i += 2 {
		if args[i] == key {
			return args[i+1]
		}
	}
	return nil
}

func TestLogRequestRedactsContactURN(t *testing.T) {
	logged := &captureLogger{}
	e := echo.New()
	e.Use(LogRequest(LogRequestConfig{Logger: logged}))
	e.POST("/search", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "complete"})
	})

	body := `{"query":"arroz","contact":{"urn":"whatsapp:5511999990000"},"credentials":{"token":"s3cret"}}`
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "info", logged.level)

	dumped, ok := loggedValue(t, logged.args, "request_body").(string)
	require.True(t, ok)
	assert.NotContains(t, dumped, "5511999990000")
	assert.NotContains(t, dumped, "s3cret")
	assert.Contains(t, dumped, "[redacted]")
	assert.Contains(t, dumped, "arroz")
}

func TestLogRequestLevels(t *testing.T) {
	logged := &captureLogger{}
	e := echo.New()
	e.Use(LogRequest(LogRequestConfig{Logger: logged}))
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "nope")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "warn", logged.level)
	assert.Equal(t, http.StatusBadRequest, loggedValue(t, logged.args, "status"))
}

func TestLogRequestSkipsDisabledRoutes(t *testing.T) {
	logged := &captureLogger{}
	e := echo.New()
	e.Use(LogRequest(LogRequestConfig{
		Logger: logged,
		Enabled: func(c echo.Context) bool {
			return c.Request().RequestURI != "/health"
		},
	}))
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Empty(t, logged.level)
}

func TestTruncateBody(t *testing.T) {
	long := strings.Repeat("x", maxDumpedBody+100)
	got := truncateBody([]byte(long))
	assert.Len(t, got, maxDumpedBody+len("...(truncated)"))

	assert.Equal(t, "short", truncateBody([]byte("short")))
}
