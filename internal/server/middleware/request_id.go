package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	XRequestID     = "x-request-id"
	XCorrelationID = "x-correlation-id"
)

// GetRequestID resolves the request id for c, preferring what a previous
// middleware stored over the incoming headers.
func GetRequestID(c echo.Context) string {
	if id := GetRequestIDFromEchoContext(c); id != "" {
		return id
	}
	if id := GetRequestIDFromContext(c.Request().Context()); id != "" {
		return id
	}
	return GetRequestIDFromHeader(c.Request().Header)
}

func GetRequestIDFromContext(ctx context.Context) string {
	for _, key := range []string{XCorrelationID, XRequestID} {
		if id, ok := ctx.Value(key).(string); ok && id != "" {
			return id
		}
	}
	return ""
}

func GetRequestIDFromEchoContext(c echo.Context) string {
	for _, key := range []string{XRequestID, XCorrelationID} {
		if id, ok := c.Get(key).(string); ok && id != "" {
			return id
		}
	}
	return ""
}

func GetRequestIDFromHeader(h http.Header) string {
	if id := h.Get(XRequestID); id != "" {
		return id
	}
	return h.Get(XCorrelationID)
}

// InjectRequestID stores reqID under both header aliases, in the echo
// context and in the request's context.Context, so downstream code and
// the context-scoped logger can both reach it.
func InjectRequestID(c echo.Context, reqID string) {
	ctx := c.Request().Context()
	for _, key := range []string{XRequestID, XCorrelationID} {
		//lint:ignore SA1029 the string key is the shared contract with the logger
		ctx = context.WithValue(ctx, key, reqID)
		c.Set(key, reqID)
	}
	c.SetRequest(c.Request().WithContext(ctx))
}

type RequestIDConfig struct {
	Skipper      Skipper
	GenerateFunc func() string
	DetectFunc   func(echo.Context) string
	InjectFunc   func(echo.Context, string)
}

var DefaultRequestIDConfig = RequestIDConfig{
	Skipper:      DefaultSkipper,
	GenerateFunc: uuid.NewString,
	DetectFunc:   GetRequestID,
	InjectFunc:   InjectRequestID,
}

// RequestID adopts the caller's request id or mints a fresh uuid, and
// echoes it back in the response header.
func RequestID() echo.MiddlewareFunc {
	return RequestIDWithConfig(DefaultRequestIDConfig)
}

func RequestIDWithConfig(config RequestIDConfig) echo.MiddlewareFunc {
	if config.Skipper == nil {
		config.Skipper = DefaultRequestIDConfig.Skipper
	}
	if config.GenerateFunc == nil {
		config.GenerateFunc = DefaultRequestIDConfig.GenerateFunc
	}
	if config.DetectFunc == nil {
		config.DetectFunc = DefaultRequestIDConfig.DetectFunc
	}
	if config.InjectFunc == nil {
		config.InjectFunc = DefaultRequestIDConfig.InjectFunc
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper(c) {
				return next(c)
			}
			reqID := config.DetectFunc(c)
			if reqID == "" {
				reqID = config.GenerateFunc()
			}
			config.InjectFunc(c, reqID)
			c.Response().Header().Set(XRequestID, reqID)
			return next(c)
		}
	}
}
