package middleware

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tidwall/gjson"
)

// maxDumpedBody caps how much of a request or response body ends up in
// the access log. Carousel-heavy results can run to tens of KB.
const maxDumpedBody = 4 * 1024

// redactedFields are body fields that must never reach the log: contact
// URNs are personal data and credentials are upstream secrets.
var redactedFields = []string{"contact.urn", "credentials"}

type (
	// LogRequestConfig configures the access log middleware.
	LogRequestConfig struct {
		Logger       Logger
		Enabled      func(c echo.Context) bool
		RequestID    func(c echo.Context) string
		RequestBody  func(c echo.Context) bool
		ResponseBody func(c echo.Context) bool
	}
	bodyDumpWriter struct {
		io.Writer
		http.ResponseWriter
	}
)

// LogRequest logs one structured line per request: status, latency and,
// for JSON requests, a redacted body dump.
func LogRequest(config LogRequestConfig) echo.MiddlewareFunc {
	enabled := func(c echo.Context) bool {
		return true
	}
	if config.Logger == nil {
		panic("Logger is required to use LogRequest")
	}
	if config.Enabled == nil {
		config.Enabled = enabled
	}
	if config.RequestBody == nil {
		config.RequestBody = enabled
	}
	if config.ResponseBody == nil {
		config.ResponseBody = enabled
	}
	if config.RequestID == nil {
		config.RequestID = GetRequestID
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !config.Enabled(c) {
				return next(c)
			}

			start := time.Now()
			req := c.Request()
			res := c.Response()

			var reqBody []byte
			if config.RequestBody(c) && isJSON(req.Header.Get(echo.HeaderContentType)) {
				reqBody, _ = io.ReadAll(req.Body)
				req.Body = io.NopCloser(bytes.NewBuffer(reqBody))
			}

			var resBuf bytes.Buffer
			logResBody := config.ResponseBody(c)
			if logResBody {
				mw := io.MultiWriter(res.Writer, &resBuf)
				res.Writer = &bodyDumpWriter{Writer: mw, ResponseWriter: res.Writer}
			}

			err := next(c)
			if err != nil {
				c.Error(err)
			}
			latency := time.Since(start)

			args := make([]interface{}, 0, 24)
			args = append(args,
				"status", res.Status,
				"method", req.Method,
				"uri", req.RequestURI,
				"latency_ms", latency.Milliseconds(),
				"real_ip", c.RealIP(),
				"user_agent", req.UserAgent(),
				"request_id", config.RequestID(c),
			)
			if len(reqBody) > 0 {
				args = append(args, "request_body", redactBody(reqBody))
			}
			if logResBody && isJSON(res.Header().Get(echo.HeaderContentType)) {
				args = append(args, "response_body", truncateBody(resBuf.Bytes()))
			}

			switch {
			case res.Status >= 500:
				if err != nil {
					args = append(args, "error", err.Error())
				}
				config.Logger.Errorw("", args...)
			case res.Status >= 400:
				config.Logger.Warnw("", args...)
			default:
				config.Logger.Infow("", args...)
			}

			return err
		}
	}
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(contentType, echo.MIMEApplicationJSON)
}

// redactBody blanks sensitive fields before the body reaches the log.
// Works on the raw text so a malformed body is still logged as-is.
func redactBody(body []byte) string {
	out := string(body)
	for _, field := range redactedFields {
		if gjson.Get(out, field).Exists() {
			if updated, err := sjsonSet(out, field); err == nil {
				out = updated
			}
		}
	}
	return truncateBody([]byte(out))
}

// sjsonSet replaces the field's raw value with a marker. Done by slicing
// around gjson's reported indexes to avoid another dependency.
func sjsonSet(body, field string) (string, error) {
	value := gjson.Get(body, field)
	if value.Index == 0 {
		return body, nil
	}
	raw := value.Raw
	return body[:value.Index] + `"[redacted]"` + body[value.Index+len(raw):], nil
}

func truncateBody(body []byte) string {
	if len(body) > maxDumpedBody {
		return string(body[:maxDumpedBody]) + "...(truncated)"
	}
	return string(body)
}

func (w *bodyDumpWriter) WriteHeader(code int) {
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyDumpWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

func (w *bodyDumpWriter) Flush() {
	w.ResponseWriter.(http.Flusher).Flush()
}

func (w *bodyDumpWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return w.ResponseWriter.(http.Hijacker).Hijack()
}
