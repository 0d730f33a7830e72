package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorHandler renders every handler error as a JSON ResponseError.
// Unclassified errors become 500; a caller that went away mid-request
// gets the nginx-style 499.
func ErrorHandler(log Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if err == nil || c.Response().Committed {
			return
		}

		resp := classify(err, c)
		if resp.Status == http.StatusNotFound && isNotFoundHandler(c.Handler()) {
			resp.ErrorMessage = "no route matched"
		}

		if err := c.JSON(resp.Status, resp); err != nil {
			log.Errorw("could not write error response", "code", resp.Status, "response_body", resp)
		}
	}
}

func classify(err error, c echo.Context) *ResponseError {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return &ResponseError{
			Status:       httpErr.Code,
			Err:          err,
			ErrorMessage: fmt.Sprint(httpErr.Message),
		}
	}

	status := http.StatusInternalServerError
	if errors.Is(err, context.Canceled) && c.Request().Context().Err() == context.Canceled {
		status = 499
	}
	return &ResponseError{Status: status, Err: err}
}
