package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/product-concierge/internal/models"
	pkgmdw "github.com/nguyentranbao-ct/product-concierge/internal/server/middleware"
)

// errorHandler translates domain errors into HTTP statuses before handing
// off to the generic JSON error handler. A request that fails validation
// is the caller's fault; a pipeline stage failure means an upstream
// dependency broke.
func errorHandler(log pkgmdw.Logger) echo.HTTPErrorHandler {
	generic := pkgmdw.ErrorHandler(log)
	return func(err error, c echo.Context) {
		var (
			validationErr *models.ValidationError
			serviceErr    *models.ServiceError
		)
		switch {
		case errors.As(err, &validationErr):
			err = &pkgmdw.ResponseError{
				Status:       http.StatusBadRequest,
				Err:          err,
				ErrorCode:    "invalid_request",
				ErrorMessage: validationErr.Error(),
			}
		case errors.As(err, &serviceErr):
			err = &pkgmdw.ResponseError{
				Status:       http.StatusBadGateway,
				Err:          err,
				ErrorCode:    "upstream_failure",
				ErrorMessage: serviceErr.Error(),
				ErrorData:    map[string]string{"stage": serviceErr.Stage},
			}
		}
		generic(err, c)
	}
}
