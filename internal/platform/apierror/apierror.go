// Package apierror turns storage taxonomy errors into echo HTTP errors.
package apierror

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/oncotimeline/oncotimeline/internal/platform/storage"
)

// From maps err to an *echo.HTTPError. notFound is the message used for
// storage.ErrNotFound so each resource can name itself.
func From(err error, notFound string) *echo.HTTPError {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, notFound)
	case errors.Is(err, storage.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, storage.ErrInvalidReference):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, storage.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
}
