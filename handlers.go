package cms

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"
)

// page returns a handler serving one of the pre-built site pages from
// the static directory.
func (a *App) page(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.File(filepath.Join(a.Config.StaticDir, name))
	}
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(filepath.Join(a.Config.StaticDir, "favicon.svg"))
}

func (a *App) handleRobots(c echo.Context) error {
	return c.File(filepath.Join(a.Config.StaticDir, "robots.txt"))
}

// httpErrorHandler maps the package error taxonomy onto JSON responses.
// Anything unexpected surfaces as a 500 with a generic message.
func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		_ = c.JSON(he.Code, echo.Map{"message": msg})
		return
	}

	switch {
	case errors.Is(err, ErrNotFound):
		_ = c.JSON(http.StatusNotFound, echo.Map{"message": "Not found"})
	case errors.Is(err, ErrUnauthorized):
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
	case errors.Is(err, ErrConflict), errors.Is(err, ErrValidation):
		_ = c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	case errors.Is(err, ErrInvalidCredentials):
		_ = c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid credentials"})
	case errors.Is(err, ErrAssetUpstream):
		_ = c.JSON(http.StatusBadGateway, echo.Map{"message": "Asset store failure"})
	default:
		c.Logger().Errorf("server error: %v", err)
		_ = c.JSON(http.StatusInternalServerError, echo.Map{"message": "Internal server error"})
	}
}
