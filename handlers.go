package breeze

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/breeze/api"
)

func success[T any](c echo.Context, data T) error {
	return c.JSON(http.StatusOK, api.Response[T]{Code: api.CodeOK, Message: "ok", Data: data})
}

func fail(c echo.Context, status, code int, msg string) error {
	return c.JSON(status, api.Response[any]{Code: code, Message: msg})
}

func (a *App) handleHome(c echo.Context) error {
	info, err := a.Cache.Get(c.Request().Context())
	if err != nil {
		return err
	}
	return success(c, info)
}

func (a *App) handlePageList(c echo.Context) error {
	pages, err := a.Store.ListPages(c.Request().Context())
	if err != nil {
		return err
	}
	return success(c, pages)
}

// httpErrorHandler renders every unhandled error as a response envelope.
func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, code, msg := http.StatusInternalServerError, api.CodeFail, "internal server error"
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(he.Code)
		}
		switch status {
		case http.StatusNotFound:
			code = api.CodeNotFound
		case http.StatusUnauthorized:
			code = api.CodeUnauthorized
		case http.StatusTooManyRequests:
			code = api.CodeTooMany
		case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
			code = api.CodeBadRequest
		}
	case errors.Is(err, ErrNotFound):
		status, code, msg = http.StatusNotFound, api.CodeNotFound, "not found"
	}

	if status >= 500 {
		c.Logger().Errorf("server error: %v", err)
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = fail(c, status, code, msg)
}
