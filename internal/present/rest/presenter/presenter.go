package presenter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/totegamma/messboard"
	"github.com/totegamma/messboard/internal/domain"
)

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, messboard.Response[any]{Success: true, Data: payload})
}

func Created(c echo.Context, payload any, msg string) error {
	return c.JSON(http.StatusCreated, messboard.Response[any]{Success: true, Data: payload, Message: msg})
}

func Message(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, messboard.Response[any]{Success: true, Message: msg})
}

func BadRequest(c echo.Context, err error) error {
	return BadRequestMessage(c, err.Error())
}

func BadRequestMessage(c echo.Context, msg string) error {
	return fail(c, http.StatusBadRequest, msg)
}

func NotFound(c echo.Context, msg string) error {
	return fail(c, http.StatusNotFound, msg)
}

func Forbidden(c echo.Context, msg string) error {
	return fail(c, http.StatusForbidden, msg)
}

func InternalError(c echo.Context, err error) error {
	slog.ErrorContext(
		c.Request().Context(), "internal error",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
		slog.String("module", "rest"),
	)
	return c.JSON(http.StatusInternalServerError, messboard.Response[any]{
		Success: false,
		Error:   "storage temporarily unavailable",
	})
}

// Error maps a domain error onto its status code. Only the domain error's own
// message reaches the client; the wrapping operation names stay in the logs.
func Error(c echo.Context, err error) error {
	var (
		validation domain.ValidationError
		upload     domain.UploadError
		notFound   domain.NotFoundError
		forbidden  domain.ForbiddenError
	)
	switch {
	case errors.As(err, &validation):
		return BadRequestMessage(c, validation.Error())
	case errors.As(err, &upload):
		return BadRequestMessage(c, upload.Error())
	case errors.As(err, &notFound):
		return NotFound(c, notFound.Error())
	case errors.As(err, &forbidden):
		return Forbidden(c, forbidden.Error())
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrUpload):
		return BadRequestMessage(c, "invalid request")
	case errors.Is(err, domain.ErrNotFound):
		return NotFound(c, "not found")
	case errors.Is(err, domain.ErrForbidden):
		return Forbidden(c, "forbidden")
	default:
		return InternalError(c, err)
	}
}

func fail(c echo.Context, status int, msg string) error {
	slog.DebugContext(
		c.Request().Context(), "request rejected",
		slog.Int("status", status),
		slog.String("error", msg),
		slog.String("module", "rest"),
	)
	return c.JSON(status, messboard.Response[any]{Success: false, Error: msg})
}
