package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"fanders-backend/internal/adapter/middleware"
	"fanders-backend/internal/domain/apperr"
	"fanders-backend/internal/domain/loan/calculator"
	"fanders-backend/internal/domain/user"
	"fanders-backend/pkg/id"
)

var errBadBody = errors.New("invalid body")

// base carries what every handler needs to answer errors.
type base struct{ log *logrus.Logger }

func statusOf(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// fail maps domain errors to status codes. Unknown errors are logged and hidden.
func (b base) fail(c echo.Context, err error) error {
	var he *echo.HTTPError
	var ce *calculator.ValidationError
	switch {
	case errors.Is(err, errBadBody):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	case isValidation(err):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	case errors.As(err, &ce):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: []FieldError{{Field: ce.Field, Message: ce.Message}},
		})
	case errors.As(err, &he):
		return c.JSON(he.Code, ErrorResponse{Error: http.StatusText(he.Code)})
	}
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		b.log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request().Method, "path": c.Path(),
		}).Error("request failed")
		return c.JSON(code, ErrorResponse{Error: "internal server error"})
	}
	return c.JSON(code, ErrorResponse{Error: err.Error()})
}

// bind decodes and validates the request body into dst.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return errBadBody
	}
	return c.Validate(dst)
}

func actor(c echo.Context) user.Actor {
	a, _ := middleware.Actor(c)
	return a
}

func paramID(c echo.Context, name string) (uint64, error) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, fmtValidation("invalid " + name)
	}
	return n, nil
}

// page reads limit/offset with a default limit of 50 and a cap of 500.
func page(c echo.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	offset, _ = strconv.Atoi(c.QueryParam("offset"))
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// queryDate parses YYYY-MM-DD; an absent value is the zero time.
func queryDate(c echo.Context, name string) (time.Time, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmtValidation(name + " must be YYYY-MM-DD")
	}
	return t, nil
}

func queryUint(c echo.Context, name string) uint64 {
	n, _ := strconv.ParseUint(c.QueryParam(name), 10, 64)
	return n
}

func fmtValidation(msg string) error {
	return fmt.Errorf("%w: %s", apperr.ErrValidation, msg)
}

func isValidation(err error) bool {
	var ve validator.ValidationErrors
	return errors.As(err, &ve)
}

// dateRange reads from/to; to defaults to today and from to `days` before it.
func dateRange(c echo.Context, days int) (from, to time.Time, err error) {
	if from, err = queryDate(c, "from"); err != nil {
		return
	}
	if to, err = queryDate(c, "to"); err != nil {
		return
	}
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -days)
	}
	return from, to, nil
}

// publicID reads a 32-hex path parameter case-insensitively. Malformed values are
// passed on and end up as not found.
func publicID(c echo.Context, name string) string {
	s, _ := id.Normalize(c.Param(name))
	return s
}
