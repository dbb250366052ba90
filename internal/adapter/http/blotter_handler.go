package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"fanders-backend/internal/usecase/blotter"
)

type BlotterHandler struct {
	base
	uc *blotter.Usecase
}

func NewBlotterHandler(uc *blotter.Usecase, log *logrus.Logger) *BlotterHandler {
	return &BlotterHandler{base: base{log: log}, uc: uc}
}

func pathDate(c echo.Context) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, c.Param("date"))
	if err != nil {
		return time.Time{}, fmtValidation("date must be YYYY-MM-DD")
	}
	return d, nil
}

func (h *BlotterHandler) ForDate(c echo.Context) error {
	d, err := pathDate(c)
	if err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.ForDate(c.Request().Context(), d)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *BlotterHandler) Recalculate(c echo.Context) error {
	d, err := pathDate(c)
	if err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.Recalculate(c.Request().Context(), actor(c), d)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Range defaults to the last 30 days.
func (h *BlotterHandler) Range(c echo.Context) error {
	from, to, err := dateRange(c, 30)
	if err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.Range(c.Request().Context(), from, to)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *BlotterHandler) Balance(c echo.Context) error {
	out, err := h.uc.CurrentBalance(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *BlotterHandler) Summary(c echo.Context) error {
	from, to, err := dateRange(c, 30)
	if err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.Summary(c.Request().Context(), from, to)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *BlotterHandler) Alerts(c echo.Context) error {
	from, to, err := dateRange(c, 30)
	if err != nil {
		return h.fail(c, err)
	}
	threshold := decimal.Zero
	if raw := c.QueryParam("threshold"); raw != "" {
		if threshold, err = decimal.NewFromString(raw); err != nil {
			return h.fail(c, fmtValidation("threshold must be a number"))
		}
	}
	out, err := h.uc.Alerts(c.Request().Context(), from, to, threshold)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
