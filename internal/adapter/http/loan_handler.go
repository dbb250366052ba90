package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"fanders-backend/internal/usecase/loan"
)

type LoanHandler struct {
	base
	uc *loan.Usecase
}

func NewLoanHandler(uc *loan.Usecase, log *logrus.Logger) *LoanHandler {
	return &LoanHandler{base: base{log: log}, uc: uc}
}

// Calculate quotes a loan without booking anything.
func (h *LoanHandler) Calculate(c echo.Context) error {
	var req loan.CalculateInput
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	res, err := h.uc.Calculate(req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *LoanHandler) Apply(c echo.Context) error {
	var req loan.ApplyInput
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	dto, err := h.uc.Apply(c.Request().Context(), actor(c), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) Get(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), publicID(c, "loan_id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) List(c echo.Context) error {
	limit, offset := page(c)
	out, err := h.uc.List(c.Request().Context(), loan.ListInput{
		State:    c.QueryParam("status"),
		ClientID: c.QueryParam("client_id"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) Schedule(c echo.Context) error {
	out, err := h.uc.Schedule(c.Request().Context(), publicID(c, "loan_id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) Stats(c echo.Context) error {
	out, err := h.uc.Stats(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) Disburse(c echo.Context) error {
	out, err := h.uc.Disburse(c.Request().Context(), actor(c), publicID(c, "loan_id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) MarkDefaulted(c echo.Context) error {
	out, err := h.uc.MarkDefaulted(c.Request().Context(), actor(c), publicID(c, "loan_id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) Complete(c echo.Context) error {
	out, err := h.uc.Complete(c.Request().Context(), actor(c), publicID(c, "loan_id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
