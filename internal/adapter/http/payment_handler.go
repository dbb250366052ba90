package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"fanders-backend/internal/usecase/payment"
)

type PaymentHandler struct {
	base
	uc *payment.Usecase
}

func NewPaymentHandler(uc *payment.Usecase, log *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{base: base{log: log}, uc: uc}
}

func (h *PaymentHandler) Record(c echo.Context) error {
	var req payment.RecordInput
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	req.LoanID = publicID(c, "loan_id")
	req.SheetID = nil
	out, err := h.uc.Record(c.Request().Context(), actor(c), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *PaymentHandler) ListByLoan(c echo.Context) error {
	out, err := h.uc.ListByLoan(c.Request().Context(), publicID(c, "loan_id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) Summary(c echo.Context) error {
	out, err := h.uc.Summary(c.Request().Context(), publicID(c, "loan_id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// ListByRange defaults to today's payments.
func (h *PaymentHandler) ListByRange(c echo.Context) error {
	from, to, err := dateRange(c, 0)
	if err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.ListByRange(c.Request().Context(), from, to)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
