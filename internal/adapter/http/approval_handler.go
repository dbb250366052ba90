package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"fanders-backend/internal/usecase/approval"
)

type ApprovalHandler struct {
	base
	uc *approval.Usecase
}

func NewApprovalHandler(uc *approval.Usecase, log *logrus.Logger) *ApprovalHandler {
	return &ApprovalHandler{base: base{log: log}, uc: uc}
}

// decideInput validates the path param and the optional remarks body.
func (h *ApprovalHandler) decideInput(c echo.Context) (approval.DecideInput, error) {
	loanID := publicID(c, "loan_id")
	if loanID == "" {
		return approval.DecideInput{}, fmtValidation("missing loan_id path param")
	}
	var req approval.DecideInput
	if c.Request().ContentLength != 0 {
		if err := bind(c, &req); err != nil {
			return req, err
		}
	}
	req.LoanID = loanID
	return req, nil
}

func (h *ApprovalHandler) Approve(c echo.Context) error {
	in, err := h.decideInput(c)
	if err != nil {
		return h.fail(c, err)
	}
	dto, err := h.uc.Approve(c.Request().Context(), actor(c), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApprovalHandler) Reject(c echo.Context) error {
	in, err := h.decideInput(c)
	if err != nil {
		return h.fail(c, err)
	}
	dto, err := h.uc.Reject(c.Request().Context(), actor(c), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApprovalHandler) Get(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), publicID(c, "loan_id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
