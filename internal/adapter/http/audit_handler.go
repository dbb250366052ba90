package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"fanders-backend/internal/usecase/audit"
)

type AuditHandler struct {
	base
	rec *audit.Recorder
}

func NewAuditHandler(rec *audit.Recorder, log *logrus.Logger) *AuditHandler {
	return &AuditHandler{base: base{log: log}, rec: rec}
}

func (h *AuditHandler) List(c echo.Context) error {
	from, err := queryDate(c, "from")
	if err != nil {
		return h.fail(c, err)
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return h.fail(c, err)
	}
	if !to.IsZero() {
		to = to.AddDate(0, 0, 1)
	}
	limit, offset := page(c)
	out, err := h.rec.List(c.Request().Context(), audit.ListInput{
		UserID: queryUint(c, "user_id"),
		Entity: c.QueryParam("entity"),
		Action: c.QueryParam("action"),
		From:   from,
		To:     to,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
