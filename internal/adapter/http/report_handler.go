package http

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"fanders-backend/internal/usecase/report"
)

type ReportHandler struct {
	base
	uc *report.Usecase
}

func NewReportHandler(uc *report.Usecase, log *logrus.Logger) *ReportHandler {
	return &ReportHandler{base: base{log: log}, uc: uc}
}

func (h *ReportHandler) Overdue(c echo.Context) error {
	asOf, err := queryDate(c, "as_of")
	if err != nil {
		return h.fail(c, err)
	}
	f := report.OverdueFilter{
		ClientID: c.QueryParam("client_id"),
		Severity: report.Severity(c.QueryParam("severity")),
	}
	if raw := c.QueryParam("min_balance"); raw != "" {
		if f.MinBalance, err = decimal.NewFromString(raw); err != nil {
			return h.fail(c, fmtValidation("min_balance must be a number"))
		}
	}
	if raw := c.QueryParam("min_days"); raw != "" {
		if f.MinDaysOverdue, err = strconv.Atoi(raw); err != nil || f.MinDaysOverdue < 0 {
			return h.fail(c, fmtValidation("min_days must be a non-negative integer"))
		}
	}
	out, err := h.uc.Overdue(c.Request().Context(), asOf, f)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ReportHandler) Dashboard(c echo.Context) error {
	out, err := h.uc.Dashboard(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Export streams a report as an attachment: /reports/export/:kind?format=csv|xlsx.
func (h *ReportHandler) Export(c echo.Context) error {
	from, err := queryDate(c, "from")
	if err != nil {
		return h.fail(c, err)
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return h.fail(c, err)
	}
	format := report.Format(c.QueryParam("format"))
	if format == "" {
		format = report.FormatCSV
	}
	t, err := h.uc.Export(c.Request().Context(), report.ExportInput{
		Kind:      report.Kind(c.Param("kind")),
		Format:    format,
		LoanState: c.QueryParam("state"),
		From:      from,
		To:        to,
	})
	if err != nil {
		return h.fail(c, err)
	}
	var buf bytes.Buffer
	if err := report.Write(&buf, t, format); err != nil {
		return h.fail(c, err)
	}
	name := report.FileName(t, format, time.Now())
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Blob(http.StatusOK, format.ContentType(), buf.Bytes())
}
