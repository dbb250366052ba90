package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	domain "fanders-backend/internal/domain/slr"
	"fanders-backend/internal/domain/user"
	"fanders-backend/internal/usecase/slr"
)

type SLRHandler struct {
	base
	uc *slr.Usecase
}

func NewSLRHandler(uc *slr.Usecase, log *logrus.Logger) *SLRHandler {
	return &SLRHandler{base: base{log: log}, uc: uc}
}

type generateReq struct {
	Trigger string `json:"trigger"`
}

type reasonReq struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func accessMeta(c echo.Context) slr.AccessMeta {
	return slr.AccessMeta{IP: c.RealIP(), UserAgent: c.Request().UserAgent()}
}

// Generate issues a manual SLR unless the body names another trigger.
func (h *SLRHandler) Generate(c echo.Context) error {
	var req generateReq
	if c.Request().ContentLength != 0 {
		if err := bind(c, &req); err != nil {
			return h.fail(c, err)
		}
	}
	trigger := domain.TriggerManual
	if req.Trigger != "" {
		trigger = domain.Trigger(req.Trigger)
	}
	doc, err := h.uc.Generate(c.Request().Context(), actor(c), publicID(c, "loan_id"), trigger, accessMeta(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, doc)
}

func (h *SLRHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	doc, err := h.uc.Get(c.Request().Context(), actor(c), id, accessMeta(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}

func (h *SLRHandler) Download(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	d, err := h.uc.Download(c.Request().Context(), actor(c), id, accessMeta(c))
	if err != nil {
		return h.fail(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+d.Document.FileName+`"`)
	return c.Blob(http.StatusOK, "application/pdf", d.Content)
}

func (h *SLRHandler) Archive(c echo.Context) error {
	return h.withReason(c, h.uc.Archive)
}

func (h *SLRHandler) Void(c echo.Context) error {
	return h.withReason(c, h.uc.Void)
}

type reasonFn func(ctx context.Context, a user.Actor, id uint64, reason string, meta slr.AccessMeta) (*domain.Document, error)

func (h *SLRHandler) withReason(c echo.Context, fn reasonFn) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req reasonReq
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	doc, err := fn(c.Request().Context(), actor(c), id, req.Reason, accessMeta(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}

func (h *SLRHandler) Restore(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	doc, err := h.uc.Restore(c.Request().Context(), actor(c), id, accessMeta(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}

func (h *SLRHandler) List(c echo.Context) error {
	from, err := queryDate(c, "from")
	if err != nil {
		return h.fail(c, err)
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return h.fail(c, err)
	}
	limit, offset := page(c)
	out, err := h.uc.List(c.Request().Context(), actor(c), slr.ListInput{
		LoanID: c.QueryParam("loan_id"),
		Status: c.QueryParam("status"),
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

func (h *SLRHandler) AccessLog(c echo.Context) error {
	limit, offset := page(c)
	out, err := h.uc.AccessLog(c.Request().Context(), actor(c), domain.AccessFilter{
		DocumentID: queryUint(c, "document_id"),
		UserID:     queryUint(c, "user_id"),
		Action:     domain.Action(c.QueryParam("action")),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *SLRHandler) Rules(c echo.Context) error {
	out, err := h.uc.Rules(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

func (h *SLRHandler) UpdateRule(c echo.Context) error {
	var req slr.UpdateRuleInput
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.UpdateRule(c.Request().Context(), actor(c), domain.Trigger(c.Param("trigger")), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
