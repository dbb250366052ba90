package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"fanders-backend/internal/usecase/collection"
)

type CollectionHandler struct {
	base
	uc *collection.Usecase
}

func NewCollectionHandler(uc *collection.Usecase, log *logrus.Logger) *CollectionHandler {
	return &CollectionHandler{base: base{log: log}, uc: uc}
}

func (h *CollectionHandler) Create(c echo.Context) error {
	var req collection.CreateInput
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.Create(c.Request().Context(), actor(c), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *CollectionHandler) AddLoans(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req collection.AddLoansInput
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.AddLoans(c.Request().Context(), actor(c), id, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CollectionHandler) RecordCollection(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	itemID, err := paramID(c, "item_id")
	if err != nil {
		return h.fail(c, err)
	}
	var req collection.CollectInput
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.RecordCollection(c.Request().Context(), actor(c), id, itemID, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CollectionHandler) Submit(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.Submit(c.Request().Context(), actor(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CollectionHandler) Approve(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.Approve(c.Request().Context(), actor(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CollectionHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CollectionHandler) List(c echo.Context) error {
	from, err := queryDate(c, "from")
	if err != nil {
		return h.fail(c, err)
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return h.fail(c, err)
	}
	limit, offset := page(c)
	out, err := h.uc.List(c.Request().Context(), collection.ListInput{
		OfficerID: queryUint(c, "officer_id"),
		Status:    c.QueryParam("status"),
		From:      from,
		To:        to,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
