package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	domain "fanders-backend/internal/domain/client"
	"fanders-backend/internal/usecase/client"
)

type ClientHandler struct {
	base
	uc *client.Usecase
}

func NewClientHandler(uc *client.Usecase, log *logrus.Logger) *ClientHandler {
	return &ClientHandler{base: base{log: log}, uc: uc}
}

func (h *ClientHandler) Create(c echo.Context) error {
	var req client.CreateInput
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.Create(c.Request().Context(), actor(c), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *ClientHandler) Update(c echo.Context) error {
	var req client.UpdateInput
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.Update(c.Request().Context(), actor(c), publicID(c, "client_id"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ClientHandler) Get(c echo.Context) error {
	out, err := h.uc.Get(c.Request().Context(), publicID(c, "client_id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ClientHandler) List(c echo.Context) error {
	limit, offset := page(c)
	out, err := h.uc.List(c.Request().Context(), client.ListInput{
		Status: c.QueryParam("status"),
		Search: c.QueryParam("q"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ClientHandler) ChangeStatus(c echo.Context) error {
	var req statusReq
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.ChangeStatus(c.Request().Context(), actor(c), publicID(c, "client_id"), domain.Status(req.Status))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ClientHandler) Delete(c echo.Context) error {
	if err := h.uc.Delete(c.Request().Context(), actor(c), publicID(c, "client_id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ClientHandler) Options(c echo.Context) error {
	out, err := h.uc.Options(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ClientHandler) Stats(c echo.Context) error {
	out, err := h.uc.Stats(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
