package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"fanders-backend/internal/domain/user"
	"fanders-backend/internal/usecase/auth"
)

type AuthHandler struct {
	base
	uc *auth.Usecase
}

func NewAuthHandler(uc *auth.Usecase, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{base: base{log: log}, uc: uc}
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req auth.LoginInput
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	dto, err := h.uc.Login(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AuthHandler) Me(c echo.Context) error {
	u, err := h.uc.Me(c.Request().Context(), actor(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AuthHandler) CreateUser(c echo.Context) error {
	var req auth.CreateUserInput
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	u, err := h.uc.CreateUser(c.Request().Context(), actor(c), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *AuthHandler) ListUsers(c echo.Context) error {
	limit, offset := page(c)
	out, err := h.uc.ListUsers(c.Request().Context(), actor(c), user.ListFilter{
		Role:   user.NormalizeRole(c.QueryParam("role")),
		Status: user.Status(c.QueryParam("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req auth.ChangePasswordInput
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	if err := h.uc.ChangePassword(c.Request().Context(), actor(c), id, req); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type statusReq struct {
	Status string `json:"status" validate:"required"`
}

func (h *AuthHandler) SetStatus(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req statusReq
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	u, err := h.uc.SetStatus(c.Request().Context(), actor(c), id, user.Status(req.Status))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, u)
}
