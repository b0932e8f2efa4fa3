package handler

import (
	"net/http"

	"github.com/Eursukkul/booking-settlement/internal/middleware"
	"github.com/Eursukkul/booking-settlement/internal/models"
	"github.com/Eursukkul/booking-settlement/internal/service"
	"github.com/Eursukkul/booking-settlement/pkg/auth"
	"github.com/labstack/echo/v4"
)

type PayoutHandler struct {
	svc service.PayoutService
}

func NewPayoutHandler(svc service.PayoutService) *PayoutHandler {
	return &PayoutHandler{svc: svc}
}

func (h *PayoutHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/payouts/:id", h.GetPayout)
	g.POST("/payouts/:id/execute", h.ExecutePayout, middleware.RequireRole(auth.RoleAdmin))
}

func (h *PayoutHandler) ExecutePayout(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.svc.ExecutePayout(ctx, c.Param("id"), models.RoleAdmin); err != nil {
		return serviceError(err)
	}

	payout, err := h.svc.GetPayout(ctx, c.Param("id"))
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, payout)
}

func (h *PayoutHandler) GetPayout(c echo.Context) error {
	payout, err := h.svc.GetPayout(c.Request().Context(), c.Param("id"))
	if err != nil {
		return serviceError(err)
	}

	userID, _ := middleware.Actor(c)
	isPayee := userID == payout.ArtistID || (payout.ManagerID != nil && userID == *payout.ManagerID)
	if !isPayee && !middleware.IsAdmin(c) {
		return serviceError(service.ErrForbidden)
	}
	return c.JSON(http.StatusOK, payout)
}
