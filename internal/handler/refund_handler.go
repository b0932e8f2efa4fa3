package handler

import (
	"net/http"

	"github.com/Eursukkul/booking-settlement/internal/dto"
	"github.com/Eursukkul/booking-settlement/internal/middleware"
	"github.com/Eursukkul/booking-settlement/internal/models"
	"github.com/Eursukkul/booking-settlement/internal/service"
	"github.com/Eursukkul/booking-settlement/pkg/auth"
	"github.com/labstack/echo/v4"
)

type RefundHandler struct {
	svc service.RefundService
}

func NewRefundHandler(svc service.RefundService) *RefundHandler {
	return &RefundHandler{svc: svc}
}

func (h *RefundHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/cancellations/:caseId/refund", h.ExecuteRefund, middleware.RequireRole(auth.RoleAdmin))
}

func (h *RefundHandler) ExecuteRefund(c echo.Context) error {
	var req dto.ExecuteRefundRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	userID, _ := middleware.Actor(c)
	exec, err := h.svc.ExecuteRefund(c.Request().Context(), service.RefundInput{
		CancellationCaseID: c.Param("caseId"),
		PaymentReference:   req.PaymentReference,
		AmountCents:        req.AmountCents,
		ExecutedByUserID:   userID,
		ExecutedByRole:     models.RoleAdmin,
	})
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusCreated, dto.ToRefundResponse(exec))
}
