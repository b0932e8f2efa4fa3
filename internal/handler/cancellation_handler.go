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

type CancellationHandler struct {
	svc service.CancellationService
}

func NewCancellationHandler(svc service.CancellationService) *CancellationHandler {
	return &CancellationHandler{svc: svc}
}

// RegisterRoutes mounts the booking routes on an authenticated group.
func (h *CancellationHandler) RegisterRoutes(g *echo.Group) {
	adminOnly := middleware.RequireRole(auth.RoleAdmin)

	g.GET("/bookings/:id", h.GetBooking)
	g.GET("/bookings/:id/cancellations", h.ListCancellations)
	g.POST("/bookings/:id/cancel", h.Cancel)
	g.POST("/bookings/:id/cancellation/approve", h.Approve, adminOnly)
	g.POST("/bookings/:id/cancellation/reject", h.Reject, adminOnly)
}

func (h *CancellationHandler) Cancel(c echo.Context) error {
	var req dto.CancelBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if _, err := service.ReviewRequired(req.Initiator, req.Reason); err != nil {
		return serviceError(err)
	}

	ctx := c.Request().Context()
	booking, err := h.svc.GetBooking(ctx, c.Param("id"))
	if err != nil {
		return serviceError(err)
	}
	if !actsFor(c, booking, req.Initiator) {
		return serviceError(service.ErrForbidden)
	}

	res, err := h.svc.Cancel(ctx, service.CancelInput{
		BookingID:   booking.ID,
		Initiator:   req.Initiator,
		Reason:      req.Reason,
		Description: req.Description,
	})
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, dto.ToCancelBookingResponse(res))
}

func (h *CancellationHandler) Approve(c echo.Context) error {
	res, err := h.svc.Approve(c.Request().Context(), c.Param("id"))
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, dto.ToReviewResponse(res))
}

func (h *CancellationHandler) Reject(c echo.Context) error {
	res, err := h.svc.Reject(c.Request().Context(), c.Param("id"))
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, dto.ToReviewResponse(res))
}

func (h *CancellationHandler) GetBooking(c echo.Context) error {
	booking, err := h.svc.GetBooking(c.Request().Context(), c.Param("id"))
	if err != nil {
		return serviceError(err)
	}
	if !participates(c, booking) {
		return serviceError(service.ErrForbidden)
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *CancellationHandler) ListCancellations(c echo.Context) error {
	ctx := c.Request().Context()
	booking, err := h.svc.GetBooking(ctx, c.Param("id"))
	if err != nil {
		return serviceError(err)
	}
	if !participates(c, booking) {
		return serviceError(service.ErrForbidden)
	}

	records, err := h.svc.ListCancellations(ctx, booking.ID)
	if err != nil {
		return serviceError(err)
	}

	resp := make([]dto.CancellationResponse, len(records))
	for i := range records {
		resp[i] = dto.ToCancellationResponse(&records[i])
	}
	return c.JSON(http.StatusOK, resp)
}

// actsFor reports whether the caller is the booking party named by initiator.
func actsFor(c echo.Context, b *models.Booking, initiator models.CancellationInitiator) bool {
	if middleware.IsAdmin(c) {
		return true
	}
	userID, _ := middleware.Actor(c)
	if userID == "" {
		return false
	}
	switch initiator {
	case models.InitiatorArtist:
		return userID == b.ArtistID
	case models.InitiatorVenue:
		return userID == b.VenueID
	case models.InitiatorPromoter:
		return userID == b.PromoterID
	}
	return false
}

func participates(c echo.Context, b *models.Booking) bool {
	return actsFor(c, b, models.InitiatorArtist) ||
		actsFor(c, b, models.InitiatorVenue) ||
		actsFor(c, b, models.InitiatorPromoter)
}
