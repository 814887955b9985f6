package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/voyagecrm/booking-core/internal/middleware"
	"github.com/voyagecrm/booking-core/internal/models"
	"github.com/voyagecrm/booking-core/internal/services"
	"github.com/voyagecrm/booking-core/pkg/documents"
)

// BookingHandler handles booking lifecycle endpoints
type BookingHandler struct {
	bookingService *services.BookingService
	logger         *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookingService *services.BookingService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		logger:         logger,
	}
}

// DocumentRequest selects the document to generate
type DocumentRequest struct {
	Type documents.Type `json:"type" binding:"required"`
}

// ============================================================================
// CREATE - POST /api/v1/bookings
// ============================================================================

// CreateBooking creates a booking owned by the calling agent
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Debug("Rejected malformed booking request")
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	booking, err := h.bookingService.Create(c.Request.Context(), middleware.Actor(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// ============================================================================
// QUERIES
// ============================================================================

// bookingView renders a booking with its timeline newest first
type bookingView struct {
	*models.Booking
	Timeline []models.BookingEvent `json:"timeline"`
}

// GetBooking returns one booking - GET /api/v1/bookings/:id
// ?timeline=desc lists the timeline newest first for display.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookingService.GetBooking(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	switch c.DefaultQuery("timeline", "asc") {
	case "asc":
		c.JSON(http.StatusOK, booking)
	case "desc":
		c.JSON(http.StatusOK, bookingView{Booking: booking, Timeline: booking.Timeline.Descending()})
	default:
		badRequest(c, "timeline must be asc or desc")
	}
}

// ListMyBookings lists the caller's bookings - GET /api/v1/bookings/mine
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	actor := middleware.Actor(c)
	h.respondList(c, func() ([]models.Booking, error) {
		return h.bookingService.ListUserBookings(c.Request.Context(), actor, actor.UserID)
	})
}

// ListAgentBookings lists one agent's bookings - GET /api/v1/agents/:agentId/bookings
func (h *BookingHandler) ListAgentBookings(c *gin.Context) {
	h.respondList(c, func() ([]models.Booking, error) {
		return h.bookingService.ListUserBookings(c.Request.Context(), middleware.Actor(c), c.Param("agentId"))
	})
}

// ListAllBookings lists every booking - GET /api/v1/bookings
func (h *BookingHandler) ListAllBookings(c *gin.Context) {
	h.respondList(c, func() ([]models.Booking, error) {
		return h.bookingService.ListAllBookings(c.Request.Context(), middleware.Actor(c))
	})
}

// SearchBookings searches visible bookings - GET /api/v1/bookings/search?q=
func (h *BookingHandler) SearchBookings(c *gin.Context) {
	h.respondList(c, func() ([]models.Booking, error) {
		return h.bookingService.SearchBookings(c.Request.Context(), middleware.Actor(c), c.Query("q"))
	})
}

// GetAnalytics aggregates all bookings - GET /api/v1/analytics
func (h *BookingHandler) GetAnalytics(c *gin.Context) {
	analytics, err := h.bookingService.Analytics(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

func (h *BookingHandler) respondList(c *gin.Context, list func() ([]models.Booking, error)) {
	bookings, err := list()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// ============================================================================
// MUTATIONS
// ============================================================================

// ModifyBooking edits booking details - PATCH /api/v1/bookings/:id
func (h *BookingHandler) ModifyBooking(c *gin.Context) {
	var req models.ModifyBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	booking, err := h.bookingService.Modify(c.Request.Context(), middleware.Actor(c), c.Param("id"), &req)
	h.respondBooking(c, booking, err)
}

// UpdateStatus sets the booking status - PATCH /api/v1/bookings/:id/status
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	booking, err := h.bookingService.UpdateStatus(c.Request.Context(), middleware.Actor(c), c.Param("id"), req.Status)
	h.respondBooking(c, booking, err)
}

// ConfirmBooking - POST /api/v1/bookings/:id/confirm
func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	booking, err := h.bookingService.Confirm(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	h.respondBooking(c, booking, err)
}

// CompleteBooking - POST /api/v1/bookings/:id/complete
func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	booking, err := h.bookingService.Complete(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	h.respondBooking(c, booking, err)
}

// UpdatePayment sets the payment status - PATCH /api/v1/bookings/:id/payment
func (h *BookingHandler) UpdatePayment(c *gin.Context) {
	var req models.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	booking, err := h.bookingService.UpdatePaymentStatus(c.Request.Context(), middleware.Actor(c), c.Param("id"), req.PaymentStatus)
	h.respondBooking(c, booking, err)
}

// CancelBooking cancels and returns the refund record - POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	var req models.CancelBookingRequest
	// the reason is optional, so an empty body is fine
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request: "+err.Error())
			return
		}
	}

	booking, refund, err := h.bookingService.Cancel(c.Request.Context(), middleware.Actor(c), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"booking": booking,
		"refund":  refund,
	})
}

// AddEvent appends a timeline entry - POST /api/v1/bookings/:id/events
func (h *BookingHandler) AddEvent(c *gin.Context) {
	var req models.AddEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	booking, err := h.bookingService.AddEvent(c.Request.Context(), middleware.Actor(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// GenerateDocument returns a document URL - POST /api/v1/bookings/:id/documents
func (h *BookingHandler) GenerateDocument(c *gin.Context) {
	var req DocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	url, err := h.bookingService.GenerateDocument(c.Request.Context(), middleware.Actor(c), c.Param("id"), req.Type)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"booking_id": c.Param("id"),
		"type":       req.Type,
		"url":        url,
	})
}

func (h *BookingHandler) respondBooking(c *gin.Context, booking *models.Booking, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}
