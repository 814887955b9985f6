package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/voyagecrm/booking-core/internal/middleware"
	"github.com/voyagecrm/booking-core/internal/models"
)

// RegisterRoutes mounts the API under v1. auth must populate the user
// context (see middleware.AuthMiddleware).
func RegisterRoutes(
	v1 *gin.RouterGroup,
	auth gin.HandlerFunc,
	bookingHandler *BookingHandler,
	pricingHandler *PricingHandler,
	validationHandler *ValidationHandler,
) {
	protected := v1.Group("")
	protected.Use(auth)

	bookings := protected.Group("/bookings")
	{
		bookings.POST("", bookingHandler.CreateBooking)
		bookings.GET("", middleware.RequireAdmin(), bookingHandler.ListAllBookings)
		bookings.GET("/mine", bookingHandler.ListMyBookings)
		bookings.GET("/search", bookingHandler.SearchBookings)
		bookings.GET("/:id", bookingHandler.GetBooking)
		bookings.PATCH("/:id", bookingHandler.ModifyBooking)
		bookings.PATCH("/:id/status", bookingHandler.UpdateStatus)
		bookings.POST("/:id/confirm", bookingHandler.ConfirmBooking)
		bookings.POST("/:id/complete", bookingHandler.CompleteBooking)
		bookings.PATCH("/:id/payment", bookingHandler.UpdatePayment)
		bookings.POST("/:id/cancel", bookingHandler.CancelBooking)
		bookings.POST("/:id/events", bookingHandler.AddEvent)
		bookings.POST("/:id/documents", bookingHandler.GenerateDocument)
	}

	protected.GET("/agents/:agentId/bookings", middleware.RequireAdmin(), bookingHandler.ListAgentBookings)
	protected.GET("/analytics", middleware.RequireAdmin(), bookingHandler.GetAnalytics)

	protected.POST("/pricing/quote", pricingHandler.Quote)
	protected.POST("/offers/validate", pricingHandler.ValidateOffer)
	protected.POST("/complaints/validate", validationHandler.ValidateComplaint)
	protected.POST("/users/validate", middleware.RequireRole(models.RoleSuperAdmin), validationHandler.ValidateUser)
}
