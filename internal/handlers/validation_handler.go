package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voyagecrm/booking-core/internal/models"
	"github.com/voyagecrm/booking-core/internal/validation"
)

// ValidationHandler exposes the record validators to CRM screens that
// persist complaints and users elsewhere.
type ValidationHandler struct{}

// NewValidationHandler creates a new ValidationHandler
func NewValidationHandler() *ValidationHandler {
	return &ValidationHandler{}
}

// ValidateComplaint - POST /api/v1/complaints/validate
func (h *ValidationHandler) ValidateComplaint(c *gin.Context) {
	var complaint models.Complaint
	if err := c.ShouldBindJSON(&complaint); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := validation.ValidateComplaint(&complaint); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "complaint": complaint})
}

// ValidateUser - POST /api/v1/users/validate
func (h *ValidationHandler) ValidateUser(c *gin.Context) {
	var user models.User
	if err := c.ShouldBindJSON(&user); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := validation.ValidateUser(&user); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "user": user})
}
