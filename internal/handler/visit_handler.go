package handler

import (
	"errors"
	"log"
	"net/http"

	"visit_portal/internal/middleware"
	"visit_portal/internal/model"
	"visit_portal/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// VisitHandler handles visit scheduling, enrollment and photographer requests
type VisitHandler struct {
	service service.VisitService
}

// NewVisitHandler creates a new VisitHandler
func NewVisitHandler(s service.VisitService) *VisitHandler {
	return &VisitHandler{service: s}
}

func (h *VisitHandler) CreateVisits(c *gin.Context) {
	var req model.CreateVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	visits, err := h.service.CreateVisits(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, model.ErrHospitalNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Error creating visits: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"visits": visits})
}

func (h *VisitHandler) GetVisit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid visit ID format"})
		return
	}

	visit, err := h.service.GetVisit(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrVisitNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Error getting visit %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve visit"})
		return
	}
	c.JSON(http.StatusOK, visit)
}

func (h *VisitHandler) GetAllVisits(c *gin.Context) {
	visits, err := h.service.GetAllVisits(c.Request.Context())
	if err != nil {
		log.Printf("Error listing visits: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list visits"})
		return
	}
	c.JSON(http.StatusOK, visits)
}

func (h *VisitHandler) UpdateVisit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid visit ID format"})
		return
	}

	var req model.UpdateVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	visit, err := h.service.UpdateVisit(c.Request.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrVisitNotFound), errors.Is(err, model.ErrHospitalNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			log.Printf("Error updating visit %s: %v", id, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, visit)
}

// CancelVisit soft-cancels the visit; enrollments stay recorded
func (h *VisitHandler) CancelVisit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid visit ID format"})
		return
	}

	if err := h.service.CancelVisit(c.Request.Context(), id); err != nil {
		if errors.Is(err, model.ErrVisitNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Error cancelling visit %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel visit"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *VisitHandler) DeleteVisit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid visit ID format"})
		return
	}

	if err := h.service.DeleteVisit(c.Request.Context(), id); err != nil {
		if errors.Is(err, model.ErrVisitNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Error deleting visit %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete visit"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Enroll reserves a seat on the visit for the session user
func (h *VisitHandler) Enroll(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid visit ID format"})
		return
	}
	user, ok := middleware.AuthUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	if err := h.service.Enroll(c.Request.Context(), id, user.ID); err != nil {
		switch {
		case errors.Is(err, model.ErrVisitNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, model.ErrVisitCancelled),
			errors.Is(err, model.ErrAlreadyEnrolled),
			errors.Is(err, model.ErrNoSeats):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			log.Printf("Error enrolling user %s in visit %s: %v", user.ID, id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enroll"})
		}
		return
	}

	h.respondWithVisit(c, id)
}

// CancelEnrollment frees the session user's seat. Idempotent; an optional
// reason is written to the audit log.
func (h *VisitHandler) CancelEnrollment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid visit ID format"})
		return
	}
	user, ok := middleware.AuthUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	// body is optional, an empty POST is a reason-less cancellation
	var req model.CancelEnrollmentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
			return
		}
	}

	if err := h.service.CancelEnrollment(c.Request.Context(), id, user.ID, req.Reason); err != nil {
		if errors.Is(err, model.ErrVisitNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Error cancelling enrollment of user %s in visit %s: %v", user.ID, id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel enrollment"})
		return
	}

	h.respondWithVisit(c, id)
}

// ClaimPhotographer takes the visit's single photographer slot
func (h *VisitHandler) ClaimPhotographer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid visit ID format"})
		return
	}
	user, ok := middleware.AuthUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	if err := h.service.ClaimPhotographer(c.Request.Context(), id, user.ID); err != nil {
		switch {
		case errors.Is(err, model.ErrVisitNotFound), errors.Is(err, model.ErrHospitalNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, model.ErrNotRosterMember):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, model.ErrVisitCancelled), errors.Is(err, model.ErrSlotTaken):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			log.Printf("Error claiming photographer slot on visit %s: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to claim photographer slot"})
		}
		return
	}

	h.respondWithVisit(c, id)
}

// ReleasePhotographer clears the slot, allowed for the holder or an admin
func (h *VisitHandler) ReleasePhotographer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid visit ID format"})
		return
	}
	user, ok := middleware.AuthUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	isAdmin := user.Role == model.RoleAdmin
	if err := h.service.ReleasePhotographer(c.Request.Context(), id, user.ID, isAdmin); err != nil {
		switch {
		case errors.Is(err, model.ErrVisitNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, model.ErrNotSlotHolder):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			log.Printf("Error releasing photographer slot on visit %s: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to release photographer slot"})
		}
		return
	}

	h.respondWithVisit(c, id)
}

// respondWithVisit returns the fresh visit state after a mutation
func (h *VisitHandler) respondWithVisit(c *gin.Context, id uuid.UUID) {
	visit, err := h.service.GetVisit(c.Request.Context(), id)
	if err != nil {
		log.Printf("Error reloading visit %s: %v", id, err)
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}
	c.JSON(http.StatusOK, visit)
}

// RegisterVisitRoutes registers visit routes. The listing and detail reads are
// public; enrollment and photographer actions need a session; scheduling is
// admin only.
func (h *VisitHandler) RegisterVisitRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, adminMW gin.HandlerFunc) {
	visits := rg.Group("/visits")
	{
		visits.GET("", h.GetAllVisits)
		visits.GET("/:id", h.GetVisit)

		member := visits.Group("")
		member.Use(authMW)
		{
			member.POST("/:id/enrollments", h.Enroll)
			member.POST("/:id/enrollments/cancel", h.CancelEnrollment)
			member.POST("/:id/photographer", h.ClaimPhotographer)
			member.DELETE("/:id/photographer", h.ReleasePhotographer)
		}

		admin := visits.Group("")
		admin.Use(authMW)
		admin.Use(adminMW)
		{
			admin.POST("", h.CreateVisits)
			admin.PATCH("/:id", h.UpdateVisit)
			admin.POST("/:id/cancel", h.CancelVisit)
			admin.DELETE("/:id", h.DeleteVisit)
		}
	}
}
