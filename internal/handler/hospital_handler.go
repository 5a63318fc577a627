package handler

import (
	"errors"
	"log"
	"net/http"

	"visit_portal/internal/model"
	"visit_portal/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HospitalHandler handles hospital directory and roster requests
type HospitalHandler struct {
	service service.HospitalService
}

// NewHospitalHandler creates a new HospitalHandler
func NewHospitalHandler(s service.HospitalService) *HospitalHandler {
	return &HospitalHandler{service: s}
}

func (h *HospitalHandler) CreateHospital(c *gin.Context) {
	var req model.CreateHospitalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	hospital, err := h.service.CreateHospital(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidState) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Error creating hospital: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create hospital"})
		return
	}
	c.JSON(http.StatusCreated, hospital)
}

func (h *HospitalHandler) GetHospital(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid hospital ID format"})
		return
	}

	hospital, err := h.service.GetHospital(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrHospitalNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Error getting hospital %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve hospital"})
		return
	}
	c.JSON(http.StatusOK, hospital)
}

func (h *HospitalHandler) GetAllHospitals(c *gin.Context) {
	hospitals, err := h.service.GetAllHospitals(c.Request.Context())
	if err != nil {
		log.Printf("Error listing hospitals: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list hospitals"})
		return
	}
	c.JSON(http.StatusOK, hospitals)
}

func (h *HospitalHandler) UpdateHospital(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid hospital ID format"})
		return
	}

	var req model.UpdateHospitalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	hospital, err := h.service.UpdateHospital(c.Request.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrHospitalNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, model.ErrInvalidState):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Printf("Error updating hospital %s: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update hospital"})
		}
		return
	}
	c.JSON(http.StatusOK, hospital)
}

func (h *HospitalHandler) DeleteHospital(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid hospital ID format"})
		return
	}

	if err := h.service.DeleteHospital(c.Request.Context(), id); err != nil {
		if errors.Is(err, model.ErrHospitalNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Error deleting hospital %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete hospital"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HospitalHandler) AddPhotographer(c *gin.Context) {
	hospitalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid hospital ID format"})
		return
	}

	var req model.AddPhotographerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	hospital, err := h.service.AddPhotographer(c.Request.Context(), hospitalID, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrHospitalNotFound), errors.Is(err, model.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			log.Printf("Error adding photographer to hospital %s: %v", hospitalID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add photographer"})
		}
		return
	}
	c.JSON(http.StatusOK, hospital)
}

func (h *HospitalHandler) RemovePhotographer(c *gin.Context) {
	hospitalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid hospital ID format"})
		return
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	hospital, err := h.service.RemovePhotographer(c.Request.Context(), hospitalID, userID)
	if err != nil {
		if errors.Is(err, model.ErrHospitalNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Error removing photographer from hospital %s: %v", hospitalID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove photographer"})
		return
	}
	c.JSON(http.StatusOK, hospital)
}

// RegisterHospitalRoutes registers hospital routes. Reads need a session,
// writes and roster changes are admin only.
func (h *HospitalHandler) RegisterHospitalRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, adminMW gin.HandlerFunc) {
	hospitals := rg.Group("/hospitals")
	hospitals.Use(authMW)
	{
		hospitals.GET("", h.GetAllHospitals)
		hospitals.GET("/:id", h.GetHospital)

		admin := hospitals.Group("")
		admin.Use(adminMW)
		{
			admin.POST("", h.CreateHospital)
			admin.PUT("/:id", h.UpdateHospital)
			admin.DELETE("/:id", h.DeleteHospital)
			admin.POST("/:id/photographers", h.AddPhotographer)
			admin.DELETE("/:id/photographers/:userId", h.RemovePhotographer)
		}
	}
}
