package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/smartvillage/backend/models"
	"github.com/smartvillage/backend/repositories"
)

// FacilityController manages the bookable facility catalogue
type FacilityController struct {
	facilities *repositories.FacilityRepository
}

// NewFacilityController creates a new facility controller
func NewFacilityController(db *mongo.Client) *FacilityController {
	return &FacilityController{facilities: repositories.NewFacilityRepository(db)}
}

// CreateFacility registers a new bookable facility. Admin access is enforced
// on the route.
func (c *FacilityController) CreateFacility(ctx echo.Context) error {
	var req models.FacilityRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}
	if err := ctx.Validate(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), 10*time.Second)
	defer cancel()

	facility := &models.Facility{
		ID:        primitive.NewObjectID(),
		Name:      req.Name,
		Category:  req.Category,
		CreatedAt: time.Now(),
	}
	if err := c.facilities.Insert(reqCtx, facility); err != nil {
		log.Printf("Failed to insert facility: %v", err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create facility",
		})
	}
	return ctx.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Facility created",
		Data:    facility,
	})
}

// ListFacilities returns the whole facility catalogue.
func (c *FacilityController) ListFacilities(ctx echo.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), 10*time.Second)
	defer cancel()

	facilities, err := c.facilities.ListAll(reqCtx)
	if err != nil {
		log.Printf("Failed to list facilities: %v", err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Internal server error",
		})
	}
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Facilities retrieved",
		Data:    facilities,
	})
}
