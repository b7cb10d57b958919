package controllers

import (
	"bytes"
	"context"
	"image/png"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/smartvillage/backend/models"
	"github.com/smartvillage/backend/repositories"
	"github.com/smartvillage/backend/utils"
)

// VisitorController handles visitor pre-registration and QR gate passes
type VisitorController struct {
	visitors *repositories.VisitorRepository
}

// NewVisitorController creates a new visitor controller
func NewVisitorController(db *mongo.Client) *VisitorController {
	return &VisitorController{visitors: repositories.NewVisitorRepository(db)}
}

// RegisterVisitor pre-registers a guest and returns the pass code for the
// QR gate pass.
func (c *VisitorController) RegisterVisitor(ctx echo.Context) error {
	userID, err := utils.GetUserIDFromToken(ctx)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var req models.VisitorRequest
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

	visitor := &models.Visitor{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Name:      req.Name,
		Phone:     req.Phone,
		VisitDate: req.VisitDate,
		Purpose:   req.Purpose,
		PassCode:  strings.ReplaceAll(uuid.New().String(), "-", ""),
		CreatedAt: time.Now(),
	}
	if err := c.visitors.Insert(reqCtx, visitor); err != nil {
		log.Printf("Failed to insert visitor: %v", err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to register visitor",
		})
	}

	return ctx.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Visitor registered",
		Data:    visitor,
	})
}

// GetMyVisitors lists the caller's registered guests, latest visit first.
func (c *VisitorController) GetMyVisitors(ctx echo.Context) error {
	userID, err := utils.GetUserIDFromToken(ctx)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), 10*time.Second)
	defer cancel()

	visitors, err := c.visitors.ListByUser(reqCtx, userID)
	if err != nil {
		log.Printf("Failed to list visitors for user %s: %v", userID.Hex(), err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Internal server error",
		})
	}
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Visitors retrieved",
		Data:    visitors,
	})
}

// GetGatePass renders the visitor's QR gate pass as a PNG. Only the
// resident who registered the guest may fetch it.
func (c *VisitorController) GetGatePass(ctx echo.Context) error {
	userID, err := utils.GetUserIDFromToken(ctx)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	visitorID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid visitor ID",
		})
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), 10*time.Second)
	defer cancel()

	visitor, err := c.visitors.FindByID(reqCtx, visitorID)
	if err != nil {
		return respondDomainError(ctx, err)
	}
	if visitor.UserID != userID && !utils.IsAdmin(ctx) {
		return ctx.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "You are not allowed to view this gate pass",
		})
	}

	code, err := qr.Encode(visitor.PassCode, qr.M, qr.Auto)
	if err != nil {
		log.Printf("Failed to encode gate pass QR: %v", err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate gate pass",
		})
	}
	code, err = barcode.Scale(code, 256, 256)
	if err != nil {
		log.Printf("Failed to scale gate pass QR: %v", err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate gate pass",
		})
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		log.Printf("Failed to render gate pass PNG: %v", err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate gate pass",
		})
	}
	return ctx.Blob(http.StatusOK, "image/png", buf.Bytes())
}

// VerifyPassCode checks a scanned pass code at the gate. Admin access is
// enforced on the route.
func (c *VisitorController) VerifyPassCode(ctx echo.Context) error {
	passCode := ctx.Param("code")
	if passCode == "" {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Pass code is required",
		})
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), 10*time.Second)
	defer cancel()

	visitor, err := c.visitors.FindByPassCode(reqCtx, passCode)
	if err != nil {
		return respondDomainError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Gate pass valid",
		Data:    visitor,
	})
}
