package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/smartvillage/backend/middleware"
	"github.com/smartvillage/backend/models"
	"github.com/smartvillage/backend/repositories"
	"github.com/smartvillage/backend/services"
	"github.com/smartvillage/backend/utils"
)

// AuthController handles signup, login and account administration
type AuthController struct {
	users *repositories.UserRepository
}

// NewAuthController creates a new auth controller
func NewAuthController(db *mongo.Client) *AuthController {
	return &AuthController{users: repositories.NewUserRepository(db)}
}

// Signup registers a new resident account. The account stays pending until
// an admin approves it; pending accounts cannot log in.
func (c *AuthController) Signup(ctx echo.Context) error {
	var req models.SignupRequest
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

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email format",
		})
	}
	phone, err := utils.SanitizePhone(req.Phone)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid phone number",
		})
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), 10*time.Second)
	defer cancel()

	if _, err := c.users.FindByEmail(reqCtx, email); err == nil {
		return ctx.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Email is already registered",
		})
	} else if err != services.ErrNotFound {
		log.Printf("Failed to check existing email: %v", err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to process password",
		})
	}

	now := time.Now()
	user := &models.User{
		ID:        primitive.NewObjectID(),
		Email:     email,
		Password:  hashed,
		FullName:  utils.SanitizeInput(req.FullName),
		Role:      models.RoleResident,
		Status:    models.UserStatusPending,
		Phone:     phone,
		Address:   utils.SanitizeInput(req.Address),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.users.Insert(reqCtx, user); err != nil {
		log.Printf("Failed to insert user: %v", err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create account",
		})
	}

	user.Password = ""
	return ctx.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Account created, waiting for admin approval",
		Data:    user,
	})
}

// Login authenticates an approved account and issues a token pair.
func (c *AuthController) Login(ctx echo.Context) error {
	var req models.LoginRequest
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

	user, err := c.users.FindByEmail(reqCtx, req.Email)
	if err != nil || !utils.CheckPassword(user.Password, req.Password) {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid email or password",
		})
	}

	switch user.Status {
	case models.UserStatusPending:
		return ctx.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Account is waiting for admin approval",
		})
	case models.UserStatusSuspended:
		return ctx.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Account has been suspended",
		})
	}

	token, refreshToken, err := middleware.GenerateJWT(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		log.Printf("Failed to generate JWT: %v", err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	user.Password = ""
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data: models.LoginResponse{
			Token:        token,
			RefreshToken: refreshToken,
			User:         *user,
		},
	})
}

// UpdateFCMToken registers the caller's device token for push notifications.
func (c *AuthController) UpdateFCMToken(ctx echo.Context) error {
	userID, err := utils.GetUserIDFromToken(ctx)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var req models.FCMTokenRequest
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

	if err := c.users.UpdateFCMToken(reqCtx, userID, req.FCMToken); err != nil {
		return respondDomainError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "FCM token updated",
	})
}

// ListPendingUsers lets an admin review accounts waiting for approval.
// Admin access is enforced on the route.
func (c *AuthController) ListPendingUsers(ctx echo.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), 10*time.Second)
	defer cancel()

	users, err := c.users.ListByStatus(reqCtx, models.UserStatusPending)
	if err != nil {
		log.Printf("Failed to list pending users: %v", err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Internal server error",
		})
	}
	for i := range users {
		users[i].Password = ""
	}
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Pending users retrieved",
		Data:    users,
	})
}

// SetUserStatus lets an admin approve or suspend an account. Admin access is
// enforced on the route.
func (c *AuthController) SetUserStatus(ctx echo.Context) error {
	userID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	var req struct {
		Status string `json:"status" validate:"required,oneof=approved suspended"`
	}
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

	if err := c.users.UpdateStatus(reqCtx, userID, req.Status); err != nil {
		return respondDomainError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "User status updated",
	})
}
