package controllers

import (
	"context"
	"fmt"
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

// RepairController handles repair ticket API endpoints
type RepairController struct {
	db      *mongo.Client
	repairs *services.RepairService
	store   *repositories.RepairRepository
	users   *repositories.UserRepository
}

// NewRepairController creates a new repair controller
func NewRepairController(db *mongo.Client, repairs *services.RepairService) *RepairController {
	return &RepairController{
		db:      db,
		repairs: repairs,
		store:   repositories.NewRepairRepository(db),
		users:   repositories.NewUserRepository(db),
	}
}

// CreateTicket opens a repair ticket with optional photo attachments and
// alerts the admins by email.
func (c *RepairController) CreateTicket(ctx echo.Context) error {
	userID, err := utils.GetUserIDFromToken(ctx)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var req models.RepairTicketRequest
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

	var imageURLs []string
	for i, encoded := range req.Images {
		name := "photo.jpg"
		if len(req.ImageNames) > i {
			name = req.ImageNames[i]
		}
		url, err := utils.SaveBase64Image(encoded, name, "repairs")
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
			})
		}
		imageURLs = append(imageURLs, url)
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), 10*time.Second)
	defer cancel()

	ticket, err := c.repairs.Create(reqCtx, userID, req.Title, req.Category, req.Description, imageURLs)
	if err != nil {
		return respondDomainError(ctx, err)
	}

	// Email alert runs in the background so a slow SMTP relay never delays
	// the response.
	go func() {
		mailCtx, mailCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer mailCancel()

		reporterName := ""
		if user, err := c.users.FindByID(mailCtx, userID); err == nil {
			reporterName = user.FullName
		}
		emails, err := c.users.AdminEmails(mailCtx)
		if err != nil {
			log.Printf("Failed to load admin emails: %v", err)
			return
		}
		utils.NotifyAdminsOfRepairTicket(emails, ticket, reporterName)
	}()

	return ctx.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Repair ticket created",
		Data:    ticket,
	})
}

// TransitionTicket applies a lifecycle event (start, complete) to a ticket.
// Admin only; the role check lives in the state machine.
func (c *RepairController) TransitionTicket(ctx echo.Context) error {
	actorID, err := utils.GetUserIDFromToken(ctx)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	ticketID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid ticket ID",
		})
	}

	var req models.TicketEventRequest
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

	ticket, err := c.repairs.Transition(reqCtx, ticketID, req.Event, actorID, middleware.ExtractUserType(ctx))
	if err != nil {
		return respondDomainError(ctx, err)
	}

	go func() {
		body := fmt.Sprintf("Your repair ticket %q is now %s.", ticket.Title, ticket.Status)
		if err := utils.SendFCMNotificationToUser(c.db, ticket.UserID, "Repair ticket updated", body,
			map[string]string{"ticketId": ticket.ID.Hex()}); err != nil {
			log.Printf("Failed to push ticket update to user %s: %v", ticket.UserID.Hex(), err)
		}
	}()

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Ticket updated",
		Data:    ticket,
	})
}

// GetTicket returns one ticket with its full status history. Residents may
// only read their own tickets.
func (c *RepairController) GetTicket(ctx echo.Context) error {
	userID, err := utils.GetUserIDFromToken(ctx)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	ticketID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid ticket ID",
		})
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), 10*time.Second)
	defer cancel()

	ticket, err := c.store.FindByID(reqCtx, ticketID)
	if err != nil {
		return respondDomainError(ctx, err)
	}
	if ticket.UserID != userID && !utils.IsAdmin(ctx) {
		return ctx.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "You are not allowed to view this ticket",
		})
	}
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Ticket retrieved",
		Data:    ticket,
	})
}

// GetMyTickets lists the caller's tickets, newest first.
func (c *RepairController) GetMyTickets(ctx echo.Context) error {
	userID, err := utils.GetUserIDFromToken(ctx)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), 10*time.Second)
	defer cancel()

	tickets, err := c.store.ListByUser(reqCtx, userID)
	if err != nil {
		log.Printf("Failed to list tickets for user %s: %v", userID.Hex(), err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Internal server error",
		})
	}
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Tickets retrieved",
		Data:    tickets,
	})
}

// GetAllTickets lists every ticket in the system. Admin access is enforced
// on the route.
func (c *RepairController) GetAllTickets(ctx echo.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), 10*time.Second)
	defer cancel()

	tickets, err := c.store.ListAll(reqCtx)
	if err != nil {
		log.Printf("Failed to list all tickets: %v", err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Internal server error",
		})
	}
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Tickets retrieved",
		Data:    tickets,
	})
}
