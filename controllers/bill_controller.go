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

// BillController handles bill issuing and payment endpoints
type BillController struct {
	db       *mongo.Client
	payments *services.PaymentService
	bills    *repositories.BillRepository
	store    *repositories.PaymentRepository
	users    *repositories.UserRepository
}

// NewBillController creates a new bill controller
func NewBillController(db *mongo.Client, payments *services.PaymentService) *BillController {
	return &BillController{
		db:       db,
		payments: payments,
		bills:    repositories.NewBillRepository(db),
		store:    repositories.NewPaymentRepository(db),
		users:    repositories.NewUserRepository(db),
	}
}

// IssueBill creates a bill addressed to one resident or to all approved
// residents, opening an unpaid payment for each. Admin access is enforced
// on the route.
func (c *BillController) IssueBill(ctx echo.Context) error {
	issuerID, err := utils.GetUserIDFromToken(ctx)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var req models.BillRequest
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

	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), 30*time.Second)
	defer cancel()

	var payerIDs []primitive.ObjectID
	if req.Recipient == models.RecipientAll {
		payerIDs, err = c.users.ApprovedResidentIDs(reqCtx)
		if err != nil {
			log.Printf("Failed to resolve bill recipients: %v", err)
			return ctx.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Internal server error",
			})
		}
	} else {
		payerID, err := primitive.ObjectIDFromHex(req.Recipient)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Recipient must be \"all\" or a valid user ID",
			})
		}
		if _, err := c.users.FindByID(reqCtx, payerID); err != nil {
			return respondDomainError(ctx, err)
		}
		payerIDs = []primitive.ObjectID{payerID}
	}

	bill := &models.Bill{
		ItemName:  req.ItemName,
		Amount:    req.Amount,
		DueDate:   req.DueDate,
		Recipient: req.Recipient,
		IssuedBy:  issuerID,
	}
	bill, created, err := c.payments.IssueBill(reqCtx, bill, payerIDs)
	if err != nil {
		return respondDomainError(ctx, err)
	}

	// Push delivery to every payer's device runs in the background.
	go func(payerIDs []primitive.ObjectID) {
		pushCtx, pushCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer pushCancel()

		fcmTokens, err := c.users.FCMTokensByUserIDs(pushCtx, payerIDs)
		if err != nil {
			log.Printf("Failed to load device tokens for bill %s: %v", bill.ID.Hex(), err)
			return
		}
		body := fmt.Sprintf("%s, amount %.2f, due %s.", bill.ItemName, bill.Amount,
			bill.DueDate.Format("2006-01-02"))
		for _, fcmToken := range fcmTokens {
			if err := utils.SendFCMPush(pushCtx, fcmToken, "New bill issued", body,
				map[string]string{"billId": bill.ID.Hex()}); err != nil {
				log.Printf("Failed to push bill %s: %v", bill.ID.Hex(), err)
			}
		}
	}(payerIDs)

	return ctx.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Bill issued",
		Data: map[string]interface{}{
			"bill":     bill,
			"payments": created,
		},
	})
}

// ListBills returns every issued bill. Admin access is enforced on the route.
func (c *BillController) ListBills(ctx echo.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), 10*time.Second)
	defer cancel()

	bills, err := c.bills.ListAll(reqCtx)
	if err != nil {
		log.Printf("Failed to list bills: %v", err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Internal server error",
		})
	}
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Bills retrieved",
		Data:    bills,
	})
}

// GetMyPayments lists the caller's bill payments, newest first.
func (c *BillController) GetMyPayments(ctx echo.Context) error {
	userID, err := utils.GetUserIDFromToken(ctx)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), 10*time.Second)
	defer cancel()

	payments, err := c.store.ListByPayer(reqCtx, userID)
	if err != nil {
		log.Printf("Failed to list payments for user %s: %v", userID.Hex(), err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Internal server error",
		})
	}
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payments retrieved",
		Data:    payments,
	})
}

// SubmitPayment attaches a payment slip to the caller's unpaid payment and
// moves it to submitted.
func (c *BillController) SubmitPayment(ctx echo.Context) error {
	userID, err := utils.GetUserIDFromToken(ctx)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	paymentID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid payment ID",
		})
	}

	var req models.PaymentSubmitRequest
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

	name := req.ProofName
	if name == "" {
		name = "slip.jpg"
	}
	proofURL, err := utils.SaveBase64Image(req.ProofFile, name, "payments")
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), 10*time.Second)
	defer cancel()

	payment, err := c.payments.Submit(reqCtx, paymentID, userID, proofURL)
	if err != nil {
		return respondDomainError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payment submitted for review",
		Data:    payment,
	})
}

// DecidePayment approves a submitted payment or rejects it back to unpaid.
// Admin only; the role check lives in the state machine.
func (c *BillController) DecidePayment(ctx echo.Context) error {
	paymentID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid payment ID",
		})
	}

	var req models.PaymentDecisionRequest
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

	payment, err := c.payments.Decide(reqCtx, paymentID, req.Decision, middleware.ExtractUserType(ctx))
	if err != nil {
		return respondDomainError(ctx, err)
	}

	go func() {
		title := "Payment " + payment.Status
		body := "Your payment submission has been reviewed."
		if err := utils.SendFCMNotificationToUser(c.db, payment.PayerID, title, body,
			map[string]string{"paymentId": payment.ID.Hex()}); err != nil {
			log.Printf("Failed to push payment decision to user %s: %v", payment.PayerID.Hex(), err)
		}
	}()

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payment " + payment.Status,
		Data:    payment,
	})
}

// GetSubmittedPayments lists payments waiting for review, oldest first.
// Admin access is enforced on the route.
func (c *BillController) GetSubmittedPayments(ctx echo.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), 10*time.Second)
	defer cancel()

	payments, err := c.store.ListByStatus(reqCtx, models.PaymentStatusSubmitted)
	if err != nil {
		log.Printf("Failed to list submitted payments: %v", err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Internal server error",
		})
	}
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Submitted payments retrieved",
		Data:    payments,
	})
}
