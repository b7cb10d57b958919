package utils

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"firebase.google.com/go/v4/messaging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/gomail.v2"

	"github.com/smartvillage/backend/config"
	"github.com/smartvillage/backend/models"
)

// SendEmail delivers a plain-text email through the configured SMTP relay.
func SendEmail(to, subject, body string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	smtpPort := 2525
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		fmt.Sscanf(portStr, "%d", &smtpPort)
	}
	if smtpHost == "" {
		return fmt.Errorf("SMTP_HOST is not configured")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", smtpUser)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)
	return d.DialAndSend(m)
}

// NotifyAdminsOfRepairTicket emails every admin about a freshly opened
// repair ticket. Failures are logged, never returned to the resident.
func NotifyAdminsOfRepairTicket(adminEmails []string, ticket *models.RepairTicket, reporterName string) {
	subject := fmt.Sprintf("New Repair Ticket: %s", ticket.Title)
	body := fmt.Sprintf("A new repair ticket has been opened by %s.\n\nTitle: %s\nCategory: %s\nDescription: %s\n\nPlease review it in the admin dashboard.",
		reporterName, ticket.Title, ticket.Category, ticket.Description)

	for _, email := range adminEmails {
		if err := SendEmail(email, subject, body); err != nil {
			log.Printf("Failed to send repair ticket email to %s: %v", email, err)
		}
	}
}

// SendFCMPush delivers one push message to a device token.
func SendFCMPush(ctx context.Context, token, title, body string, data map[string]string) error {
	if token == "" {
		return fmt.Errorf("empty FCM token")
	}
	if config.FirebaseApp == nil {
		return fmt.Errorf("firebase app not initialized")
	}

	client, err := config.FirebaseApp.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging client: %w", err)
	}

	payload := map[string]string{
		"timestamp": time.Now().Format(time.RFC3339),
	}
	for key, value := range data {
		payload[key] = value
	}

	fcmMessage := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: payload,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: "smartvillage_fcm_channel",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: title,
						Body:  body,
					},
					Sound: "default",
					Badge: func() *int { v := 1; return &v }(),
				},
			},
		},
	}

	if _, err := client.Send(ctx, fcmMessage); err != nil {
		return fmt.Errorf("failed to send FCM notification: %w", err)
	}
	return nil
}

// SendFCMNotificationToUser looks up a user's registered device token and
// pushes a notification to it.
func SendFCMNotificationToUser(db *mongo.Client, userID primitive.ObjectID, title, body string, data map[string]string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := config.GetCollection(db, "users")
	var user models.User
	if err := collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user.FCMToken == "" {
		return fmt.Errorf("user has no FCM token")
	}

	return SendFCMPush(ctx, user.FCMToken, title, body, data)
}
