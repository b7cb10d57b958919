// models/auth.go
package models

// Response is the envelope used by every API endpoint.
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// FCMTokenRequest model for registering a device push token
type FCMTokenRequest struct {
	FCMToken string `json:"fcmToken" validate:"required"`
}
