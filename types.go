package messboard

import (
	"encoding/json"
	"time"
)

// Response is the envelope of every JSON reply.
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Event is published on the signal channels and streamed to realtime listeners.
type Event struct {
	Type      string          `json:"type"`
	Channel   string          `json:"channel"`
	Hostel    string          `json:"hostel,omitempty"`
	MealType  string          `json:"mealType,omitempty"`
	MenuDate  string          `json:"menuDate,omitempty"`
	ItemID    string          `json:"itemId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// DeleteItemRequest is the body of DELETE /menus/item/:itemId.
type DeleteItemRequest struct {
	CreatedBy string `json:"createdBy"`
}

// PostNotificationRequest is the body of POST /notifications.
type PostNotificationRequest struct {
	Message   string `json:"message"`
	CreatedBy string `json:"createdBy"`
}

// ReportIssueRequest is the body of POST /report-issue.
type ReportIssueRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Hostel  string `json:"hostel"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ListenRequest is sent by realtime clients.
type ListenRequest struct {
	Type    string   `json:"type"`
	Hostels []string `json:"hostels"`
}
