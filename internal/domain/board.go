package domain

import "time"

// Notification is a free-text post on the board.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// IssueReport is a complaint about a mess, relayed to the admins.
type IssueReport struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Hostel    Hostel    `json:"hostel,omitempty"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
