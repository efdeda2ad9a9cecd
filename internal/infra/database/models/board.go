package models

import "time"

type Notification struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text" bson:"_id"`
	Message   string    `json:"message" gorm:"type:text;not null" bson:"message"`
	CreatedBy string    `json:"createdBy" gorm:"type:text;not null" bson:"createdBy"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null;index" bson:"createdAt"`
}

type Issue struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text" bson:"_id"`
	Name      string    `json:"name" gorm:"type:text" bson:"name"`
	Email     string    `json:"email" gorm:"type:text" bson:"email"`
	Hostel    string    `json:"hostel" gorm:"type:text;index" bson:"hostel,omitempty"`
	Type      string    `json:"type" gorm:"type:text" bson:"type"`
	Message   string    `json:"message" gorm:"type:text;not null" bson:"message"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null" bson:"createdAt"`
}
