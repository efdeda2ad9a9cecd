package models

import (
	"time"
)

// Menu is stored as a row with child item rows in postgres and as one document
// with embedded items in mongo.
type Menu struct {
	ID        string     `json:"id" gorm:"primaryKey;type:text" bson:"_id"`
	Hostel    string     `json:"hostel" gorm:"type:text;not null;uniqueIndex:uniq_menu_slot,priority:1" bson:"hostel"`
	MealType  string     `json:"mealType" gorm:"type:text;not null;uniqueIndex:uniq_menu_slot,priority:2" bson:"mealType"`
	MenuDate  string     `json:"menuDate" gorm:"type:text;not null;uniqueIndex:uniq_menu_slot,priority:3;index" bson:"menuDate"`
	Day       string     `json:"day" gorm:"type:text;not null" bson:"day"`
	Status    string     `json:"status" gorm:"type:text;not null;default:published" bson:"status"`
	ItemSeq   int64      `json:"-" gorm:"not null;default:0" bson:"-"`
	Items     []MenuItem `json:"items" gorm:"foreignKey:MenuID;references:ID;constraint:OnDelete:CASCADE;" bson:"items"`
	CreatedAt time.Time  `json:"createdAt" gorm:"not null" bson:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt" gorm:"not null" bson:"updatedAt"`
}

type MenuItem struct {
	ID         string    `json:"id" gorm:"primaryKey;type:text" bson:"_id"`
	MenuID     string    `json:"-" gorm:"type:text;not null;uniqueIndex:uniq_menu_item_position,priority:1" bson:"-"`
	Position   int64     `json:"-" gorm:"not null;uniqueIndex:uniq_menu_item_position,priority:2" bson:"-"`
	Text       string    `json:"text" gorm:"type:text;not null" bson:"text"`
	ImagePath  string    `json:"imagePath" gorm:"type:text" bson:"imagePath,omitempty"`
	ThumbPath  string    `json:"thumbPath" gorm:"type:text" bson:"thumbPath,omitempty"`
	CreatedBy  string    `json:"createdBy" gorm:"type:text;not null" bson:"createdBy"`
	OwnerToken string    `json:"ownerToken" gorm:"type:text;not null" bson:"ownerToken"`
	CreatedAt  time.Time `json:"createdAt" gorm:"not null" bson:"createdAt"`
}
