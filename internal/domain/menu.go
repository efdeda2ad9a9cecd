package domain

import (
	"strings"
	"time"
)

type Hostel string

const (
	HostelEllora  Hostel = "ellora"
	HostelHampi   Hostel = "hampi"
	HostelShilpa  Hostel = "shilpa"
	HostelAjantha Hostel = "ajantha"
)

var Hostels = []Hostel{HostelEllora, HostelHampi, HostelShilpa, HostelAjantha}

// ParseHostel accepts any casing and surrounding whitespace and returns the canonical form.
func ParseHostel(s string) (Hostel, error) {
	norm := Hostel(strings.ToLower(strings.TrimSpace(s)))
	if norm == "" {
		return "", ValidationError{Field: "hostel", Reason: "required"}
	}
	for _, h := range Hostels {
		if h == norm {
			return h, nil
		}
	}
	return "", ValidationError{Field: "hostel", Reason: "unknown hostel " + s}
}

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
)

var MealTypes = []MealType{MealBreakfast, MealLunch, MealDinner}

func ParseMealType(s string) (MealType, error) {
	norm := MealType(strings.ToLower(strings.TrimSpace(s)))
	if norm == "" {
		return "", ValidationError{Field: "mealType", Reason: "required"}
	}
	for _, m := range MealTypes {
		if m == norm {
			return m, nil
		}
	}
	return "", ValidationError{Field: "mealType", Reason: "unknown meal type " + s}
}

// Order is the position of the meal within a day.
func (m MealType) Order() int {
	for i, mt := range MealTypes {
		if mt == m {
			return i
		}
	}
	return len(MealTypes)
}

type MenuStatus string

const (
	StatusPublished MenuStatus = "published"
	// StatusPending is part of the stored schema but no operation transitions into it.
	StatusPending MenuStatus = "pending"
)

const AnonymousCreator = "Anonymous"

// MenuDocument is the single menu of one hostel, meal and day.
type MenuDocument struct {
	ID        string     `json:"id"`
	Hostel    Hostel     `json:"hostel"`
	MealType  MealType   `json:"mealType"`
	MenuDate  DayKey     `json:"menuDate"`
	Day       string     `json:"day"`
	Items     []MenuItem `json:"items"`
	Status    MenuStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// MenuItem is immutable once appended.
type MenuItem struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	ImagePath  string    `json:"imagePath,omitempty"`
	ThumbPath  string    `json:"thumbPath,omitempty"`
	CreatedBy  string    `json:"createdBy"`
	CreatedAt  time.Time `json:"createdAt"`
	OwnerToken string    `json:"ownerToken"`
}

// MenuSlot identifies the unique document for a hostel, meal and day.
type MenuSlot struct {
	Hostel   Hostel
	MealType MealType
	MenuDate DayKey
}

// ItemLocation is where an item lives, resolved from its id alone.
type ItemLocation struct {
	MenuID string
	Slot   MenuSlot
	Item   MenuItem
}
