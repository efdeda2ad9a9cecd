package usecase

import (
	"context"

	"github.com/totegamma/messboard"
	"github.com/totegamma/messboard/internal/domain"
)

// MenuRepository is the durable store of menu documents. Every method is a single
// atomic storage operation.
type MenuRepository interface {
	// UpsertAppend finds or creates the document of slot and appends item to it.
	// A duplicate-key race on create is reported as domain.ConflictError.
	UpsertAppend(ctx context.Context, slot domain.MenuSlot, item domain.MenuItem) (domain.MenuDocument, error)
	// ListByDay returns documents of day, all hostels when hostel is empty.
	ListByDay(ctx context.Context, day domain.DayKey, hostel domain.Hostel) ([]domain.MenuDocument, error)
	// FindItem locates an item by id across all documents.
	FindItem(ctx context.Context, itemID string) (domain.ItemLocation, error)
	// PullItem removes the item with itemID; domain.NotFoundError when nothing was removed.
	PullItem(ctx context.Context, itemID string) error
	Ping(ctx context.Context) error
}

// NotificationRepository stores board notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n domain.Notification) error
	ListRecent(ctx context.Context, limit int) ([]domain.Notification, error)
}

// IssueRepository stores issue reports.
type IssueRepository interface {
	Create(ctx context.Context, issue domain.IssueReport) error
}

// Attachment stores uploaded media and returns an opaque reference to it.
type Attachment interface {
	Store(ctx context.Context, data []byte, mimeType string) (string, error)
	Remove(ctx context.Context, ref string) error
}

// TodayCache caches day listings. Bump invalidates every listing of a day.
//
// Get reports the generation it looked under, hit or miss. Set stores under that
// generation only, so a listing read from storage before a Bump is never served
// after it. An empty generation makes Set a no-op.
type TodayCache interface {
	Get(ctx context.Context, day domain.DayKey, hostel domain.Hostel) (docs []domain.MenuDocument, gen string, ok bool)
	Set(ctx context.Context, day domain.DayKey, gen string, hostel domain.Hostel, docs []domain.MenuDocument)
	Bump(ctx context.Context, day domain.DayKey)
}

// Publisher relays events to realtime listeners.
type Publisher interface {
	Publish(ctx context.Context, channel string, event messboard.Event) error
}
