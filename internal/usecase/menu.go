package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/messboard"
	"github.com/totegamma/messboard/internal/domain"
)

var tracer = otel.Tracer("usecase")

const (
	DefaultStorageTimeout    = 5 * time.Second
	DefaultMaxUpsertAttempts = 5
	uploadCleanupTimeout     = 10 * time.Second
)

// PhotoInput is an uploaded file attached to a new item.
type PhotoInput struct {
	Data     []byte
	MimeType string
}

// AddItemInput is the raw, unvalidated request to append an item.
type AddItemInput struct {
	Hostel    string
	MealType  string
	Text      string
	CreatedBy string
	Photo     *PhotoInput
}

type MenuOptions struct {
	StorageTimeout    time.Duration
	MaxUpsertAttempts int
	Attachment        Attachment
	Cache             TodayCache
	Publisher         Publisher
}

// MenuUsecase is the menu store: atomic upsert-and-append, day reads and
// ownership-checked deletes.
type MenuUsecase struct {
	repo        MenuRepository
	dates       *domain.DateNormalizer
	identity    *ItemIdentity
	guard       *OwnershipGuard
	attachment  Attachment
	cache       TodayCache
	publisher   Publisher
	timeout     time.Duration
	maxAttempts int
}

func NewMenuUsecase(repo MenuRepository, dates *domain.DateNormalizer, opts MenuOptions) *MenuUsecase {
	if opts.StorageTimeout <= 0 {
		opts.StorageTimeout = DefaultStorageTimeout
	}
	if opts.MaxUpsertAttempts <= 0 {
		opts.MaxUpsertAttempts = DefaultMaxUpsertAttempts
	}
	return &MenuUsecase{
		repo:        repo,
		dates:       dates,
		identity:    NewItemIdentity(),
		guard:       NewOwnershipGuard(),
		attachment:  opts.Attachment,
		cache:       opts.Cache,
		publisher:   opts.Publisher,
		timeout:     opts.StorageTimeout,
		maxAttempts: opts.MaxUpsertAttempts,
	}
}

func (uc *MenuUsecase) AddItem(ctx context.Context, input AddItemInput) (domain.MenuDocument, error) {
	ctx, span := tracer.Start(ctx, "Menu.Usecase.AddItem")
	defer span.End()

	hostel, err := domain.ParseHostel(input.Hostel)
	if err != nil {
		span.RecordError(err)
		return domain.MenuDocument{}, err
	}
	mealType, err := domain.ParseMealType(input.MealType)
	if err != nil {
		span.RecordError(err)
		return domain.MenuDocument{}, err
	}
	text := strings.TrimSpace(input.Text)
	if text == "" {
		err := domain.ValidationError{Field: "singleItem", Reason: "required"}
		span.RecordError(err)
		return domain.MenuDocument{}, err
	}

	now := uc.dates.Now()
	slot := domain.MenuSlot{
		Hostel:   hostel,
		MealType: mealType,
		MenuDate: uc.dates.DayKey(now),
	}
	item := domain.MenuItem{
		ID:         uc.identity.NewItemID(),
		Text:       text,
		CreatedBy:  uc.guard.Owner(input.CreatedBy),
		CreatedAt:  now.UTC(),
		OwnerToken: uc.identity.NewOwnerToken(),
	}
	span.SetAttributes(
		attribute.String("hostel", string(hostel)),
		attribute.String("mealType", string(mealType)),
		attribute.String("menuDate", slot.MenuDate.String()),
		attribute.String("itemID", item.ID),
	)

	if input.Photo != nil {
		ref, err := uc.storePhoto(ctx, *input.Photo)
		if err != nil {
			span.RecordError(err)
			return domain.MenuDocument{}, err
		}
		item.ImagePath = ref
		item.ThumbPath = ref
	}

	doc, err := uc.upsertAppend(ctx, slot, item)
	if err != nil {
		span.RecordError(err)
		if item.ImagePath != "" {
			uc.discardPhoto(ctx, item.ImagePath)
		}
		return domain.MenuDocument{}, err
	}

	uc.afterMutation(ctx, slot, domain.EventItemAdded, item.ID, item)
	return doc, nil
}

// upsertAppend absorbs duplicate-key races between concurrent creators of the
// same document by retrying the find-or-create.
func (uc *MenuUsecase) upsertAppend(ctx context.Context, slot domain.MenuSlot, item domain.MenuItem) (domain.MenuDocument, error) {
	var lastErr error
	for attempt := 1; attempt <= uc.maxAttempts; attempt++ {
		sctx, cancel := context.WithTimeout(ctx, uc.timeout)
		doc, err := uc.repo.UpsertAppend(sctx, slot, item)
		cancel()
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return domain.MenuDocument{}, classify("MenuUsecase.AddItem", err)
		}
		lastErr = err
		slog.DebugContext(
			ctx, "menu upsert raced, retrying",
			slog.Int("attempt", attempt),
			slog.String("hostel", string(slot.Hostel)),
			slog.String("mealType", string(slot.MealType)),
			slog.String("module", "menu"),
		)
	}
	return domain.MenuDocument{}, domain.StorageUnavailableError{Op: "MenuUsecase.AddItem", Err: lastErr}
}

func (uc *MenuUsecase) storePhoto(ctx context.Context, photo PhotoInput) (string, error) {
	if uc.attachment == nil {
		return "", domain.UploadError{Reason: "photo uploads are disabled"}
	}
	ref, err := uc.attachment.Store(ctx, photo.Data, photo.MimeType)
	if err != nil {
		if errors.Is(err, domain.ErrUpload) {
			return "", err
		}
		return "", domain.UploadError{Reason: err.Error()}
	}
	return ref, nil
}

// discardPhoto is best-effort: a failure leaves an orphaned upload that no item
// references.
func (uc *MenuUsecase) discardPhoto(ctx context.Context, ref string) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uploadCleanupTimeout)
	defer cancel()
	if err := uc.attachment.Remove(cctx, ref); err != nil {
		slog.WarnContext(
			ctx, "failed to remove orphaned upload",
			slog.String("ref", ref),
			slog.String("error", err.Error()),
			slog.String("module", "menu"),
		)
	}
}

// ReadToday lists today's documents, optionally for one hostel.
func (uc *MenuUsecase) ReadToday(ctx context.Context, hostel string) ([]domain.MenuDocument, error) {
	ctx, span := tracer.Start(ctx, "Menu.Usecase.ReadToday")
	defer span.End()

	h, err := parseOptionalHostel(hostel)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return uc.readDay(ctx, uc.dates.Today(), h)
}

// ReadDay lists the documents of an explicit YYYY-MM-DD date.
func (uc *MenuUsecase) ReadDay(ctx context.Context, date string, hostel string) ([]domain.MenuDocument, error) {
	ctx, span := tracer.Start(ctx, "Menu.Usecase.ReadDay")
	defer span.End()

	day, err := uc.dates.ParseDayKey(strings.TrimSpace(date))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	h, err := parseOptionalHostel(hostel)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return uc.readDay(ctx, day, h)
}

func (uc *MenuUsecase) readDay(ctx context.Context, day domain.DayKey, hostel domain.Hostel) ([]domain.MenuDocument, error) {
	// gen is taken before the storage read; a Bump after this point strands
	// the listing written below under a generation nobody reads.
	var gen string
	if uc.cache != nil {
		docs, g, ok := uc.cache.Get(ctx, day, hostel)
		if ok {
			return docs, nil
		}
		gen = g
	}

	sctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	docs, err := uc.repo.ListByDay(sctx, day, hostel)
	if err != nil {
		return nil, classify("MenuUsecase.ReadDay", err)
	}
	if docs == nil {
		docs = []domain.MenuDocument{}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Hostel != docs[j].Hostel {
			return docs[i].Hostel < docs[j].Hostel
		}
		return docs[i].MealType.Order() < docs[j].MealType.Order()
	})

	if uc.cache != nil {
		uc.cache.Set(ctx, day, gen, hostel, docs)
	}
	return docs, nil
}

// DeleteItem removes an item if claimedOwner matches its creator. A second delete
// of the same id reports NotFound.
func (uc *MenuUsecase) DeleteItem(ctx context.Context, itemID string, claimedOwner string) error {
	ctx, span := tracer.Start(ctx, "Menu.Usecase.DeleteItem")
	defer span.End()
	span.SetAttributes(attribute.String("itemID", itemID))

	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		err := domain.ValidationError{Field: "itemId", Reason: "required"}
		span.RecordError(err)
		return err
	}
	if !uc.identity.Valid(itemID) {
		err := domain.ValidationError{Field: "itemId", Reason: "invalid item id format"}
		span.RecordError(err)
		return err
	}
	if strings.TrimSpace(claimedOwner) == "" {
		err := domain.ValidationError{Field: "createdBy", Reason: "required"}
		span.RecordError(err)
		return err
	}

	sctx, cancel := context.WithTimeout(ctx, uc.timeout)
	loc, err := uc.repo.FindItem(sctx, itemID)
	cancel()
	if err != nil {
		err = classify("MenuUsecase.DeleteItem", err)
		span.RecordError(err)
		return err
	}

	if err := uc.guard.Authorize(loc.Item, claimedOwner); err != nil {
		span.RecordError(err)
		return err
	}

	sctx, cancel = context.WithTimeout(ctx, uc.timeout)
	err = uc.repo.PullItem(sctx, itemID)
	cancel()
	if err != nil {
		err = classify("MenuUsecase.DeleteItem", err)
		span.RecordError(err)
		return err
	}

	uc.afterMutation(ctx, loc.Slot, domain.EventItemRemoved, itemID, nil)
	return nil
}

// Ping checks the storage round trip.
func (uc *MenuUsecase) Ping(ctx context.Context) error {
	sctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	if err := uc.repo.Ping(sctx); err != nil {
		return domain.StorageUnavailableError{Op: "MenuUsecase.Ping", Err: err}
	}
	return nil
}

func (uc *MenuUsecase) afterMutation(ctx context.Context, slot domain.MenuSlot, eventType domain.EventType, itemID string, payload any) {
	if uc.cache != nil {
		uc.cache.Bump(ctx, slot.MenuDate)
	}
	if uc.publisher == nil {
		return
	}

	channel := domain.MenuChannel(slot.Hostel)
	event := messboard.Event{
		Type:      string(eventType),
		Channel:   channel,
		Hostel:    string(slot.Hostel),
		MealType:  string(slot.MealType),
		MenuDate:  slot.MenuDate.String(),
		ItemID:    itemID,
		Timestamp: uc.dates.Now().UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err == nil {
			event.Payload = raw
		}
	}
	if err := uc.publisher.Publish(ctx, channel, event); err != nil {
		slog.WarnContext(
			ctx, "failed to publish menu event",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
			slog.String("module", "menu"),
		)
	}
}

func parseOptionalHostel(s string) (domain.Hostel, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	return domain.ParseHostel(s)
}

// classify passes terminal domain errors through and reports everything else as a
// transient storage failure.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrUpload),
		errors.Is(err, domain.ErrStorageUnavailable):
		return err
	default:
		return domain.StorageUnavailableError{Op: op, Err: err}
	}
}
