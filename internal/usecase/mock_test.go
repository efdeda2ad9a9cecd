package usecase

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/totegamma/messboard"
	"github.com/totegamma/messboard/internal/domain"
)

// --- mocks ---

type mockMenuRepo struct {
	mu        sync.Mutex
	docs      map[domain.MenuSlot]*domain.MenuDocument
	conflicts int
	failWith  error
	upserts   int
}

func newMockMenuRepo() *mockMenuRepo {
	return &mockMenuRepo{docs: map[domain.MenuSlot]*domain.MenuDocument{}}
}

func copyDoc(d *domain.MenuDocument) domain.MenuDocument {
	cp := *d
	cp.Items = append([]domain.MenuItem{}, d.Items...)
	return cp
}

func (m *mockMenuRepo) UpsertAppend(ctx context.Context, slot domain.MenuSlot, item domain.MenuItem) (domain.MenuDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	if m.failWith != nil {
		return domain.MenuDocument{}, m.failWith
	}
	if m.conflicts > 0 {
		m.conflicts--
		return domain.MenuDocument{}, domain.ConflictError{Resource: "menu"}
	}
	doc, ok := m.docs[slot]
	if !ok {
		doc = &domain.MenuDocument{
			ID:        uuid.NewString(),
			Hostel:    slot.Hostel,
			MealType:  slot.MealType,
			MenuDate:  slot.MenuDate,
			Day:       slot.MenuDate.Weekday(),
			Status:    domain.StatusPublished,
			CreatedAt: time.Now(),
		}
		m.docs[slot] = doc
	}
	doc.Items = append(doc.Items, item)
	doc.UpdatedAt = time.Now()
	return copyDoc(doc), nil
}

func (m *mockMenuRepo) ListByDay(ctx context.Context, day domain.DayKey, hostel domain.Hostel) ([]domain.MenuDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []domain.MenuDocument
	for slot, doc := range m.docs {
		if slot.MenuDate != day || (hostel != "" && slot.Hostel != hostel) {
			continue
		}
		out = append(out, copyDoc(doc))
	}
	return out, nil
}

func (m *mockMenuRepo) FindItem(ctx context.Context, itemID string) (domain.ItemLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return domain.ItemLocation{}, m.failWith
	}
	for slot, doc := range m.docs {
		for _, it := range doc.Items {
			if it.ID == itemID {
				return domain.ItemLocation{MenuID: doc.ID, Slot: slot, Item: it}, nil
			}
		}
	}
	return domain.ItemLocation{}, domain.NotFoundError{Resource: "item"}
}

func (m *mockMenuRepo) PullItem(ctx context.Context, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	for _, doc := range m.docs {
		for i, it := range doc.Items {
			if it.ID == itemID {
				doc.Items = append(doc.Items[:i:i], doc.Items[i+1:]...)
				return nil
			}
		}
	}
	return domain.NotFoundError{Resource: "item"}
}

func (m *mockMenuRepo) Ping(ctx context.Context) error {
	return m.failWith
}

func (m *mockMenuRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

type mockAttachment struct {
	mu       sync.Mutex
	stored   map[string][]byte
	removed  []string
	storeErr error
}

func newMockAttachment() *mockAttachment {
	return &mockAttachment{stored: map[string][]byte{}}
}

func (m *mockAttachment) Store(ctx context.Context, data []byte, mimeType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storeErr != nil {
		return "", m.storeErr
	}
	ref := "/uploads/" + uuid.NewString() + ".png"
	m.stored[ref] = data
	return ref, nil
}

func (m *mockAttachment) Remove(ctx context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stored, ref)
	m.removed = append(m.removed, ref)
	return nil
}

type mockCache struct {
	mu      sync.Mutex
	gens    map[domain.DayKey]int
	entries map[string][]domain.MenuDocument
	bumps   []domain.DayKey
}

func newMockCache() *mockCache {
	return &mockCache{
		gens:    map[domain.DayKey]int{},
		entries: map[string][]domain.MenuDocument{},
	}
}

func (m *mockCache) key(day domain.DayKey, gen string, hostel domain.Hostel) string {
	return string(day) + "/" + gen + "/" + string(hostel)
}

func (m *mockCache) Get(ctx context.Context, day domain.DayKey, hostel domain.Hostel) ([]domain.MenuDocument, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gen := strconv.Itoa(m.gens[day])
	docs, ok := m.entries[m.key(day, gen, hostel)]
	return docs, gen, ok
}

func (m *mockCache) Set(ctx context.Context, day domain.DayKey, gen string, hostel domain.Hostel, docs []domain.MenuDocument) {
	if gen == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.key(day, gen, hostel)] = docs
}

func (m *mockCache) Bump(ctx context.Context, day domain.DayKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gens[day]++
	m.bumps = append(m.bumps, day)
}

type mockPublisher struct {
	mu     sync.Mutex
	events []messboard.Event
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, channel string, event messboard.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.err
}

type mockNotificationRepo struct {
	items []domain.Notification
	limit int
}

func (m *mockNotificationRepo) Create(ctx context.Context, n domain.Notification) error {
	m.items = append(m.items, n)
	return nil
}

func (m *mockNotificationRepo) ListRecent(ctx context.Context, limit int) ([]domain.Notification, error) {
	m.limit = limit
	return m.items, nil
}

type mockIssueRepo struct {
	issues []domain.IssueReport
	err    error
}

func (m *mockIssueRepo) Create(ctx context.Context, issue domain.IssueReport) error {
	if m.err != nil {
		return m.err
	}
	m.issues = append(m.issues, issue)
	return nil
}
