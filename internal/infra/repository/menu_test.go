package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/messboard/internal/domain"
)

const today = domain.DayKey("2026-10-16")

func TestUpsertAppendCreatesPublishedDocument(t *testing.T) {
	repo := NewMenuRepository(openTestDB(t))
	ctx := context.Background()

	item := testItem("Idli", "Alice")
	doc, err := repo.UpsertAppend(ctx, testSlot(domain.HostelEllora, domain.MealBreakfast, today), item)
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, domain.HostelEllora, doc.Hostel)
	assert.Equal(t, domain.MealBreakfast, doc.MealType)
	assert.Equal(t, today, doc.MenuDate)
	assert.Equal(t, "Friday", doc.Day)
	assert.Equal(t, domain.StatusPublished, doc.Status)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, item.ID, doc.Items[0].ID)
	assert.Equal(t, "Alice", doc.Items[0].CreatedBy)
	assert.Equal(t, item.OwnerToken, doc.Items[0].OwnerToken)
}

func TestUpsertAppendReusesDocumentAndKeepsOrder(t *testing.T) {
	repo := NewMenuRepository(openTestDB(t))
	ctx := context.Background()
	slot := testSlot(domain.HostelHampi, domain.MealLunch, today)

	first, err := repo.UpsertAppend(ctx, slot, testItem("Rice", "Alice"))
	require.NoError(t, err)
	second, err := repo.UpsertAppend(ctx, slot, testItem("Dal", "Bob"))
	require.NoError(t, err)
	third, err := repo.UpsertAppend(ctx, slot, testItem("Curd", "Carol"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.ID, third.ID)
	require.Len(t, third.Items, 3)
	assert.Equal(t, "Rice", third.Items[0].Text)
	assert.Equal(t, "Dal", third.Items[1].Text)
	assert.Equal(t, "Curd", third.Items[2].Text)
}

func TestUpsertAppendSeparatesSlots(t *testing.T) {
	repo := NewMenuRepository(openTestDB(t))
	ctx := context.Background()

	a, err := repo.UpsertAppend(ctx, testSlot(domain.HostelEllora, domain.MealBreakfast, today), testItem("Idli", "Alice"))
	require.NoError(t, err)
	b, err := repo.UpsertAppend(ctx, testSlot(domain.HostelEllora, domain.MealDinner, today), testItem("Roti", "Alice"))
	require.NoError(t, err)
	c, err := repo.UpsertAppend(ctx, testSlot(domain.HostelEllora, domain.MealBreakfast, today.Next()), testItem("Dosa", "Alice"))
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.ID, c.ID)
	assert.Len(t, a.Items, 1)
	assert.Len(t, b.Items, 1)
	assert.Len(t, c.Items, 1)
}

func TestUpsertAppendConcurrentAppendsAllSurvive(t *testing.T) {
	repo := NewMenuRepository(openTestDB(t))
	ctx := context.Background()
	slot := testSlot(domain.HostelShilpa, domain.MealDinner, today)

	const n = 16
	ids := make([]string, n)
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		item := testItem("dish", "cook")
		ids[i] = item.ID
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.UpsertAppend(ctx, slot, item)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	docs, err := repo.ListByDay(ctx, today, domain.HostelShilpa)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Len(t, docs[0].Items, n)

	seen := map[string]int{}
	for _, it := range docs[0].Items {
		seen[it.ID]++
	}
	for _, id := range ids {
		assert.Equal(t, 1, seen[id], "item %s", id)
	}
}

func TestListByDayFiltersDayAndHostel(t *testing.T) {
	repo := NewMenuRepository(openTestDB(t))
	ctx := context.Background()

	_, err := repo.UpsertAppend(ctx, testSlot(domain.HostelEllora, domain.MealLunch, today), testItem("Rice", "a"))
	require.NoError(t, err)
	_, err = repo.UpsertAppend(ctx, testSlot(domain.HostelAjantha, domain.MealLunch, today), testItem("Rice", "b"))
	require.NoError(t, err)
	_, err = repo.UpsertAppend(ctx, testSlot(domain.HostelEllora, domain.MealLunch, today.Next()), testItem("Pulao", "c"))
	require.NoError(t, err)

	all, err := repo.ListByDay(ctx, today, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	ellora, err := repo.ListByDay(ctx, today, domain.HostelEllora)
	require.NoError(t, err)
	require.Len(t, ellora, 1)
	assert.Equal(t, "Rice", ellora[0].Items[0].Text)

	tomorrow, err := repo.ListByDay(ctx, today.Next(), "")
	require.NoError(t, err)
	require.Len(t, tomorrow, 1)
	assert.Equal(t, "Pulao", tomorrow[0].Items[0].Text)

	empty, err := repo.ListByDay(ctx, "2026-01-01", "")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFindItemAndPullItem(t *testing.T) {
	repo := NewMenuRepository(openTestDB(t))
	ctx := context.Background()
	slot := testSlot(domain.HostelEllora, domain.MealBreakfast, today)

	keep := testItem("Vada", "Bob")
	drop := testItem("Idli", "Alice")
	_, err := repo.UpsertAppend(ctx, slot, keep)
	require.NoError(t, err)
	doc, err := repo.UpsertAppend(ctx, slot, drop)
	require.NoError(t, err)

	loc, err := repo.FindItem(ctx, drop.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, loc.MenuID)
	assert.Equal(t, slot, loc.Slot)
	assert.Equal(t, "Alice", loc.Item.CreatedBy)

	require.NoError(t, repo.PullItem(ctx, drop.ID))

	err = repo.PullItem(ctx, drop.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.FindItem(ctx, drop.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	docs, err := repo.ListByDay(ctx, today, domain.HostelEllora)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Len(t, docs[0].Items, 1)
	assert.Equal(t, keep.ID, docs[0].Items[0].ID)
}

func TestAppendAfterPullKeepsPositionsUnique(t *testing.T) {
	repo := NewMenuRepository(openTestDB(t))
	ctx := context.Background()
	slot := testSlot(domain.HostelHampi, domain.MealDinner, today)

	first := testItem("Roti", "a")
	_, err := repo.UpsertAppend(ctx, slot, first)
	require.NoError(t, err)
	require.NoError(t, repo.PullItem(ctx, first.ID))

	doc, err := repo.UpsertAppend(ctx, slot, testItem("Naan", "a"))
	require.NoError(t, err)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, "Naan", doc.Items[0].Text)
}

func TestFindItemUnknown(t *testing.T) {
	repo := NewMenuRepository(openTestDB(t))
	_, err := repo.FindItem(context.Background(), "3f1c7a52-8d7e-4b8e-9a77-0c2f7e9b1d10")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPing(t *testing.T) {
	repo := NewMenuRepository(openTestDB(t))
	assert.NoError(t, repo.Ping(context.Background()))
}
