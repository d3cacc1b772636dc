package shoppinglist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 9, 14, 30, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// countingRepository wraps a repository and can be told to fail saves.
type countingRepository struct {
	Repository
	mu    sync.Mutex
	saves int
	fail  error
}

func (r *countingRepository) Save(ctx context.Context, doc *Document) error {
	r.mu.Lock()
	r.saves++
	fail := r.fail
	r.mu.Unlock()
	if fail != nil {
		return fail
	}
	return r.Repository.Save(ctx, doc)
}

func (r *countingRepository) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

func newTestService(t *testing.T) (Service, *countingRepository, *fakeClock) {
	t.Helper()
	repo := &countingRepository{Repository: NewMemoryRepository(BuiltinDefaults())}
	clock := newFakeClock()
	svc := NewService(repo, BuiltinDefaults(), WithClock(clock.Now))
	_, err := svc.Load(context.Background())
	require.NoError(t, err)
	return svc, repo, clock
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("appends a trimmed incomplete item", func(t *testing.T) {
		svc, repo, clock := newTestService(t)

		item, err := svc.AddItem(ctx, "coles", "  milk ")
		require.NoError(t, err)
		assert.Equal(t, "milk", item.Text)
		assert.False(t, item.Completed)
		assert.Equal(t, clock.Now().UnixMilli(), item.ID)
		assert.Equal(t, 1, repo.Saves())

		doc := svc.Snapshot()
		require.Len(t, doc.ShoppingLists["coles"], 1)
		assert.Equal(t, *item, doc.ShoppingLists["coles"][0])
		assert.Equal(t, clock.Now(), doc.LastUpdated)
	})

	t.Run("blank text changes nothing", func(t *testing.T) {
		svc, repo, _ := newTestService(t)

		_, err := svc.AddItem(ctx, "coles", "   ")
		assert.ErrorIs(t, err, ErrBlankItem)
		assert.Equal(t, 0, repo.Saves())
		assert.Empty(t, svc.Snapshot().ShoppingLists["coles"])
	})

	t.Run("rejects text over the limit", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.AddItem(ctx, "coles", strings.Repeat("a", MaxItemLength+1))
		assert.ErrorIs(t, err, ErrItemTooLong)

		_, err = svc.AddItem(ctx, "coles", strings.Repeat("米", MaxItemLength))
		assert.NoError(t, err)
	})

	t.Run("unknown store", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.AddItem(ctx, "woolworths", "milk")
		assert.ErrorIs(t, err, ErrStoreNotFound)
	})

	t.Run("ids stay unique within the same millisecond", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		seen := map[int64]bool{}
		for _, text := range []string{"eggs", "bread", "tofu", "rice"} {
			item, err := svc.AddItem(ctx, "shidai", text)
			require.NoError(t, err)
			assert.False(t, seen[item.ID], "duplicate id %d", item.ID)
			seen[item.ID] = true
		}
	})
}

func TestToggleItem(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	item, err := svc.AddItem(ctx, "aldi", "cheese")
	require.NoError(t, err)

	toggled, err := svc.ToggleItem(ctx, "aldi", item.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	toggled, err = svc.ToggleItem(ctx, "aldi", item.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Completed)
	assert.Equal(t, *item, svc.Snapshot().ShoppingLists["aldi"][0])

	_, err = svc.ToggleItem(ctx, "aldi", item.ID+1)
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = svc.ToggleItem(ctx, "coles", item.ID)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestDeleteItem(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	first, err := svc.AddItem(ctx, "coles", "apples")
	require.NoError(t, err)
	second, err := svc.AddItem(ctx, "coles", "pears")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteItem(ctx, "coles", first.ID))

	items := svc.Snapshot().ShoppingLists["coles"]
	require.Len(t, items, 1)
	assert.Equal(t, second.ID, items[0].ID)

	assert.ErrorIs(t, svc.DeleteItem(ctx, "coles", first.ID), ErrItemNotFound)
	assert.ErrorIs(t, svc.DeleteItem(ctx, "missing", first.ID), ErrStoreNotFound)
}

func TestAddStore(t *testing.T) {
	ctx := context.Background()

	t.Run("upper-cases the name and picks a palette colour", func(t *testing.T) {
		svc, _, clock := newTestService(t)

		store, err := svc.AddStore(ctx, " woolworths ", "")
		require.NoError(t, err)
		assert.Equal(t, "WOOLWORTHS", store.Name)
		assert.Equal(t, Palette[3], store.Color)
		assert.Equal(t, "store_"+strconv.FormatInt(clock.Now().UnixMilli(), 10), store.ID)

		doc := svc.Snapshot()
		require.Len(t, doc.Stores, 4)
		assert.Equal(t, *store, doc.Stores[3])
		assert.Equal(t, []Item{}, doc.ShoppingLists[store.ID])
	})

	t.Run("keeps an explicit colour", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		store, err := svc.AddStore(ctx, "iga", "#ABCDEF")
		require.NoError(t, err)
		assert.Equal(t, "#abcdef", store.Color)

		_, err = svc.AddStore(ctx, "iga", "red")
		assert.ErrorIs(t, err, ErrInvalidColor)
	})

	t.Run("stores created together get distinct ids", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		a, err := svc.AddStore(ctx, "one", "")
		require.NoError(t, err)
		b, err := svc.AddStore(ctx, "two", "")
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("validates the name", func(t *testing.T) {
		svc, repo, _ := newTestService(t)

		_, err := svc.AddStore(ctx, "  ", "")
		assert.ErrorIs(t, err, ErrBlankStoreName)
		_, err = svc.AddStore(ctx, strings.Repeat("x", MaxStoreNameLength+1), "")
		assert.ErrorIs(t, err, ErrStoreNameTooLong)
		assert.Equal(t, 0, repo.Saves())
	})
}

func TestDeleteStore(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.AddItem(ctx, "shidai", "noodles")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteStore(ctx, "shidai"))

	doc := svc.Snapshot()
	assert.Len(t, doc.Stores, 2)
	assert.NotContains(t, doc.ShoppingLists, "shidai")

	assert.ErrorIs(t, svc.DeleteStore(ctx, "shidai"), ErrStoreNotFound)
}

func TestArchive(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(BuiltinDefaults())
	clock := newFakeClock()
	dir := t.TempDir()
	svc := NewService(repo, BuiltinDefaults(), WithClock(clock.Now), WithArchiveDir(dir))
	_, err := svc.Load(ctx)
	require.NoError(t, err)

	milk, err := svc.AddItem(ctx, "coles", "milk")
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "coles", "bread")
	require.NoError(t, err)
	_, err = svc.ToggleItem(ctx, "coles", milk.ID)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "aldi", "cheese")
	require.NoError(t, err)

	archive, err := svc.Archive(ctx)
	require.NoError(t, err)

	want := "SLIST ARCHIVE - 2024-03-09 14:30:05\n\n" +
		"COLES:\n[X] milk\n[ ] bread\n\n" +
		"ALDI:\n[ ] cheese\n\n"
	assert.Equal(t, want, archive.Content)
	assert.Equal(t, "slist-archive-2024-03-09.txt", archive.Filename)
	assert.Equal(t, 3, archive.Items)

	doc := svc.Snapshot()
	for _, s := range doc.Stores {
		assert.Equal(t, []Item{}, doc.ShoppingLists[s.ID], s.ID)
	}

	stored, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored.ShoppingLists["coles"])

	kept, err := os.ReadFile(filepath.Join(dir, "slist-archive-2024-03-09-143005.txt"))
	require.NoError(t, err)
	assert.Equal(t, want, string(kept))
}

func TestSaveStatus(t *testing.T) {
	ctx := context.Background()
	svc, repo, clock := newTestService(t)

	assert.Equal(t, StatusIdle, svc.Status())

	_, err := svc.AddItem(ctx, "coles", "milk")
	require.NoError(t, err)
	assert.Equal(t, StatusSaved, svc.Status())

	clock.Advance(savedStatusTTL)
	assert.Equal(t, StatusIdle, svc.Status())

	t.Run("failed save keeps the change in memory", func(t *testing.T) {
		repo.fail = errors.New("disk full")

		item, err := svc.AddItem(ctx, "coles", "eggs")
		require.NoError(t, err)
		assert.Equal(t, StatusError, svc.Status())

		items := svc.Snapshot().ShoppingLists["coles"]
		require.Len(t, items, 2)
		assert.Equal(t, item.ID, items[1].ID)

		clock.Advance(errorStatusTTL - time.Millisecond)
		assert.Equal(t, StatusError, svc.Status())
		clock.Advance(time.Millisecond)
		assert.Equal(t, StatusIdle, svc.Status())
	})

	t.Run("replace reports the failure", func(t *testing.T) {
		_, err := svc.Replace(ctx, BuiltinDefaults().Document())
		assert.Error(t, err)
	})
}

func TestReplace(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)

	doc := &Document{
		Stores:        []Store{{ID: "iga", Name: "IGA", Color: "#000000"}},
		ShoppingLists: ShoppingLists{"iga": {{ID: 7, Text: "salt"}}},
	}
	got, err := svc.Replace(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, doc.Stores, got.Stores)
	assert.Equal(t, doc.ShoppingLists, got.ShoppingLists)

	stored, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, doc.Stores, stored.Stores)

	item, err := svc.AddItem(ctx, "iga", "pepper")
	require.NoError(t, err)
	assert.Greater(t, item.ID, int64(7))
}

// gatedRepository pauses Load after storage has been read until release is closed.
type gatedRepository struct {
	Repository
	gate    bool
	reached chan struct{}
	release chan struct{}
}

func (r *gatedRepository) Load(ctx context.Context) (*Document, error) {
	doc, err := r.Repository.Load(ctx)
	if r.gate {
		close(r.reached)
		<-r.release
	}
	return doc, err
}

func TestLoadDoesNotDropConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	repo := &gatedRepository{
		Repository: NewMemoryRepository(BuiltinDefaults()),
		reached:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	svc := NewService(repo, BuiltinDefaults())
	_, err := svc.Load(ctx)
	require.NoError(t, err)
	repo.gate = true

	loaded := make(chan error, 1)
	go func() {
		_, err := svc.Load(ctx)
		loaded <- err
	}()
	<-repo.reached

	added := make(chan error, 1)
	go func() {
		_, err := svc.AddItem(ctx, "coles", "milk")
		added <- err
	}()

	select {
	case <-added:
		t.Fatal("AddItem finished while Load was still reading")
	case <-time.After(50 * time.Millisecond):
	}

	close(repo.release)
	require.NoError(t, <-loaded)
	require.NoError(t, <-added)

	items := svc.Snapshot().ShoppingLists["coles"]
	require.Len(t, items, 1)
	assert.Equal(t, "milk", items[0].Text)

	repo.gate = false
	stored, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, stored.ShoppingLists["coles"], 1)
	assert.Equal(t, "milk", stored.ShoppingLists["coles"][0].Text)
}
