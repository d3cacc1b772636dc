package shoppinglist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	MaxItemLength      = 200
	MaxStoreNameLength = 50
)

var (
	ErrBlankItem        = errors.New("item text is required")
	ErrItemTooLong      = errors.New("item text must be at most 200 characters")
	ErrBlankStoreName   = errors.New("store name is required")
	ErrStoreNameTooLong = errors.New("store name must be at most 50 characters")
	ErrInvalidColor     = errors.New("color must be a valid hex color code")
	ErrStoreNotFound    = errors.New("store not found")
	ErrItemNotFound     = errors.New("item not found")
)

// SaveStatus is the transient outcome of the most recent save.
type SaveStatus string

const (
	StatusIdle   SaveStatus = ""
	StatusSaving SaveStatus = "saving"
	StatusSaved  SaveStatus = "saved"
	StatusError  SaveStatus = "error"
)

// How long a finished save keeps reporting its outcome.
const (
	savedStatusTTL = 2 * time.Second
	errorStatusTTL = 3 * time.Second
)

// Service holds the stores and their lists in memory and writes the whole
// document to the Repository after every change. A failed save is logged and
// reported through Status; the in-memory state is kept and nothing is retried.
type Service interface {
	// Load replaces the in-memory state with the stored document.
	Load(ctx context.Context) (*Document, error)
	// Replace overwrites both the in-memory and the stored document.
	Replace(ctx context.Context, doc *Document) (*Document, error)
	Snapshot() *Document

	AddItem(ctx context.Context, storeID, text string) (*Item, error)
	ToggleItem(ctx context.Context, storeID string, itemID int64) (*Item, error)
	DeleteItem(ctx context.Context, storeID string, itemID int64) error

	AddStore(ctx context.Context, name, color string) (*Store, error)
	DeleteStore(ctx context.Context, storeID string) error

	// Archive renders the current lists as text and then empties every list.
	Archive(ctx context.Context) (*Archive, error)

	Status() SaveStatus
}

// Option configures the service.
type Option func(*service)

// WithLogger sets the logger; the default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) { s.logger = logger }
}

// WithArchiveDir keeps a copy of every archive in dir.
func WithArchiveDir(dir string) Option {
	return func(s *service) { s.archiveDir = dir }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

type service struct {
	repo       Repository
	defaults   Defaults
	logger     *slog.Logger
	archiveDir string
	now        func() time.Time

	mu  sync.Mutex
	doc *Document

	statusMu sync.Mutex
	status   SaveStatus
	statusAt time.Time
}

// NewService creates a list service starting from the defaults. Call Load to
// pick up the stored document.
func NewService(repo Repository, defaults Defaults, opts ...Option) Service {
	s := &service{
		repo:     repo,
		defaults: defaults,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
		doc:      defaults.Document(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load holds s.mu across the read so no mutation lands between reading
// storage and swapping the in-memory document.
func (s *service) Load(ctx context.Context) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.repo.Load(ctx)
	if err != nil {
		s.logger.Error("failed to load shopping lists", "error", err)
		return nil, err
	}
	doc.normalize()
	s.doc = doc
	return doc.Clone(), nil
}

func (s *service) Replace(ctx context.Context, doc *Document) (*Document, error) {
	doc = doc.Clone()
	doc.normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	return s.doc.Clone(), nil
}

func (s *service) Snapshot() *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

func (s *service) AddItem(ctx context.Context, storeID, text string) (*Item, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrBlankItem
	}
	if utf8.RuneCountInString(text) > MaxItemLength {
		return nil, ErrItemTooLong
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc.storeIndex(storeID) < 0 {
		return nil, ErrStoreNotFound
	}

	id := s.now().UnixMilli()
	if last := s.doc.maxItemID(); id <= last {
		id = last + 1
	}
	item := Item{ID: id, Text: text}
	s.doc.ShoppingLists[storeID] = append(s.doc.ShoppingLists[storeID], item)

	s.persist(ctx)
	return &item, nil
}

func (s *service) ToggleItem(ctx context.Context, storeID string, itemID int64) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, i, err := s.findItem(storeID, itemID)
	if err != nil {
		return nil, err
	}
	items[i].Completed = !items[i].Completed
	item := items[i]

	s.persist(ctx)
	return &item, nil
}

func (s *service) DeleteItem(ctx context.Context, storeID string, itemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, i, err := s.findItem(storeID, itemID)
	if err != nil {
		return err
	}
	kept := make([]Item, 0, len(items)-1)
	kept = append(kept, items[:i]...)
	kept = append(kept, items[i+1:]...)
	s.doc.ShoppingLists[storeID] = kept

	s.persist(ctx)
	return nil
}

func (s *service) AddStore(ctx context.Context, name, color string) (*Store, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return nil, ErrBlankStoreName
	}
	if utf8.RuneCountInString(name) > MaxStoreNameLength {
		return nil, ErrStoreNameTooLong
	}
	color = strings.TrimSpace(color)
	if color != "" && !hexColor.MatchString(color) {
		return nil, ErrInvalidColor
	}
	color = strings.ToLower(color)

	s.mu.Lock()
	defer s.mu.Unlock()

	if color == "" {
		color = s.defaults.paletteColor(len(s.doc.Stores))
	}

	ms := s.now().UnixMilli()
	id := fmt.Sprintf("store_%d", ms)
	for s.doc.storeIndex(id) >= 0 {
		ms++
		id = fmt.Sprintf("store_%d", ms)
	}

	store := Store{ID: id, Name: name, Color: color}
	s.doc.Stores = append(s.doc.Stores, store)
	s.doc.ShoppingLists[id] = []Item{}

	s.persist(ctx)
	return &store, nil
}

func (s *service) DeleteStore(ctx context.Context, storeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.doc.storeIndex(storeID)
	if idx < 0 {
		return ErrStoreNotFound
	}
	stores := make([]Store, 0, len(s.doc.Stores)-1)
	stores = append(stores, s.doc.Stores[:idx]...)
	stores = append(stores, s.doc.Stores[idx+1:]...)
	s.doc.Stores = stores
	delete(s.doc.ShoppingLists, storeID)

	s.persist(ctx)
	return nil
}

func (s *service) Archive(ctx context.Context) (*Archive, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	archive := RenderArchive(s.doc, s.now())

	cleared := make(ShoppingLists, len(s.doc.Stores))
	for _, st := range s.doc.Stores {
		cleared[st.ID] = []Item{}
	}
	s.doc.ShoppingLists = cleared

	s.persist(ctx)

	if s.archiveDir != "" {
		if err := s.keepArchive(archive); err != nil {
			s.logger.Error("failed to keep archive copy", "dir", s.archiveDir, "error", err)
		}
	}
	return archive, nil
}

func (s *service) keepArchive(a *Archive) error {
	if err := os.MkdirAll(s.archiveDir, 0755); err != nil {
		return err
	}
	name := strings.TrimSuffix(a.Filename, ".txt") + a.CreatedAt.UTC().Format("-150405") + ".txt"
	return os.WriteFile(filepath.Join(s.archiveDir, name), []byte(a.Content), 0644)
}

func (s *service) Status() SaveStatus {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()

	age := s.now().Sub(s.statusAt)
	switch {
	case s.status == StatusSaved && age >= savedStatusTTL:
		return StatusIdle
	case s.status == StatusError && age >= errorStatusTTL:
		return StatusIdle
	}
	return s.status
}

func (s *service) setStatus(st SaveStatus) {
	s.statusMu.Lock()
	s.status = st
	s.statusAt = s.now()
	s.statusMu.Unlock()
}

// persist stamps and saves the whole document. Callers hold s.mu.
func (s *service) persist(ctx context.Context) error {
	s.setStatus(StatusSaving)
	s.doc.LastUpdated = s.now().UTC()

	if err := s.repo.Save(ctx, s.doc); err != nil {
		s.logger.Error("failed to save shopping lists", "error", err)
		s.setStatus(StatusError)
		return err
	}
	s.setStatus(StatusSaved)
	return nil
}

// findItem locates an item. Callers hold s.mu.
func (s *service) findItem(storeID string, itemID int64) ([]Item, int, error) {
	if s.doc.storeIndex(storeID) < 0 {
		return nil, 0, ErrStoreNotFound
	}
	items := s.doc.ShoppingLists[storeID]
	for i := range items {
		if items[i].ID == itemID {
			return items, i, nil
		}
	}
	return nil, 0, ErrItemNotFound
}
