package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"settlement-engine/internal/apperr"
	"settlement-engine/internal/data/entity"
	"settlement-engine/internal/data/repository"
	"settlement-engine/internal/report"

	"github.com/google/uuid"
)

var now = time.Date(2026, 6, 1, 15, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return now }

// memLedger is an in-memory LedgerRepository with the same conditional
// update semantics as the Postgres one.
type memLedger struct {
	mu          sync.Mutex
	entries     map[uuid.UUID]*entity.LedgerEntry
	transitions []*entity.LedgerTransition

	// hook runs before the conditional update, used to simulate a
	// concurrent writer.
	beforeUpdate func(stored *entity.LedgerEntry)
	findAllErr   error
}

func newMemLedger() *memLedger {
	return &memLedger{entries: map[uuid.UUID]*entity.LedgerEntry{}}
}

func clone(e *entity.LedgerEntry) *entity.LedgerEntry {
	c := *e
	return &c
}

func (m *memLedger) Create(_ context.Context, entry *entity.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.BookingID == entry.BookingID {
			return apperr.ErrAlreadyExists
		}
	}
	m.entries[entry.ID] = clone(entry)
	return nil
}

func (m *memLedger) FindByID(_ context.Context, id uuid.UUID) (*entity.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		return clone(e), nil
	}
	return nil, nil
}

func (m *memLedger) FindByBookingID(_ context.Context, bookingID string) (*entity.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.BookingID == bookingID {
			return clone(e), nil
		}
	}
	return nil, nil
}

func (m *memLedger) FindAll(_ context.Context, filter entity.LedgerFilter) ([]*entity.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findAllErr != nil {
		return nil, m.findAllErr
	}
	var out []*entity.LedgerEntry
	for _, e := range m.entries {
		if filter.Matches(e) {
			out = append(out, clone(e))
		}
	}
	slices.SortFunc(out, func(a, b *entity.LedgerEntry) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}

func (m *memLedger) List(ctx context.Context, filter entity.LedgerFilter, limit, offset int) ([]*entity.LedgerEntry, error) {
	all, err := m.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	if offset >= len(all) {
		return nil, nil
	}
	return all[offset:min(offset+limit, len(all))], nil
}

func (m *memLedger) Count(ctx context.Context, filter entity.LedgerFilter) (int64, error) {
	all, err := m.FindAll(ctx, filter)
	return int64(len(all)), err
}

func (m *memLedger) UpdateStatus(_ context.Context, entry *entity.LedgerEntry, expectedStatus entity.LedgerStatus, expectedVersion int, tr *entity.LedgerTransition) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.entries[entry.ID]
	if !ok {
		return apperr.ErrPersistenceConflict
	}
	if m.beforeUpdate != nil {
		hook := m.beforeUpdate
		m.beforeUpdate = nil
		hook(stored)
	}
	if stored.Status != expectedStatus || stored.Version != expectedVersion {
		return apperr.ErrPersistenceConflict
	}
	m.entries[entry.ID] = clone(entry)
	m.transitions = append(m.transitions, tr)
	return nil
}

func (m *memLedger) ListTransitions(_ context.Context, entryID uuid.UUID) ([]*entity.LedgerTransition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.LedgerTransition
	for _, t := range m.transitions {
		if t.EntryID == entryID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memLedger) put(e *entity.LedgerEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.ID] = clone(e)
}

type memBookings struct {
	bookings map[string]*entity.Booking
	err      error
}

func (m *memBookings) FindByID(_ context.Context, id string) (*entity.Booking, error) {
	if m.err != nil {
		return nil, m.err
	}
	if b, ok := m.bookings[id]; ok {
		c := *b
		return &c, nil
	}
	return nil, nil
}

func (m *memBookings) Upsert(_ context.Context, b *entity.Booking) error {
	if m.err != nil {
		return m.err
	}
	if m.bookings == nil {
		m.bookings = map[string]*entity.Booking{}
	}
	c := *b
	m.bookings[b.ID] = &c
	return nil
}

type memRates struct {
	rates []*entity.RateConfig
	err   error
}

func (m *memRates) Create(_ context.Context, rate *entity.RateConfig) error {
	if m.err != nil {
		return m.err
	}
	m.rates = append(m.rates, rate)
	return nil
}

func (m *memRates) List(_ context.Context) ([]*entity.RateConfig, error) {
	return m.rates, m.err
}

func (m *memRates) FindEffective(_ context.Context, at time.Time) (*entity.RateConfig, error) {
	if m.err != nil {
		return nil, m.err
	}
	var best *entity.RateConfig
	for _, r := range m.rates {
		if r.EffectiveFrom.After(at) {
			continue
		}
		if best == nil || r.EffectiveFrom.After(best.EffectiveFrom) {
			best = r
		}
	}
	return best, nil
}

type publishedEvent struct {
	Key  string
	Body LedgerEvent
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) PublishJSON(_ context.Context, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	ev, _ := v.(LedgerEvent)
	p.events = append(p.events, publishedEvent{Key: key, Body: ev})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Key)
	}
	return out
}

// memCache keeps JSON values like the Redis cache does.
type memCache struct {
	mu          sync.Mutex
	values      map[string][]byte
	gets        int
	hits        int
	invalidated int
	err         error
}

func newMemCache() *memCache { return &memCache{values: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.err != nil {
		return false, c.err
	}
	b, ok := c.values[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(b, dest)
}

func (c *memCache) Set(_ context.Context, key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.values[key] = b
	return nil
}

func (c *memCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	if c.err != nil {
		return c.err
	}
	c.values = map[string][]byte{}
	return nil
}

type stubRenderer struct {
	docs []report.Document
	body []byte
	err  error
}

func (r *stubRenderer) Render(_ context.Context, doc report.Document) ([]byte, error) {
	r.docs = append(r.docs, doc)
	return r.body, r.err
}

var errDown = errors.New("connection refused")

type fixture struct {
	ledger    *memLedger
	bookings  *memBookings
	rates     *memRates
	cache     *memCache
	publisher *recordingPublisher
	renderer  *stubRenderer
	repo      *repository.Repository
}

func newFixture() *fixture {
	f := &fixture{
		ledger:    newMemLedger(),
		bookings:  &memBookings{bookings: map[string]*entity.Booking{}},
		rates:     &memRates{},
		cache:     newMemCache(),
		publisher: &recordingPublisher{},
		renderer:  &stubRenderer{body: []byte("%PDF-1.7 test")},
	}
	f.repo = &repository.Repository{Booking: f.bookings, Ledger: f.ledger, Rate: f.rates}
	return f
}

func (f *fixture) deps() Deps {
	return Deps{Cache: f.cache, Publisher: f.publisher, PDF: f.renderer, Now: fixedNow}
}

func completedBooking(id string, price int64) *entity.Booking {
	done := now.Add(-2 * time.Hour)
	return &entity.Booking{
		ID:           id,
		ResourceType: entity.ResourceLodging,
		StartAt:      now.Add(-72 * time.Hour),
		EndAt:        done,
		PriceNet:     price,
		Status:       entity.BookingStatusCompleted,
		OperatorID:   "op-1",
		UserID:       "user-1",
		CompletedAt:  &done,
		CreatedAt:    now.Add(-96 * time.Hour),
	}
}
