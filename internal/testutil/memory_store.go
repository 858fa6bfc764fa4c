package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cassiomorais/courts/internal/domain/booking"
	domainErrors "github.com/cassiomorais/courts/internal/domain/errors"
	"github.com/cassiomorais/courts/internal/domain/outbox"
	"github.com/google/uuid"
)

type memTxKey struct{}

// MemoryStore is an in-memory stand-in for the relational store. It implements
// the slot, booking and outbox repositories plus the transaction manager.
// Transactions are serialized and roll back to a snapshot on error, which is
// stricter than row locking but gives the same all-or-nothing outcome.
type MemoryStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users    map[int64]bool
	slots    map[int64]booking.Slot
	bookings map[int64]booking.Booking
	details  map[int64][]int64
	entries  []*outbox.Entry

	nextSlotID    int64
	nextBookingID int64

	commits   int
	rollbacks int

	// Inject*Err hooks run before the real operation; a non-nil error is returned as is.
	InjectLockErr       func() error
	InjectAddDetailsErr func() error
	InjectOutboxErr     func() error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[int64]bool),
		slots:    make(map[int64]booking.Slot),
		bookings: make(map[int64]booking.Booking),
		details:  make(map[int64][]int64),
	}
}

type memSnapshot struct {
	slots         map[int64]booking.Slot
	bookings      map[int64]booking.Booking
	details       map[int64][]int64
	entries       []*outbox.Entry
	nextSlotID    int64
	nextBookingID int64
}

func (s *MemoryStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{
		slots:         make(map[int64]booking.Slot, len(s.slots)),
		bookings:      make(map[int64]booking.Booking, len(s.bookings)),
		details:       make(map[int64][]int64, len(s.details)),
		entries:       append([]*outbox.Entry(nil), s.entries...),
		nextSlotID:    s.nextSlotID,
		nextBookingID: s.nextBookingID,
	}
	for k, v := range s.slots {
		snap.slots[k] = v
	}
	for k, v := range s.bookings {
		snap.bookings[k] = v
	}
	for k, v := range s.details {
		snap.details[k] = append([]int64(nil), v...)
	}
	return snap
}

func (s *MemoryStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = snap.slots
	s.bookings = snap.bookings
	s.details = snap.details
	s.entries = snap.entries
	s.nextSlotID = snap.nextSlotID
	s.nextBookingID = snap.nextBookingID
}

// WithTransaction runs fn as one unit. Nested calls join the outer transaction.
func (s *MemoryStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		s.restore(snap)
		s.mu.Lock()
		s.rollbacks++
		s.mu.Unlock()
		return err
	}
	s.mu.Lock()
	s.commits++
	s.mu.Unlock()
	return nil
}

// --- seeding and inspection ---

func (s *MemoryStore) AddUser(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = true
}

// AddSlot stores a copy of slot, assigning an id when it has none.
func (s *MemoryStore) AddSlot(slot *booking.Slot) *booking.Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot.ID == 0 {
		s.nextSlotID++
		slot.ID = s.nextSlotID
	} else if slot.ID > s.nextSlotID {
		s.nextSlotID = slot.ID
	}
	s.slots[slot.ID] = *slot
	return slot
}

func (s *MemoryStore) SlotAvailable(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[id].Available
}

func (s *MemoryStore) BookingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

// DetailCount is the total number of booking/slot links.
func (s *MemoryStore) DetailCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ids := range s.details {
		n += len(ids)
	}
	return n
}

// SlotOwners returns how many active bookings link to each slot id.
func (s *MemoryStore) SlotOwners() map[int64]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	owners := make(map[int64]int)
	for bid, ids := range s.details {
		if s.bookings[bid].Status == booking.StatusCancelled {
			continue
		}
		for _, id := range ids {
			owners[id]++
		}
	}
	return owners
}

func (s *MemoryStore) OutboxEntries() []*outbox.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*outbox.Entry(nil), s.entries...)
}

func (s *MemoryStore) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

func (s *MemoryStore) Rollbacks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rollbacks
}

// Slots exposes the store as a booking.SlotRepository.
func (s *MemoryStore) Slots() booking.SlotRepository { return memSlots{s} }

// Bookings exposes the store as a booking.Repository.
func (s *MemoryStore) Bookings() booking.Repository { return memBookings{s} }

// Outbox exposes the store as an outbox.Repository.
func (s *MemoryStore) Outbox() outbox.Repository { return memOutbox{s} }

// --- slots ---

type memSlots struct{ s *MemoryStore }

func (r memSlots) LockAvailable(ctx context.Context, ids []int64) ([]*booking.Slot, error) {
	if r.s.InjectLockErr != nil {
		if err := r.s.InjectLockErr(); err != nil {
			return nil, err
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*booking.Slot
	for _, id := range ids {
		if sl, ok := r.s.slots[id]; ok && sl.Available {
			cp := sl
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memSlots) SetAvailability(ctx context.Context, ids []int64, available bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range ids {
		if _, ok := r.s.slots[id]; !ok {
			return fmt.Errorf("set availability: %w", domainErrors.ErrSlotNotFound)
		}
	}
	for _, id := range ids {
		sl := r.s.slots[id]
		sl.Available = available
		r.s.slots[id] = sl
	}
	return nil
}

func (r memSlots) Create(ctx context.Context, slot *booking.Slot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sl := range r.s.slots {
		if sl.CourtID == slot.CourtID && sl.Date.Equal(slot.Date) && sl.StartTime == slot.StartTime {
			return fmt.Errorf("create slot: %w", domainErrors.ErrSlotExists)
		}
	}
	r.s.nextSlotID++
	slot.ID = r.s.nextSlotID
	r.s.slots[slot.ID] = *slot
	return nil
}

func (r memSlots) GetByID(ctx context.Context, id int64) (*booking.Slot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sl, ok := r.s.slots[id]
	if !ok {
		return nil, domainErrors.ErrSlotNotFound
	}
	return &sl, nil
}

func (r memSlots) ListAvailable(ctx context.Context, courtID int64, date *time.Time) ([]*booking.Slot, error) {
	return r.s.listSlots(func(sl booking.Slot) bool {
		return sl.CourtID == courtID && sl.Available && (date == nil || sl.Date.Equal(*date))
	}), nil
}

func (r memSlots) ListUnavailable(ctx context.Context, courtID int64) ([]*booking.Slot, error) {
	held := r.s.SlotOwners()
	return r.s.listSlots(func(sl booking.Slot) bool {
		return sl.CourtID == courtID && held[sl.ID] > 0
	}), nil
}

func (s *MemoryStore) listSlots(keep func(booking.Slot) bool) []*booking.Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*booking.Slot
	for _, sl := range s.slots {
		if keep(sl) {
			cp := sl
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

// --- bookings ---

type memBookings struct{ s *MemoryStore }

func (r memBookings) Create(ctx context.Context, b *booking.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.users[b.UserID] {
		return fmt.Errorf("create booking: %w", domainErrors.ErrUserNotFound)
	}
	r.s.nextBookingID++
	b.ID = r.s.nextBookingID
	stored := *b
	stored.Slots = nil
	r.s.bookings[b.ID] = stored
	return nil
}

func (r memBookings) AddDetails(ctx context.Context, bookingID int64, slotIDs []int64) error {
	if r.s.InjectAddDetailsErr != nil {
		if err := r.s.InjectAddDetailsErr(); err != nil {
			return err
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.bookings[bookingID]; !ok {
		return fmt.Errorf("add booking details: %w", domainErrors.ErrConstraintViolation)
	}
	for _, id := range slotIDs {
		if _, ok := r.s.slots[id]; !ok {
			return fmt.Errorf("add booking details: %w", domainErrors.ErrConstraintViolation)
		}
	}
	r.s.details[bookingID] = append(r.s.details[bookingID], slotIDs...)
	return nil
}

func (r memBookings) GetForUpdate(ctx context.Context, id int64) (*booking.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, domainErrors.ErrBookingNotFound
	}
	return &b, nil
}

func (r memBookings) GetByID(ctx context.Context, id int64) (*booking.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, domainErrors.ErrBookingNotFound
	}
	r.s.attachSlots(&b)
	return &b, nil
}

func (s *MemoryStore) attachSlots(b *booking.Booking) {
	b.Slots = nil
	for _, sid := range s.details[b.ID] {
		sl := s.slots[sid]
		b.Slots = append(b.Slots, &sl)
	}
}

func (r memBookings) UpdateStatus(ctx context.Context, b *booking.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.bookings[b.ID]
	if !ok {
		return domainErrors.ErrBookingNotFound
	}
	stored.Status = b.Status
	stored.UpdatedAt = b.UpdatedAt
	r.s.bookings[b.ID] = stored
	return nil
}

func (r memBookings) ReleaseSlots(ctx context.Context, bookingID int64) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var released []int64
	for _, sid := range r.s.details[bookingID] {
		sl := r.s.slots[sid]
		sl.Available = true
		r.s.slots[sid] = sl
		released = append(released, sid)
	}
	return released, nil
}

func (r memBookings) ListByUser(ctx context.Context, userID int64, status *booking.Status) ([]*booking.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*booking.Booking
	for _, b := range r.s.bookings {
		if b.UserID != userID || (status != nil && b.Status != *status) {
			continue
		}
		cp := b
		r.s.attachSlots(&cp)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memBookings) DeleteByUser(ctx context.Context, userID int64) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var released []int64
	for id, b := range r.s.bookings {
		if b.UserID != userID {
			continue
		}
		if b.Status != booking.StatusCancelled {
			for _, sid := range r.s.details[id] {
				sl := r.s.slots[sid]
				sl.Available = true
				r.s.slots[sid] = sl
				released = append(released, sid)
			}
		}
		delete(r.s.details, id)
		delete(r.s.bookings, id)
	}
	sort.Slice(released, func(i, j int) bool { return released[i] < released[j] })
	return released, nil
}

// --- outbox ---

type memOutbox struct{ s *MemoryStore }

func (r memOutbox) Insert(ctx context.Context, entry *outbox.Entry) error {
	if r.s.InjectOutboxErr != nil {
		if err := r.s.InjectOutboxErr(); err != nil {
			return err
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.entries = append(r.s.entries, entry)
	return nil
}

func (r memOutbox) GetPending(ctx context.Context, limit int) ([]*outbox.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*outbox.Entry
	for _, e := range r.s.entries {
		if e.Status == outbox.StatusPending && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r memOutbox) MarkPublished(ctx context.Context, id uuid.UUID) error {
	return r.s.updateEntry(id, func(e *outbox.Entry) {
		now := time.Now()
		e.Status = outbox.StatusPublished
		e.PublishedAt = &now
	})
}

func (r memOutbox) MarkFailed(ctx context.Context, id uuid.UUID) error {
	return r.s.updateEntry(id, func(e *outbox.Entry) {
		e.RetryCount++
		if e.RetryCount >= e.MaxRetries {
			e.Status = outbox.StatusFailed
		}
	})
}

func (s *MemoryStore) updateEntry(id uuid.UUID, fn func(*outbox.Entry)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ID == id {
			fn(e)
			return nil
		}
	}
	return fmt.Errorf("outbox entry %s not found", id)
}
