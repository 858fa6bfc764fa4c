package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/cassiomorais/courts/internal/domain/court"
	domainErrors "github.com/cassiomorais/courts/internal/domain/errors"
	"github.com/cassiomorais/courts/internal/domain/outbox"
	"github.com/cassiomorais/courts/internal/domain/report"
	"github.com/cassiomorais/courts/internal/domain/user"
	"github.com/google/uuid"
)

// --- Court Repository Mock ---

// MockCourtRepository is a mock implementation of court.Repository.
type MockCourtRepository struct {
	mu     sync.Mutex
	courts map[int64]*court.Court
	types  map[int64]*court.Type
	nextID int64

	CreateFunc    func(ctx context.Context, c *court.Court) error
	GetByIDFunc   func(ctx context.Context, id int64) (*court.Court, error)
	ListFunc      func(ctx context.Context, typeID *int64) ([]*court.Court, error)
	ListTypesFunc func(ctx context.Context) ([]*court.Type, error)
}

func NewMockCourtRepository() *MockCourtRepository {
	return &MockCourtRepository{
		courts: make(map[int64]*court.Court),
		types:  make(map[int64]*court.Type),
	}
}

// AddType pre-populates the mock with a court type.
func (m *MockCourtRepository) AddType(t *court.Type) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.types[t.ID] = t
}

func (m *MockCourtRepository) Create(ctx context.Context, c *court.Court) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.types[c.TypeID]
	if !ok {
		return domainErrors.ErrCourtTypeNotFound
	}
	m.nextID++
	c.ID = m.nextID
	c.TypeName = t.Name
	m.courts[c.ID] = c
	return nil
}

func (m *MockCourtRepository) GetByID(ctx context.Context, id int64) (*court.Court, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courts[id]
	if !ok {
		return nil, domainErrors.ErrCourtNotFound
	}
	return c, nil
}

func (m *MockCourtRepository) List(ctx context.Context, typeID *int64) ([]*court.Court, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, typeID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*court.Court, 0, len(m.courts))
	for _, c := range m.courts {
		if typeID == nil || c.TypeID == *typeID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockCourtRepository) ListTypes(ctx context.Context) ([]*court.Type, error) {
	if m.ListTypesFunc != nil {
		return m.ListTypesFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*court.Type, 0, len(m.types))
	for _, t := range m.types {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// --- User Repository Mock ---

// MockUserRepository is a mock implementation of user.Repository.
type MockUserRepository struct {
	mu          sync.Mutex
	users       map[int64]*user.User
	phones      map[int64][]*user.Phone
	nextID      int64
	nextPhoneID int64

	CreateFunc func(ctx context.Context, u *user.User) error
	UpdateFunc func(ctx context.Context, id int64, set *user.UpdateSet) (*user.User, error)
	DeleteFunc func(ctx context.Context, id int64) error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:  make(map[int64]*user.User),
		phones: make(map[int64][]*user.Phone),
	}
}

func (m *MockUserRepository) emailTaken(email string, except int64) bool {
	for _, u := range m.users {
		if u.Email == email && u.ID != except {
			return true
		}
	}
	return false
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emailTaken(u.Email, 0) {
		return domainErrors.ErrEmailTaken
	}
	m.nextID++
	u.ID = m.nextID
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domainErrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepository) GetForUpdate(ctx context.Context, id int64) (*user.User, error) {
	return m.GetByID(ctx, id)
}

func (m *MockUserRepository) List(ctx context.Context) ([]*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*user.User, 0, len(m.users))
	for _, u := range m.users {
		cp := *u
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockUserRepository) Update(ctx context.Context, id int64, set *user.UpdateSet) (*user.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, set)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if set.IsEmpty() {
		return nil, domainErrors.ErrNothingToSave
	}
	u, ok := m.users[id]
	if !ok {
		return nil, domainErrors.ErrUserNotFound
	}
	updated := *u
	set.Apply(&updated)
	if m.emailTaken(updated.Email, id) {
		return nil, domainErrors.ErrEmailTaken
	}
	m.users[id] = &updated
	cp := updated
	return &cp, nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return domainErrors.ErrUserNotFound
	}
	delete(m.users, id)
	delete(m.phones, id)
	return nil
}

func (m *MockUserRepository) AddPhone(ctx context.Context, p *user.Phone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[p.UserID]; !ok {
		return domainErrors.ErrUserNotFound
	}
	m.nextPhoneID++
	p.ID = m.nextPhoneID
	m.phones[p.UserID] = append(m.phones[p.UserID], p)
	return nil
}

func (m *MockUserRepository) ListPhones(ctx context.Context, userID int64) ([]*user.Phone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*user.Phone(nil), m.phones[userID]...), nil
}

// --- Report Repository Mock ---

// MockReportRepository is a mock implementation of report.Repository.
// Unset funcs return empty results.
type MockReportRepository struct {
	BookingsByStatusFunc func(ctx context.Context) ([]report.StatusCount, error)
	CourtUsageFunc       func(ctx context.Context) ([]report.CourtUsage, error)
	BookingsByDayFunc    func(ctx context.Context, r report.DateRange) ([]report.DayCount, error)
	RevenueByCourtFunc   func(ctx context.Context, r report.DateRange) ([]report.CourtRevenue, error)
	TopUsersFunc         func(ctx context.Context, limit int) ([]report.UserBookings, error)

	RevenueByMonthFunc      func(ctx context.Context, r report.DateRange) ([]report.PeriodRevenue, error)
	RevenueByDayFunc        func(ctx context.Context, r report.DateRange) ([]report.PeriodRevenue, error)
	RevenueByCourtTypeFunc  func(ctx context.Context) ([]report.CourtTypeRevenue, error)
	RevenueByUserFunc       func(ctx context.Context) ([]report.UserRevenue, error)
	BookingsByHourFunc      func(ctx context.Context) ([]report.HourCount, error)
	BookingsByCourtTypeFunc func(ctx context.Context) ([]report.CourtTypeCount, error)
}

func (m *MockReportRepository) BookingsByStatus(ctx context.Context) ([]report.StatusCount, error) {
	if m.BookingsByStatusFunc != nil {
		return m.BookingsByStatusFunc(ctx)
	}
	return nil, nil
}

func (m *MockReportRepository) CourtUsage(ctx context.Context) ([]report.CourtUsage, error) {
	if m.CourtUsageFunc != nil {
		return m.CourtUsageFunc(ctx)
	}
	return nil, nil
}

func (m *MockReportRepository) BookingsByDay(ctx context.Context, r report.DateRange) ([]report.DayCount, error) {
	if m.BookingsByDayFunc != nil {
		return m.BookingsByDayFunc(ctx, r)
	}
	return nil, nil
}

func (m *MockReportRepository) RevenueByCourt(ctx context.Context, r report.DateRange) ([]report.CourtRevenue, error) {
	if m.RevenueByCourtFunc != nil {
		return m.RevenueByCourtFunc(ctx, r)
	}
	return nil, nil
}

func (m *MockReportRepository) TopUsers(ctx context.Context, limit int) ([]report.UserBookings, error) {
	if m.TopUsersFunc != nil {
		return m.TopUsersFunc(ctx, limit)
	}
	return nil, nil
}

func (m *MockReportRepository) RevenueByMonth(ctx context.Context, r report.DateRange) ([]report.PeriodRevenue, error) {
	if m.RevenueByMonthFunc != nil {
		return m.RevenueByMonthFunc(ctx, r)
	}
	return nil, nil
}

func (m *MockReportRepository) RevenueByDay(ctx context.Context, r report.DateRange) ([]report.PeriodRevenue, error) {
	if m.RevenueByDayFunc != nil {
		return m.RevenueByDayFunc(ctx, r)
	}
	return nil, nil
}

func (m *MockReportRepository) RevenueByCourtType(ctx context.Context) ([]report.CourtTypeRevenue, error) {
	if m.RevenueByCourtTypeFunc != nil {
		return m.RevenueByCourtTypeFunc(ctx)
	}
	return nil, nil
}

func (m *MockReportRepository) RevenueByUser(ctx context.Context) ([]report.UserRevenue, error) {
	if m.RevenueByUserFunc != nil {
		return m.RevenueByUserFunc(ctx)
	}
	return nil, nil
}

func (m *MockReportRepository) BookingsByHour(ctx context.Context) ([]report.HourCount, error) {
	if m.BookingsByHourFunc != nil {
		return m.BookingsByHourFunc(ctx)
	}
	return nil, nil
}

func (m *MockReportRepository) BookingsByCourtType(ctx context.Context) ([]report.CourtTypeCount, error) {
	if m.BookingsByCourtTypeFunc != nil {
		return m.BookingsByCourtTypeFunc(ctx)
	}
	return nil, nil
}

// --- Transaction Manager Mock ---

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	WithTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.WithTransactionFunc != nil {
		return m.WithTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

// --- Outbox Repository Mock ---

// MockOutboxRepository is a mock implementation of outbox.Repository.
type MockOutboxRepository struct {
	InsertFunc        func(ctx context.Context, entry *outbox.Entry) error
	GetPendingFunc    func(ctx context.Context, limit int) ([]*outbox.Entry, error)
	MarkPublishedFunc func(ctx context.Context, id uuid.UUID) error
	MarkFailedFunc    func(ctx context.Context, id uuid.UUID) error
}

func (m *MockOutboxRepository) Insert(ctx context.Context, entry *outbox.Entry) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, entry)
	}
	return nil
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Entry, error) {
	if m.GetPendingFunc != nil {
		return m.GetPendingFunc(ctx, limit)
	}
	return nil, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id)
	}
	return nil
}

func (m *MockOutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	if m.MarkFailedFunc != nil {
		return m.MarkFailedFunc(ctx, id)
	}
	return nil
}
