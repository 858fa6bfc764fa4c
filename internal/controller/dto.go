package controller

import (
	"github.com/cassiomorais/courts/internal/domain/booking"
	"github.com/cassiomorais/courts/internal/domain/court"
	"github.com/cassiomorais/courts/internal/domain/report"
	"github.com/cassiomorais/courts/internal/domain/user"
)

// --- Request DTOs ---
// Money travels as a decimal string and times as HH:MM so nothing passes
// through binary floating point.

type CreateBookingRequest struct {
	UserID  int64   `json:"user_id" validate:"required,gt=0"`
	SlotIDs []int64 `json:"slot_ids" validate:"required,min=1,dive,gt=0"`
	Status  string  `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type CreateCourtRequest struct {
	TypeID      int64  `json:"id_type" validate:"required,gt=0"`
	Name        string `json:"name" validate:"required,max=50"`
	Description string `json:"description"`
}

type CreateSlotRequest struct {
	Date      string `json:"schedule_date" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	Price     string `json:"price" validate:"required,numeric"`
}

type RegisterUserRequest struct {
	Name     string `json:"name" validate:"required,max=50"`
	LastName string `json:"last_name" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=8"`
}

type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=50"`
	LastName *string `json:"last_name,omitempty" validate:"omitempty,max=50"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email,max=100"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8"`
	RoleID   *int64  `json:"id_role,omitempty" validate:"omitempty,gt=0"`
}

type AddPhoneRequest struct {
	Number string `json:"phone_number" validate:"required,max=20"`
}

// --- Response DTOs ---

type SlotResponse struct {
	ID        int64  `json:"id_schedule"`
	CourtID   int64  `json:"id_court"`
	Date      string `json:"schedule_date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Price     string `json:"price"`
	Available bool   `json:"is_available"`
}

type BookingResultResponse struct {
	BookingID  int64          `json:"booking_id"`
	Status     string         `json:"status"`
	TotalPrice string         `json:"total_price"`
	Slots      []SlotResponse `json:"slots"`
}

type BookingResponse struct {
	ID          int64          `json:"id_booking"`
	UserID      int64          `json:"id_user"`
	BookingDate string         `json:"booking_date"`
	Status      string         `json:"status"`
	TotalPrice  string         `json:"total_price"`
	Slots       []SlotResponse `json:"slots"`
}

type CourtTypeResponse struct {
	ID   int64  `json:"id_type"`
	Name string `json:"type_name"`
}

type CourtResponse struct {
	ID          int64  `json:"id_court"`
	TypeID      int64  `json:"id_type"`
	TypeName    string `json:"type_name"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID       int64  `json:"id_user"`
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	Email    string `json:"email"`
	RoleID   int64  `json:"id_role"`
}

type PhoneResponse struct {
	ID     int64  `json:"id_user_phone"`
	UserID int64  `json:"id_user"`
	Number string `json:"phone_number"`
}

type StatusCountResponse struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type CourtUsageResponse struct {
	CourtID     int64  `json:"id_court"`
	CourtName   string `json:"name"`
	TimesRented int64  `json:"times_rented"`
}

type DayCountResponse struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type CourtRevenueResponse struct {
	CourtID   int64  `json:"id_court"`
	CourtName string `json:"name"`
	Revenue   string `json:"revenue"`
}

type UserBookingsResponse struct {
	UserID   int64  `json:"id_user"`
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	Bookings int64  `json:"bookings"`
}

// PeriodRevenueResponse carries a day (YYYY-MM-DD) or a month (YYYY-MM).
type PeriodRevenueResponse struct {
	Period  string `json:"period"`
	Revenue string `json:"revenue"`
}

type HourCountResponse struct {
	StartTime string `json:"start_time"`
	Count     int64  `json:"count"`
}

type CourtTypeCountResponse struct {
	TypeID   int64  `json:"id_type"`
	TypeName string `json:"type_name"`
	Bookings int64  `json:"bookings"`
}

type CourtTypeRevenueResponse struct {
	TypeID   int64  `json:"id_type"`
	TypeName string `json:"type_name"`
	Revenue  string `json:"revenue"`
}

type UserRevenueResponse struct {
	UserID   int64  `json:"id_user"`
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	Revenue  string `json:"revenue"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error              string  `json:"error"`
	Code               string  `json:"code"`
	UnavailableSlotIDs []int64 `json:"unavailable_slot_ids,omitempty"`
}

// --- Conversion helpers ---

func FromSlot(s *booking.Slot) SlotResponse {
	return SlotResponse{
		ID:        s.ID,
		CourtID:   s.CourtID,
		Date:      s.Date.Format(dateLayout),
		StartTime: s.StartTime.String(),
		EndTime:   s.EndTime.String(),
		Price:     s.Price.StringFixed(2),
		Available: s.Available,
	}
}

func FromSlots(slots []*booking.Slot) []SlotResponse {
	out := make([]SlotResponse, len(slots))
	for i, s := range slots {
		out[i] = FromSlot(s)
	}
	return out
}

func FromResult(r *booking.Result) *BookingResultResponse {
	return &BookingResultResponse{
		BookingID:  r.BookingID,
		Status:     string(r.Status),
		TotalPrice: r.TotalPrice.StringFixed(2),
		Slots:      FromSlots(r.Slots),
	}
}

func FromBooking(b *booking.Booking) *BookingResponse {
	return &BookingResponse{
		ID:          b.ID,
		UserID:      b.UserID,
		BookingDate: b.BookingDate.Format(dateLayout),
		Status:      string(b.Status),
		TotalPrice:  b.TotalPrice().StringFixed(2),
		Slots:       FromSlots(b.Slots),
	}
}

func FromCourt(c *court.Court) *CourtResponse {
	return &CourtResponse{
		ID:          c.ID,
		TypeID:      c.TypeID,
		TypeName:    c.TypeName,
		Name:        c.Name,
		Description: c.Description,
	}
}

func FromUser(u *user.User) *UserResponse {
	return &UserResponse{
		ID:       u.ID,
		Name:     u.Name,
		LastName: u.LastName,
		Email:    u.Email,
		RoleID:   u.RoleID,
	}
}

func FromPhone(p *user.Phone) *PhoneResponse {
	return &PhoneResponse{ID: p.ID, UserID: p.UserID, Number: p.Number}
}

func fromCourtRevenue(r report.CourtRevenue) CourtRevenueResponse {
	return CourtRevenueResponse{CourtID: r.CourtID, CourtName: r.CourtName, Revenue: r.Revenue.StringFixed(2)}
}

func fromPeriodRevenue(rows []report.PeriodRevenue, layout string) []PeriodRevenueResponse {
	resp := make([]PeriodRevenueResponse, len(rows))
	for i, row := range rows {
		resp[i] = PeriodRevenueResponse{Period: row.Period.Format(layout), Revenue: row.Revenue.StringFixed(2)}
	}
	return resp
}
