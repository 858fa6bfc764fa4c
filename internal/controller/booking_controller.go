package controller

import (
	"net/http"

	"github.com/cassiomorais/courts/internal/domain/booking"
	"github.com/cassiomorais/courts/internal/service"
)

// BookingController handles booking and slot availability requests.
type BookingController struct {
	bookingService *service.BookingService
}

func NewBookingController(bookingService *service.BookingService) *BookingController {
	return &BookingController{bookingService: bookingService}
}

// Create handles POST /api/v1/bookings
func (h *BookingController) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.bookingService.CreateBooking(r.Context(), service.CreateBookingRequest{
		UserID:  req.UserID,
		SlotIDs: req.SlotIDs,
		Status:  booking.Status(req.Status),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, FromResult(res))
}

// Get handles GET /api/v1/bookings/{id}
func (h *BookingController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	b, err := h.bookingService.GetBooking(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromBooking(b))
}

// UpdateStatus handles PUT /api/v1/bookings/{id}/status
func (h *BookingController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req UpdateStatusRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	b, err := h.bookingService.UpdateBookingStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromBooking(b))
}

// ListByUser handles GET /api/v1/users/{id}/bookings
func (h *BookingController) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	bookings, err := h.bookingService.ListUserBookings(r.Context(), userID, r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]*BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = FromBooking(b)
	}
	writeJSON(w, http.StatusOK, resp)
}

// AvailableSlots handles GET /api/v1/courts/{id}/slots/available
func (h *BookingController) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	courtID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	date, err := queryDate(r, "date")
	if err != nil {
		writeError(w, err)
		return
	}
	slots, err := h.bookingService.ListAvailableSlots(r.Context(), courtID, date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromSlots(slots))
}

// UnavailableSlots handles GET /api/v1/courts/{id}/slots/unavailable
func (h *BookingController) UnavailableSlots(w http.ResponseWriter, r *http.Request) {
	courtID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	slots, err := h.bookingService.ListUnavailableSlots(r.Context(), courtID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromSlots(slots))
}
