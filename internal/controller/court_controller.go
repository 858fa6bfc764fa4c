package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cassiomorais/courts/internal/domain/booking"
	domainErrors "github.com/cassiomorais/courts/internal/domain/errors"
	"github.com/cassiomorais/courts/internal/service"
	"github.com/shopspring/decimal"
)

type CourtController struct {
	courtService *service.CourtService
}

func NewCourtController(courtService *service.CourtService) *CourtController {
	return &CourtController{courtService: courtService}
}

// ListTypes handles GET /api/v1/court-types
func (h *CourtController) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.courtService.ListTypes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]CourtTypeResponse, len(types))
	for i, t := range types {
		resp[i] = CourtTypeResponse{ID: t.ID, Name: t.Name}
	}
	writeJSON(w, http.StatusOK, resp)
}

// List handles GET /api/v1/courts?type={id}
func (h *CourtController) List(w http.ResponseWriter, r *http.Request) {
	var typeID *int64
	if s := r.URL.Query().Get("type"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, domainErrors.NewValidationError("type", "must be a positive integer"))
			return
		}
		typeID = &id
	}

	courts, err := h.courtService.ListCourts(r.Context(), typeID)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]*CourtResponse, len(courts))
	for i, c := range courts {
		resp[i] = FromCourt(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/courts/{id}
func (h *CourtController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := h.courtService.GetCourt(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromCourt(c))
}

// Create handles POST /api/v1/courts
func (h *CourtController) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCourtRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}
	c, err := h.courtService.CreateCourt(r.Context(), service.CreateCourtRequest{
		TypeID:      req.TypeID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, FromCourt(c))
}

// CreateSlot handles POST /api/v1/courts/{id}/slots
func (h *CourtController) CreateSlot(w http.ResponseWriter, r *http.Request) {
	courtID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req CreateSlotRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	svcReq, err := toSlotRequest(courtID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	slot, err := h.courtService.CreateSlot(r.Context(), svcReq)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, FromSlot(slot))
}

func toSlotRequest(courtID int64, req CreateSlotRequest) (service.CreateSlotRequest, error) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return service.CreateSlotRequest{}, domainErrors.NewValidationError("schedule_date", "must be a date in YYYY-MM-DD format")
	}
	start, err := booking.ParseTimeOfDay(req.StartTime)
	if err != nil {
		return service.CreateSlotRequest{}, domainErrors.NewValidationError("start_time", "must be HH:MM")
	}
	end, err := booking.ParseTimeOfDay(req.EndTime)
	if err != nil {
		return service.CreateSlotRequest{}, domainErrors.NewValidationError("end_time", "must be HH:MM")
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return service.CreateSlotRequest{}, domainErrors.NewValidationError("price", "must be a decimal number")
	}
	return service.CreateSlotRequest{
		CourtID:   courtID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Price:     price,
	}, nil
}
