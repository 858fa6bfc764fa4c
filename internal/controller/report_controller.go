package controller

import (
	"net/http"
	"strconv"

	domainErrors "github.com/cassiomorais/courts/internal/domain/errors"
	"github.com/cassiomorais/courts/internal/service"
)

// ReportController serves the fixed reports under /api/v1/reports.
type ReportController struct {
	reportService *service.ReportService
}

func NewReportController(reportService *service.ReportService) *ReportController {
	return &ReportController{reportService: reportService}
}

func (h *ReportController) BookingsByStatus(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reportService.BookingsByStatus(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]StatusCountResponse, len(rows))
	for i, row := range rows {
		resp[i] = StatusCountResponse{Status: row.Status, Count: row.Count}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ReportController) CourtUsage(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reportService.CourtUsage(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]CourtUsageResponse, len(rows))
	for i, row := range rows {
		resp[i] = CourtUsageResponse{CourtID: row.CourtID, CourtName: row.CourtName, TimesRented: row.TimesRented}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ReportController) BookingsByDay(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryDateRange(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rows, err := h.reportService.BookingsByDay(r.Context(), from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]DayCountResponse, len(rows))
	for i, row := range rows {
		resp[i] = DayCountResponse{Date: row.Date.Format(dateLayout), Count: row.Count}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ReportController) RevenueByCourt(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryDateRange(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rows, err := h.reportService.RevenueByCourt(r.Context(), from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]CourtRevenueResponse, len(rows))
	for i, row := range rows {
		resp[i] = fromCourtRevenue(row)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ReportController) TopUsers(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, domainErrors.NewValidationError("limit", "must be an integer"))
			return
		}
		limit = n
	}
	rows, err := h.reportService.TopUsers(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]UserBookingsResponse, len(rows))
	for i, row := range rows {
		resp[i] = UserBookingsResponse{UserID: row.UserID, Name: row.Name, LastName: row.LastName, Bookings: row.Bookings}
	}
	writeJSON(w, http.StatusOK, resp)
}

const monthLayout = "2006-01"

func (h *ReportController) RevenueByMonth(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryDateRange(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rows, err := h.reportService.RevenueByMonth(r.Context(), from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fromPeriodRevenue(rows, monthLayout))
}

func (h *ReportController) RevenueByDay(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryDateRange(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rows, err := h.reportService.RevenueByDay(r.Context(), from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fromPeriodRevenue(rows, dateLayout))
}

func (h *ReportController) RevenueByCourtType(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reportService.RevenueByCourtType(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]CourtTypeRevenueResponse, len(rows))
	for i, row := range rows {
		resp[i] = CourtTypeRevenueResponse{TypeID: row.TypeID, TypeName: row.TypeName, Revenue: row.Revenue.StringFixed(2)}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ReportController) RevenueByUser(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reportService.RevenueByUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]UserRevenueResponse, len(rows))
	for i, row := range rows {
		resp[i] = UserRevenueResponse{UserID: row.UserID, Name: row.Name, LastName: row.LastName, Revenue: row.Revenue.StringFixed(2)}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ReportController) BookingsByHour(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reportService.BookingsByHour(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]HourCountResponse, len(rows))
	for i, row := range rows {
		resp[i] = HourCountResponse{StartTime: row.StartTime, Count: row.Count}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ReportController) BookingsByCourtType(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reportService.BookingsByCourtType(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]CourtTypeCountResponse, len(rows))
	for i, row := range rows {
		resp[i] = CourtTypeCountResponse{TypeID: row.TypeID, TypeName: row.TypeName, Bookings: row.Bookings}
	}
	writeJSON(w, http.StatusOK, resp)
}
