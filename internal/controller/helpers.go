package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	domainErrors "github.com/cassiomorais/courts/internal/domain/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

const dateLayout = "2006-01-02"

// retryAfterSeconds is sent with 503 responses for transient store failures.
const retryAfterSeconds = "1"

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{domainErrors.ErrBookingNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrUserNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrCourtNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrCourtTypeNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrSlotNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrInvalidStatus, http.StatusBadRequest, "invalid_status"},
	{domainErrors.ErrNothingToSave, http.StatusBadRequest, "nothing_to_update"},
	{domainErrors.ErrInvalidStateTransition, http.StatusConflict, "invalid_state_transition"},
	{domainErrors.ErrEmailTaken, http.StatusConflict, "email_taken"},
	{domainErrors.ErrSlotExists, http.StatusConflict, "slot_exists"},
	{domainErrors.ErrDuplicateIdempotencyKey, http.StatusConflict, "duplicate_request"},
	{domainErrors.ErrTransientStore, http.StatusServiceUnavailable, "temporarily_unavailable"},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}

	var slotErr *domainErrors.SlotUnavailableError
	if errors.As(err, &slotErr) {
		resp.Code = "slot_unavailable"
		resp.Error = domainErrors.ErrSlotUnavailable.Error()
		resp.UnavailableSlotIDs = slotErr.Missing
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	var validationErr *domainErrors.ValidationError
	if errors.As(err, &validationErr) {
		resp.Code = "validation_error"
		resp.Error = validationErr.Error()
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			resp.Code = m.code
			if m.err == domainErrors.ErrTransientStore {
				w.Header().Set("Retry-After", retryAfterSeconds)
				resp.Error = "the store is busy, retry the request"
			}
			writeJSON(w, m.status, resp)
			return
		}
	}

	var domainErr *domainErrors.DomainError
	if errors.As(err, &domainErr) {
		resp.Code = domainErr.Code
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	// Constraint violations land here too: they mean a bug, not bad input.
	log.Error().Err(err).Msg("unhandled error in handler")
	resp.Code = "internal_error"
	resp.Error = "internal server error"
	writeJSON(w, http.StatusInternalServerError, resp)
}

func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domainErrors.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			return domainErrors.NewValidationError(ve[0].Field(), ve[0].Tag()+" validation failed")
		}
		return domainErrors.NewValidationError("body", err.Error())
	}
	return nil
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domainErrors.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(r *http.Request, name string) (*time.Time, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, domainErrors.NewValidationError(name, "must be a date in YYYY-MM-DD format")
	}
	return &d, nil
}

// queryDateRange parses the required from and to query parameters.
func queryDateRange(r *http.Request) (time.Time, time.Time, error) {
	from, err := queryDate(r, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := queryDate(r, "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from == nil || to == nil {
		return time.Time{}, time.Time{}, domainErrors.NewValidationError("from", "from and to are required")
	}
	return *from, *to, nil
}
