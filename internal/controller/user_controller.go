package controller

import (
	"net/http"

	"github.com/cassiomorais/courts/internal/service"
)

type UserController struct {
	userService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{userService: userService}
}

// Register handles POST /api/v1/users
func (h *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}
	u, err := h.userService.Register(r.Context(), service.RegisterUserRequest{
		Name:     req.Name,
		LastName: req.LastName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, FromUser(u))
}

// List handles GET /api/v1/users
func (h *UserController) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]*UserResponse, len(users))
	for i, u := range users {
		resp[i] = FromUser(u)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/users/{id}
func (h *UserController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	u, err := h.userService.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromUser(u))
}

// Update handles PATCH /api/v1/users/{id}
func (h *UserController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req UpdateUserRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}
	u, err := h.userService.UpdateUser(r.Context(), id, service.UpdateUserRequest{
		Name:     req.Name,
		LastName: req.LastName,
		Email:    req.Email,
		Password: req.Password,
		RoleID:   req.RoleID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromUser(u))
}

// Delete handles DELETE /api/v1/users/{id}
func (h *UserController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.userService.DeleteUser(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddPhone handles POST /api/v1/users/{id}/phones
func (h *UserController) AddPhone(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req AddPhoneRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := h.userService.AddPhone(r.Context(), id, req.Number)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, FromPhone(p))
}

// ListPhones handles GET /api/v1/users/{id}/phones
func (h *UserController) ListPhones(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	phones, err := h.userService.ListPhones(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]*PhoneResponse, len(phones))
	for i, p := range phones {
		resp[i] = FromPhone(p)
	}
	writeJSON(w, http.StatusOK, resp)
}
