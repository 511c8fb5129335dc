// Package http provides HTTP handlers for the staff module.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rai/shop-workflow-go/modules/shared/types"
	"github.com/rai/shop-workflow-go/modules/staff/application/commands"
	"github.com/rai/shop-workflow-go/modules/staff/application/queries"
	"github.com/rai/shop-workflow-go/modules/staff/domain"
)

// Handlers groups the use cases exposed over HTTP.
type Handlers struct {
	Register   *commands.RegisterStaffHandler
	Deactivate *commands.DeactivateStaffHandler
	ChangeRole *commands.ChangeRoleHandler
	Get        *queries.GetStaffHandler
	List       *queries.ListStaffHandler
}

type handler struct {
	h Handlers
}

// RegisterRoutes registers the staff module routes to the given mux.
func RegisterRoutes(mux *http.ServeMux, handlers Handlers) {
	h := &handler{h: handlers}

	mux.HandleFunc("GET /staff", h.handleList)
	mux.HandleFunc("POST /staff", h.handleRegister)
	mux.HandleFunc("GET /staff/{id}", h.handleGet)
	mux.HandleFunc("PUT /staff/{id}/role", h.handleChangeRole)
	mux.HandleFunc("POST /staff/{id}/deactivate", h.handleDeactivate)
}

type registerRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type registerResponse struct {
	ID string `json:"id"`
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.h.Register.Handle(r.Context(), commands.RegisterStaffCommand{
		Email: req.Email,
		Name:  req.Name,
		Role:  req.Role,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{ID: id})
}

func (h *handler) handleGet(w http.ResponseWriter, r *http.Request) {
	member, err := h.h.Get.Handle(r.Context(), queries.GetStaffQuery{StaffID: r.PathValue("id")})
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, member)
}

func (h *handler) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	var req changeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cmd := commands.ChangeRoleCommand{StaffID: r.PathValue("id"), Role: req.Role}
	if err := h.h.ChangeRole.Handle(r.Context(), cmd); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	cmd := commands.DeactivateStaffCommand{StaffID: r.PathValue("id")}
	if err := h.h.Deactivate.Handle(r.Context(), cmd); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleList(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.h.List.Handle(r.Context(), queries.ListStaffQuery{Offset: offset, Limit: limit})
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrStaffNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrEmailExists),
		errors.Is(err, domain.ErrStaffInactive):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, types.ErrInvalidID),
		errors.Is(err, domain.ErrEmailInvalid),
		errors.Is(err, domain.ErrEmailRequired),
		errors.Is(err, domain.ErrNameRequired),
		errors.Is(err, domain.ErrNameLength),
		errors.Is(err, domain.ErrRoleInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
