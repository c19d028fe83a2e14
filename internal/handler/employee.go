package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rdvnburton-lab/istasyon-sub003/internal/domain"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/repository"
)

type EmployeeHandler struct {
	Repo repository.EmployeeRepository
}

func (h EmployeeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/employees", h.list)
	r.Post("/employees", h.upsert)
	r.Delete("/employees/{id}", h.delete)
}

func (h EmployeeHandler) list(w http.ResponseWriter, r *http.Request) {
	stationRaw := r.URL.Query().Get("stationId")
	stationID, err := strconv.ParseInt(stationRaw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "stationId is required")
		return
	}
	limit, ok := limitQuery(w, r, 200)
	if !ok {
		return
	}
	items, err := h.Repo.List(r.Context(), stationID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, e := range items {
		resp = append(resp, employeeJSON(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h EmployeeHandler) upsert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID        *int64 `json:"id"`
		StationID int64  `json:"stationId"`
		Name      string `json:"name"`
		BadgeNo   string `json:"badgeNo"`
		Phone     string `json:"phone"`
		Active    *bool  `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.ID == nil && req.StationID == 0 {
		writeError(w, http.StatusBadRequest, "stationId is required")
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	e := domain.Employee{
		StationID: req.StationID,
		Name:      req.Name,
		BadgeNo:   req.BadgeNo,
		Phone:     req.Phone,
		Active:    active,
	}
	if req.ID != nil {
		e.ID = *req.ID
	}
	saved, err := h.Repo.Save(r.Context(), e)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "employee not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, employeeJSON(*saved))
}

func (h EmployeeHandler) delete(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "employee not found")
		case errors.Is(err, repository.ErrEmployeeReferenced):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func employeeJSON(e domain.Employee) map[string]any {
	return map[string]any{
		"id":        e.ID,
		"stationId": e.StationID,
		"name":      e.Name,
		"badgeNo":   e.BadgeNo,
		"phone":     e.Phone,
		"active":    e.Active,
		"createdAt": e.CreatedAt.Format(time.RFC3339),
	}
}
