package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rdvnburton-lab/istasyon-sub003/internal/domain"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/repository"
)

type StationHandler struct {
	Repo repository.StationRepository
}

func (h StationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/stations", h.list)
	r.Get("/stations/{id}", h.get)
	r.Post("/stations", h.upsert)
}

func (h StationHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitQuery(w, r, 100)
	if !ok {
		return
	}
	items, err := h.Repo.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, s := range items {
		resp = append(resp, stationJSON(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h StationHandler) get(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	station, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "station not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stationJSON(*station))
}

func (h StationHandler) upsert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID            *int64  `json:"id"`
		Name          string  `json:"name"`
		Code          string  `json:"code"`
		City          string  `json:"city"`
		Address       string  `json:"address"`
		ReconMode     *string `json:"reconMode"`
		ReconWarn     *int64  `json:"reconWarn"`
		ReconCritical *int64  `json:"reconCritical"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.ReconMode != nil && *req.ReconMode != "amount" && *req.ReconMode != "percent" {
		writeError(w, http.StatusBadRequest, "reconMode must be amount or percent")
		return
	}
	s := domain.Station{
		Name:          req.Name,
		Code:          req.Code,
		City:          req.City,
		Address:       req.Address,
		ReconMode:     req.ReconMode,
		ReconWarn:     req.ReconWarn,
		ReconCritical: req.ReconCritical,
	}
	if req.ID != nil {
		s.ID = *req.ID
	}
	saved, err := h.Repo.Save(r.Context(), s)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "station not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stationJSON(*saved))
}

func stationJSON(s domain.Station) map[string]any {
	out := map[string]any{
		"id":      s.ID,
		"name":    s.Name,
		"code":    s.Code,
		"city":    s.City,
		"address": s.Address,
	}
	if s.ReconMode != nil {
		out["reconMode"] = *s.ReconMode
	}
	if s.ReconWarn != nil {
		out["reconWarn"] = *s.ReconWarn
	}
	if s.ReconCritical != nil {
		out["reconCritical"] = *s.ReconCritical
	}
	return out
}
