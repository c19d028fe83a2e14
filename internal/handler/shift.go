package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rdvnburton-lab/istasyon-sub003/internal/domain"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/repository"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/server/authctx"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/service"
)

// SalesLineStore attaches and lists a shift's sales lines. BulkInsert is
// atomic: it recomputes the shift's pump total in the same transaction
// that inserts the lines.
type SalesLineStore interface {
	BulkInsert(ctx context.Context, shiftID int64, lines []domain.SalesLine) error
	ListForShift(ctx context.Context, shiftID int64) ([]domain.SalesLine, error)
}

// CollectionStore attaches and lists a shift's collections.
type CollectionStore interface {
	Create(ctx context.Context, c domain.Collection) (int64, error)
	ListForShift(ctx context.Context, shiftID int64) ([]domain.Collection, error)
}

type ShiftHandler struct {
	Repo        repository.ShiftRepository
	Sales       SalesLineStore
	Collections CollectionStore
	Audit       repository.AuditLogRepository
	Workflow    service.WorkflowService
	Currency    string
}

func (h ShiftHandler) RegisterRoutes(r chi.Router) {
	r.Post("/shifts", h.create)
	r.Get("/shifts", h.list)
	r.Get("/shifts/{id}", h.get)
	r.Post("/shifts/{id}/sales-lines", h.attachSalesLines)
	r.Get("/shifts/{id}/sales-lines", h.listSalesLines)
	r.Post("/shifts/{id}/collections", h.attachCollection)
	r.Get("/shifts/{id}/collections", h.listCollections)
	r.Get("/shifts/{id}/audit", h.auditTrail)

	r.Post("/shifts/{id}/submit", h.transition(domain.EventSubmit))
	r.Post("/shifts/{id}/approve", h.transition(domain.EventApprove))
	r.Post("/shifts/{id}/reject", h.transition(domain.EventReject))
	r.Post("/shifts/{id}/resubmit", h.transition(domain.EventResubmit))
	r.Post("/shifts/{id}/request-delete", h.transition(domain.EventRequestDelete))
	r.Post("/shifts/{id}/confirm-delete", h.transition(domain.EventConfirmDelete))
	r.Post("/shifts/{id}/reject-delete", h.transition(domain.EventRejectDelete))
}

func (h ShiftHandler) create(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		StationID   int64  `json:"stationId"`
		StartsAt    string `json:"startsAt"`
		EndsAt      string `json:"endsAt"`
		SourceFile  string `json:"sourceFile"`
		MarketTotal int64  `json:"marketTotal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.StationID == 0 {
		writeError(w, http.StatusBadRequest, "stationId is required")
		return
	}
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid startsAt")
		return
	}
	endsAt, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid endsAt")
		return
	}
	if !endsAt.After(startsAt) {
		writeError(w, http.StatusBadRequest, "endsAt must be after startsAt")
		return
	}
	if req.MarketTotal < 0 {
		writeError(w, http.StatusBadRequest, "marketTotal must be non-negative")
		return
	}

	shift, err := h.Repo.Create(r.Context(), repository.CreateShiftInput{
		StationID:   req.StationID,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		SourceFile:  req.SourceFile,
		MarketTotal: req.MarketTotal,
		CreatedBy:   user.ID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, shiftJSON(*shift))
}

func (h ShiftHandler) list(w http.ResponseWriter, r *http.Request) {
	from, err := parseDateQuery(r, "startDate")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid startDate")
		return
	}
	to, err := parseDateQuery(r, "endDate")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid endDate")
		return
	}
	if from != nil && to != nil && from.After(*to) {
		writeError(w, http.StatusBadRequest, "startDate must be before endDate")
		return
	}
	var stationID *int64
	if raw := r.URL.Query().Get("stationId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid stationId")
			return
		}
		stationID = &id
	}
	limit, ok := limitQuery(w, r, 100)
	if !ok {
		return
	}

	items, err := h.Repo.List(r.Context(), stationID, from, to, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, s := range items {
		resp = append(resp, shiftJSON(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h ShiftHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := shiftID(w, r)
	if !ok {
		return
	}
	shift, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shiftJSON(*shift))
}

func (h ShiftHandler) attachSalesLines(w http.ResponseWriter, r *http.Request) {
	id, ok := shiftID(w, r)
	if !ok {
		return
	}
	var req struct {
		Lines []struct {
			Kind        string `json:"kind"`
			PumpNo      string `json:"pumpNo"`
			Plate       string `json:"plate"`
			FuelType    string `json:"fuelType"`
			VolumeMilli int64  `json:"volumeMilli"`
			UnitPrice   int64  `json:"unitPrice"`
			Total       int64  `json:"total"`
			EmployeeID  int64  `json:"employeeId"`
			SoldAt      string `json:"soldAt"`
		} `json:"lines"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if len(req.Lines) == 0 {
		writeError(w, http.StatusBadRequest, "lines are required")
		return
	}

	lines := make([]domain.SalesLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		kind := domain.SalesLineKind(l.Kind)
		if kind != domain.SaleAutomation && kind != domain.SaleFleet {
			writeError(w, http.StatusBadRequest, "kind must be automation or fleet")
			return
		}
		soldAt := time.Now()
		if l.SoldAt != "" {
			parsed, err := time.Parse(time.RFC3339, l.SoldAt)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid soldAt")
				return
			}
			soldAt = parsed
		}
		line := domain.SalesLine{
			ShiftID:     id,
			Kind:        kind,
			PumpNo:      l.PumpNo,
			Plate:       l.Plate,
			FuelType:    l.FuelType,
			VolumeMilli: l.VolumeMilli,
			UnitPrice:   domain.NewMoney(l.UnitPrice, h.Currency),
			Total:       domain.NewMoney(l.Total, h.Currency),
			EmployeeID:  l.EmployeeID,
			SoldAt:      soldAt,
		}
		lines = append(lines, line)
	}

	if err := h.Sales.BulkInsert(r.Context(), id, lines); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "attached": len(lines)})
}

func (h ShiftHandler) listSalesLines(w http.ResponseWriter, r *http.Request) {
	id, ok := shiftID(w, r)
	if !ok {
		return
	}
	lines, err := h.Sales.ListForShift(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(lines))
	for _, l := range lines {
		resp = append(resp, map[string]any{
			"id":          l.ID,
			"kind":        string(l.Kind),
			"pumpNo":      l.PumpNo,
			"plate":       l.Plate,
			"fuelType":    l.FuelType,
			"volumeMilli": l.VolumeMilli,
			"unitPrice":   l.UnitPrice.Amount,
			"total":       l.Total.Amount,
			"employeeId":  l.EmployeeID,
			"soldAt":      l.SoldAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h ShiftHandler) listCollections(w http.ResponseWriter, r *http.Request) {
	id, ok := shiftID(w, r)
	if !ok {
		return
	}
	cols, err := h.Collections.ListForShift(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(cols))
	for _, c := range cols {
		resp = append(resp, map[string]any{
			"id":         c.ID,
			"employeeId": c.EmployeeID,
			"cash":       c.Cash.Amount,
			"card":       c.Card.Amount,
			"loyalty":    c.Loyalty.Amount,
			"mobile":     c.Mobile.Amount,
			"total":      c.Total().Amount,
			"note":       c.Note,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h ShiftHandler) attachCollection(w http.ResponseWriter, r *http.Request) {
	id, ok := shiftID(w, r)
	if !ok {
		return
	}
	var req struct {
		EmployeeID int64  `json:"employeeId"`
		Cash       int64  `json:"cash"`
		Card       int64  `json:"card"`
		Loyalty    int64  `json:"loyalty"`
		Mobile     int64  `json:"mobile"`
		Note       string `json:"note"`
		CardDetail []struct {
			Processor string `json:"processor"`
			Amount    int64  `json:"amount"`
		} `json:"cardDetail"`
		Others []struct {
			Label  string `json:"label"`
			Amount int64  `json:"amount"`
		} `json:"others"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.EmployeeID == 0 {
		writeError(w, http.StatusBadRequest, "employeeId is required")
		return
	}
	if req.Cash < 0 || req.Card < 0 || req.Loyalty < 0 || req.Mobile < 0 {
		writeError(w, http.StatusBadRequest, "amounts must be non-negative")
		return
	}

	col := domain.Collection{
		ShiftID:    id,
		EmployeeID: req.EmployeeID,
		Cash:       domain.NewMoney(req.Cash, h.Currency),
		Card:       domain.NewMoney(req.Card, h.Currency),
		Loyalty:    domain.NewMoney(req.Loyalty, h.Currency),
		Mobile:     domain.NewMoney(req.Mobile, h.Currency),
		Note:       req.Note,
	}
	for _, d := range req.CardDetail {
		if d.Amount < 0 {
			writeError(w, http.StatusBadRequest, "amounts must be non-negative")
			return
		}
		col.CardDetail = append(col.CardDetail, domain.CardProcessorEntry{
			Processor: d.Processor,
			Amount:    domain.NewMoney(d.Amount, h.Currency),
		})
	}
	for _, o := range req.Others {
		if o.Amount < 0 {
			writeError(w, http.StatusBadRequest, "amounts must be non-negative")
			return
		}
		col.Others = append(col.Others, domain.OtherPaymentEntry{
			Label:  o.Label,
			Amount: domain.NewMoney(o.Amount, h.Currency),
		})
	}

	colID, err := h.Collections.Create(r.Context(), col)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": colID})
}

func (h ShiftHandler) auditTrail(w http.ResponseWriter, r *http.Request) {
	id, ok := shiftID(w, r)
	if !ok {
		return
	}
	limit, ok := limitQuery(w, r, 100)
	if !ok {
		return
	}
	oldestFirst := r.URL.Query().Get("order") == "asc"

	entries, err := h.Audit.ListForShift(r.Context(), id, limit, oldestFirst)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, map[string]any{
			"id":        e.ID,
			"shiftId":   e.ShiftID,
			"action":    string(e.Action),
			"actorId":   e.ActorID,
			"actorName": e.ActorName,
			"actorRole": string(e.ActorRole),
			"note":      e.Note,
			"from":      string(e.FromStatus),
			"to":        string(e.ToStatus),
			"loggedAt":  e.LoggedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h ShiftHandler) transition(event domain.WorkflowEvent) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := authctx.FromContext(r.Context())
		if user == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		id, ok := shiftID(w, r)
		if !ok {
			return
		}
		var req struct {
			Reason string `json:"reason"`
		}
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid payload")
				return
			}
		}

		actor := service.Actor{ID: user.ID, Name: user.Name, Role: user.Role}
		shift, err := h.Workflow.RequestTransition(r.Context(), id, event, actor, req.Reason)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, shiftJSON(*shift))
	}
}

// limitQuery parses the optional limit parameter, rejecting malformed or
// non-positive values the same way other query parameters are rejected.
func limitQuery(w http.ResponseWriter, r *http.Request, fallback int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return 0, false
	}
	return parsed, true
}

func shiftID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func shiftJSON(s domain.Shift) map[string]any {
	out := map[string]any{
		"id":          s.ID,
		"stationId":   s.StationID,
		"startsAt":    s.StartsAt.Format(time.RFC3339),
		"endsAt":      s.EndsAt.Format(time.RFC3339),
		"status":      string(s.Status),
		"pumpTotal":   s.PumpTotal.Amount,
		"marketTotal": s.MarketTotal.Amount,
		"grandTotal":  s.GrandTotal().Amount,
		"sourceFile":  s.SourceFile,
		"createdBy":   s.CreatedBy,
		"createdAt":   s.CreatedAt.Format(time.RFC3339),
		"updatedAt":   s.UpdatedAt.Format(time.RFC3339),
	}
	if s.PriorStatus != nil {
		out["priorStatus"] = string(*s.PriorStatus)
	}
	if s.RejectReason != nil {
		out["rejectReason"] = *s.RejectReason
	}
	if s.DeleteReason != nil {
		out["deleteReason"] = *s.DeleteReason
	}
	return out
}
