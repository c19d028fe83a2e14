package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/rdvnburton-lab/istasyon-sub003/internal/domain"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/repository"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/service"
)

// ShiftGetter loads a single shift for threshold resolution.
type ShiftGetter interface {
	GetByID(ctx context.Context, id int64) (*domain.Shift, error)
}

// StationGetter loads a single station for threshold resolution.
type StationGetter interface {
	GetByID(ctx context.Context, id int64) (*domain.Station, error)
}

type ReconciliationHandler struct {
	Service  service.ReconcileService
	Shifts   ShiftGetter
	Stations StationGetter
	Defaults service.Thresholds
}

func (h ReconciliationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/shifts/{id}/aggregate", h.aggregate)
	r.Get("/shifts/{id}/reconciliation", h.reconcile)
	r.Get("/shifts/{id}/reconciliation/export", h.export)
}

// thresholds resolves the per-call policy: deployment defaults, then the
// shift's station override, then explicit query overrides. A missing shift
// or station just means no override; any other lookup failure is surfaced.
func (h ReconciliationHandler) thresholds(r *http.Request, shiftID int64) (service.Thresholds, error) {
	th := h.Defaults
	shift, err := h.Shifts.GetByID(r.Context(), shiftID)
	switch {
	case err == nil:
		station, err := h.Stations.GetByID(r.Context(), shift.StationID)
		switch {
		case err == nil:
			if station.ReconMode != nil {
				th.Mode = service.ThresholdMode(*station.ReconMode)
			}
			if station.ReconWarn != nil {
				th.Warn = decimal.New(*station.ReconWarn, 0)
			}
			if station.ReconCritical != nil {
				th.Critical = decimal.New(*station.ReconCritical, 0)
			}
		case !errors.Is(err, repository.ErrNotFound):
			return th, err
		}
	case !errors.Is(err, repository.ErrNotFound):
		return th, err
	}
	if raw := r.URL.Query().Get("mode"); raw != "" {
		th.Mode = service.ThresholdMode(raw)
	}
	if raw := r.URL.Query().Get("warn"); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return th, &domain.ValidationError{Field: "warn", Reason: "must be a decimal number"}
		}
		th.Warn = v
	}
	if raw := r.URL.Query().Get("critical"); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return th, &domain.ValidationError{Field: "critical", Reason: "must be a decimal number"}
		}
		th.Critical = v
	}
	return th, nil
}

func (h ReconciliationHandler) aggregate(w http.ResponseWriter, r *http.Request) {
	id, ok := shiftID(w, r)
	if !ok {
		return
	}
	agg, err := h.Service.Aggregate(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"shiftId":        id,
		"systemTotal":    agg.SystemTotal.Amount,
		"collectedTotal": agg.CollectedTotal.Amount,
		"fleetTotal":     agg.FleetTotal.Amount,
		"perEmployee":    employeeSummariesJSON(agg.PerEmployee),
		"perFuelType":    fuelSummariesJSON(agg.PerFuelType),
	})
}

func (h ReconciliationHandler) reconcile(w http.ResponseWriter, r *http.Request) {
	id, ok := shiftID(w, r)
	if !ok {
		return
	}
	th, err := h.thresholds(r, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	agg, result, err := h.Service.Reconcile(r.Context(), id, th)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	perMethod := make([]map[string]any, 0, len(result.PerMethod))
	for _, mr := range result.PerMethod {
		perMethod = append(perMethod, map[string]any{
			"method":        string(mr.Method),
			"system":        mr.System.Amount,
			"collected":     mr.Collected.Amount,
			"difference":    mr.Difference.Amount,
			"absDifference": mr.AbsDifference.Amount,
			"percent":       mr.PercentDifference.String(),
			"status":        string(mr.Status),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"shiftId":           id,
		"systemTotal":       result.SystemTotal.Amount,
		"collectedTotal":    result.CollectedTotal.Amount,
		"difference":        result.Difference.Amount,
		"absDifference":     result.AbsDifference.Amount,
		"percentDifference": result.PercentDifference.String(),
		"status":            string(result.Status),
		"perEmployee":       employeeSummariesJSON(agg.PerEmployee),
		"perFuelType":       fuelSummariesJSON(agg.PerFuelType),
		"perMethod":         perMethod,
	})
}

func employeeSummariesJSON(summaries []service.EmployeeSummary) []map[string]any {
	out := make([]map[string]any, 0, len(summaries))
	for _, es := range summaries {
		out = append(out, map[string]any{
			"employeeId":  es.EmployeeID,
			"volumeMilli": es.VolumeMilli,
			"total":       es.Total.Amount,
			"collected":   es.Collected.Amount,
			"count":       es.Count,
		})
	}
	return out
}

func fuelSummariesJSON(summaries []service.FuelSummary) []map[string]any {
	out := make([]map[string]any, 0, len(summaries))
	for _, fs := range summaries {
		out = append(out, map[string]any{
			"fuelType":    fs.FuelType,
			"volumeMilli": fs.VolumeMilli,
			"total":       fs.Total.Amount,
			"count":       fs.Count,
		})
	}
	return out
}

func (h ReconciliationHandler) export(w http.ResponseWriter, r *http.Request) {
	id, ok := shiftID(w, r)
	if !ok {
		return
	}
	th, err := h.thresholds(r, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	agg, result, err := h.Service.Reconcile(r.Context(), id, th)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	f := excelize.NewFile()
	sheet := "Reconciliation"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Section", "Key", "Volume (L)", "System", "Collected", "Difference", "Status"}
	for c, headerName := range headers {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(sheet, cell, headerName)
	}

	row := 2
	setRow := func(values []any) {
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	setRow([]any{"TOTAL", "", "", result.SystemTotal.String(), result.CollectedTotal.String(), result.Difference.String(), string(result.Status)})
	for _, es := range agg.PerEmployee {
		setRow([]any{"EMPLOYEE", es.EmployeeID, litres(es.VolumeMilli), es.Total.String(), es.Collected.String(), es.Collected.Sub(es.Total).String(), ""})
	}
	for _, fs := range agg.PerFuelType {
		setRow([]any{"FUEL", fs.FuelType, litres(fs.VolumeMilli), fs.Total.String(), "", "", ""})
	}
	for _, mr := range result.PerMethod {
		setRow([]any{"METHOD", string(mr.Method), "", mr.System.String(), mr.Collected.String(), mr.Difference.String(), string(mr.Status)})
	}

	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
	})
	endCell, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(sheet, "A1", endCell, style)

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="shift-%d-reconciliation.xlsx"`, id))
	if err := f.Write(w); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func litres(volumeMilli int64) string {
	return strconv.FormatFloat(float64(volumeMilli)/1000, 'f', 3, 64)
}
