package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdvnburton-lab/istasyon-sub003/internal/domain"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/repository"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/service"
)

type fakeShiftGetter struct {
	shift *domain.Shift
	err   error
}

func (f fakeShiftGetter) GetByID(ctx context.Context, id int64) (*domain.Shift, error) {
	return f.shift, f.err
}

type fakeStationGetter struct {
	station *domain.Station
	err     error
}

func (f fakeStationGetter) GetByID(ctx context.Context, id int64) (*domain.Station, error) {
	return f.station, f.err
}

type fakeSnapshotLoader struct {
	snap domain.ShiftSnapshot
}

func (f fakeSnapshotLoader) Snapshot(ctx context.Context, shiftID int64) (domain.ShiftSnapshot, error) {
	return f.snap, nil
}

// snapshotWith has a single 1 L diesel line worth 5000 against one cash
// collection of the given amount.
func snapshotWith(collected int64) domain.ShiftSnapshot {
	return domain.ShiftSnapshot{
		Shift: domain.Shift{ID: 1, StationID: 3},
		Lines: []domain.SalesLine{{
			ID:          1,
			ShiftID:     1,
			Kind:        domain.SaleAutomation,
			FuelType:    "diesel",
			VolumeMilli: 1000,
			UnitPrice:   domain.NewMoney(5000, "TRY"),
			Total:       domain.NewMoney(5000, "TRY"),
			EmployeeID:  9,
		}},
		Collections: []domain.Collection{{
			ShiftID:    1,
			EmployeeID: 9,
			Cash:       domain.NewMoney(collected, "TRY"),
			Card:       domain.NewMoney(0, "TRY"),
			Loyalty:    domain.NewMoney(0, "TRY"),
			Mobile:     domain.NewMoney(0, "TRY"),
		}},
	}
}

func reconHandlerWith(shifts ShiftGetter, stations StationGetter, collected int64) ReconciliationHandler {
	return ReconciliationHandler{
		Service:  service.ReconcileService{Shifts: fakeSnapshotLoader{snap: snapshotWith(collected)}, Currency: "TRY"},
		Shifts:   shifts,
		Stations: stations,
		Defaults: service.Thresholds{Mode: service.ThresholdAmount, Warn: decimal.New(1000, 0), Critical: decimal.New(5000, 0)},
	}
}

func reconStatus(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	status, _ := resp.Data["status"].(string)
	return status
}

func TestReconcileSurfacesShiftLookupFailure(t *testing.T) {
	h := reconHandlerWith(
		fakeShiftGetter{err: fmt.Errorf("%w: connection refused", domain.ErrStorageUnavailable)},
		fakeStationGetter{},
		5000,
	)

	rec := httptest.NewRecorder()
	h.reconcile(rec, shiftRequest(http.MethodGet, "/shifts/1/reconciliation", nil, "1"))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReconcileSurfacesStationLookupFailure(t *testing.T) {
	h := reconHandlerWith(
		fakeShiftGetter{shift: &domain.Shift{ID: 1, StationID: 3}},
		fakeStationGetter{err: fmt.Errorf("%w: connection refused", domain.ErrStorageUnavailable)},
		5000,
	)

	rec := httptest.NewRecorder()
	h.reconcile(rec, shiftRequest(http.MethodGet, "/shifts/1/reconciliation", nil, "1"))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReconcileFallsBackToDefaultsWhenShiftUnknown(t *testing.T) {
	h := reconHandlerWith(fakeShiftGetter{err: repository.ErrNotFound}, fakeStationGetter{}, 5000)

	rec := httptest.NewRecorder()
	h.reconcile(rec, shiftRequest(http.MethodGet, "/shifts/1/reconciliation", nil, "1"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(domain.StatusConsistent), reconStatus(t, rec))
}

func TestReconcileFallsBackToDefaultsWhenStationUnknown(t *testing.T) {
	h := reconHandlerWith(
		fakeShiftGetter{shift: &domain.Shift{ID: 1, StationID: 3}},
		fakeStationGetter{err: repository.ErrNotFound},
		5000,
	)

	rec := httptest.NewRecorder()
	h.reconcile(rec, shiftRequest(http.MethodGet, "/shifts/1/reconciliation", nil, "1"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(domain.StatusConsistent), reconStatus(t, rec))
}

func TestReconcileAppliesStationOverride(t *testing.T) {
	// A 100 minor-unit difference is consistent under the lenient defaults
	// but critical once the station pins both thresholds to zero.
	zero := int64(0)
	h := reconHandlerWith(
		fakeShiftGetter{shift: &domain.Shift{ID: 1, StationID: 3}},
		fakeStationGetter{station: &domain.Station{ID: 3, ReconWarn: &zero, ReconCritical: &zero}},
		5100,
	)

	rec := httptest.NewRecorder()
	h.reconcile(rec, shiftRequest(http.MethodGet, "/shifts/1/reconciliation", nil, "1"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(domain.StatusCriticalDiscrepancy), reconStatus(t, rec))
}

func TestReconcileRejectsMalformedThresholdOverride(t *testing.T) {
	h := reconHandlerWith(fakeShiftGetter{err: repository.ErrNotFound}, fakeStationGetter{}, 5000)

	rec := httptest.NewRecorder()
	h.reconcile(rec, shiftRequest(http.MethodGet, "/shifts/1/reconciliation?warn=abc", nil, "1"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
