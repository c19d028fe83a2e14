package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdvnburton-lab/istasyon-sub003/internal/domain"
)

// fakeSalesStore keeps lines in memory and, like the real store, recomputes
// the pump total from the full stored set inside the same critical section
// as the insert.
type fakeSalesStore struct {
	mu        sync.Mutex
	lines     []domain.SalesLine
	pumpTotal int64
}

func (f *fakeSalesStore) BulkInsert(ctx context.Context, shiftID int64, lines []domain.SalesLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, lines...)
	var sum int64
	for _, l := range f.lines {
		sum += l.Total.Amount
	}
	f.pumpTotal = sum
	return nil
}

func (f *fakeSalesStore) ListForShift(ctx context.Context, shiftID int64) ([]domain.SalesLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.SalesLine, len(f.lines))
	copy(out, f.lines)
	return out, nil
}

func shiftRequest(method, target string, body io.Reader, id string) *http.Request {
	r := httptest.NewRequest(method, target, body)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestConcurrentAttachesKeepPumpTotalComplete(t *testing.T) {
	store := &fakeSalesStore{}
	h := ShiftHandler{Sales: store, Currency: "TRY"}

	const attaches = 16
	var wg sync.WaitGroup
	for i := 0; i < attaches; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			body := fmt.Sprintf(`{"lines":[{"kind":"automation","fuelType":"diesel","volumeMilli":1000,"unitPrice":%d,"total":%d,"employeeId":1}]}`,
				100*(n+1), 100*(n+1))
			rec := httptest.NewRecorder()
			h.attachSalesLines(rec, shiftRequest(http.MethodPost, "/shifts/7/sales-lines", strings.NewReader(body), "7"))
			assert.Equal(t, http.StatusOK, rec.Code)
		}(i)
	}
	wg.Wait()

	var want int64
	for i := 1; i <= attaches; i++ {
		want += int64(100 * i)
	}
	assert.Equal(t, want, store.pumpTotal, "stored pump total must cover every attached line")

	lines, err := store.ListForShift(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, lines, attaches)
}

func TestAttachCollectionRejectsNegativeCardDetail(t *testing.T) {
	h := ShiftHandler{Currency: "TRY"}
	body := `{"employeeId":4,"cash":100,"cardDetail":[{"processor":"ziraat","amount":-50}]}`

	rec := httptest.NewRecorder()
	h.attachCollection(rec, shiftRequest(http.MethodPost, "/shifts/1/collections", strings.NewReader(body), "1"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRejectsMalformedLimit(t *testing.T) {
	h := ShiftHandler{}

	rec := httptest.NewRecorder()
	h.list(rec, httptest.NewRequest(http.MethodGet, "/shifts?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "invalid limit", resp.Message)
}

func TestAuditTrailRejectsNonPositiveLimit(t *testing.T) {
	h := ShiftHandler{}

	rec := httptest.NewRecorder()
	h.auditTrail(rec, shiftRequest(http.MethodGet, "/shifts/1/audit?limit=0", nil, "1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
