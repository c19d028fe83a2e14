package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdvnburton-lab/istasyon-sub003/internal/domain"
)

func try(amount int64) domain.Money { return domain.NewMoney(amount, "TRY") }

func fuelLine(id, employee int64, fuel string, priceMinor, volumeMilli int64, kind domain.SalesLineKind) domain.SalesLine {
	price := try(priceMinor)
	return domain.SalesLine{
		ID:          id,
		Kind:        kind,
		FuelType:    fuel,
		VolumeMilli: volumeMilli,
		UnitPrice:   price,
		Total:       price.MulVolume(volumeMilli),
		EmployeeID:  employee,
	}
}

func amountThresholds(warn, critical int64) Thresholds {
	return Thresholds{
		Mode:     ThresholdAmount,
		Warn:     decimal.New(warn, 0),
		Critical: decimal.New(critical, 0),
	}
}

func TestAggregateSumsAndSorts(t *testing.T) {
	snap := domain.ShiftSnapshot{
		Lines: []domain.SalesLine{
			fuelLine(1, 7, "diesel", 4200, 10000, domain.SaleAutomation), // 420.00
			fuelLine(2, 3, "gasoline", 4500, 20000, domain.SaleAutomation), // 900.00
			fuelLine(3, 7, "diesel", 4200, 5000, domain.SaleFleet),        // 210.00
		},
		Collections: []domain.Collection{
			{EmployeeID: 7, Cash: try(40000), Card: try(21000)},
			{EmployeeID: 3, Cash: try(90000)},
		},
	}

	agg, err := Aggregate(snap, "TRY")
	require.NoError(t, err)

	assert.Equal(t, int64(153000), agg.SystemTotal.Amount)
	assert.Equal(t, int64(151000), agg.CollectedTotal.Amount)
	assert.Equal(t, int64(21000), agg.FleetTotal.Amount)

	require.Len(t, agg.PerEmployee, 2)
	assert.Equal(t, int64(3), agg.PerEmployee[0].EmployeeID)
	assert.Equal(t, int64(7), agg.PerEmployee[1].EmployeeID)
	assert.Equal(t, int64(63000), agg.PerEmployee[1].Total.Amount)
	assert.Equal(t, int64(61000), agg.PerEmployee[1].Collected.Amount)
	assert.Equal(t, int64(15000), agg.PerEmployee[1].VolumeMilli)
	assert.Equal(t, 2, agg.PerEmployee[1].Count)

	require.Len(t, agg.PerFuelType, 2)
	assert.Equal(t, "diesel", agg.PerFuelType[0].FuelType)
	assert.Equal(t, "gasoline", agg.PerFuelType[1].FuelType)
	assert.Equal(t, int64(63000), agg.PerFuelType[0].Total.Amount)
}

func TestAggregateSumsDuplicateCollections(t *testing.T) {
	snap := domain.ShiftSnapshot{
		Collections: []domain.Collection{
			{EmployeeID: 5, Cash: try(10000)},
			{EmployeeID: 5, Cash: try(2500), Card: try(500)},
		},
	}

	agg, err := Aggregate(snap, "TRY")
	require.NoError(t, err)

	require.Len(t, agg.PerEmployee, 1)
	assert.Equal(t, int64(13000), agg.PerEmployee[0].Collected.Amount)
	assert.Equal(t, int64(13000), agg.CollectedTotal.Amount)

	byMethod := map[domain.PaymentMethod]int64{}
	for _, ms := range agg.PerMethod {
		byMethod[ms.Method] = ms.Collected.Amount
	}
	assert.Equal(t, int64(12500), byMethod[domain.PayCash])
	assert.Equal(t, int64(500), byMethod[domain.PayCard])
}

func TestAggregateIsIdempotent(t *testing.T) {
	snap := domain.ShiftSnapshot{
		Lines: []domain.SalesLine{
			fuelLine(1, 2, "diesel", 4200, 12345, domain.SaleAutomation),
			fuelLine(2, 4, "lpg", 1100, 30000, domain.SaleAutomation),
		},
		Collections: []domain.Collection{
			{EmployeeID: 2, Cash: try(5000), Others: []domain.OtherPaymentEntry{{Label: "voucher", Amount: try(750)}}},
		},
	}

	first, err := Aggregate(snap, "TRY")
	require.NoError(t, err)
	second, err := Aggregate(snap, "TRY")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAggregateRejectsInvalidLines(t *testing.T) {
	t.Run("total mismatch", func(t *testing.T) {
		bad := fuelLine(9, 1, "diesel", 4200, 10000, domain.SaleAutomation)
		bad.Total = try(bad.Total.Amount + 2)

		_, err := Aggregate(domain.ShiftSnapshot{Lines: []domain.SalesLine{bad}}, "TRY")
		var lineErr *domain.InvalidSalesLineError
		require.ErrorAs(t, err, &lineErr)
		assert.Equal(t, int64(9), lineErr.LineID)
	})

	t.Run("one minor unit of slack is fine", func(t *testing.T) {
		ok := fuelLine(9, 1, "diesel", 4200, 10000, domain.SaleAutomation)
		ok.Total = try(ok.Total.Amount + 1)

		_, err := Aggregate(domain.ShiftSnapshot{Lines: []domain.SalesLine{ok}}, "TRY")
		assert.NoError(t, err)
	})

	t.Run("negative volume", func(t *testing.T) {
		bad := fuelLine(3, 1, "diesel", 4200, 10000, domain.SaleAutomation)
		bad.VolumeMilli = -1

		_, err := Aggregate(domain.ShiftSnapshot{Lines: []domain.SalesLine{bad}}, "TRY")
		var lineErr *domain.InvalidSalesLineError
		require.ErrorAs(t, err, &lineErr)
		assert.Equal(t, "negative volume", lineErr.Reason)
	})
}

func TestClassifyByAmount(t *testing.T) {
	tests := []struct {
		name      string
		system    int64
		collected int64
		warn      int64
		critical  int64
		status    domain.ReconStatus
		diff      int64
	}{
		{"exact match", 10000, 10000, 0, 0, domain.StatusConsistent, 0},
		{"within warn", 100000, 99500, 1000, 10000, domain.StatusConsistent, -500},
		{"over warn", 100000, 95000, 1000, 10000, domain.StatusDiscrepancy, -5000},
		{"over critical", 100000, 70000, 1000, 10000, domain.StatusCriticalDiscrepancy, -30000},
		{"surplus classifies too", 100000, 105000, 1000, 10000, domain.StatusDiscrepancy, 5000},
		{"exactly warn stays consistent", 100000, 99000, 1000, 10000, domain.StatusConsistent, -1000},
		{"exactly critical stays discrepancy", 100000, 90000, 1000, 10000, domain.StatusDiscrepancy, -10000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Classify(try(tt.system), try(tt.collected), nil, amountThresholds(tt.warn, tt.critical))
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.Status)
			assert.Equal(t, tt.diff, res.Difference.Amount)
		})
	}
}

func TestClassifySeverityNeverDropsAsDifferenceGrows(t *testing.T) {
	rank := map[domain.ReconStatus]int{
		domain.StatusConsistent:          0,
		domain.StatusDiscrepancy:         1,
		domain.StatusCriticalDiscrepancy: 2,
	}
	th := amountThresholds(1000, 10000)

	prev := -1
	for diff := int64(0); diff <= 20000; diff += 500 {
		res, err := Classify(try(100000), try(100000-diff), nil, th)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, rank[res.Status], prev, "diff %d", diff)
		prev = rank[res.Status]
	}
}

func TestClassifyByPercent(t *testing.T) {
	th := Thresholds{
		Mode:     ThresholdPercent,
		Warn:     decimal.New(1, 0),
		Critical: decimal.New(10, 0),
	}

	res, err := Classify(try(100000), try(95000), nil, th)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDiscrepancy, res.Status)
	assert.True(t, res.PercentDifference.Equal(decimal.New(5, 0)))

	res, err = Classify(try(100000), try(70000), nil, th)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCriticalDiscrepancy, res.Status)

	// zero system total never divides; percent pins to zero
	res, err = Classify(try(0), try(500), nil, th)
	require.NoError(t, err)
	assert.True(t, res.PercentDifference.IsZero())
	assert.Equal(t, domain.StatusConsistent, res.Status)
}

func TestThresholdsValidate(t *testing.T) {
	var validationErr *domain.ValidationError

	err := Thresholds{Mode: "absolute"}.Validate()
	require.ErrorAs(t, err, &validationErr)

	err = Thresholds{Mode: ThresholdAmount, Warn: decimal.New(-1, 0)}.Validate()
	require.ErrorAs(t, err, &validationErr)

	err = Thresholds{Mode: ThresholdAmount, Warn: decimal.New(100, 0), Critical: decimal.New(50, 0)}.Validate()
	require.ErrorAs(t, err, &validationErr)

	assert.NoError(t, amountThresholds(1000, 10000).Validate())
}

type fakeSnapshotLoader struct {
	snap domain.ShiftSnapshot
	err  error
}

func (f fakeSnapshotLoader) Snapshot(ctx context.Context, shiftID int64) (domain.ShiftSnapshot, error) {
	return f.snap, f.err
}

func TestReconcileCardExpectationFromFleetSales(t *testing.T) {
	snap := domain.ShiftSnapshot{
		Lines: []domain.SalesLine{
			fuelLine(1, 2, "diesel", 4200, 10000, domain.SaleAutomation), // 420.00
			fuelLine(2, 2, "diesel", 4200, 5000, domain.SaleFleet),       // 210.00
		},
		Collections: []domain.Collection{
			{EmployeeID: 2, Cash: try(42000), Card: try(21000)},
		},
	}
	svc := ReconcileService{Shifts: fakeSnapshotLoader{snap: snap}, Currency: "TRY"}

	agg, res, err := svc.Reconcile(context.Background(), 1, amountThresholds(0, 1000))
	require.NoError(t, err)

	assert.Equal(t, int64(63000), agg.SystemTotal.Amount)
	assert.Equal(t, domain.StatusConsistent, res.Status)

	var card MethodResult
	for _, mr := range res.PerMethod {
		if mr.Method == domain.PayCard {
			card = mr
		}
	}
	assert.Equal(t, int64(21000), card.System.Amount)
	assert.Equal(t, int64(21000), card.Collected.Amount)
	assert.Equal(t, domain.StatusConsistent, card.Status)
}

func TestReconcilePerMethodIsInformational(t *testing.T) {
	// cash under, card over by the same amount: methods flag, overall stays
	// consistent because the aggregate nets to zero
	snap := domain.ShiftSnapshot{
		Lines: []domain.SalesLine{
			fuelLine(1, 2, "diesel", 4200, 10000, domain.SaleAutomation), // 420.00
		},
		Collections: []domain.Collection{
			{EmployeeID: 2, Cash: try(32000), Card: try(10000)},
		},
	}
	svc := ReconcileService{Shifts: fakeSnapshotLoader{snap: snap}, Currency: "TRY"}

	_, res, err := svc.Reconcile(context.Background(), 1, amountThresholds(0, 1000))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusConsistent, res.Status)
	for _, mr := range res.PerMethod {
		if mr.Method == domain.PayCard {
			assert.Equal(t, domain.StatusCriticalDiscrepancy, mr.Status)
		}
	}
}
