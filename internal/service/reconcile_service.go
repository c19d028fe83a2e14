package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rdvnburton-lab/istasyon-sub003/internal/domain"
)

type EmployeeSummary struct {
	EmployeeID  int64
	VolumeMilli int64
	Total       domain.Money
	Collected   domain.Money
	Count       int
}

type FuelSummary struct {
	FuelType    string
	VolumeMilli int64
	Total       domain.Money
	Count       int
}

type MethodSummary struct {
	Method    domain.PaymentMethod
	Collected domain.Money
}

// Aggregation is the per-employee, per-fuel and per-method view of one
// shift plus the two scalar totals the classifier compares.
type Aggregation struct {
	PerEmployee    []EmployeeSummary
	PerFuelType    []FuelSummary
	PerMethod      []MethodSummary
	SystemTotal    domain.Money
	CollectedTotal domain.Money
	FleetTotal     domain.Money
}

// Aggregate computes the summaries for a snapshot. It is a pure function
// of its inputs: two calls on the same snapshot return identical output,
// summaries sorted by employee id, fuel type and method name.
//
// Every line is validated first; a negative volume or price, or a stored
// total off by more than one minor unit from volume × unit price, fails
// the whole aggregation rather than silently dropping the line.
func Aggregate(snap domain.ShiftSnapshot, currency string) (Aggregation, error) {
	agg := Aggregation{
		SystemTotal:    domain.Money{Currency: currency},
		CollectedTotal: domain.Money{Currency: currency},
		FleetTotal:     domain.Money{Currency: currency},
	}

	byEmployee := map[int64]*EmployeeSummary{}
	byFuel := map[string]*FuelSummary{}
	byMethod := map[domain.PaymentMethod]domain.Money{}

	for _, line := range snap.Lines {
		if err := validateLine(line); err != nil {
			return Aggregation{}, err
		}
		agg.SystemTotal = agg.SystemTotal.Add(line.Total)
		if line.Kind == domain.SaleFleet {
			agg.FleetTotal = agg.FleetTotal.Add(line.Total)
		}

		es, ok := byEmployee[line.EmployeeID]
		if !ok {
			es = &EmployeeSummary{
				EmployeeID: line.EmployeeID,
				Total:      domain.Money{Currency: currency},
				Collected:  domain.Money{Currency: currency},
			}
			byEmployee[line.EmployeeID] = es
		}
		es.VolumeMilli += line.VolumeMilli
		es.Total = es.Total.Add(line.Total)
		es.Count++

		fs, ok := byFuel[line.FuelType]
		if !ok {
			fs = &FuelSummary{FuelType: line.FuelType, Total: domain.Money{Currency: currency}}
			byFuel[line.FuelType] = fs
		}
		fs.VolumeMilli += line.VolumeMilli
		fs.Total = fs.Total.Add(line.Total)
		fs.Count++
	}

	for _, col := range snap.Collections {
		agg.CollectedTotal = agg.CollectedTotal.Add(col.Total())

		es, ok := byEmployee[col.EmployeeID]
		if !ok {
			es = &EmployeeSummary{
				EmployeeID: col.EmployeeID,
				Total:      domain.Money{Currency: currency},
				Collected:  domain.Money{Currency: currency},
			}
			byEmployee[col.EmployeeID] = es
		}
		es.Collected = es.Collected.Add(col.Total())

		for method, amount := range col.ByMethod() {
			cur, ok := byMethod[method]
			if !ok {
				cur = domain.Money{Currency: currency}
			}
			byMethod[method] = cur.Add(amount)
		}
	}

	for _, es := range byEmployee {
		agg.PerEmployee = append(agg.PerEmployee, *es)
	}
	sort.Slice(agg.PerEmployee, func(i, j int) bool {
		return agg.PerEmployee[i].EmployeeID < agg.PerEmployee[j].EmployeeID
	})

	for _, fs := range byFuel {
		agg.PerFuelType = append(agg.PerFuelType, *fs)
	}
	sort.Slice(agg.PerFuelType, func(i, j int) bool {
		return agg.PerFuelType[i].FuelType < agg.PerFuelType[j].FuelType
	})

	for method, amount := range byMethod {
		agg.PerMethod = append(agg.PerMethod, MethodSummary{Method: method, Collected: amount})
	}
	sort.Slice(agg.PerMethod, func(i, j int) bool {
		return agg.PerMethod[i].Method < agg.PerMethod[j].Method
	})

	return agg, nil
}

func validateLine(line domain.SalesLine) error {
	if line.VolumeMilli < 0 {
		return &domain.InvalidSalesLineError{LineID: line.ID, Reason: "negative volume"}
	}
	if line.UnitPrice.IsNegative() {
		return &domain.InvalidSalesLineError{LineID: line.ID, Reason: "negative unit price"}
	}
	if line.Total.IsNegative() {
		return &domain.InvalidSalesLineError{LineID: line.ID, Reason: "negative total"}
	}
	computed := line.UnitPrice.MulVolume(line.VolumeMilli)
	diff := line.Total.Sub(computed).Abs()
	// One minor unit of rounding slack between pump head and backoffice.
	if diff.Amount > 1 {
		return &domain.InvalidSalesLineError{LineID: line.ID, Stored: line.Total, Computed: computed}
	}
	return nil
}

// ThresholdMode selects whether thresholds are fixed minor-unit amounts
// or percentages of the system total.
type ThresholdMode string

const (
	ThresholdAmount  ThresholdMode = "amount"
	ThresholdPercent ThresholdMode = "percent"
)

// Thresholds carries the warn and critical boundaries. In amount mode the
// values are minor units; in percent mode they are percentages (0-100).
// They are supplied per call, not hard-coded.
type Thresholds struct {
	Mode     ThresholdMode
	Warn     decimal.Decimal
	Critical decimal.Decimal
}

func (t Thresholds) Validate() error {
	switch t.Mode {
	case ThresholdAmount, ThresholdPercent:
	default:
		return &domain.ValidationError{Field: "thresholds.mode", Reason: "must be amount or percent"}
	}
	if t.Warn.IsNegative() || t.Critical.IsNegative() {
		return &domain.ValidationError{Field: "thresholds", Reason: "must be non-negative"}
	}
	if t.Critical.LessThan(t.Warn) {
		return &domain.ValidationError{Field: "thresholds.critical", Reason: "must be >= warn"}
	}
	return nil
}

// MethodBreakdown pairs the system-side expectation and the collected
// amount for one payment method.
type MethodBreakdown struct {
	Method    domain.PaymentMethod
	System    domain.Money
	Collected domain.Money
}

type MethodResult struct {
	Method            domain.PaymentMethod
	System            domain.Money
	Collected         domain.Money
	Difference        domain.Money
	AbsDifference     domain.Money
	PercentDifference decimal.Decimal
	Status            domain.ReconStatus
}

// DiscrepancyResult is the classifier's output. The overall status is
// driven only by the aggregate difference; per-method statuses are
// informational so method-level misattribution that nets out does not
// over-flag the shift.
type DiscrepancyResult struct {
	SystemTotal       domain.Money
	CollectedTotal    domain.Money
	Difference        domain.Money
	AbsDifference     domain.Money
	PercentDifference decimal.Decimal
	Status            domain.ReconStatus
	PerMethod         []MethodResult
}

// Classify compares collected against system totals under the given
// thresholds. difference = collected - system (signed); the percentage is
// 0 when the system total is 0.
func Classify(system, collected domain.Money, perMethod []MethodBreakdown, th Thresholds) (DiscrepancyResult, error) {
	if err := th.Validate(); err != nil {
		return DiscrepancyResult{}, err
	}

	res := DiscrepancyResult{
		SystemTotal:    system,
		CollectedTotal: collected,
	}
	res.Difference, res.AbsDifference, res.PercentDifference, res.Status = classifyOne(system, collected, th)

	for _, mb := range perMethod {
		mr := MethodResult{Method: mb.Method, System: mb.System, Collected: mb.Collected}
		mr.Difference, mr.AbsDifference, mr.PercentDifference, mr.Status = classifyOne(mb.System, mb.Collected, th)
		res.PerMethod = append(res.PerMethod, mr)
	}
	return res, nil
}

func classifyOne(system, collected domain.Money, th Thresholds) (diff, abs domain.Money, percent decimal.Decimal, status domain.ReconStatus) {
	diff = collected.Sub(system)
	abs = diff.Abs()

	if system.Amount != 0 {
		percent = decimal.New(abs.Amount, 0).
			Div(decimal.New(system.Amount, 0)).
			Mul(decimal.New(100, 0)).
			Round(4)
	}

	measure := decimal.New(abs.Amount, 0)
	if th.Mode == ThresholdPercent {
		measure = percent
	}

	switch {
	case measure.LessThanOrEqual(th.Warn):
		status = domain.StatusConsistent
	case measure.LessThanOrEqual(th.Critical):
		status = domain.StatusDiscrepancy
	default:
		status = domain.StatusCriticalDiscrepancy
	}
	return diff, abs, percent, status
}

// SnapshotLoader loads one consistent snapshot of a shift.
type SnapshotLoader interface {
	Snapshot(ctx context.Context, shiftID int64) (domain.ShiftSnapshot, error)
}

// ReconcileService runs aggregation and classification against stored
// shifts.
type ReconcileService struct {
	Shifts   SnapshotLoader
	Currency string
}

func (s ReconcileService) Aggregate(ctx context.Context, shiftID int64) (Aggregation, error) {
	snap, err := s.Shifts.Snapshot(ctx, shiftID)
	if err != nil {
		return Aggregation{}, fmt.Errorf("load shift %d: %w", shiftID, err)
	}
	return Aggregate(snap, s.Currency)
}

// Reconcile aggregates and classifies in one pass. Fleet-card sales carry
// a per-method expectation (they settle on card); all other methods have
// no system-side split, so their expectation is zero and their per-method
// status is display-only.
func (s ReconcileService) Reconcile(ctx context.Context, shiftID int64, th Thresholds) (Aggregation, DiscrepancyResult, error) {
	agg, err := s.Aggregate(ctx, shiftID)
	if err != nil {
		return Aggregation{}, DiscrepancyResult{}, err
	}

	perMethod := make([]MethodBreakdown, 0, len(agg.PerMethod))
	for _, ms := range agg.PerMethod {
		mb := MethodBreakdown{
			Method:    ms.Method,
			System:    domain.Money{Currency: s.Currency},
			Collected: ms.Collected,
		}
		if ms.Method == domain.PayCard {
			mb.System = agg.FleetTotal
		}
		perMethod = append(perMethod, mb)
	}

	result, err := Classify(agg.SystemTotal, agg.CollectedTotal, perMethod, th)
	if err != nil {
		return Aggregation{}, DiscrepancyResult{}, err
	}
	return agg, result, nil
}
