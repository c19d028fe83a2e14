package domain

import "time"

// Enumerations
const (
	RoleAdmin      UserRole = "admin"
	RoleManager    UserRole = "manager"
	RoleSupervisor UserRole = "supervisor"
	RoleStaff      UserRole = "staff"

	ShiftOpen            ShiftStatus = "OPEN"
	ShiftPendingApproval ShiftStatus = "PENDING_APPROVAL"
	ShiftApproved        ShiftStatus = "APPROVED"
	ShiftRejected        ShiftStatus = "REJECTED"
	ShiftDeleteRequested ShiftStatus = "DELETE_REQUESTED"
	ShiftDeleted         ShiftStatus = "DELETED"

	SaleAutomation SalesLineKind = "automation"
	SaleFleet      SalesLineKind = "fleet"

	PayCash    PaymentMethod = "cash"
	PayCard    PaymentMethod = "card"
	PayLoyalty PaymentMethod = "loyalty"
	PayMobile  PaymentMethod = "mobile"
	PayOther   PaymentMethod = "other"

	StatusConsistent          ReconStatus = "CONSISTENT"
	StatusDiscrepancy         ReconStatus = "DISCREPANCY"
	StatusCriticalDiscrepancy ReconStatus = "CRITICAL_DISCREPANCY"
)

type UserRole string
type ShiftStatus string
type SalesLineKind string
type PaymentMethod string
type ReconStatus string

type Station struct {
	ID      int64
	Name    string
	Code    string
	City    string
	Address string

	// Per-station reconciliation threshold overrides; nil falls back to
	// the deployment defaults.
	ReconMode     *string
	ReconWarn     *int64
	ReconCritical *int64

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

type User struct {
	ID           int64
	Name         string
	Email        string
	Phone        string
	StationID    *int64
	Role         UserRole
	PasswordHash *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// Employee is station personnel referenced by sales lines and collections.
// Read-only reference data from the reconciliation's perspective.
type Employee struct {
	ID        int64
	StationID int64
	Name      string
	BadgeNo   string
	Phone     string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Shift is one accounted operational period at a station. Its status only
// changes through a validated workflow transition, and its grand total is
// always recomputed as pump + market, never stored independently.
type Shift struct {
	ID           int64
	StationID    int64
	StartsAt     time.Time
	EndsAt       time.Time
	Status       ShiftStatus
	PriorStatus  *ShiftStatus
	PumpTotal    Money
	MarketTotal  Money
	SourceFile   string
	RejectReason *string
	DeleteReason *string
	CreatedBy    int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// GrandTotal is pump + market, recomputed on every read.
func (s Shift) GrandTotal() Money {
	return s.PumpTotal.Add(s.MarketTotal)
}

// SalesLine is one fuel sale reported by the automation or fleet-card
// system. Immutable once attached to its shift.
type SalesLine struct {
	ID          int64
	ShiftID     int64
	Kind        SalesLineKind
	PumpNo      string
	Plate       string
	FuelType    string
	VolumeMilli int64 // millilitres
	UnitPrice   Money // per litre
	Total       Money
	EmployeeID  int64
	SoldAt      time.Time
	CreatedAt   time.Time
}

// Collection is one employee's reported receipt ("pusula") for a shift.
// Duplicates per employee are allowed and summed.
type Collection struct {
	ID         int64
	ShiftID    int64
	EmployeeID int64
	Cash       Money
	Card       Money
	Loyalty    Money
	Mobile     Money
	Note       string
	CardDetail []CardProcessorEntry
	Others     []OtherPaymentEntry
	CreatedAt  time.Time
}

// Total sums every payment method of the collection.
func (c Collection) Total() Money {
	t := c.Cash.Add(c.Card).Add(c.Loyalty).Add(c.Mobile)
	for _, o := range c.Others {
		t = t.Add(o.Amount)
	}
	return t
}

// ByMethod breaks the collection down per payment method. Entries from
// Others fold into the "other" bucket.
func (c Collection) ByMethod() map[PaymentMethod]Money {
	out := map[PaymentMethod]Money{
		PayCash:    c.Cash,
		PayCard:    c.Card,
		PayLoyalty: c.Loyalty,
		PayMobile:  c.Mobile,
	}
	for _, o := range c.Others {
		cur, ok := out[PayOther]
		if !ok {
			cur = Money{Currency: o.Amount.Currency}
		}
		out[PayOther] = cur.Add(o.Amount)
	}
	return out
}

type CardProcessorEntry struct {
	Processor string
	Amount    Money
}

type OtherPaymentEntry struct {
	Label  string
	Amount Money
}

// AuditLogEntry records a single workflow transition. Insert only; the
// recorder exposes no update or delete.
type AuditLogEntry struct {
	ID         int64
	ShiftID    int64
	Action     WorkflowEvent
	ActorID    int64
	ActorName  string
	ActorRole  UserRole
	Note       string
	FromStatus ShiftStatus
	ToStatus   ShiftStatus
	LoggedAt   time.Time
}

type DeviceToken struct {
	ID        int64
	UserID    *int64
	Token     string
	Platform  string
	CreatedAt time.Time
}

// ShiftSnapshot is one consistent read of a shift with all attached lines
// and collections. Aggregation always runs against a snapshot, never an
// incrementally moving set, so recomputing after an edit stays idempotent.
type ShiftSnapshot struct {
	Shift       Shift
	Lines       []SalesLine
	Collections []Collection
}

// TransitionOutcome is the full field set a validated transition writes,
// plus the single audit entry committed with it. The store applies the
// update and the audit append in one transaction, or neither.
type TransitionOutcome struct {
	Status       ShiftStatus
	PriorStatus  *ShiftStatus
	RejectReason *string
	DeleteReason *string
	SoftDelete   bool
	Audit        AuditLogEntry
}
