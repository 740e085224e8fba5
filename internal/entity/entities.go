// Package entity defines the locally stored records synchronized from the
// analytics warehouse and the PMS. Each type maps 1:1 to a relational table;
// the natural key carries a unique index and is the upsert conflict target.
// Date-like warehouse columns are stored as ISO-8601 strings exactly as the
// normalizer emits them.
package entity

import (
	"time"

	"gorm.io/datatypes"
)

type Unit struct {
	ID             int64     `gorm:"primaryKey" json:"-"`
	UnitID         string    `gorm:"column:unit_id;uniqueIndex;not null" json:"unit_id"`
	FacilityID     string    `gorm:"column:facility_id;index" json:"facility_id"`
	PricingGroupID string    `gorm:"column:pg_id" json:"pg_id"`
	ManagedRate    *float64  `gorm:"column:managed_rate" json:"managed_rate,omitempty"`
	Width          *float64  `json:"width,omitempty"`
	Depth          *float64  `json:"depth,omitempty"`
	Height         *float64  `json:"height,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Lease struct {
	ID                int64     `gorm:"primaryKey" json:"-"`
	LeaseID           string    `gorm:"column:lease_id;uniqueIndex;not null" json:"lease_id"`
	UnitID            string    `gorm:"column:unit_id;index" json:"unit_id"`
	ContactID         string    `gorm:"column:contact_id;index" json:"contact_id"`
	FacilityID        string    `gorm:"column:facility_id;index" json:"facility_id"`
	Active            bool      `json:"active"`
	StartDate         *string   `gorm:"column:start_date" json:"start_date,omitempty"`
	EndDate           *string   `gorm:"column:end_date" json:"end_date,omitempty"`
	Rent              *float64  `json:"rent,omitempty"`
	NextRent          *float64  `gorm:"column:next_rent" json:"next_rent,omitempty"`
	OriginalRent      *float64  `gorm:"column:original_rent" json:"original_rent,omitempty"`
	ARBalance         *float64  `gorm:"column:ar_balance" json:"ar_balance,omitempty"`
	DepositBalance    *float64  `gorm:"column:deposit_balance" json:"deposit_balance,omitempty"`
	PrepaidBalance    *float64  `gorm:"column:prepaid_balance" json:"prepaid_balance,omitempty"`
	InsurancePremium  *float64  `gorm:"column:insurance_premium" json:"insurance_premium,omitempty"`
	InsuranceCoverage *float64  `gorm:"column:insurance_coverage" json:"insurance_coverage,omitempty"`
	LateStatusDate    *string   `gorm:"column:late_status_date" json:"late_status_date,omitempty"`
	PaidThroughDate   *string   `gorm:"column:paid_through_date" json:"paid_through_date,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type Payment struct {
	ID         int64     `gorm:"primaryKey" json:"-"`
	PaymentID  string    `gorm:"column:payment_id;uniqueIndex;not null" json:"payment_id"`
	FacilityID string    `gorm:"column:facility_id;index" json:"facility_id"`
	ContactID  string    `gorm:"column:contact_id;index" json:"contact_id"`
	Status     string    `json:"status"`
	Date       *string   `json:"date,omitempty"`
	Amount     *float64  `json:"amount,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type BookEntry struct {
	ID              int64     `gorm:"primaryKey" json:"-"`
	TxnID           string    `gorm:"column:txn_id;uniqueIndex;not null" json:"txn_id"`
	RevenueAmount   *float64  `gorm:"column:revenue_amount" json:"revenue_amount,omitempty"`
	PaymentAmount   *float64  `gorm:"column:payment_amount" json:"payment_amount,omitempty"`
	AssetAmount     *float64  `gorm:"column:asset_amount" json:"asset_amount,omitempty"`
	LiabilityAmount *float64  `gorm:"column:liability_amount" json:"liability_amount,omitempty"`
	TransferAmount  *float64  `gorm:"column:transfer_amount" json:"transfer_amount,omitempty"`
	EntryDate       *string   `gorm:"column:entry_date" json:"entry_date,omitempty"`
	AccrualDate     *string   `gorm:"column:accrual_date" json:"accrual_date,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Contact struct {
	ID        int64     `gorm:"primaryKey" json:"-"`
	ContactID string    `gorm:"column:contact_id;uniqueIndex;not null" json:"contact_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Lead struct {
	ID          int64     `gorm:"primaryKey" json:"-"`
	LeadID      string    `gorm:"column:lead_id;uniqueIndex;not null" json:"lead_id"`
	FacilityID  string    `gorm:"column:facility_id;index" json:"facility_id"`
	ContactID   string    `gorm:"column:contact_id" json:"contact_id"`
	Status      string    `json:"status"`
	CreatedDate *string   `gorm:"column:created_date" json:"created_date,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CustomerTouch struct {
	ID        int64     `gorm:"primaryKey" json:"-"`
	TouchID   string    `gorm:"column:touch_id;uniqueIndex;not null" json:"touch_id"`
	ContactID string    `gorm:"column:contact_id;index" json:"contact_id"`
	Channel   string    `json:"channel"`
	TouchedAt *string   `gorm:"column:touched_at" json:"touched_at,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type GAEvent struct {
	ID          int64     `gorm:"primaryKey" json:"-"`
	GASessionID string    `gorm:"column:ga_session_id;uniqueIndex;not null" json:"ga_session_id"`
	Source      string    `json:"source"`
	Medium      string    `json:"medium"`
	Campaign    string    `json:"campaign"`
	EventDate   *string   `gorm:"column:event_date" json:"event_date,omitempty"`
	Sessions    *float64  `json:"sessions,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Manager struct {
	ID         int64     `gorm:"primaryKey" json:"-"`
	ManagerID  string    `gorm:"column:manager_id;uniqueIndex;not null" json:"manager_id"`
	FacilityID string    `gorm:"column:facility_id;index" json:"facility_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type PricingGroup struct {
	ID           int64     `gorm:"primaryKey" json:"-"`
	PGID         string    `gorm:"column:pg_id;uniqueIndex;not null" json:"pg_id"`
	FacilityID   string    `gorm:"column:facility_id;index" json:"facility_id"`
	Name         string    `json:"name"`
	StandardRate *float64  `gorm:"column:standard_rate" json:"standard_rate,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SpaceHistorical is keyed by the (date, unit_id) pair.
type SpaceHistorical struct {
	ID        int64     `gorm:"primaryKey" json:"-"`
	Date      string    `gorm:"uniqueIndex:idx_space_hist_date_unit;not null" json:"date"`
	UnitID    string    `gorm:"column:unit_id;uniqueIndex:idx_space_hist_date_unit;not null" json:"unit_id"`
	Occupied  bool      `json:"occupied"`
	Rate      *float64  `json:"rate,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UnitTurnover is keyed by the (date, unit_id) pair.
type UnitTurnover struct {
	ID        int64     `gorm:"primaryKey" json:"-"`
	Date      string    `gorm:"uniqueIndex:idx_unit_turnover_date_unit;not null" json:"date"`
	UnitID    string    `gorm:"column:unit_id;uniqueIndex:idx_unit_turnover_date_unit;not null" json:"unit_id"`
	MoveIns   *float64  `gorm:"column:move_ins" json:"move_ins,omitempty"`
	MoveOuts  *float64  `gorm:"column:move_outs" json:"move_outs,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Facility uses the external system's own id as primary key, not a local
// serial.
type Facility struct {
	ID            string            `gorm:"primaryKey" json:"id"`
	Name          string            `json:"name"`
	City          string            `json:"city"`
	State         string            `json:"state"`
	Timezone      string            `json:"timezone"`
	GMBLocationID string            `gorm:"column:gmb_location_id" json:"gmb_location_id,omitempty"`
	GMBPlaceID    string            `gorm:"column:gmb_place_id" json:"gmb_place_id,omitempty"`
	ContextNotes  string            `gorm:"column:context_notes" json:"context_notes,omitempty"`
	SourcePayload datatypes.JSONMap `gorm:"column:source_payload;type:jsonb" json:"-"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Tenant has a local serial id; the idempotent sync key is the
// (facility_id, unit_number) pair.
type Tenant struct {
	ID            int64             `gorm:"primaryKey" json:"id"`
	FacilityID    string            `gorm:"column:facility_id;uniqueIndex:idx_tenant_facility_unit;not null" json:"facility_id"`
	UnitNumber    string            `gorm:"column:unit_number;uniqueIndex:idx_tenant_facility_unit;not null" json:"unit_number"`
	Name          string            `json:"name"`
	Email         string            `json:"email"`
	Phone         string            `json:"phone"`
	MoveInDate    *string           `gorm:"column:move_in_date" json:"move_in_date,omitempty"`
	MoveOutDate   *string           `gorm:"column:move_out_date" json:"move_out_date,omitempty"`
	GoodStanding  bool              `gorm:"column:good_standing" json:"good_standing"`
	NotifyOptIn   bool              `gorm:"column:notify_opt_in" json:"notify_opt_in"`
	SourcePayload datatypes.JSONMap `gorm:"column:source_payload;type:jsonb" json:"-"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// All returns one instance of every synchronized model, used for test
// migrations.
func All() []any {
	return []any{
		&Unit{}, &Lease{}, &Payment{}, &BookEntry{},
		&Contact{}, &Lead{}, &CustomerTouch{}, &GAEvent{},
		&Manager{}, &PricingGroup{}, &SpaceHistorical{}, &UnitTurnover{},
		&Facility{}, &Tenant{},
	}
}
