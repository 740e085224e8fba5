package syncsvc

import (
	"fmt"

	"github.com/storably/stashsync/internal/entity"
	"github.com/storably/stashsync/internal/warehouse"
)

func errMissingKey(field string) error {
	return fmt.Errorf("record missing required field %q", field)
}

// Accessors over normalized rows. Numeric fields are float64 after
// normalization; anything else (including null) maps to nil rather than zero.

func str(row warehouse.Row, key string) string {
	if v, ok := row[key].(string); ok {
		return v
	}
	return ""
}

func strPtr(row warehouse.Row, key string) *string {
	if v, ok := row[key].(string); ok {
		return &v
	}
	return nil
}

func floatPtr(row warehouse.Row, key string) *float64 {
	if v, ok := row[key].(float64); ok {
		return &v
	}
	return nil
}

func boolVal(row warehouse.Row, key string) bool {
	switch v := row[key].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "t" || v == "1"
	case float64:
		return v != 0
	default:
		return false
	}
}

func mapUnit(row warehouse.Row) (*entity.Unit, error) {
	unitID := str(row, "unit_id")
	if unitID == "" {
		return nil, errMissingKey("unit_id")
	}
	return &entity.Unit{
		UnitID:         unitID,
		FacilityID:     str(row, "facility_id"),
		PricingGroupID: str(row, "pg_id"),
		ManagedRate:    floatPtr(row, "managed_rate"),
		Width:          floatPtr(row, "width"),
		Depth:          floatPtr(row, "depth"),
		Height:         floatPtr(row, "height"),
	}, nil
}

func mapLease(row warehouse.Row) (*entity.Lease, error) {
	leaseID := str(row, "lease_id")
	if leaseID == "" {
		return nil, errMissingKey("lease_id")
	}
	return &entity.Lease{
		LeaseID:           leaseID,
		UnitID:            str(row, "unit_id"),
		ContactID:         str(row, "contact_id"),
		FacilityID:        str(row, "facility_id"),
		Active:            boolVal(row, "active"),
		StartDate:         strPtr(row, "start_date"),
		EndDate:           strPtr(row, "end_date"),
		Rent:              floatPtr(row, "rent"),
		NextRent:          floatPtr(row, "next_rent"),
		OriginalRent:      floatPtr(row, "original_rent"),
		ARBalance:         floatPtr(row, "ar_balance"),
		DepositBalance:    floatPtr(row, "deposit_balance"),
		PrepaidBalance:    floatPtr(row, "prepaid_balance"),
		InsurancePremium:  floatPtr(row, "insurance_premium"),
		InsuranceCoverage: floatPtr(row, "insurance_coverage"),
		LateStatusDate:    strPtr(row, "late_status_date"),
		PaidThroughDate:   strPtr(row, "paid_through_date"),
	}, nil
}

func mapPayment(row warehouse.Row) (*entity.Payment, error) {
	paymentID := str(row, "payment_id")
	if paymentID == "" {
		// older warehouse exports carried the key as plain "id"
		paymentID = str(row, "id")
	}
	if paymentID == "" {
		return nil, errMissingKey("payment_id")
	}
	return &entity.Payment{
		PaymentID:  paymentID,
		FacilityID: str(row, "facility_id"),
		ContactID:  str(row, "contact_id"),
		Status:     str(row, "status"),
		Date:       strPtr(row, "date"),
		Amount:     floatPtr(row, "amount"),
	}, nil
}

func mapBookEntry(row warehouse.Row) (*entity.BookEntry, error) {
	txnID := str(row, "txn_id")
	if txnID == "" {
		return nil, errMissingKey("txn_id")
	}
	return &entity.BookEntry{
		TxnID:           txnID,
		RevenueAmount:   floatPtr(row, "revenue_amount"),
		PaymentAmount:   floatPtr(row, "payment_amount"),
		AssetAmount:     floatPtr(row, "asset_amount"),
		LiabilityAmount: floatPtr(row, "liability_amount"),
		TransferAmount:  floatPtr(row, "transfer_amount"),
		EntryDate:       strPtr(row, "entry_date"),
		AccrualDate:     strPtr(row, "accrual_date"),
	}, nil
}

func mapContact(row warehouse.Row) (*entity.Contact, error) {
	contactID := str(row, "contact_id")
	if contactID == "" {
		return nil, errMissingKey("contact_id")
	}
	return &entity.Contact{
		ContactID: contactID,
		Name:      str(row, "name"),
		Email:     str(row, "email"),
		Phone:     str(row, "phone"),
	}, nil
}

func mapLead(row warehouse.Row) (*entity.Lead, error) {
	leadID := str(row, "lead_id")
	if leadID == "" {
		return nil, errMissingKey("lead_id")
	}
	return &entity.Lead{
		LeadID:      leadID,
		FacilityID:  str(row, "facility_id"),
		ContactID:   str(row, "contact_id"),
		Status:      str(row, "status"),
		CreatedDate: strPtr(row, "created_date"),
	}, nil
}

func mapCustomerTouch(row warehouse.Row) (*entity.CustomerTouch, error) {
	touchID := str(row, "touch_id")
	if touchID == "" {
		return nil, errMissingKey("touch_id")
	}
	return &entity.CustomerTouch{
		TouchID:   touchID,
		ContactID: str(row, "contact_id"),
		Channel:   str(row, "channel"),
		TouchedAt: strPtr(row, "touched_at"),
	}, nil
}

func mapGAEvent(row warehouse.Row) (*entity.GAEvent, error) {
	sessionID := str(row, "ga_session_id")
	if sessionID == "" {
		sessionID = str(row, "ga_session")
	}
	if sessionID == "" {
		return nil, errMissingKey("ga_session_id")
	}
	return &entity.GAEvent{
		GASessionID: sessionID,
		Source:      str(row, "source"),
		Medium:      str(row, "medium"),
		Campaign:    str(row, "campaign"),
		EventDate:   strPtr(row, "event_date"),
		Sessions:    floatPtr(row, "sessions"),
	}, nil
}

func mapManager(row warehouse.Row) (*entity.Manager, error) {
	managerID := str(row, "manager_id")
	if managerID == "" {
		return nil, errMissingKey("manager_id")
	}
	return &entity.Manager{
		ManagerID:  managerID,
		FacilityID: str(row, "facility_id"),
		Name:       str(row, "name"),
		Email:      str(row, "email"),
	}, nil
}

func mapPricingGroup(row warehouse.Row) (*entity.PricingGroup, error) {
	pgID := str(row, "pg_id")
	if pgID == "" {
		return nil, errMissingKey("pg_id")
	}
	return &entity.PricingGroup{
		PGID:         pgID,
		FacilityID:   str(row, "facility_id"),
		Name:         str(row, "name"),
		StandardRate: floatPtr(row, "standard_rate"),
	}, nil
}

func mapSpaceHistorical(row warehouse.Row) (*entity.SpaceHistorical, error) {
	date := str(row, "date")
	unitID := str(row, "unit_id")
	if date == "" {
		return nil, errMissingKey("date")
	}
	if unitID == "" {
		return nil, errMissingKey("unit_id")
	}
	return &entity.SpaceHistorical{
		Date:     date,
		UnitID:   unitID,
		Occupied: boolVal(row, "occupied"),
		Rate:     floatPtr(row, "rate"),
	}, nil
}

func mapUnitTurnover(row warehouse.Row) (*entity.UnitTurnover, error) {
	date := str(row, "date")
	unitID := str(row, "unit_id")
	if date == "" {
		return nil, errMissingKey("date")
	}
	if unitID == "" {
		return nil, errMissingKey("unit_id")
	}
	return &entity.UnitTurnover{
		Date:     date,
		UnitID:   unitID,
		MoveIns:  floatPtr(row, "move_ins"),
		MoveOuts: floatPtr(row, "move_outs"),
	}, nil
}
