package normalize

// Per-entity field specs for rows returned by the warehouse. Only fields that
// need conversion are listed; everything else passes through.

var UnitSpec = Spec{
	"managed_rate": Numeric,
	"width":        Numeric,
	"depth":        Numeric,
	"height":       Numeric,
}

var LeaseSpec = Spec{
	"start_date":         Date,
	"end_date":           Date,
	"late_status_date":   Date,
	"paid_through_date":  Date,
	"rent":               Numeric,
	"next_rent":          Numeric,
	"original_rent":      Numeric,
	"ar_balance":         Numeric,
	"deposit_balance":    Numeric,
	"prepaid_balance":    Numeric,
	"insurance_premium":  Numeric,
	"insurance_coverage": Numeric,
}

var PaymentSpec = Spec{
	"date":   Date,
	"amount": Numeric,
}

var BookEntrySpec = Spec{
	"entry_date":       Date,
	"accrual_date":     Date,
	"revenue_amount":   Numeric,
	"payment_amount":   Numeric,
	"asset_amount":     Numeric,
	"liability_amount": Numeric,
	"transfer_amount":  Numeric,
}

var ContactSpec = Spec{}

var LeadSpec = Spec{
	"created_date": Date,
}

var CustomerTouchSpec = Spec{
	"touched_at": Date,
}

var GAEventSpec = Spec{
	"event_date": Date,
	"sessions":   Numeric,
}

var ManagerSpec = Spec{}

var PricingGroupSpec = Spec{
	"standard_rate": Numeric,
}

var SpaceHistoricalSpec = Spec{
	"date": Date,
	"rate": Numeric,
}

var UnitTurnoverSpec = Spec{
	"date":      Date,
	"move_ins":  Numeric,
	"move_outs": Numeric,
}
