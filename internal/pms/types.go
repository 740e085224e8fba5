package pms

// Facility is a property as the PMS reports it.
type Facility struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	City          string `json:"city"`
	State         string `json:"state"`
	Timezone      string `json:"timezone"`
	GMBLocationID string `json:"gmb_location_id"`
	GMBPlaceID    string `json:"gmb_place_id"`
	Notes         string `json:"notes"`
}

// Tenant is an occupant record as the PMS reports it. Good standing is not a
// source field; it is derived locally from payment status, auction status and
// balance.
type Tenant struct {
	ID            string  `json:"id"`
	FacilityID    string  `json:"facility_id"`
	UnitNumber    string  `json:"unit_number"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	MoveInDate    *string `json:"move_in_date"`
	MoveOutDate   *string `json:"move_out_date"`
	PaymentStatus string  `json:"payment_status"`
	AuctionStatus bool    `json:"auction_status"`
	Balance       float64 `json:"balance"`
	NotifyOptIn   bool    `json:"notify_opt_in"`
}
