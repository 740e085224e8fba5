// Package warehouse executes parameterized analytical queries against the
// read-only warehouse dataset. Every query is bound through named parameters,
// never string interpolation, and ordered by its natural recency column
// descending. The client does not retry; transport failures are classified by
// the caller's retry executor.
package warehouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Row is a raw warehouse record prior to normalization.
type Row = map[string]any

type Client struct {
	db      *gorm.DB
	dataset string
	log     *zap.Logger
}

// New wraps a read-only database handle scoped to one dataset.
func New(db *gorm.DB, dataset string, log *zap.Logger) *Client {
	return &Client{db: db, dataset: dataset, log: log.Named("warehouse")}
}

func (c *Client) table(name string) string {
	return c.dataset + "." + name
}

func (c *Client) query(ctx context.Context, sql string, args map[string]any) ([]Row, error) {
	var rows []Row
	err := c.db.WithContext(ctx).Raw(sql, args).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("warehouse query: %w", err)
	}
	return rows, nil
}

// Filter structs enumerate the optional fields each entity query accepts, so
// a filter's validity is checked at compile time.

type UnitFilter struct {
	FacilityID string
	Limit      int
}

type LeaseFilter struct {
	FacilityID string
	ActiveOnly bool
	From       *time.Time
	To         *time.Time
	Limit      int
}

type PaymentFilter struct {
	FacilityID string
	ContactID  string
	Status     string
	From       *time.Time
	To         *time.Time
	Limit      int
}

type BookEntryFilter struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

type ContactFilter struct {
	Limit int
}

type LeadFilter struct {
	FacilityID string
	Status     string
	Limit      int
}

type CustomerTouchFilter struct {
	ContactID string
	Limit     int
}

type GAEventFilter struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

type ManagerFilter struct {
	FacilityID string
	Limit      int
}

type PricingGroupFilter struct {
	FacilityID string
	Limit      int
}

type SpaceHistoricalFilter struct {
	UnitID string
	From   *time.Time
	To     *time.Time
	Limit  int
}

type UnitTurnoverFilter struct {
	UnitID string
	From   *time.Time
	To     *time.Time
	Limit  int
}

type queryBuilder struct {
	conditions []string
	args       map[string]any
}

func newQueryBuilder() *queryBuilder {
	return &queryBuilder{args: map[string]any{}}
}

func (b *queryBuilder) where(condition, name string, value any) {
	b.conditions = append(b.conditions, condition)
	b.args[name] = value
}

func (b *queryBuilder) build(table, orderBy string, limit int) (string, map[string]any) {
	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(table)
	if len(b.conditions) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.conditions, " AND "))
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(orderBy)
	sb.WriteString(" DESC")
	if limit > 0 {
		b.args["limit"] = limit
		sb.WriteString(" LIMIT @limit")
	}
	return sb.String(), b.args
}

func (c *Client) Units(ctx context.Context, filter UnitFilter) ([]Row, error) {
	b := newQueryBuilder()
	if filter.FacilityID != "" {
		b.where("facility_id = @facility", "facility", filter.FacilityID)
	}
	sql, args := b.build(c.table("units"), "unit_id", filter.Limit)
	return c.query(ctx, sql, args)
}

func (c *Client) Leases(ctx context.Context, filter LeaseFilter) ([]Row, error) {
	b := newQueryBuilder()
	if filter.FacilityID != "" {
		b.where("facility_id = @facility", "facility", filter.FacilityID)
	}
	if filter.ActiveOnly {
		b.where("active = @active", "active", true)
	}
	if filter.From != nil {
		b.where("start_date >= @from", "from", *filter.From)
	}
	if filter.To != nil {
		b.where("start_date <= @to", "to", *filter.To)
	}
	sql, args := b.build(c.table("leases"), "start_date", filter.Limit)
	return c.query(ctx, sql, args)
}

func (c *Client) Payments(ctx context.Context, filter PaymentFilter) ([]Row, error) {
	b := newQueryBuilder()
	if filter.FacilityID != "" {
		b.where("facility_id = @facility", "facility", filter.FacilityID)
	}
	if filter.ContactID != "" {
		b.where("contact_id = @contact", "contact", filter.ContactID)
	}
	if filter.Status != "" {
		b.where("status = @status", "status", filter.Status)
	}
	if filter.From != nil {
		b.where("date >= @from", "from", *filter.From)
	}
	if filter.To != nil {
		b.where("date <= @to", "to", *filter.To)
	}
	sql, args := b.build(c.table("payments"), "date", filter.Limit)
	return c.query(ctx, sql, args)
}

func (c *Client) BookEntries(ctx context.Context, filter BookEntryFilter) ([]Row, error) {
	b := newQueryBuilder()
	if filter.From != nil {
		b.where("entry_date >= @from", "from", *filter.From)
	}
	if filter.To != nil {
		b.where("entry_date <= @to", "to", *filter.To)
	}
	sql, args := b.build(c.table("book_entries"), "entry_date", filter.Limit)
	return c.query(ctx, sql, args)
}

func (c *Client) Contacts(ctx context.Context, filter ContactFilter) ([]Row, error) {
	b := newQueryBuilder()
	sql, args := b.build(c.table("contacts"), "contact_id", filter.Limit)
	return c.query(ctx, sql, args)
}

func (c *Client) Leads(ctx context.Context, filter LeadFilter) ([]Row, error) {
	b := newQueryBuilder()
	if filter.FacilityID != "" {
		b.where("facility_id = @facility", "facility", filter.FacilityID)
	}
	if filter.Status != "" {
		b.where("status = @status", "status", filter.Status)
	}
	sql, args := b.build(c.table("leads"), "created_date", filter.Limit)
	return c.query(ctx, sql, args)
}

func (c *Client) CustomerTouches(ctx context.Context, filter CustomerTouchFilter) ([]Row, error) {
	b := newQueryBuilder()
	if filter.ContactID != "" {
		b.where("contact_id = @contact", "contact", filter.ContactID)
	}
	sql, args := b.build(c.table("customer_touches"), "touched_at", filter.Limit)
	return c.query(ctx, sql, args)
}

func (c *Client) GAEvents(ctx context.Context, filter GAEventFilter) ([]Row, error) {
	b := newQueryBuilder()
	if filter.From != nil {
		b.where("event_date >= @from", "from", *filter.From)
	}
	if filter.To != nil {
		b.where("event_date <= @to", "to", *filter.To)
	}
	sql, args := b.build(c.table("ga_events"), "event_date", filter.Limit)
	return c.query(ctx, sql, args)
}

func (c *Client) Managers(ctx context.Context, filter ManagerFilter) ([]Row, error) {
	b := newQueryBuilder()
	if filter.FacilityID != "" {
		b.where("facility_id = @facility", "facility", filter.FacilityID)
	}
	sql, args := b.build(c.table("managers"), "manager_id", filter.Limit)
	return c.query(ctx, sql, args)
}

func (c *Client) PricingGroups(ctx context.Context, filter PricingGroupFilter) ([]Row, error) {
	b := newQueryBuilder()
	if filter.FacilityID != "" {
		b.where("facility_id = @facility", "facility", filter.FacilityID)
	}
	sql, args := b.build(c.table("pricing_groups"), "pg_id", filter.Limit)
	return c.query(ctx, sql, args)
}

func (c *Client) SpacesHistorical(ctx context.Context, filter SpaceHistoricalFilter) ([]Row, error) {
	b := newQueryBuilder()
	if filter.UnitID != "" {
		b.where("unit_id = @unit", "unit", filter.UnitID)
	}
	if filter.From != nil {
		b.where("date >= @from", "from", *filter.From)
	}
	if filter.To != nil {
		b.where("date <= @to", "to", *filter.To)
	}
	sql, args := b.build(c.table("spaces_historical"), "date", filter.Limit)
	return c.query(ctx, sql, args)
}

func (c *Client) UnitTurnovers(ctx context.Context, filter UnitTurnoverFilter) ([]Row, error) {
	b := newQueryBuilder()
	if filter.UnitID != "" {
		b.where("unit_id = @unit", "unit", filter.UnitID)
	}
	if filter.From != nil {
		b.where("date >= @from", "from", *filter.From)
	}
	if filter.To != nil {
		b.where("date <= @to", "to", *filter.To)
	}
	sql, args := b.build(c.table("unit_turnovers"), "date", filter.Limit)
	return c.query(ctx, sql, args)
}
