// Package store is the reconciliation layer between synced records and the
// relational store. Warehouse entities go through transactional batch upserts
// keyed on their natural key; Facility and Tenant keep the PMS sync's
// existence-check-then-branch path because their call sites update single
// records (webhooks, per-facility polling).
package store

import (
	"context"
	"errors"

	"github.com/storably/stashsync/internal/entity"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(db *gorm.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log.Named("store")}
}

var Module = fx.Provide(New)

// Batch upsert paths, one per warehouse entity, each declaring its natural
// key. The conflict target and the update exclusion always agree on the same
// column.

func (s *Store) UpsertUnits(ctx context.Context, rows []*entity.Unit) error {
	return UpsertMany(ctx, s.db, []string{"unit_id"}, rows)
}

func (s *Store) UpsertLeases(ctx context.Context, rows []*entity.Lease) error {
	return UpsertMany(ctx, s.db, []string{"lease_id"}, rows)
}

func (s *Store) UpsertPayments(ctx context.Context, rows []*entity.Payment) error {
	return UpsertMany(ctx, s.db, []string{"payment_id"}, rows)
}

func (s *Store) UpsertBookEntries(ctx context.Context, rows []*entity.BookEntry) error {
	return UpsertMany(ctx, s.db, []string{"txn_id"}, rows)
}

func (s *Store) UpsertContacts(ctx context.Context, rows []*entity.Contact) error {
	return UpsertMany(ctx, s.db, []string{"contact_id"}, rows)
}

func (s *Store) UpsertLeads(ctx context.Context, rows []*entity.Lead) error {
	return UpsertMany(ctx, s.db, []string{"lead_id"}, rows)
}

func (s *Store) UpsertCustomerTouches(ctx context.Context, rows []*entity.CustomerTouch) error {
	return UpsertMany(ctx, s.db, []string{"touch_id"}, rows)
}

func (s *Store) UpsertGAEvents(ctx context.Context, rows []*entity.GAEvent) error {
	return UpsertMany(ctx, s.db, []string{"ga_session_id"}, rows)
}

func (s *Store) UpsertManagers(ctx context.Context, rows []*entity.Manager) error {
	return UpsertMany(ctx, s.db, []string{"manager_id"}, rows)
}

func (s *Store) UpsertPricingGroups(ctx context.Context, rows []*entity.PricingGroup) error {
	return UpsertMany(ctx, s.db, []string{"pg_id"}, rows)
}

func (s *Store) UpsertSpacesHistorical(ctx context.Context, rows []*entity.SpaceHistorical) error {
	return UpsertMany(ctx, s.db, []string{"date", "unit_id"}, rows)
}

func (s *Store) UpsertUnitTurnovers(ctx context.Context, rows []*entity.UnitTurnover) error {
	return UpsertMany(ctx, s.db, []string{"date", "unit_id"}, rows)
}

// SaveFacility inserts or updates a facility by its external id. This is the
// check-then-branch path: not atomic across the existence check, and it
// updates a single row.
func (s *Store) SaveFacility(ctx context.Context, f *entity.Facility) error {
	var existing entity.Facility
	err := s.db.WithContext(ctx).Where("id = ?", f.ID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.WithContext(ctx).Create(f).Error
	}
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).
		Model(&entity.Facility{}).
		Where("id = ?", existing.ID).
		Updates(map[string]any{
			"name":            f.Name,
			"city":            f.City,
			"state":           f.State,
			"timezone":        f.Timezone,
			"gmb_location_id": f.GMBLocationID,
			"gmb_place_id":    f.GMBPlaceID,
			"context_notes":   f.ContextNotes,
			"source_payload":  f.SourcePayload,
		}).Error
}

// SaveTenant inserts or updates a tenant by the (facility_id, unit_number)
// natural key. The first matched row is updated by its local id.
func (s *Store) SaveTenant(ctx context.Context, t *entity.Tenant) error {
	var existing entity.Tenant
	err := s.db.WithContext(ctx).
		Where("facility_id = ? AND unit_number = ?", t.FacilityID, t.UnitNumber).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.WithContext(ctx).Create(t).Error
	}
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).
		Model(&entity.Tenant{}).
		Where("id = ?", existing.ID).
		Updates(map[string]any{
			"name":           t.Name,
			"email":          t.Email,
			"phone":          t.Phone,
			"move_in_date":   t.MoveInDate,
			"move_out_date":  t.MoveOutDate,
			"good_standing":  t.GoodStanding,
			"notify_opt_in":  t.NotifyOptIn,
			"source_payload": t.SourcePayload,
		}).Error
}

// Read paths consumed by the HTTP layer.

func (s *Store) ListFacilities(ctx context.Context) ([]*entity.Facility, error) {
	var facilities []*entity.Facility
	err := s.db.WithContext(ctx).Order("name asc").Find(&facilities).Error
	return facilities, err
}

func (s *Store) GetFacility(ctx context.Context, id string) (*entity.Facility, error) {
	var facility entity.Facility
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&facility).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &facility, nil
}

func (s *Store) ListTenantsByFacility(ctx context.Context, facilityID string) ([]*entity.Tenant, error) {
	var tenants []*entity.Tenant
	err := s.db.WithContext(ctx).
		Where("facility_id = ?", facilityID).
		Order("unit_number asc").
		Find(&tenants).Error
	return tenants, err
}
