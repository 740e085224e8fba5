// Package syncsvc orchestrates the sync pipelines: warehouse entities flow
// through fetch, normalize, map and batch upsert; PMS facilities and tenants
// flow through the per-record save path. Every run is identified, timed and
// reported to the metrics tracker under its job name.
package syncsvc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/storably/stashsync/internal/clock"
	"github.com/storably/stashsync/internal/config"
	"github.com/storably/stashsync/internal/entity"
	"github.com/storably/stashsync/internal/normalize"
	"github.com/storably/stashsync/internal/observability/metrics"
	"github.com/storably/stashsync/internal/pms"
	"github.com/storably/stashsync/internal/retry"
	"github.com/storably/stashsync/internal/store"
	"github.com/storably/stashsync/internal/warehouse"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Service struct {
	warehouse *warehouse.Client
	pms       *pms.Client
	store     *store.Store
	tracker   *metrics.Tracker
	exec      *retry.Executor
	clock     clock.Clock
	node      *snowflake.Node
	log       *zap.Logger
}

type Params struct {
	fx.In

	Warehouse *warehouse.Client
	PMS       *pms.Client
	Store     *store.Store
	Tracker   *metrics.Tracker
	Exec      *retry.Executor
	Clock     clock.Clock
	Node      *snowflake.Node
	Log       *zap.Logger
}

func New(p Params) *Service {
	return &Service{
		warehouse: p.Warehouse,
		pms:       p.PMS,
		store:     p.Store,
		tracker:   p.Tracker,
		exec:      p.Exec,
		clock:     p.Clock,
		node:      p.Node,
		log:       p.Log.Named("sync"),
	}
}

func newNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

var Module = fx.Module("syncsvc",
	fx.Provide(newNode),
	fx.Provide(New),
)

// SyncEntity dispatches a run by job name. Unknown names are an error so a
// mistyped manual trigger fails loudly instead of silently doing nothing.
func (s *Service) SyncEntity(ctx context.Context, name string) (Result, error) {
	switch name {
	case config.JobUnits:
		return s.SyncUnits(ctx)
	case config.JobLeases:
		return s.SyncLeases(ctx)
	case config.JobPayments:
		return s.SyncPayments(ctx)
	case config.JobBookEntries:
		return s.SyncBookEntries(ctx)
	case config.JobContacts:
		return s.SyncContacts(ctx)
	case config.JobLeads:
		return s.SyncLeads(ctx)
	case config.JobCustomerTouches:
		return s.SyncCustomerTouches(ctx)
	case config.JobGAEvents:
		return s.SyncGAEvents(ctx)
	case config.JobManagers:
		return s.SyncManagers(ctx)
	case config.JobPricingGroups:
		return s.SyncPricingGroups(ctx)
	case config.JobSpacesHistorical:
		return s.SyncSpacesHistorical(ctx)
	case config.JobUnitTurnovers:
		return s.SyncUnitTurnovers(ctx)
	case config.JobPMSFacilities:
		return s.SyncPMSFacilities(ctx)
	case config.JobPMSTenants:
		return s.SyncPMSTenants(ctx)
	default:
		return Result{}, fmt.Errorf("unknown sync entity %q", name)
	}
}

func (s *Service) newResult(job string) Result {
	return Result{
		Entity:    job,
		RunID:     s.node.Generate().String(),
		StartedAt: s.clock.Now(),
	}
}

// finish closes out a run: stamps the duration, feeds the tracker and logs
// one summary line.
func (s *Service) finish(res *Result, success bool) {
	elapsed := s.clock.Now().Sub(res.StartedAt)
	res.DurationMs = elapsed.Milliseconds()
	s.tracker.RecordSync(res.Entity, success, elapsed)

	fields := []zap.Field{
		zap.String("entity", res.Entity),
		zap.String("run_id", res.RunID),
		zap.Int("fetched", res.Fetched),
		zap.Int("upserted", res.Upserted),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
		zap.Int64("duration_ms", res.DurationMs),
	}
	if success {
		s.log.Info("sync completed", fields...)
	} else {
		s.log.Error("sync failed", append(fields, zap.String("error", res.Error))...)
	}
}

// runWarehouseSync is the shared pipeline for all warehouse entities. Records
// that fail mapping are skipped and counted; a fetch or batch upsert failure
// fails the whole run because the transaction rolled back.
func runWarehouseSync[T any](
	ctx context.Context,
	s *Service,
	job string,
	fetch func(context.Context) ([]warehouse.Row, error),
	spec normalize.Spec,
	mapRow func(warehouse.Row) (*T, error),
	upsert func(context.Context, []*T) error,
) (Result, error) {
	res := s.newResult(job)

	fetchStart := s.clock.Now()
	rows, err := retry.Value(ctx, s.exec, "warehouse."+job, fetch)
	s.tracker.RecordCall("warehouse."+job, err == nil, s.clock.Now().Sub(fetchStart))
	if err != nil {
		res.Error = err.Error()
		s.finish(&res, false)
		return res, err
	}
	res.Fetched = len(rows)

	records := make([]*T, 0, len(rows))
	for _, row := range rows {
		record, err := mapRow(normalize.Apply(row, spec))
		if err != nil {
			res.Skipped++
			s.log.Warn("skipping record",
				zap.String("entity", job),
				zap.String("run_id", res.RunID),
				zap.Error(err),
			)
			continue
		}
		records = append(records, record)
	}

	if err := upsert(ctx, records); err != nil {
		res.Error = err.Error()
		s.finish(&res, false)
		return res, err
	}
	res.Upserted = len(records)

	s.finish(&res, true)
	return res, nil
}

func (s *Service) SyncUnits(ctx context.Context) (Result, error) {
	return runWarehouseSync(ctx, s, config.JobUnits,
		func(ctx context.Context) ([]warehouse.Row, error) {
			return s.warehouse.Units(ctx, warehouse.UnitFilter{})
		},
		normalize.UnitSpec, mapUnit, s.store.UpsertUnits)
}

func (s *Service) SyncLeases(ctx context.Context) (Result, error) {
	return runWarehouseSync(ctx, s, config.JobLeases,
		func(ctx context.Context) ([]warehouse.Row, error) {
			return s.warehouse.Leases(ctx, warehouse.LeaseFilter{})
		},
		normalize.LeaseSpec, mapLease, s.store.UpsertLeases)
}

func (s *Service) SyncPayments(ctx context.Context) (Result, error) {
	return runWarehouseSync(ctx, s, config.JobPayments,
		func(ctx context.Context) ([]warehouse.Row, error) {
			return s.warehouse.Payments(ctx, warehouse.PaymentFilter{})
		},
		normalize.PaymentSpec, mapPayment, s.store.UpsertPayments)
}

func (s *Service) SyncBookEntries(ctx context.Context) (Result, error) {
	return runWarehouseSync(ctx, s, config.JobBookEntries,
		func(ctx context.Context) ([]warehouse.Row, error) {
			return s.warehouse.BookEntries(ctx, warehouse.BookEntryFilter{})
		},
		normalize.BookEntrySpec, mapBookEntry, s.store.UpsertBookEntries)
}

func (s *Service) SyncContacts(ctx context.Context) (Result, error) {
	return runWarehouseSync(ctx, s, config.JobContacts,
		func(ctx context.Context) ([]warehouse.Row, error) {
			return s.warehouse.Contacts(ctx, warehouse.ContactFilter{})
		},
		normalize.ContactSpec, mapContact, s.store.UpsertContacts)
}

func (s *Service) SyncLeads(ctx context.Context) (Result, error) {
	return runWarehouseSync(ctx, s, config.JobLeads,
		func(ctx context.Context) ([]warehouse.Row, error) {
			return s.warehouse.Leads(ctx, warehouse.LeadFilter{})
		},
		normalize.LeadSpec, mapLead, s.store.UpsertLeads)
}

func (s *Service) SyncCustomerTouches(ctx context.Context) (Result, error) {
	return runWarehouseSync(ctx, s, config.JobCustomerTouches,
		func(ctx context.Context) ([]warehouse.Row, error) {
			return s.warehouse.CustomerTouches(ctx, warehouse.CustomerTouchFilter{})
		},
		normalize.CustomerTouchSpec, mapCustomerTouch, s.store.UpsertCustomerTouches)
}

func (s *Service) SyncGAEvents(ctx context.Context) (Result, error) {
	return runWarehouseSync(ctx, s, config.JobGAEvents,
		func(ctx context.Context) ([]warehouse.Row, error) {
			return s.warehouse.GAEvents(ctx, warehouse.GAEventFilter{})
		},
		normalize.GAEventSpec, mapGAEvent, s.store.UpsertGAEvents)
}

func (s *Service) SyncManagers(ctx context.Context) (Result, error) {
	return runWarehouseSync(ctx, s, config.JobManagers,
		func(ctx context.Context) ([]warehouse.Row, error) {
			return s.warehouse.Managers(ctx, warehouse.ManagerFilter{})
		},
		normalize.ManagerSpec, mapManager, s.store.UpsertManagers)
}

func (s *Service) SyncPricingGroups(ctx context.Context) (Result, error) {
	return runWarehouseSync(ctx, s, config.JobPricingGroups,
		func(ctx context.Context) ([]warehouse.Row, error) {
			return s.warehouse.PricingGroups(ctx, warehouse.PricingGroupFilter{})
		},
		normalize.PricingGroupSpec, mapPricingGroup, s.store.UpsertPricingGroups)
}

func (s *Service) SyncSpacesHistorical(ctx context.Context) (Result, error) {
	return runWarehouseSync(ctx, s, config.JobSpacesHistorical,
		func(ctx context.Context) ([]warehouse.Row, error) {
			return s.warehouse.SpacesHistorical(ctx, warehouse.SpaceHistoricalFilter{})
		},
		normalize.SpaceHistoricalSpec, mapSpaceHistorical, s.store.UpsertSpacesHistorical)
}

func (s *Service) SyncUnitTurnovers(ctx context.Context) (Result, error) {
	return runWarehouseSync(ctx, s, config.JobUnitTurnovers,
		func(ctx context.Context) ([]warehouse.Row, error) {
			return s.warehouse.UnitTurnovers(ctx, warehouse.UnitTurnoverFilter{})
		},
		normalize.UnitTurnoverSpec, mapUnitTurnover, s.store.UpsertUnitTurnovers)
}

// SyncPMSFacilities pulls every facility from the PMS and saves each one
// individually. Per-record save failures are counted, not fatal.
func (s *Service) SyncPMSFacilities(ctx context.Context) (Result, error) {
	res := s.newResult(config.JobPMSFacilities)

	fetchStart := s.clock.Now()
	facilities, err := s.pms.Facilities(ctx)
	s.tracker.RecordCall("pms.facilities", err == nil, s.clock.Now().Sub(fetchStart))
	if err != nil {
		res.Error = err.Error()
		s.finish(&res, false)
		return res, err
	}
	res.Fetched = len(facilities)

	for _, f := range facilities {
		if err := s.store.SaveFacility(ctx, facilityRecord(f)); err != nil {
			res.Failed++
			s.log.Warn("facility save failed",
				zap.String("facility_id", f.ID),
				zap.Error(err),
			)
			continue
		}
		res.Upserted++
	}

	s.finish(&res, res.Failed == 0)
	return res, nil
}

// SyncPMSTenants walks the locally known facilities and refreshes their
// tenant rosters. Good standing is derived here, never read from the source.
func (s *Service) SyncPMSTenants(ctx context.Context) (Result, error) {
	res := s.newResult(config.JobPMSTenants)

	facilities, err := s.store.ListFacilities(ctx)
	if err != nil {
		res.Error = err.Error()
		s.finish(&res, false)
		return res, err
	}

	for _, facility := range facilities {
		fetchStart := s.clock.Now()
		tenants, err := s.pms.FacilityTenants(ctx, facility.ID)
		s.tracker.RecordCall("pms.facility_tenants", err == nil, s.clock.Now().Sub(fetchStart))
		if err != nil {
			res.Failed++
			s.log.Warn("tenant fetch failed",
				zap.String("facility_id", facility.ID),
				zap.Error(err),
			)
			continue
		}
		res.Fetched += len(tenants)

		for _, t := range tenants {
			record, err := tenantRecord(t)
			if err != nil {
				res.Skipped++
				s.log.Warn("skipping tenant",
					zap.String("facility_id", facility.ID),
					zap.String("tenant_id", t.ID),
					zap.Error(err),
				)
				continue
			}
			if err := s.store.SaveTenant(ctx, record); err != nil {
				res.Failed++
				s.log.Warn("tenant save failed",
					zap.String("facility_id", facility.ID),
					zap.String("tenant_id", t.ID),
					zap.Error(err),
				)
				continue
			}
			res.Upserted++
		}
	}

	s.finish(&res, res.Failed == 0)
	return res, nil
}

// ApplyWebhook applies one verified webhook event through the same save paths
// the polling sync uses. Unrecognized events are acknowledged without action.
func (s *Service) ApplyWebhook(ctx context.Context, event *pms.WebhookEvent) error {
	switch event.Event {
	case pms.EventFacilityCreated, pms.EventFacilityUpdated:
		var f pms.Facility
		if err := json.Unmarshal(event.Data, &f); err != nil {
			return pms.ErrInvalidPayload
		}
		if f.ID == "" {
			return pms.ErrInvalidPayload
		}
		return s.store.SaveFacility(ctx, facilityRecord(f))

	case pms.EventTenantCreated, pms.EventTenantUpdated:
		var t pms.Tenant
		if err := json.Unmarshal(event.Data, &t); err != nil {
			return pms.ErrInvalidPayload
		}
		record, err := tenantRecord(t)
		if err != nil {
			return err
		}
		return s.store.SaveTenant(ctx, record)

	default:
		s.log.Info("ignoring webhook event", zap.String("event", event.Event))
		return nil
	}
}

// goodStanding derives tenant standing: payments current, no auction pending
// and nothing owed.
func goodStanding(paymentStatus string, auction bool, balance float64) bool {
	return paymentStatus == "current" && !auction && balance <= 0
}

func facilityRecord(f pms.Facility) *entity.Facility {
	return &entity.Facility{
		ID:            f.ID,
		Name:          f.Name,
		City:          f.City,
		State:         f.State,
		Timezone:      f.Timezone,
		GMBLocationID: f.GMBLocationID,
		GMBPlaceID:    f.GMBPlaceID,
		ContextNotes:  f.Notes,
		SourcePayload: sourcePayload(f),
	}
}

func tenantRecord(t pms.Tenant) (*entity.Tenant, error) {
	if t.FacilityID == "" {
		return nil, errMissingKey("facility_id")
	}
	if t.UnitNumber == "" {
		return nil, errMissingKey("unit_number")
	}
	return &entity.Tenant{
		FacilityID:    t.FacilityID,
		UnitNumber:    t.UnitNumber,
		Name:          t.Name,
		Email:         t.Email,
		Phone:         t.Phone,
		MoveInDate:    t.MoveInDate,
		MoveOutDate:   t.MoveOutDate,
		GoodStanding:  goodStanding(t.PaymentStatus, t.AuctionStatus, t.Balance),
		NotifyOptIn:   t.NotifyOptIn,
		SourcePayload: sourcePayload(t),
	}, nil
}

// sourcePayload keeps the raw source record alongside the mapped columns so
// schema drift upstream is inspectable without replaying the sync.
func sourcePayload(v any) datatypes.JSONMap {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return datatypes.JSONMap(m)
}
