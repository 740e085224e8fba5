package store

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/storably/stashsync/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(entity.All()...))
	return db
}

func floatPtr(v float64) *float64 { return &v }

func unitBatch(rate float64) []*entity.Unit {
	return []*entity.Unit{
		{UnitID: "u-1", FacilityID: "f-1", PricingGroupID: "pg-1", ManagedRate: floatPtr(rate)},
		{UnitID: "u-2", FacilityID: "f-1", PricingGroupID: "pg-1", ManagedRate: floatPtr(rate + 10)},
		{UnitID: "u-3", FacilityID: "f-2", PricingGroupID: "pg-2", ManagedRate: floatPtr(rate + 20)},
	}
}

func TestUpsertManyIdempotent(t *testing.T) {
	db := newTestDB(t)
	s := New(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.UpsertUnits(ctx, unitBatch(100)))

	var firstRun []entity.Unit
	require.NoError(t, db.Order("unit_id").Find(&firstRun).Error)
	require.Len(t, firstRun, 3)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, s.UpsertUnits(ctx, unitBatch(100)))

	var secondRun []entity.Unit
	require.NoError(t, db.Order("unit_id").Find(&secondRun).Error)
	require.Len(t, secondRun, 3, "re-running an unchanged sync must not change row count")

	for i := range secondRun {
		assert.Equal(t, firstRun[i].UnitID, secondRun[i].UnitID)
		assert.Equal(t, firstRun[i].CreatedAt, secondRun[i].CreatedAt, "created_at must survive the update")
		assert.GreaterOrEqual(t, secondRun[i].UpdatedAt.UnixNano(), firstRun[i].UpdatedAt.UnixNano())
	}
}

func TestUpsertManyNaturalKeyConflictUpdates(t *testing.T) {
	db := newTestDB(t)
	s := New(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.UpsertUnits(ctx, []*entity.Unit{
		{UnitID: "u-1", FacilityID: "f-1", ManagedRate: floatPtr(100)},
	}))
	require.NoError(t, s.UpsertUnits(ctx, []*entity.Unit{
		{UnitID: "u-1", FacilityID: "f-1", ManagedRate: floatPtr(125), Width: floatPtr(10)},
	}))

	var units []entity.Unit
	require.NoError(t, db.Find(&units).Error)
	require.Len(t, units, 1, "same natural key must never duplicate")
	assert.Equal(t, 125.0, *units[0].ManagedRate)
	require.NotNil(t, units[0].Width)
	assert.Equal(t, 10.0, *units[0].Width)
}

func TestUpsertManyCompositeKey(t *testing.T) {
	db := newTestDB(t)
	s := New(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.UpsertSpacesHistorical(ctx, []*entity.SpaceHistorical{
		{Date: "2024-01-01", UnitID: "u-1", Occupied: true, Rate: floatPtr(90)},
		{Date: "2024-01-01", UnitID: "u-2", Occupied: false},
	}))
	require.NoError(t, s.UpsertSpacesHistorical(ctx, []*entity.SpaceHistorical{
		{Date: "2024-01-01", UnitID: "u-1", Occupied: false, Rate: floatPtr(95)},
	}))

	var rows []entity.SpaceHistorical
	require.NoError(t, db.Order("unit_id").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.False(t, rows[0].Occupied)
	assert.Equal(t, 95.0, *rows[0].Rate)
}

func TestUpsertManyEmptyBatchIsNoop(t *testing.T) {
	db := newTestDB(t)
	s := New(db, zap.NewNop())

	require.NoError(t, s.UpsertLeases(context.Background(), nil))

	var count int64
	require.NoError(t, db.Model(&entity.Lease{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpsertManyUnknownKeyColumnFails(t *testing.T) {
	db := newTestDB(t)

	err := UpsertMany(context.Background(), db, []string{"no_such_column"}, []*entity.Unit{{UnitID: "u-1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_column")
}

// auditedEvent has a second unique constraint that is not the upsert conflict
// target, so a colliding record fails the insert instead of upserting.
type auditedEvent struct {
	ID        int64  `gorm:"primaryKey"`
	EventID   string `gorm:"uniqueIndex;not null"`
	Checksum  string `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func TestUpsertManyRollsBackWholeBatch(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AutoMigrate(&auditedEvent{}))
	ctx := context.Background()

	require.NoError(t, UpsertMany(ctx, db, []string{"event_id"}, []*auditedEvent{
		{EventID: "seed", Checksum: "dup"},
	}))

	batch := []*auditedEvent{
		{EventID: "e-1", Checksum: "c-1"},
		{EventID: "e-2", Checksum: "c-2"},
		{EventID: "e-3", Checksum: "dup"}, // violates the checksum constraint
		{EventID: "e-4", Checksum: "c-4"},
		{EventID: "e-5", Checksum: "c-5"},
	}
	err := UpsertMany(ctx, db, []string{"event_id"}, batch)
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&auditedEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "no record of the failed batch may be committed")

	// the connection is usable afterwards
	require.NoError(t, UpsertMany(ctx, db, []string{"event_id"}, []*auditedEvent{
		{EventID: "e-6", Checksum: "c-6"},
	}))
}

func TestSaveFacilityInsertThenUpdate(t *testing.T) {
	db := newTestDB(t)
	s := New(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.SaveFacility(ctx, &entity.Facility{ID: "fac-1", Name: "Downtown", City: "Austin", State: "TX"}))
	require.NoError(t, s.SaveFacility(ctx, &entity.Facility{ID: "fac-1", Name: "Downtown Storage", City: "Austin", State: "TX", Timezone: "America/Chicago"}))

	var facilities []entity.Facility
	require.NoError(t, db.Find(&facilities).Error)
	require.Len(t, facilities, 1)
	assert.Equal(t, "Downtown Storage", facilities[0].Name)
	assert.Equal(t, "America/Chicago", facilities[0].Timezone)
}

func TestSaveTenantKeyedOnFacilityAndUnit(t *testing.T) {
	db := newTestDB(t)
	s := New(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.SaveTenant(ctx, &entity.Tenant{FacilityID: "fac-1", UnitNumber: "101", Name: "Pat", GoodStanding: true}))
	require.NoError(t, s.SaveTenant(ctx, &entity.Tenant{FacilityID: "fac-1", UnitNumber: "101", Name: "Pat Jones", GoodStanding: false}))
	require.NoError(t, s.SaveTenant(ctx, &entity.Tenant{FacilityID: "fac-2", UnitNumber: "101", Name: "Sam"}))

	var tenants []entity.Tenant
	require.NoError(t, db.Order("facility_id").Find(&tenants).Error)
	require.Len(t, tenants, 2)
	assert.Equal(t, "Pat Jones", tenants[0].Name)
	assert.False(t, tenants[0].GoodStanding, "false must overwrite true on update")
}
