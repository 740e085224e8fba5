package warehouse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryBuilderNoFilters(t *testing.T) {
	b := newQueryBuilder()
	sql, args := b.build("analytics.units", "unit_id", 0)

	assert.Equal(t, "SELECT * FROM analytics.units ORDER BY unit_id DESC", sql)
	assert.Empty(t, args)
}

func TestQueryBuilderBindsNamedParameters(t *testing.T) {
	b := newQueryBuilder()
	b.where("facility_id = @facility", "facility", "fac-1")
	b.where("status = @status", "status", "current")
	sql, args := b.build("analytics.payments", "date", 500)

	assert.Equal(t,
		"SELECT * FROM analytics.payments WHERE facility_id = @facility AND status = @status ORDER BY date DESC LIMIT @limit",
		sql)
	assert.Equal(t, "fac-1", args["facility"])
	assert.Equal(t, "current", args["status"])
	assert.Equal(t, 500, args["limit"])

	// parameters are bound, never interpolated
	assert.NotContains(t, sql, "fac-1")
}
