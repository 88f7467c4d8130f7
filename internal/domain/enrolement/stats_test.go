package enrolement_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Enrolement-api/internal/domain/enrolement"
	"github.com/jhoicas/Enrolement-api/internal/domain/entity"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestAggregate_SerieTemporal(t *testing.T) {
	records := []entity.Enrolement{
		{ID: "3", MeterType: entity.MeterPostpaid, CreatedAt: at("2025-01-02T09:00:00Z")},
		{ID: "2", MeterType: entity.MeterPrepaid, CreatedAt: at("2025-01-01T18:30:00Z")},
		{ID: "1", MeterType: entity.MeterPrepaid, CreatedAt: at("2025-01-01T08:00:00Z")},
	}

	stats := enrolement.Aggregate(records, at("2025-01-02T12:00:00Z"))

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, []enrolement.DailyCount{
		{Date: "2025-01-01", Count: 2},
		{Date: "2025-01-02", Count: 1},
	}, stats.TimeSeries)
	assert.Equal(t, 2, stats.CountByMeterType[entity.MeterPrepaid])
	assert.Equal(t, 1, stats.CountByMeterType[entity.MeterPostpaid])
	assert.Equal(t, 1, stats.CountToday)
}

func TestAggregate_ColeccionVacia(t *testing.T) {
	stats := enrolement.Aggregate(nil, time.Now())

	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.CountToday)
	assert.Empty(t, stats.TimeSeries)
	assert.Equal(t, map[entity.MeterType]int{
		entity.MeterPrepaid:  0,
		entity.MeterPostpaid: 0,
	}, stats.CountByMeterType, "ambas claves siempre presentes")
}

func TestAggregate_DiaEnZonaLocal(t *testing.T) {
	douala := time.FixedZone("WAT", 3600)
	records := []entity.Enrolement{
		// 23:30 UTC del 1 es 00:30 del 2 en Douala.
		{ID: "1", MeterType: entity.MeterPrepaid, CreatedAt: at("2025-01-01T23:30:00Z")},
	}

	stats := enrolement.Aggregate(records, time.Date(2025, 1, 2, 10, 0, 0, 0, douala))

	assert.Equal(t, []enrolement.DailyCount{{Date: "2025-01-02", Count: 1}}, stats.TimeSeries)
	assert.Equal(t, 1, stats.CountToday)
}
