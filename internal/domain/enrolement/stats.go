package enrolement

import (
	"sort"
	"time"

	"github.com/jhoicas/Enrolement-api/internal/domain/entity"
)

// DateLayout formato de las fechas de la serie temporal.
const DateLayout = "2006-01-02"

// DailyCount número de enrôlements de un día calendario.
type DailyCount struct {
	Date  string
	Count int
}

// Stats resumen de una colección de enrôlements.
type Stats struct {
	Total            int
	CountByMeterType map[entity.MeterType]int
	CountToday       int
	TimeSeries       []DailyCount
}

// Aggregate recalcula las estadísticas completas de la colección.
// Los días se calculan en la zona horaria de now; la serie sale ordenada ascendente.
func Aggregate(records []entity.Enrolement, now time.Time) Stats {
	loc := now.Location()
	today := now.Format(DateLayout)

	byType := make(map[entity.MeterType]int, len(entity.MeterTypes))
	for _, mt := range entity.MeterTypes {
		byType[mt] = 0
	}

	perDay := make(map[string]int)
	countToday := 0
	for _, r := range records {
		byType[r.MeterType]++
		day := r.CreatedAt.In(loc).Format(DateLayout)
		perDay[day]++
		if day == today {
			countToday++
		}
	}

	series := make([]DailyCount, 0, len(perDay))
	for day, n := range perDay {
		series = append(series, DailyCount{Date: day, Count: n})
	}
	// YYYY-MM-DD ordena lexicográficamente igual que cronológicamente.
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })

	return Stats{
		Total:            len(records),
		CountByMeterType: byType,
		CountToday:       countToday,
		TimeSeries:       series,
	}
}
