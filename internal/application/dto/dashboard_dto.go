package dto

import (
	"time"

	rules "github.com/jhoicas/Enrolement-api/internal/domain/enrolement"
	"github.com/jhoicas/Enrolement-api/internal/domain/entity"
)

// StatsDTO estadísticas de una colección de enrôlements.
type StatsDTO struct {
	Total      int             `json:"total"`
	Prepaid    int             `json:"prepaid"`
	Postpaid   int             `json:"postpaid"`
	Today      int             `json:"today"`
	TimeSeries []DailyCountDTO `json:"time_series"`
}

// DailyCountDTO punto de la serie temporal (fecha local YYYY-MM-DD).
type DailyCountDTO struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DashboardSummaryDTO respuesta de GET /api/dashboard/summary.
type DashboardSummaryDTO struct {
	StatsDTO

	// Copias locales aún no confirmadas por el almacén remoto
	PendingSync int `json:"pending_sync"`

	// Metadatos del período, ej: "Janvier 2025"
	DateLabel   string    `json:"date_label"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ViewOpenedResponse respuesta de POST /api/views.
type ViewOpenedResponse struct {
	ID        string `json:"id"`
	LoadError string `json:"load_error,omitempty"`
}

// ViewSnapshotDTO estado de una vista viva (también es el evento SSE "snapshot").
type ViewSnapshotDTO struct {
	ViewID  string               `json:"view_id"`
	Version uint64               `json:"version"`
	Items   []EnrolementResponse `json:"items"`
	Stats   StatsDTO             `json:"stats"`
}

// ToStatsDTO mapea las estadísticas del agregador.
func ToStatsDTO(s rules.Stats) StatsDTO {
	series := make([]DailyCountDTO, 0, len(s.TimeSeries))
	for _, d := range s.TimeSeries {
		series = append(series, DailyCountDTO{Date: d.Date, Count: d.Count})
	}
	return StatsDTO{
		Total:      s.Total,
		Prepaid:    s.CountByMeterType[entity.MeterPrepaid],
		Postpaid:   s.CountByMeterType[entity.MeterPostpaid],
		Today:      s.CountToday,
		TimeSeries: series,
	}
}
