// Package analytics contiene el caso de uso del Dashboard de enrôlements.
package analytics

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Enrolement-api/internal/application/dto"
	rules "github.com/jhoicas/Enrolement-api/internal/domain/enrolement"
	"github.com/jhoicas/Enrolement-api/internal/domain/entity"
	"github.com/jhoicas/Enrolement-api/internal/domain/repository"
)

// DashboardUseCase genera el resumen puntual a partir del almacén remoto.
//
// Fuentes: QueryAll del almacén remoto (estadísticas) y el registro local (pendientes).
type DashboardUseCase struct {
	remote  repository.RemoteEnrolementStore
	local   repository.LocalEnrolementRepository
	timeout time.Duration
	now     func() time.Time
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(
	remote repository.RemoteEnrolementStore,
	local repository.LocalEnrolementRepository,
	timeout time.Duration,
) *DashboardUseCase {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DashboardUseCase{remote: remote, local: local, timeout: timeout, now: time.Now}
}

// GetSummary construye el DashboardSummaryDTO.
//
// Dos consultas en paralelo:
//  1. QueryAll()      → Total, tipos, hoy y serie temporal
//  2. ListUnsynced()  → PendingSync
func (uc *DashboardUseCase) GetSummary(ctx context.Context) (*dto.DashboardSummaryDTO, error) {
	now := uc.now()

	var (
		records []entity.Enrolement
		pending []entity.LocalEnrolement
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		qctx, cancel := context.WithTimeout(gctx, uc.timeout)
		defer cancel()
		list, err := uc.remote.QueryAll(qctx)
		if err != nil {
			return fmt.Errorf("dashboard: consultar enrôlements: %w", err)
		}
		records = list
		return nil
	})
	g.Go(func() error {
		if uc.local == nil {
			return nil
		}
		list, err := uc.local.ListUnsynced(gctx)
		if err != nil {
			return fmt.Errorf("dashboard: pendientes locales: %w", err)
		}
		pending = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := rules.Aggregate(records, now)
	return &dto.DashboardSummaryDTO{
		StatsDTO:    dto.ToStatsDTO(stats),
		PendingSync: len(pending),
		DateLabel:   monthLabel(now),
		GeneratedAt: now,
	}, nil
}

// monthLabel devuelve una etiqueta legible del mes, ej: "Janvier 2025".
func monthLabel(t time.Time) string {
	months := [...]string{
		"Janvier", "Février", "Mars", "Avril", "Mai", "Juin",
		"Juillet", "Août", "Septembre", "Octobre", "Novembre", "Décembre",
	}
	return fmt.Sprintf("%s %d", months[t.Month()-1], t.Year())
}
