package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Enrolement-api/internal/domain"
	"github.com/jhoicas/Enrolement-api/internal/domain/entity"
	"github.com/jhoicas/Enrolement-api/internal/domain/repository"
)

type remoteStub struct {
	repository.RemoteEnrolementStore
	records []entity.Enrolement
	err     error
}

func (s remoteStub) QueryAll(context.Context) ([]entity.Enrolement, error) {
	return s.records, s.err
}

type localStub struct {
	repository.LocalEnrolementRepository
	pending []entity.LocalEnrolement
}

func (s localStub) ListUnsynced(context.Context) ([]entity.LocalEnrolement, error) {
	return s.pending, nil
}

func day(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func TestGetSummary(t *testing.T) {
	remote := remoteStub{records: []entity.Enrolement{
		{ID: "3", MeterType: entity.MeterPostpaid, CreatedAt: day("2025-01-02T08:00:00Z")},
		{ID: "2", MeterType: entity.MeterPrepaid, CreatedAt: day("2025-01-01T15:00:00Z")},
		{ID: "1", MeterType: entity.MeterPrepaid, CreatedAt: day("2025-01-01T09:00:00Z")},
	}}
	local := localStub{pending: []entity.LocalEnrolement{{LocalID: "x"}}}

	uc := NewDashboardUseCase(remote, local, time.Second)
	uc.now = func() time.Time { return day("2025-01-02T12:00:00Z") }

	summary, err := uc.GetSummary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Prepaid)
	assert.Equal(t, 1, summary.Postpaid)
	assert.Equal(t, 1, summary.Today)
	require.Len(t, summary.TimeSeries, 2)
	assert.Equal(t, "2025-01-01", summary.TimeSeries[0].Date)
	assert.Equal(t, 2, summary.TimeSeries[0].Count)
	assert.Equal(t, 1, summary.PendingSync)
	assert.Equal(t, "Janvier 2025", summary.DateLabel)
}

func TestGetSummary_ErrorRemoto(t *testing.T) {
	remote := remoteStub{err: domain.NewStoreError(domain.ErrNetwork, "query", errors.New("down"))}
	uc := NewDashboardUseCase(remote, localStub{}, time.Second)

	_, err := uc.GetSummary(context.Background())
	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "Août 2026", monthLabel(time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)))
}
