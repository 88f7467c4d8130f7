package enrolement_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appenrolement "github.com/jhoicas/Enrolement-api/internal/application/enrolement"
	"github.com/jhoicas/Enrolement-api/internal/domain"
	"github.com/jhoicas/Enrolement-api/internal/domain/entity"
	"github.com/jhoicas/Enrolement-api/internal/domain/repository"
)

func TestRemoteList_SinFiltroUsaQueryAll(t *testing.T) {
	remote := new(remoteMock)
	remote.On("QueryAll", mock.Anything).Return([]entity.Enrolement{{ID: "b"}, {ID: "a"}}, nil).Once()

	list, err := appenrolement.NewRemoteUseCase(remote, time.Second, nil).List(context.Background(), repository.RemoteFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
	remote.AssertExpectations(t)
}

func TestRemoteList_ConFiltro(t *testing.T) {
	remote := new(remoteMock)
	f := repository.RemoteFilter{MeterType: entity.MeterPrepaid}
	remote.On("QueryFiltered", mock.Anything, f).Return([]entity.Enrolement{{ID: "a"}}, nil).Once()

	list, err := appenrolement.NewRemoteUseCase(remote, time.Second, nil).List(context.Background(), f)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	remote.AssertExpectations(t)
}

func TestRemoteList_FiltroInvalido(t *testing.T) {
	uc := appenrolement.NewRemoteUseCase(new(remoteMock), time.Second, nil)
	from := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)

	_, err := uc.List(context.Background(), repository.RemoteFilter{From: &from, To: &to})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.List(context.Background(), repository.RemoteFilter{MeterType: "smart"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRemoteDelete_NotFoundYaSatisfecho(t *testing.T) {
	remote := new(remoteMock)
	remote.On("DeleteByID", mock.Anything, "gone").
		Return(domain.NewStoreError(domain.ErrNotFound, "delete", errors.New("id gone"))).Once()
	remote.On("DeleteByID", mock.Anything, "x").
		Return(domain.NewStoreError(domain.ErrNetwork, "delete", errors.New("timeout"))).Once()

	uc := appenrolement.NewRemoteUseCase(remote, time.Second, nil)
	assert.NoError(t, uc.Delete(context.Background(), "gone"))
	assert.ErrorIs(t, uc.Delete(context.Background(), "x"), domain.ErrNetwork)
	assert.ErrorIs(t, uc.Delete(context.Background(), ""), domain.ErrInvalidInput)
}

func TestLocalUseCase_ListYRemove(t *testing.T) {
	ctx := context.Background()
	local := openLocal(t)
	remote := new(remoteMock)
	remote.On("Insert", mock.Anything, mock.Anything).Return(nil,
		domain.NewStoreError(domain.ErrNetwork, "insert", errors.New("down")))

	out, err := newSynchronizer(local, remote).Submit(ctx, validForm())
	require.NoError(t, err)

	uc := appenrolement.NewLocalUseCase(local)
	pending, err := uc.CountUnsynced(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)

	require.NoError(t, uc.Remove(ctx, out.Local.LocalID))
	assert.ErrorIs(t, uc.Remove(ctx, out.Local.LocalID), domain.ErrNotFound)

	list, err := uc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
