package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Enrolement-api/internal/domain"
	"github.com/jhoicas/Enrolement-api/internal/domain/repository"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"check violation", &pgconn.PgError{Code: "23514"}, domain.ErrRemoteValidation},
		{"unique violation", &pgconn.PgError{Code: "23505"}, domain.ErrRemoteValidation},
		{"dato inválido", &pgconn.PgError{Code: "22P02"}, domain.ErrRemoteValidation},
		{"conexión caída", &pgconn.PgError{Code: "08006"}, domain.ErrNetwork},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, domain.ErrNetwork},
		{"timeout de contexto", fmt.Errorf("query: %w", context.DeadlineExceeded), domain.ErrNetwork},
		{"tabla inexistente", &pgconn.PgError{Code: "42P01"}, domain.ErrUnknown},
		{"otro", errors.New("boom"), domain.ErrUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classify("op", tc.err)

			var se *domain.StoreError
			assert.ErrorAs(t, err, &se)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, tc.err, "la causa original sigue accesible")
		})
	}
	assert.NoError(t, classify("op", nil))
}

func TestDecodeNotification_Insert(t *testing.T) {
	payload := `{"eventType":"INSERT","new":{"id":"7b1c","name":"Jean","phone":"699640151",
		"email":"j@mail.com","meterType":"prepaid","meterNumber":"011234567890","address":"Akwa",
		"usage":"domicile","created_at":"2025-01-01T10:00:00.123456+00:00"}}`

	ev, err := decodeNotification([]byte(payload))
	assert.NoError(t, err)
	assert.Equal(t, repository.ChangeInsert, ev.Kind)
	assert.Equal(t, "7b1c", ev.ID)
	if assert.NotNil(t, ev.Record) {
		assert.Equal(t, "Jean", ev.Record.Name)
		assert.Equal(t, "011234567890", ev.Record.MeterNumber)
		assert.True(t, ev.Record.CreatedAt.Equal(time.Date(2025, 1, 1, 10, 0, 0, 123456000, time.UTC)))
	}
}

func TestDecodeNotification_Delete(t *testing.T) {
	ev, err := decodeNotification([]byte(`{"eventType":"DELETE","old":{"id":"7b1c"}}`))
	assert.NoError(t, err)
	assert.Equal(t, repository.ChangeDelete, ev.Kind)
	assert.Equal(t, "7b1c", ev.ID)
	assert.Nil(t, ev.Record)
}

func TestDecodeNotification_Invalida(t *testing.T) {
	for _, payload := range []string{
		`no-json`,
		`{"eventType":"TRUNCATE"}`,
		`{"eventType":"INSERT"}`,
		`{"eventType":"DELETE","old":{}}`,
	} {
		_, err := decodeNotification([]byte(payload))
		assert.Error(t, err, payload)
	}
}

func TestBuildWhere(t *testing.T) {
	where, args := buildWhere(repository.RemoteFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	where, args = buildWhere(repository.RemoteFilter{MeterType: "prepaid", Usage: "campagne", From: &from})
	assert.Equal(t, ` WHERE "meterType" = $1 AND usage = $2 AND created_at >= $3`, where)
	assert.Equal(t, []any{"prepaid", "campagne", from}, args)
}
