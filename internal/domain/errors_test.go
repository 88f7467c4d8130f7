package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Enrolement-api/internal/domain"
)

func TestAsStoreError(t *testing.T) {
	typed := domain.NewStoreError(domain.ErrRemoteValidation, "insert", errors.New("check"))

	cases := []struct {
		name string
		err  error
		code string
	}{
		{"ya tipado", typed, "VALIDATION"},
		{"plazo vencido", fmt.Errorf("delete: %w", context.DeadlineExceeded), "NETWORK"},
		{"cancelado", context.Canceled, "NETWORK"},
		{"sin clase", errors.New("boom"), "UNKNOWN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := domain.AsStoreError("op", tc.err)

			var se *domain.StoreError
			assert.ErrorAs(t, err, &se)
			assert.ErrorIs(t, err, tc.err)
			assert.Equal(t, tc.code, domain.StoreErrorCode(err))
		})
	}
	assert.Same(t, typed, domain.AsStoreError("op", typed))
	assert.NoError(t, domain.AsStoreError("op", nil))
}
