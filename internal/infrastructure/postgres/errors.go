package postgres

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/Enrolement-api/internal/domain"
)

// classify traduce un error de pgx a *domain.StoreError.
//
//	clase 22 / 23 (datos, constraints) → Validation
//	clase 08, 53, 57 y timeouts          → Network
//	resto                                → Unknown
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	return domain.NewStoreError(kindOf(err), op, err)
}

func kindOf(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case "22", "23":
			return domain.ErrRemoteValidation
		case "08", "53", "57":
			return domain.ErrNetwork
		default:
			return domain.ErrUnknown
		}
	}

	var connErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return domain.ErrNetwork
	case pgconn.Timeout(err), pgconn.SafeToRetry(err):
		return domain.ErrNetwork
	case errors.As(err, &connErr), errors.As(err, &netErr):
		return domain.ErrNetwork
	}
	return domain.ErrUnknown
}
