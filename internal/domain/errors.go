package domain

import (
	"context"
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound        = errors.New("recurso no encontrado")
	ErrInvalidInput    = errors.New("entrada inválida")
	ErrNothingToExport = errors.New("Aucun enrôlement à exporter.")
	ErrViewClosed      = errors.New("vista cerrada")
	ErrDuplicate       = errors.New("registro duplicado")
)

// Clases de fallo del almacén remoto. ErrNotFound también se usa como clase.
var (
	ErrNetwork          = errors.New("error de red")
	ErrRemoteValidation = errors.New("registro rechazado por el almacén")
	ErrUnknown          = errors.New("error desconocido del almacén")
)

// StoreError describe un fallo del almacén remoto con su clase (Kind), la operación y la causa.
// errors.Is(err, domain.ErrNetwork) funciona a través de Unwrap.
type StoreError struct {
	Kind error
	Op   string
	Err  error
}

// NewStoreError construye el error tipado.
func NewStoreError(kind error, op string, err error) *StoreError {
	return &StoreError{Kind: kind, Op: op, Err: err}
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsRetryable indica si el fallo es transitorio (red / timeout).
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// StoreErrorCode devuelve el código estable de la clase de fallo: NETWORK, VALIDATION, NOT_FOUND o UNKNOWN.
func StoreErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNetwork):
		return "NETWORK"
	case errors.Is(err, ErrRemoteValidation):
		return "VALIDATION"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	default:
		return "UNKNOWN"
	}
}

// AsStoreError clasifica errores que el adaptador no tipó: cancelación o plazo vencido
// cuentan como red, el resto como desconocido. Un *StoreError se devuelve tal cual.
func AsStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewStoreError(ErrNetwork, op, err)
	}
	return NewStoreError(ErrUnknown, op, err)
}
