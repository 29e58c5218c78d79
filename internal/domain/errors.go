package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrUnauthorized        = errors.New("no autorizado")
	ErrForbidden           = errors.New("acceso denegado")
	ErrConflict            = errors.New("conflicto con el estado actual")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrAlreadyVoid         = errors.New("la venta ya está anulada")
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia, reintente la operación")
	ErrBatchRetired        = errors.New("el lote está retirado")
	ErrBatchNotEmpty       = errors.New("el lote aún tiene existencias")
	ErrExceedsProduced     = errors.New("la cantidad supera lo producido en el lote")
)

// StockError detalla un rechazo por stock insuficiente en un lote.
// errors.Is(err, ErrInsufficientStock) es verdadero para cualquier *StockError.
type StockError struct {
	BatchID   string
	Requested decimal.Decimal
	Available decimal.Decimal
}

// NewStockError construye el error de stock insuficiente para un lote.
func NewStockError(batchID string, requested, available decimal.Decimal) *StockError {
	return &StockError{BatchID: batchID, Requested: requested, Available: available}
}

func (e *StockError) Error() string {
	return fmt.Sprintf("%s: lote %s solicitado %s disponible %s",
		ErrInsufficientStock, e.BatchID, e.Requested.String(), e.Available.String())
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// rejections son los errores que garantizan que no se escribió nada.
var rejections = []error{
	ErrInvalidInput,
	ErrNotFound,
	ErrInsufficientStock,
	ErrAlreadyVoid,
	ErrConcurrencyConflict,
	ErrBatchRetired,
	ErrBatchNotEmpty,
	ErrExceedsProduced,
	ErrConflict,
	ErrForbidden,
	ErrUnauthorized,
}

// IsRejection indica si err es un rechazo de negocio ("no pasó nada") y no una
// falla inesperada del almacenamiento.
func IsRejection(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range rejections {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Invalid envuelve ErrInvalidInput con el detalle del campo.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// NotFound envuelve ErrNotFound con la entidad y el id buscados.
func NotFound(entity, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, entity, id)
}
