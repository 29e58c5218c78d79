package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind es el tipo cerrado de movimiento del libro de producción.
type MovementKind string

// Tipos de movimiento. Cada tipo tiene un signo fijo (ver Sign).
const (
	MovementIntake         MovementKind = "intake"           // ingreso por cosecha
	MovementAdjustPositive MovementKind = "adjust_positive"  // ajuste +
	MovementAdjustNegative MovementKind = "adjust_negative"  // ajuste -
	MovementTransferOut    MovementKind = "transfer_out"     // salida por traslado
	MovementTransferIn     MovementKind = "transfer_in"      // entrada por traslado
	MovementSaleDebit      MovementKind = "sale_debit"       // descuento por venta
	MovementSaleVoidCredit MovementKind = "sale_void_credit" // reintegro por anulación
)

// MovementKinds lista todos los tipos válidos.
var MovementKinds = []MovementKind{
	MovementIntake,
	MovementAdjustPositive,
	MovementAdjustNegative,
	MovementTransferOut,
	MovementTransferIn,
	MovementSaleDebit,
	MovementSaleVoidCredit,
}

// Sign devuelve +1 para tipos que suman al saldo y -1 para los que restan.
func (k MovementKind) Sign() (int, error) {
	switch k {
	case MovementIntake, MovementAdjustPositive, MovementTransferIn, MovementSaleVoidCredit:
		return 1, nil
	case MovementAdjustNegative, MovementTransferOut, MovementSaleDebit:
		return -1, nil
	default:
		return 0, fmt.Errorf("tipo de movimiento desconocido: %q", string(k))
	}
}

// Valid indica si k es uno de los tipos definidos.
func (k MovementKind) Valid() bool {
	_, err := k.Sign()
	return err == nil
}

// ParseMovementKind convierte un string al tipo cerrado.
func ParseMovementKind(s string) (MovementKind, error) {
	k := MovementKind(s)
	if _, err := k.Sign(); err != nil {
		return "", err
	}
	return k, nil
}

// Movement es un registro inmutable de cambio de cantidad/valor en un lote.
type Movement struct {
	ID            string
	Seq           int64 // orden de inserción, asignado por el almacenamiento
	BatchID       string
	Kind          MovementKind
	Quantity      decimal.Decimal // con signo
	UnitCost      decimal.Decimal
	TotalValue    decimal.Decimal // Quantity * UnitCost (con signo)
	Description   string
	SaleID        *string
	TransactionID string // agrupa los movimientos de una misma operación (traslado, venta)
	ActorID       string
	CreatedAt     time.Time
}
