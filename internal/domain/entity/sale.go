package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleStatus estado de una venta.
type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusVoid      SaleStatus = "void"
)

// PaymentMethod medio de pago aceptado.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentCheck    PaymentMethod = "check"
	PaymentCredit   PaymentMethod = "credit"
)

// Valid indica si el medio de pago es conocido.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentCheck, PaymentCredit:
		return true
	}
	return false
}

// Sale cabecera de una venta de producción. Las líneas y pagos se crean con ella
// en la misma transacción y no se modifican después; anular solo cambia el estado.
type Sale struct {
	ID         string
	CustomerID *string // nil = venta de mostrador
	Date       time.Time
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Discount   decimal.Decimal
	Total      decimal.Decimal
	Status     SaleStatus
	CreatedBy  string
	VoidedBy   *string
	VoidedAt   *time.Time
	VoidReason string
	CreatedAt  time.Time

	// Hidratados por el orquestador al devolver la venta.
	Customer *Customer
	Lines    []*SaleLine
	Payments []*Payment
}

// IsVoid indica si la venta está anulada.
func (s *Sale) IsVoid() bool {
	return s.Status == SaleStatusVoid
}

// SaleLine una línea lote-cantidad-precio de la venta.
type SaleLine struct {
	ID        string
	SaleID    string
	Position  int // orden de entrada
	BatchID   string
	ProductID string
	CropID    *string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
	UnitCost  decimal.Decimal // costo del lote al momento de la venta
	CostTotal decimal.Decimal

	Batch   *Batch
	Product *Product
}

// Payment pago aplicado a una venta.
type Payment struct {
	ID        string
	SaleID    string
	Method    PaymentMethod
	Amount    decimal.Decimal
	Reference string
	CreatedAt time.Time
}
