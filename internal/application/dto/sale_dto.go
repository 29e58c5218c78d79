package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleLineRequest línea de venta: lote, cantidad y precio unitario.
type SaleLineRequest struct {
	BatchID   string          `json:"batch_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// PaymentRequest pago aplicado a la venta.
type PaymentRequest struct {
	Method    string          `json:"method" validate:"required,oneof=cash card transfer check credit"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
}

// CreateSaleRequest body para POST /api/sales.
type CreateSaleRequest struct {
	CustomerID *string           `json:"customer_id,omitempty"`
	Lines      []SaleLineRequest `json:"lines" validate:"required,min=1,dive"`
	Payments   []PaymentRequest  `json:"payments" validate:"dive"`
	Discount   *decimal.Decimal  `json:"discount,omitempty"`
}

// VoidSaleRequest body opcional para POST /api/sales/:id/void.
type VoidSaleRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

// CustomerResponse datos del cliente en la venta.
type CustomerResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	TaxID string `json:"tax_id"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// SaleLineResponse línea de venta hidratada.
type SaleLineResponse struct {
	ID          string          `json:"id"`
	Position    int             `json:"position"`
	BatchID     string          `json:"batch_id"`
	BatchCode   string          `json:"batch_code,omitempty"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Unit        string          `json:"unit,omitempty"`
	CropID      *string         `json:"crop_id,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	CostTotal   decimal.Decimal `json:"cost_total"`
}

// PaymentResponse pago registrado.
type PaymentResponse struct {
	ID        string          `json:"id"`
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
}

// SaleResponse venta con cliente, líneas y pagos.
type SaleResponse struct {
	ID         string             `json:"id"`
	CustomerID *string            `json:"customer_id,omitempty"`
	Customer   *CustomerResponse  `json:"customer,omitempty"`
	Date       time.Time          `json:"date"`
	Subtotal   decimal.Decimal    `json:"subtotal"`
	Tax        decimal.Decimal    `json:"tax"`
	Discount   decimal.Decimal    `json:"discount"`
	Total      decimal.Decimal    `json:"total"`
	Status     string             `json:"status"`
	CreatedBy  string             `json:"created_by"`
	VoidedBy   *string            `json:"voided_by,omitempty"`
	VoidedAt   *time.Time         `json:"voided_at,omitempty"`
	VoidReason string             `json:"void_reason,omitempty"`
	Lines      []SaleLineResponse `json:"lines,omitempty"`
	Payments   []PaymentResponse  `json:"payments,omitempty"`
}

// SaleListResponse listado paginado de ventas (sin líneas).
type SaleListResponse struct {
	Items []SaleResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// SaleMovementsResponse movimientos de stock generados por una venta.
type SaleMovementsResponse struct {
	SaleID string             `json:"sale_id"`
	Items  []MovementResponse `json:"items"`
}
