package repository

import (
	"context"
	"time"

	"github.com/jhoicas/agrostock-api/internal/domain/entity"
)

// SaleFilter filtros de consulta de ventas (para reportes y exportación).
type SaleFilter struct {
	Status     entity.SaleStatus
	CustomerID string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// SaleRepository define el puerto de persistencia para ventas, líneas y pagos.
// GetByID y GetForUpdate devuelven (nil, nil) si la venta no existe.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	CreateLine(ctx context.Context, line *entity.SaleLine) error
	CreatePayment(ctx context.Context, payment *entity.Payment) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Sale, error)
	GetLines(ctx context.Context, saleID string) ([]*entity.SaleLine, error)
	GetPayments(ctx context.Context, saleID string) ([]*entity.Payment, error)
	// MarkVoid cambia el estado a anulada y registra quién y cuándo.
	MarkVoid(ctx context.Context, sale *entity.Sale) error
	List(ctx context.Context, filter SaleFilter) ([]*entity.Sale, error)
}
