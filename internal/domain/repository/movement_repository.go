package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/agrostock-api/internal/domain/entity"
)

// MovementPage define una página del historial de un lote, del más reciente al más antiguo.
// Solo incluye movimientos con Seq <= AsOfSeq y, si BeforeSeq > 0, con Seq < BeforeSeq.
type MovementPage struct {
	BatchID   string
	AsOfSeq   int64
	BeforeSeq int64
	Limit     int
}

// MovementTotals resultado de sumar el libro de un lote.
type MovementTotals struct {
	Quantity decimal.Decimal
	Value    decimal.Decimal
	Count    int
}

// MovementRepository puerto del libro de movimientos. Solo inserta; nunca actualiza ni borra.
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	ListPage(ctx context.Context, page MovementPage) ([]*entity.Movement, error)
	ListBySale(ctx context.Context, saleID string) ([]*entity.Movement, error)
	LatestSeq(ctx context.Context, batchID string) (int64, error)
	SumByBatch(ctx context.Context, batchID string) (MovementTotals, error)
}
