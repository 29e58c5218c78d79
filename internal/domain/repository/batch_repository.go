package repository

import (
	"context"

	"github.com/jhoicas/agrostock-api/internal/domain/entity"
)

// BatchFilter filtros para listar lotes.
type BatchFilter struct {
	ProductID      string
	CropID         string
	IncludeRetired bool
	Limit          int
	Offset         int
}

// BatchRepository define el puerto de persistencia para lotes de producción.
// GetByID y GetForUpdate devuelven (nil, nil) si el lote no existe.
type BatchRepository interface {
	Create(ctx context.Context, batch *entity.Batch) error
	GetByID(ctx context.Context, id string) (*entity.Batch, error)
	// GetForUpdate obtiene el lote y bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Batch, error)
	// SaveState persiste saldo, costo unitario, costo total y retiro del lote.
	SaveState(ctx context.Context, batch *entity.Batch) error
	// UpdateMetadata persiste solo campos descriptivos (calidad, precio sugerido, notas).
	UpdateMetadata(ctx context.Context, batch *entity.Batch) error
	List(ctx context.Context, filter BatchFilter) ([]*entity.Batch, error)
}
