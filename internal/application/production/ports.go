package production

import (
	"context"

	"github.com/jhoicas/agrostock-api/internal/domain/entity"
	"github.com/jhoicas/agrostock-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn retorna error (o el contexto se cancela antes del commit) se hace rollback completo.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error
}

// SaleNotifier recibe las ventas ya confirmadas (generación de factura, notificaciones).
// Se invoca después del commit; sus errores no deshacen la venta.
type SaleNotifier interface {
	SaleCreated(ctx context.Context, sale *entity.Sale) error
	SaleVoided(ctx context.Context, sale *entity.Sale) error
}

// NopNotifier descarta los eventos de venta.
type NopNotifier struct{}

func (NopNotifier) SaleCreated(context.Context, *entity.Sale) error { return nil }
func (NopNotifier) SaleVoided(context.Context, *entity.Sale) error  { return nil }
