package production

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/agrostock-api/internal/domain"
	"github.com/jhoicas/agrostock-api/internal/domain/entity"
	"github.com/jhoicas/agrostock-api/internal/domain/inventory"
	"github.com/jhoicas/agrostock-api/internal/domain/repository"
	"github.com/jhoicas/agrostock-api/pkg/logger"
)

// SaleOrchestrator crea y anula ventas de producción. Cada operación es todo o nada:
// cabecera, líneas, pagos y movimientos se confirman juntos o no queda nada.
type SaleOrchestrator struct {
	txRunner TxRunner
	engine   *StockEngine
	repos    repository.Repositories // atados al pool, solo lecturas
	notifier SaleNotifier
	taxRate  decimal.Decimal
	log      *logger.Logger
	now      func() time.Time
}

// NewSaleOrchestrator construye el orquestador. notifier puede ser nil (NopNotifier).
func NewSaleOrchestrator(
	txRunner TxRunner,
	engine *StockEngine,
	repos repository.Repositories,
	notifier SaleNotifier,
	taxRate decimal.Decimal,
	log *logger.Logger,
) *SaleOrchestrator {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SaleOrchestrator{
		txRunner: txRunner,
		engine:   engine,
		repos:    repos,
		notifier: notifier,
		taxRate:  taxRate,
		log:      log.Named("sale_orchestrator"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SaleLineInput una línea de venta: lote, cantidad y precio unitario.
type SaleLineInput struct {
	BatchID   string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// PaymentInput un pago aplicado a la venta.
type PaymentInput struct {
	Method    entity.PaymentMethod
	Amount    decimal.Decimal
	Reference string
}

// CreateSaleInput entrada de CreateSale. CustomerID nil = venta de mostrador.
type CreateSaleInput struct {
	CustomerID *string
	Lines      []SaleLineInput
	Payments   []PaymentInput
	Discount   decimal.Decimal
	ActorID    string
}

// CreateSale calcula totales, valida pagos y registra la venta descontando cada lote en orden de entrada.
func (o *SaleOrchestrator) CreateSale(ctx context.Context, in CreateSaleInput) (*entity.Sale, error) {
	if in.ActorID == "" {
		return nil, domain.Invalid("actor es obligatorio")
	}
	if len(in.Lines) == 0 {
		return nil, domain.Invalid("la venta debe tener al menos una línea")
	}
	if in.Discount.IsNegative() {
		return nil, domain.Invalid("el descuento no puede ser negativo")
	}
	if !inventory.FitsScale(in.Discount, inventory.MoneyScale) {
		return nil, domain.Invalid("el descuento admite máximo %d decimales", inventory.MoneyScale)
	}

	subtotal := decimal.Zero
	lineTotals := make([]decimal.Decimal, len(in.Lines))
	for i, l := range in.Lines {
		if l.BatchID == "" {
			return nil, domain.Invalid("línea %d: lote requerido", i+1)
		}
		if !l.Quantity.IsPositive() {
			return nil, domain.Invalid("línea %d: la cantidad debe ser positiva", i+1)
		}
		if l.UnitPrice.IsNegative() {
			return nil, domain.Invalid("línea %d: el precio no puede ser negativo", i+1)
		}
		if !inventory.FitsScale(l.Quantity, inventory.QuantityScale) {
			return nil, domain.Invalid("línea %d: la cantidad admite máximo %d decimales", i+1, inventory.QuantityScale)
		}
		if !inventory.FitsScale(l.UnitPrice, inventory.MoneyScale) {
			return nil, domain.Invalid("línea %d: el precio admite máximo %d decimales", i+1, inventory.MoneyScale)
		}
		lineTotals[i] = inventory.RoundMoney(l.Quantity.Mul(l.UnitPrice))
		subtotal = subtotal.Add(lineTotals[i])
	}
	tax := inventory.RoundMoney(subtotal.Mul(o.taxRate))
	discount := inventory.RoundMoney(in.Discount)
	total := subtotal.Add(tax).Sub(discount)
	if total.IsNegative() {
		return nil, domain.Invalid("el descuento supera el total de la venta")
	}

	paid := decimal.Zero
	for i, p := range in.Payments {
		if !p.Method.Valid() {
			return nil, domain.Invalid("pago %d: medio de pago %q desconocido", i+1, p.Method)
		}
		if !p.Amount.IsPositive() {
			return nil, domain.Invalid("pago %d: el monto debe ser positivo", i+1)
		}
		if !inventory.FitsScale(p.Amount, inventory.MoneyScale) {
			return nil, domain.Invalid("pago %d: el monto admite máximo %d decimales", i+1, inventory.MoneyScale)
		}
		paid = paid.Add(p.Amount)
	}
	if paid.LessThan(total) {
		return nil, domain.Invalid("pagos %s insuficientes para el total %s", paid.StringFixed(2), total.StringFixed(2))
	}

	now := o.now()
	sale := &entity.Sale{
		ID:         uuid.New().String(),
		CustomerID: nonEmpty(in.CustomerID),
		Date:       now,
		Subtotal:   subtotal,
		Tax:        tax,
		Discount:   discount,
		Total:      total,
		Status:     entity.SaleStatusCompleted,
		CreatedBy:  in.ActorID,
		CreatedAt:  now,
	}

	err := o.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if sale.CustomerID != nil {
			c, err := repos.Customers.GetByID(ctx, *sale.CustomerID)
			if err != nil {
				return err
			}
			if c == nil {
				return domain.NotFound("cliente", *sale.CustomerID)
			}
		}
		if err := repos.Sales.Create(ctx, sale); err != nil {
			return err
		}
		for i, l := range in.Lines {
			batch, _, err := o.engine.DebitForSaleInTx(ctx, repos, SaleDebit{
				SaleID:   sale.ID,
				BatchID:  l.BatchID,
				Quantity: l.Quantity,
				ActorID:  in.ActorID,
				At:       now,
			})
			if err != nil {
				return err
			}
			line := &entity.SaleLine{
				ID:        uuid.New().String(),
				SaleID:    sale.ID,
				Position:  i + 1,
				BatchID:   batch.ID,
				ProductID: batch.ProductID,
				CropID:    batch.CropID,
				Quantity:  l.Quantity,
				UnitPrice: l.UnitPrice,
				LineTotal: lineTotals[i],
				UnitCost:  batch.UnitCost,
				CostTotal: inventory.Valuation(l.Quantity, batch.UnitCost),
			}
			if err := repos.Sales.CreateLine(ctx, line); err != nil {
				return err
			}
			sale.Lines = append(sale.Lines, line)
		}
		for _, p := range in.Payments {
			payment := &entity.Payment{
				ID:        uuid.New().String(),
				SaleID:    sale.ID,
				Method:    p.Method,
				Amount:    p.Amount,
				Reference: strings.TrimSpace(p.Reference),
				CreatedAt: now,
			}
			if err := repos.Sales.CreatePayment(ctx, payment); err != nil {
				return err
			}
			sale.Payments = append(sale.Payments, payment)
		}
		return nil
	})
	if err != nil {
		o.log.Warn().Err(err).Int("lines", len(in.Lines)).Str("actor_id", in.ActorID).Msg("venta rechazada")
		return nil, err
	}
	o.log.Info().
		Str("sale_id", sale.ID).
		Int("lines", len(in.Lines)).
		Str("total", sale.Total.StringFixed(2)).
		Str("actor_id", in.ActorID).
		Msg("venta registrada")

	// La venta ya está confirmada: si la relectura falla se devuelve lo escrito, nunca un error.
	hydrated, err := o.GetSale(ctx, sale.ID)
	if err != nil {
		o.log.Error().Err(err).Str("sale_id", sale.ID).Msg("venta confirmada, relectura falló")
		hydrated = sale
	}
	if err := o.notifier.SaleCreated(ctx, hydrated); err != nil {
		o.log.Error().Err(err).Str("sale_id", sale.ID).Msg("notificación de venta falló")
	}
	return hydrated, nil
}

// VoidSale anula una venta: reintegra cada línea a su lote al costo vigente y marca la venta como anulada.
// Las líneas no se modifican. Anular dos veces retorna ErrAlreadyVoid.
func (o *SaleOrchestrator) VoidSale(ctx context.Context, saleID, actorID, reason string) (*entity.Sale, error) {
	if saleID == "" || actorID == "" {
		return nil, domain.Invalid("venta y actor son obligatorios")
	}
	current, err := o.repos.Sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.NotFound("venta", saleID)
	}
	if current.IsVoid() {
		return nil, domain.ErrAlreadyVoid
	}

	now := o.now()
	var voided *entity.Sale
	err = o.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repositories) error {
		// Se vuelve a leer con bloqueo: otra anulación pudo confirmarse entre tanto.
		sale, err := repos.Sales.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.NotFound("venta", saleID)
		}
		if sale.IsVoid() {
			return domain.ErrAlreadyVoid
		}
		lines, err := repos.Sales.GetLines(ctx, saleID)
		if err != nil {
			return err
		}
		for _, l := range lines {
			if _, err := o.engine.CreditForVoidInTx(ctx, repos, VoidCredit{
				SaleID:   saleID,
				BatchID:  l.BatchID,
				Quantity: l.Quantity,
				ActorID:  actorID,
				At:       now,
			}); err != nil {
				return err
			}
		}
		actor := actorID
		sale.Status = entity.SaleStatusVoid
		sale.VoidedBy = &actor
		sale.VoidedAt = &now
		sale.VoidReason = strings.TrimSpace(reason)
		if err := repos.Sales.MarkVoid(ctx, sale); err != nil {
			return err
		}
		sale.Lines = lines
		voided = sale
		return nil
	})
	if err != nil {
		o.log.Warn().Err(err).Str("sale_id", saleID).Str("actor_id", actorID).Msg("anulación rechazada")
		return nil, err
	}
	o.log.Info().Str("sale_id", saleID).Str("actor_id", actorID).Msg("venta anulada")

	hydrated, err := o.GetSale(ctx, saleID)
	if err != nil {
		o.log.Error().Err(err).Str("sale_id", saleID).Msg("anulación confirmada, relectura falló")
		hydrated = voided
	}
	if err := o.notifier.SaleVoided(ctx, hydrated); err != nil {
		o.log.Error().Err(err).Str("sale_id", saleID).Msg("notificación de anulación falló")
	}
	return hydrated, nil
}

// GetSale devuelve la venta con cliente, líneas (con lote y producto) y pagos.
func (o *SaleOrchestrator) GetSale(ctx context.Context, id string) (*entity.Sale, error) {
	sale, err := o.repos.Sales.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.NotFound("venta", id)
	}
	if err := o.hydrate(ctx, sale); err != nil {
		return nil, err
	}
	return sale, nil
}

// SaleMovements devuelve los débitos y reintegros que generó la venta, en orden de registro.
func (o *SaleOrchestrator) SaleMovements(ctx context.Context, saleID string) ([]*entity.Movement, error) {
	sale, err := o.repos.Sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.NotFound("venta", saleID)
	}
	return o.repos.Movements.ListBySale(ctx, saleID)
}

// ListSales lista cabeceras de venta (sin hidratar) para reportes.
func (o *SaleOrchestrator) ListSales(ctx context.Context, filter repository.SaleFilter) ([]*entity.Sale, error) {
	if filter.Status != "" && filter.Status != entity.SaleStatusCompleted && filter.Status != entity.SaleStatusVoid {
		return nil, domain.Invalid("estado de venta %q desconocido", filter.Status)
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, domain.Invalid("rango de fechas inválido")
	}
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)
	return o.repos.Sales.List(ctx, filter)
}

func (o *SaleOrchestrator) hydrate(ctx context.Context, sale *entity.Sale) error {
	lines, err := o.repos.Sales.GetLines(ctx, sale.ID)
	if err != nil {
		return err
	}
	payments, err := o.repos.Sales.GetPayments(ctx, sale.ID)
	if err != nil {
		return err
	}
	if sale.CustomerID != nil {
		sale.Customer, err = o.repos.Customers.GetByID(ctx, *sale.CustomerID)
		if err != nil {
			return err
		}
	}
	batches := map[string]*entity.Batch{}
	products := map[string]*entity.Product{}
	for _, l := range lines {
		b, ok := batches[l.BatchID]
		if !ok {
			if b, err = o.repos.Batches.GetByID(ctx, l.BatchID); err != nil {
				return err
			}
			batches[l.BatchID] = b
		}
		p, ok := products[l.ProductID]
		if !ok {
			if p, err = o.repos.Catalog.GetProduct(ctx, l.ProductID); err != nil {
				return err
			}
			products[l.ProductID] = p
		}
		l.Batch, l.Product = b, p
	}
	sale.Lines = lines
	sale.Payments = payments
	return nil
}
