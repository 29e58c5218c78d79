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

// StockPolicy reglas configurables del motor.
type StockPolicy struct {
	// AllowOverProduction permite que ajustes positivos y traslados dejen el saldo por encima
	// de la cantidad producida del lote. Los reintegros por anulación nunca se limitan.
	AllowOverProduction bool
}

// StockEngine ejecuta las operaciones que cambian el saldo de un lote (ajuste, traslado,
// descuento por venta y reintegro por anulación). Cada operación bloquea la fila del lote
// (SELECT FOR UPDATE), valida, actualiza el saldo y registra el movimiento en la misma transacción.
type StockEngine struct {
	txRunner TxRunner
	ledger   *Ledger
	policy   StockPolicy
	log      *logger.Logger
	now      func() time.Time
}

// NewStockEngine construye el motor.
func NewStockEngine(txRunner TxRunner, ledger *Ledger, policy StockPolicy, log *logger.Logger) *StockEngine {
	if log == nil {
		log = logger.Nop()
	}
	return &StockEngine{
		txRunner: txRunner,
		ledger:   ledger,
		policy:   policy,
		log:      log.Named("stock_engine"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AdjustmentInput entrada de un ajuste manual. Quantity con signo: positivo suma, negativo resta.
type AdjustmentInput struct {
	BatchID  string
	Quantity decimal.Decimal
	Reason   string
	ActorID  string
}

// Adjust aplica un ajuste manual al saldo del lote. El costo unitario no cambia.
func (e *StockEngine) Adjust(ctx context.Context, in AdjustmentInput) (*entity.Movement, error) {
	if in.BatchID == "" || in.ActorID == "" {
		return nil, domain.Invalid("lote y actor son obligatorios")
	}
	if in.Quantity.IsZero() {
		return nil, domain.Invalid("la cantidad del ajuste no puede ser cero")
	}
	if !inventory.FitsScale(in.Quantity, inventory.QuantityScale) {
		return nil, domain.Invalid("la cantidad admite máximo %d decimales", inventory.QuantityScale)
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, domain.Invalid("el motivo del ajuste es obligatorio")
	}

	kind := entity.MovementAdjustPositive
	if in.Quantity.IsNegative() {
		kind = entity.MovementAdjustNegative
	}
	now := e.now()

	var mov *entity.Movement
	err := e.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repositories) error {
		batch, err := lockBatch(ctx, repos.Batches, in.BatchID)
		if err != nil {
			return err
		}
		if batch.IsRetired() {
			return domain.ErrBatchRetired
		}
		if kind == entity.MovementAdjustNegative {
			magnitude := in.Quantity.Neg()
			if batch.Available.LessThan(magnitude) {
				return domain.NewStockError(batch.ID, magnitude, batch.Available)
			}
		} else if err := e.checkCeiling(batch, in.Quantity); err != nil {
			return err
		}

		batch.Available = batch.Available.Add(in.Quantity)
		touch(batch, now)
		if err := repos.Batches.SaveState(ctx, batch); err != nil {
			return err
		}
		mov, err = e.ledger.Record(ctx, repos.Movements, Entry{
			BatchID:       batch.ID,
			Kind:          kind,
			Quantity:      in.Quantity,
			UnitCost:      batch.UnitCost,
			Description:   reason,
			ActorID:       in.ActorID,
			TransactionID: uuid.New().String(),
			At:            now,
		})
		return err
	})
	if err != nil {
		e.log.Warn().Err(err).Str("batch_id", in.BatchID).Str("quantity", in.Quantity.String()).Msg("ajuste rechazado")
		return nil, err
	}
	e.log.Info().
		Str("batch_id", in.BatchID).
		Str("kind", string(kind)).
		Str("quantity", in.Quantity.String()).
		Str("actor_id", in.ActorID).
		Msg("ajuste registrado")
	return mov, nil
}

// TransferInput entrada de un traslado entre dos lotes del mismo producto.
type TransferInput struct {
	SourceBatchID string
	DestBatchID   string
	Quantity      decimal.Decimal
	ActorID       string
	Note          string
}

// TransferResult estado de ambos lotes y los dos movimientos del traslado.
type TransferResult struct {
	TransactionID string
	Source        *entity.Batch
	Dest          *entity.Batch
	Out           *entity.Movement
	In            *entity.Movement
}

// Transfer mueve cantidad del lote origen al destino. El destino recalcula su costo unitario
// por promedio ponderado; ambos movimientos se valoran al costo del origen, de modo que el valor
// que sale es igual al valor que entra.
func (e *StockEngine) Transfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if in.SourceBatchID == "" || in.DestBatchID == "" || in.ActorID == "" {
		return nil, domain.Invalid("lotes origen, destino y actor son obligatorios")
	}
	if in.SourceBatchID == in.DestBatchID {
		return nil, domain.Invalid("origen y destino deben ser lotes distintos")
	}
	if !in.Quantity.IsPositive() {
		return nil, domain.Invalid("la cantidad a trasladar debe ser positiva")
	}
	if !inventory.FitsScale(in.Quantity, inventory.QuantityScale) {
		return nil, domain.Invalid("la cantidad admite máximo %d decimales", inventory.QuantityScale)
	}
	now := e.now()
	txID := uuid.New().String()
	desc := strings.TrimSpace(in.Note)

	var res *TransferResult
	err := e.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repositories) error {
		// Bloqueo en orden de id para que dos traslados cruzados no se bloqueen mutuamente.
		first, second := in.SourceBatchID, in.DestBatchID
		if second < first {
			first, second = second, first
		}
		locked := make(map[string]*entity.Batch, 2)
		for _, id := range []string{first, second} {
			b, err := lockBatch(ctx, repos.Batches, id)
			if err != nil {
				return err
			}
			locked[id] = b
		}
		src, dst := locked[in.SourceBatchID], locked[in.DestBatchID]

		if src.IsRetired() || dst.IsRetired() {
			return domain.ErrBatchRetired
		}
		if src.ProductID != dst.ProductID {
			return domain.Invalid("los lotes %s y %s son de productos distintos", src.ID, dst.ID)
		}
		if src.Available.LessThan(in.Quantity) {
			return domain.NewStockError(src.ID, in.Quantity, src.Available)
		}
		if err := e.checkCeiling(dst, in.Quantity); err != nil {
			return err
		}

		srcCost := src.UnitCost
		dst.UnitCost = inventory.RecomputeAverageCost(dst.Available, dst.UnitCost, in.Quantity, srcCost)
		src.Available = src.Available.Sub(in.Quantity)
		dst.Available = dst.Available.Add(in.Quantity)
		touch(src, now)
		touch(dst, now)
		if err := repos.Batches.SaveState(ctx, src); err != nil {
			return err
		}
		if err := repos.Batches.SaveState(ctx, dst); err != nil {
			return err
		}

		out, err := e.ledger.Record(ctx, repos.Movements, Entry{
			BatchID:       src.ID,
			Kind:          entity.MovementTransferOut,
			Quantity:      in.Quantity.Neg(),
			UnitCost:      srcCost,
			Description:   transferDescription("traslado a lote "+dst.ID, desc),
			ActorID:       in.ActorID,
			TransactionID: txID,
			At:            now,
		})
		if err != nil {
			return err
		}
		inMov, err := e.ledger.Record(ctx, repos.Movements, Entry{
			BatchID:       dst.ID,
			Kind:          entity.MovementTransferIn,
			Quantity:      in.Quantity,
			UnitCost:      srcCost,
			Description:   transferDescription("traslado desde lote "+src.ID, desc),
			ActorID:       in.ActorID,
			TransactionID: txID,
			At:            now,
		})
		if err != nil {
			return err
		}
		res = &TransferResult{TransactionID: txID, Source: src, Dest: dst, Out: out, In: inMov}
		return nil
	})
	if err != nil {
		e.log.Warn().Err(err).
			Str("source_batch_id", in.SourceBatchID).
			Str("dest_batch_id", in.DestBatchID).
			Msg("traslado rechazado")
		return nil, err
	}
	e.log.Info().
		Str("transaction_id", txID).
		Str("source_batch_id", in.SourceBatchID).
		Str("dest_batch_id", in.DestBatchID).
		Str("quantity", in.Quantity.String()).
		Str("dest_unit_cost", res.Dest.UnitCost.String()).
		Msg("traslado registrado")
	return res, nil
}

// SaleDebit descuento de un lote por una línea de venta.
type SaleDebit struct {
	SaleID   string
	BatchID  string
	Quantity decimal.Decimal
	ActorID  string
	At       time.Time
}

// DebitForSaleInTx descuenta el lote usando los repositorios del caller (misma transacción de la venta).
// Devuelve el lote tal como estaba antes del descuento (costo vigente al momento de vender).
// Si retorna error (ej: ErrInsufficientStock), el caller debe abortar la transacción.
func (e *StockEngine) DebitForSaleInTx(ctx context.Context, repos repository.Repositories, d SaleDebit) (*entity.Batch, *entity.Movement, error) {
	if !d.Quantity.IsPositive() {
		return nil, nil, domain.Invalid("la cantidad vendida debe ser positiva")
	}
	batch, err := lockBatch(ctx, repos.Batches, d.BatchID)
	if err != nil {
		return nil, nil, err
	}
	if batch.IsRetired() {
		return nil, nil, domain.ErrBatchRetired
	}
	if batch.Available.LessThan(d.Quantity) {
		return nil, nil, domain.NewStockError(batch.ID, d.Quantity, batch.Available)
	}
	before := *batch

	batch.Available = batch.Available.Sub(d.Quantity)
	touch(batch, d.At)
	if err := repos.Batches.SaveState(ctx, batch); err != nil {
		return nil, nil, err
	}
	saleID := d.SaleID
	mov, err := e.ledger.Record(ctx, repos.Movements, Entry{
		BatchID:       batch.ID,
		Kind:          entity.MovementSaleDebit,
		Quantity:      d.Quantity.Neg(),
		UnitCost:      batch.UnitCost,
		Description:   "venta " + saleID,
		ActorID:       d.ActorID,
		SaleID:        &saleID,
		TransactionID: saleID,
		At:            d.At,
	})
	if err != nil {
		return nil, nil, err
	}
	return &before, mov, nil
}

// VoidCredit reintegro de una línea de venta anulada.
type VoidCredit struct {
	SaleID   string
	BatchID  string
	Quantity decimal.Decimal
	ActorID  string
	At       time.Time
}

// CreditForVoidInTx devuelve la cantidad al lote al costo vigente del lote (no al costo de la venta).
// Un lote retirado se reabre para recibir el reintegro.
func (e *StockEngine) CreditForVoidInTx(ctx context.Context, repos repository.Repositories, c VoidCredit) (*entity.Movement, error) {
	if !c.Quantity.IsPositive() {
		return nil, domain.Invalid("la cantidad a reintegrar debe ser positiva")
	}
	batch, err := lockBatch(ctx, repos.Batches, c.BatchID)
	if err != nil {
		return nil, err
	}
	batch.RetiredAt = nil
	batch.Available = batch.Available.Add(c.Quantity)
	touch(batch, c.At)
	if err := repos.Batches.SaveState(ctx, batch); err != nil {
		return nil, err
	}
	saleID := c.SaleID
	return e.ledger.Record(ctx, repos.Movements, Entry{
		BatchID:       batch.ID,
		Kind:          entity.MovementSaleVoidCredit,
		Quantity:      c.Quantity,
		UnitCost:      batch.UnitCost,
		Description:   "anulación venta " + saleID,
		ActorID:       c.ActorID,
		SaleID:        &saleID,
		TransactionID: saleID,
		At:            c.At,
	})
}

func (e *StockEngine) checkCeiling(batch *entity.Batch, incoming decimal.Decimal) error {
	if e.policy.AllowOverProduction {
		return nil
	}
	if batch.Available.Add(incoming).GreaterThan(batch.QuantityProduced) {
		return domain.ErrExceedsProduced
	}
	return nil
}

// lockBatch bloquea la fila del lote; ErrNotFound si no existe.
func lockBatch(ctx context.Context, repo repository.BatchRepository, id string) (*entity.Batch, error) {
	batch, err := repo.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, domain.NotFound("lote", id)
	}
	return batch, nil
}

// touch recalcula la valorización del lote tras cambiar saldo o costo.
func touch(batch *entity.Batch, at time.Time) {
	batch.TotalCost = inventory.Valuation(batch.Available, batch.UnitCost)
	batch.UpdatedAt = at
}

func transferDescription(base, note string) string {
	if note == "" {
		return base
	}
	return base + ": " + note
}
