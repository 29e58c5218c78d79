package production

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/agrostock-api/internal/domain"
	"github.com/jhoicas/agrostock-api/internal/domain/entity"
	"github.com/jhoicas/agrostock-api/internal/domain/inventory"
	"github.com/jhoicas/agrostock-api/internal/domain/repository"
)

const defaultLedgerPageSize = 100

// Ledger es el libro de movimientos: solo agrega registros y permite recorrer el historial.
type Ledger struct {
	batches   repository.BatchRepository
	movements repository.MovementRepository
	pageSize  int
}

// NewLedger construye el libro con repositorios atados al pool (lecturas fuera de transacción).
func NewLedger(batches repository.BatchRepository, movements repository.MovementRepository, pageSize int) *Ledger {
	if pageSize < 1 {
		pageSize = defaultLedgerPageSize
	}
	return &Ledger{batches: batches, movements: movements, pageSize: pageSize}
}

// Entry datos de un movimiento a registrar. Quantity lleva signo y debe coincidir con el tipo.
type Entry struct {
	BatchID       string
	Kind          entity.MovementKind
	Quantity      decimal.Decimal
	UnitCost      decimal.Decimal
	Description   string
	ActorID       string
	SaleID        *string
	TransactionID string
	At            time.Time
}

// Record agrega un movimiento usando el repositorio recibido (normalmente atado a la tx del caller).
// No toca el saldo del lote: eso es responsabilidad del motor de stock, en la misma transacción.
func (l *Ledger) Record(ctx context.Context, movRepo repository.MovementRepository, e Entry) (*entity.Movement, error) {
	sign, err := e.Kind.Sign()
	if err != nil {
		return nil, domain.Invalid("%v", err)
	}
	if e.Quantity.IsZero() || e.Quantity.Sign() != sign {
		return nil, domain.Invalid("cantidad %s no corresponde al tipo %s", e.Quantity, e.Kind)
	}
	if e.BatchID == "" {
		return nil, domain.Invalid("lote requerido")
	}
	at := e.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	mov := &entity.Movement{
		ID:            uuid.New().String(),
		BatchID:       e.BatchID,
		Kind:          e.Kind,
		Quantity:      e.Quantity,
		UnitCost:      e.UnitCost,
		TotalValue:    inventory.Valuation(e.Quantity, e.UnitCost),
		Description:   e.Description,
		SaleID:        e.SaleID,
		TransactionID: e.TransactionID,
		ActorID:       e.ActorID,
		CreatedAt:     at,
	}
	if err := movRepo.Create(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// MovementHistory historial de un lote fijado al momento de la consulta.
type MovementHistory struct {
	BatchID string
	AsOfSeq int64

	movements repository.MovementRepository
	pageSize  int
}

// History devuelve el historial de un lote, del más reciente al más antiguo.
// La foto queda fijada al momento de la llamada: movimientos posteriores no aparecen.
func (l *Ledger) History(ctx context.Context, batchID string) (*MovementHistory, error) {
	batch, err := l.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, domain.NotFound("lote", batchID)
	}
	asOf, err := l.movements.LatestSeq(ctx, batchID)
	if err != nil {
		return nil, err
	}
	return &MovementHistory{BatchID: batchID, AsOfSeq: asOf, movements: l.movements, pageSize: l.pageSize}, nil
}

// All recorre el historial de forma perezosa, una página a la vez.
// Se puede recorrer varias veces; cada recorrido arranca desde el movimiento más reciente de la foto.
func (h *MovementHistory) All(ctx context.Context) iter.Seq2[*entity.Movement, error] {
	return func(yield func(*entity.Movement, error) bool) {
		if h.AsOfSeq == 0 {
			return
		}
		var before int64
		for {
			page, err := h.movements.ListPage(ctx, repository.MovementPage{
				BatchID:   h.BatchID,
				AsOfSeq:   h.AsOfSeq,
				BeforeSeq: before,
				Limit:     h.pageSize,
			})
			if err != nil {
				yield(nil, err)
				return
			}
			for _, m := range page {
				if !yield(m, nil) {
					return
				}
				before = m.Seq
			}
			if len(page) < h.pageSize {
				return
			}
		}
	}
}

// Collect devuelve hasta limit movimientos (limit <= 0 = todos).
func (h *MovementHistory) Collect(ctx context.Context, limit int) ([]*entity.Movement, error) {
	var out []*entity.Movement
	for m, err := range h.All(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, m)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// ReconciliationReport compara el saldo desnormalizado con la suma del libro.
type ReconciliationReport struct {
	BatchID    string
	Available  decimal.Decimal
	LedgerSum  decimal.Decimal
	LedgerCost decimal.Decimal
	Drift      decimal.Decimal // Available - LedgerSum
	Movements  int
	Consistent bool
}

// Reconcile reproduce el libro del lote y verifica que la suma de movimientos sea igual al saldo.
func (l *Ledger) Reconcile(ctx context.Context, batchID string) (*ReconciliationReport, error) {
	batch, err := l.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, domain.NotFound("lote", batchID)
	}
	totals, err := l.movements.SumByBatch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("sumar movimientos: %w", err)
	}
	drift := batch.Available.Sub(totals.Quantity)
	return &ReconciliationReport{
		BatchID:    batchID,
		Available:  batch.Available,
		LedgerSum:  totals.Quantity,
		LedgerCost: totals.Value,
		Drift:      drift,
		Movements:  totals.Count,
		Consistent: drift.IsZero(),
	}, nil
}
