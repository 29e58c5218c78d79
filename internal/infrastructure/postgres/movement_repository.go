package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/agrostock-api/internal/domain/entity"
	"github.com/jhoicas/agrostock-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, seq, batch_id, kind, quantity, unit_cost, total_value, description,
	sale_id, transaction_id, actor_id, created_at`

type movementRow struct {
	ID            string          `db:"id"`
	Seq           int64           `db:"seq"`
	BatchID       string          `db:"batch_id"`
	Kind          string          `db:"kind"`
	Quantity      decimal.Decimal `db:"quantity"`
	UnitCost      decimal.Decimal `db:"unit_cost"`
	TotalValue    decimal.Decimal `db:"total_value"`
	Description   string          `db:"description"`
	SaleID        *string         `db:"sale_id"`
	TransactionID string          `db:"transaction_id"`
	ActorID       string          `db:"actor_id"`
	CreatedAt     time.Time       `db:"created_at"`
}

func (r movementRow) toEntity() *entity.Movement {
	return &entity.Movement{
		ID:            r.ID,
		Seq:           r.Seq,
		BatchID:       r.BatchID,
		Kind:          entity.MovementKind(r.Kind),
		Quantity:      r.Quantity,
		UnitCost:      r.UnitCost,
		TotalValue:    r.TotalValue,
		Description:   r.Description,
		SaleID:        r.SaleID,
		TransactionID: r.TransactionID,
		ActorID:       r.ActorID,
		CreatedAt:     r.CreatedAt,
	}
}

// MovementRepo libro de movimientos sobre PostgreSQL. Solo INSERT y SELECT.
type MovementRepo struct {
	q       Querier
	builder squirrel.StatementBuilderType
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q, builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}
}

// Create inserta el movimiento; seq lo asigna la secuencia de la tabla.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO movements (id, batch_id, kind, quantity, unit_cost, total_value, description,
			sale_id, transaction_id, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.BatchID, string(m.Kind), m.Quantity, m.UnitCost, m.TotalValue, m.Description,
		m.SaleID, m.TransactionID, m.ActorID, m.CreatedAt,
	).Scan(&m.Seq)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// ListPage página del historial, seq descendente (keyset).
func (r *MovementRepo) ListPage(ctx context.Context, p repository.MovementPage) ([]*entity.Movement, error) {
	q := r.builder.Select(movementColumns).From("movements").
		Where(squirrel.Eq{"batch_id": p.BatchID}).
		Where(squirrel.LtOrEq{"seq": p.AsOfSeq}).
		OrderBy("seq DESC")
	if p.BeforeSeq > 0 {
		q = q.Where(squirrel.Lt{"seq": p.BeforeSeq})
	}
	if p.Limit > 0 {
		q = q.Limit(uint64(p.Limit))
	}
	return r.selectMovements(ctx, q)
}

// ListBySale movimientos de una venta (débitos y reintegros), en orden de registro.
func (r *MovementRepo) ListBySale(ctx context.Context, saleID string) ([]*entity.Movement, error) {
	q := r.builder.Select(movementColumns).From("movements").
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("seq")
	return r.selectMovements(ctx, q)
}

func (r *MovementRepo) selectMovements(ctx context.Context, q squirrel.SelectBuilder) ([]*entity.Movement, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var rows []movementRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	out := make([]*entity.Movement, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

// LatestSeq último seq del lote (0 si no tiene movimientos).
func (r *MovementRepo) LatestSeq(ctx context.Context, batchID string) (int64, error) {
	var seq int64
	err := r.q.QueryRow(ctx, `SELECT COALESCE(MAX(seq), 0) FROM movements WHERE batch_id = $1`, batchID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("latest movement seq: %w", err)
	}
	return seq, nil
}

// SumByBatch suma cantidades y valores del libro del lote.
func (r *MovementRepo) SumByBatch(ctx context.Context, batchID string) (repository.MovementTotals, error) {
	var t repository.MovementTotals
	query := `
		SELECT COALESCE(SUM(quantity), 0), COALESCE(SUM(total_value), 0), COUNT(*)
		FROM movements WHERE batch_id = $1`
	if err := r.q.QueryRow(ctx, query, batchID).Scan(&t.Quantity, &t.Value, &t.Count); err != nil {
		return t, fmt.Errorf("sum movements: %w", err)
	}
	return t, nil
}
