package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/agrostock-api/internal/domain"
	"github.com/jhoicas/agrostock-api/internal/domain/entity"
	"github.com/jhoicas/agrostock-api/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

const batchColumns = `id, code, product_id, crop_id, plot_id, activity_id, harvest_date,
	quantity_produced, available, unit_cost, total_cost, suggested_price, quality_grade, notes,
	created_by, created_at, updated_at, retired_at`

type batchRow struct {
	ID               string           `db:"id"`
	Code             string           `db:"code"`
	ProductID        string           `db:"product_id"`
	CropID           *string          `db:"crop_id"`
	PlotID           *string          `db:"plot_id"`
	ActivityID       *string          `db:"activity_id"`
	HarvestDate      time.Time        `db:"harvest_date"`
	QuantityProduced decimal.Decimal  `db:"quantity_produced"`
	Available        decimal.Decimal  `db:"available"`
	UnitCost         decimal.Decimal  `db:"unit_cost"`
	TotalCost        decimal.Decimal  `db:"total_cost"`
	SuggestedPrice   *decimal.Decimal `db:"suggested_price"`
	QualityGrade     string           `db:"quality_grade"`
	Notes            string           `db:"notes"`
	CreatedBy        string           `db:"created_by"`
	CreatedAt        time.Time        `db:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at"`
	RetiredAt        *time.Time       `db:"retired_at"`
}

func (r batchRow) toEntity() *entity.Batch {
	return &entity.Batch{
		ID:               r.ID,
		Code:             r.Code,
		ProductID:        r.ProductID,
		CropID:           r.CropID,
		PlotID:           r.PlotID,
		ActivityID:       r.ActivityID,
		HarvestDate:      r.HarvestDate,
		QuantityProduced: r.QuantityProduced,
		Available:        r.Available,
		UnitCost:         r.UnitCost,
		TotalCost:        r.TotalCost,
		SuggestedPrice:   r.SuggestedPrice,
		QualityGrade:     r.QualityGrade,
		Notes:            r.Notes,
		CreatedBy:        r.CreatedBy,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
		RetiredAt:        r.RetiredAt,
	}
}

// BatchRepo implementación de BatchRepository sobre PostgreSQL (usable con pool o tx).
type BatchRepo struct {
	q       Querier
	builder squirrel.StatementBuilderType
}

// NewBatchRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q, builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}
}

// Create persiste un lote nuevo.
func (r *BatchRepo) Create(ctx context.Context, b *entity.Batch) error {
	query := `
		INSERT INTO batches (` + batchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.q.Exec(ctx, query,
		b.ID, b.Code, b.ProductID, b.CropID, b.PlotID, b.ActivityID, b.HarvestDate,
		b.QuantityProduced, b.Available, b.UnitCost, b.TotalCost, b.SuggestedPrice, b.QualityGrade, b.Notes,
		b.CreatedBy, b.CreatedAt, b.UpdatedAt, b.RetiredAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: lote %s ya existe", domain.ErrConflict, b.Code)
		}
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// GetByID obtiene un lote por ID.
func (r *BatchRepo) GetByID(ctx context.Context, id string) (*entity.Batch, error) {
	return r.get(ctx, `SELECT `+batchColumns+` FROM batches WHERE id = $1`, id)
}

// GetForUpdate obtiene el lote y bloquea la fila para update (SELECT FOR UPDATE).
func (r *BatchRepo) GetForUpdate(ctx context.Context, id string) (*entity.Batch, error) {
	return r.get(ctx, `SELECT `+batchColumns+` FROM batches WHERE id = $1 FOR UPDATE`, id)
}

func (r *BatchRepo) get(ctx context.Context, query, id string) (*entity.Batch, error) {
	var row batchRow
	if err := pgxscan.Get(ctx, r.q, &row, query, id); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return row.toEntity(), nil
}

// SaveState persiste saldo, costos y retiro.
func (r *BatchRepo) SaveState(ctx context.Context, b *entity.Batch) error {
	query := `
		UPDATE batches
		SET available = $2, unit_cost = $3, total_cost = $4, retired_at = $5, updated_at = $6
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, b.ID, b.Available, b.UnitCost, b.TotalCost, b.RetiredAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update batch state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("lote", b.ID)
	}
	return nil
}

// UpdateMetadata persiste calidad, precio sugerido y notas.
func (r *BatchRepo) UpdateMetadata(ctx context.Context, b *entity.Batch) error {
	query := `
		UPDATE batches
		SET quality_grade = $2, suggested_price = $3, notes = $4, updated_at = $5
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, b.ID, b.QualityGrade, b.SuggestedPrice, b.Notes, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update batch metadata: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("lote", b.ID)
	}
	return nil
}

// List lista lotes, más recientes primero.
func (r *BatchRepo) List(ctx context.Context, f repository.BatchFilter) ([]*entity.Batch, error) {
	q := r.builder.Select(batchColumns).From("batches").
		OrderBy("created_at DESC", "id")
	if f.ProductID != "" {
		q = q.Where(squirrel.Eq{"product_id": f.ProductID})
	}
	if f.CropID != "" {
		q = q.Where(squirrel.Eq{"crop_id": f.CropID})
	}
	if !f.IncludeRetired {
		q = q.Where(squirrel.Eq{"retired_at": nil})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var rows []batchRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	out := make([]*entity.Batch, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}
