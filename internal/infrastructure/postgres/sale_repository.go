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

var _ repository.SaleRepository = (*SaleRepo)(nil)

const saleColumns = `id, customer_id, date, subtotal, tax, discount, total, status,
	created_by, voided_by, voided_at, void_reason, created_at`

type saleRow struct {
	ID         string          `db:"id"`
	CustomerID *string         `db:"customer_id"`
	Date       time.Time       `db:"date"`
	Subtotal   decimal.Decimal `db:"subtotal"`
	Tax        decimal.Decimal `db:"tax"`
	Discount   decimal.Decimal `db:"discount"`
	Total      decimal.Decimal `db:"total"`
	Status     string          `db:"status"`
	CreatedBy  string          `db:"created_by"`
	VoidedBy   *string         `db:"voided_by"`
	VoidedAt   *time.Time      `db:"voided_at"`
	VoidReason string          `db:"void_reason"`
	CreatedAt  time.Time       `db:"created_at"`
}

func (r saleRow) toEntity() *entity.Sale {
	return &entity.Sale{
		ID:         r.ID,
		CustomerID: r.CustomerID,
		Date:       r.Date,
		Subtotal:   r.Subtotal,
		Tax:        r.Tax,
		Discount:   r.Discount,
		Total:      r.Total,
		Status:     entity.SaleStatus(r.Status),
		CreatedBy:  r.CreatedBy,
		VoidedBy:   r.VoidedBy,
		VoidedAt:   r.VoidedAt,
		VoidReason: r.VoidReason,
		CreatedAt:  r.CreatedAt,
	}
}

type saleLineRow struct {
	ID        string          `db:"id"`
	SaleID    string          `db:"sale_id"`
	Position  int             `db:"position"`
	BatchID   string          `db:"batch_id"`
	ProductID string          `db:"product_id"`
	CropID    *string         `db:"crop_id"`
	Quantity  decimal.Decimal `db:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price"`
	LineTotal decimal.Decimal `db:"line_total"`
	UnitCost  decimal.Decimal `db:"unit_cost"`
	CostTotal decimal.Decimal `db:"cost_total"`
}

type paymentRow struct {
	ID        string          `db:"id"`
	SaleID    string          `db:"sale_id"`
	Method    string          `db:"method"`
	Amount    decimal.Decimal `db:"amount"`
	Reference string          `db:"reference"`
	CreatedAt time.Time       `db:"created_at"`
}

// SaleRepo ventas, líneas y pagos sobre PostgreSQL (usable con pool o tx).
type SaleRepo struct {
	q       Querier
	builder squirrel.StatementBuilderType
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q, builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}
}

// Create inserta la cabecera de la venta.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	query := `
		INSERT INTO sales (` + saleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.CustomerID, s.Date, s.Subtotal, s.Tax, s.Discount, s.Total, string(s.Status),
		s.CreatedBy, s.VoidedBy, s.VoidedAt, s.VoidReason, s.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: venta %s ya existe", domain.ErrConflict, s.ID)
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

// CreateLine inserta una línea de venta.
func (r *SaleRepo) CreateLine(ctx context.Context, l *entity.SaleLine) error {
	query := `
		INSERT INTO sale_lines (id, sale_id, position, batch_id, product_id, crop_id,
			quantity, unit_price, line_total, unit_cost, cost_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.SaleID, l.Position, l.BatchID, l.ProductID, l.CropID,
		l.Quantity, l.UnitPrice, l.LineTotal, l.UnitCost, l.CostTotal,
	)
	if err != nil {
		return fmt.Errorf("insert sale line: %w", err)
	}
	return nil
}

// CreatePayment inserta un pago.
func (r *SaleRepo) CreatePayment(ctx context.Context, p *entity.Payment) error {
	query := `
		INSERT INTO payments (id, sale_id, method, amount, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, p.ID, p.SaleID, string(p.Method), p.Amount, p.Reference, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetByID obtiene la cabecera de una venta.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
}

// GetForUpdate obtiene la venta y bloquea la fila (evita dos anulaciones simultáneas).
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id)
}

func (r *SaleRepo) get(ctx context.Context, query, id string) (*entity.Sale, error) {
	var row saleRow
	if err := pgxscan.Get(ctx, r.q, &row, query, id); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	return row.toEntity(), nil
}

// GetLines líneas de la venta en orden de entrada.
func (r *SaleRepo) GetLines(ctx context.Context, saleID string) ([]*entity.SaleLine, error) {
	var rows []saleLineRow
	query := `
		SELECT id, sale_id, position, batch_id, product_id, crop_id,
			quantity, unit_price, line_total, unit_cost, cost_total
		FROM sale_lines WHERE sale_id = $1 ORDER BY position`
	if err := pgxscan.Select(ctx, r.q, &rows, query, saleID); err != nil {
		return nil, fmt.Errorf("get sale lines: %w", err)
	}
	out := make([]*entity.SaleLine, 0, len(rows))
	for _, row := range rows {
		out = append(out, &entity.SaleLine{
			ID:        row.ID,
			SaleID:    row.SaleID,
			Position:  row.Position,
			BatchID:   row.BatchID,
			ProductID: row.ProductID,
			CropID:    row.CropID,
			Quantity:  row.Quantity,
			UnitPrice: row.UnitPrice,
			LineTotal: row.LineTotal,
			UnitCost:  row.UnitCost,
			CostTotal: row.CostTotal,
		})
	}
	return out, nil
}

// GetPayments pagos de la venta.
func (r *SaleRepo) GetPayments(ctx context.Context, saleID string) ([]*entity.Payment, error) {
	var rows []paymentRow
	query := `
		SELECT id, sale_id, method, amount, reference, created_at
		FROM payments WHERE sale_id = $1 ORDER BY created_at, id`
	if err := pgxscan.Select(ctx, r.q, &rows, query, saleID); err != nil {
		return nil, fmt.Errorf("get payments: %w", err)
	}
	out := make([]*entity.Payment, 0, len(rows))
	for _, row := range rows {
		out = append(out, &entity.Payment{
			ID:        row.ID,
			SaleID:    row.SaleID,
			Method:    entity.PaymentMethod(row.Method),
			Amount:    row.Amount,
			Reference: row.Reference,
			CreatedAt: row.CreatedAt,
		})
	}
	return out, nil
}

// MarkVoid marca la venta como anulada. Solo afecta ventas en estado completed.
func (r *SaleRepo) MarkVoid(ctx context.Context, s *entity.Sale) error {
	query := `
		UPDATE sales
		SET status = $2, voided_by = $3, voided_at = $4, void_reason = $5
		WHERE id = $1 AND status = $6`
	tag, err := r.q.Exec(ctx, query,
		s.ID, string(entity.SaleStatusVoid), s.VoidedBy, s.VoidedAt, s.VoidReason, string(entity.SaleStatusCompleted),
	)
	if err != nil {
		return fmt.Errorf("void sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyVoid
	}
	return nil
}

// List cabeceras de venta filtradas, más recientes primero.
func (r *SaleRepo) List(ctx context.Context, f repository.SaleFilter) ([]*entity.Sale, error) {
	q := r.builder.Select(saleColumns).From("sales").OrderBy("date DESC", "id")
	if f.Status != "" {
		q = q.Where(squirrel.Eq{"status": string(f.Status)})
	}
	if f.CustomerID != "" {
		q = q.Where(squirrel.Eq{"customer_id": f.CustomerID})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"date": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.LtOrEq{"date": *f.To})
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
	var rows []saleRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	out := make([]*entity.Sale, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}
