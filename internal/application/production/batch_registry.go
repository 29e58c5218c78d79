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

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// BatchRegistry administra el ciclo de vida de los lotes de producción.
type BatchRegistry struct {
	txRunner TxRunner
	batches  repository.BatchRepository
	ledger   *Ledger
	log      *logger.Logger
	now      func() time.Time
}

// NewBatchRegistry construye el registro. batches se usa solo para lecturas fuera de transacción.
func NewBatchRegistry(txRunner TxRunner, batches repository.BatchRepository, ledger *Ledger, log *logger.Logger) *BatchRegistry {
	if log == nil {
		log = logger.Nop()
	}
	return &BatchRegistry{
		txRunner: txRunner,
		batches:  batches,
		ledger:   ledger,
		log:      log.Named("batch_registry"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateBatchInput datos de ingreso de una cosecha.
type CreateBatchInput struct {
	Code           string
	ProductID      string
	CropID         *string
	PlotID         *string
	ActivityID     *string
	HarvestDate    time.Time
	Quantity       decimal.Decimal
	UnitCost       decimal.Decimal
	SuggestedPrice *decimal.Decimal
	QualityGrade   string
	Notes          string
	ActorID        string
}

// CreateBatch crea el lote con saldo = cantidad y su movimiento de ingreso en una sola transacción.
func (r *BatchRegistry) CreateBatch(ctx context.Context, in CreateBatchInput) (*entity.Batch, error) {
	if in.ProductID == "" {
		return nil, domain.Invalid("product_id es obligatorio")
	}
	if in.ActorID == "" {
		return nil, domain.Invalid("actor es obligatorio")
	}
	if !in.Quantity.IsPositive() {
		return nil, domain.Invalid("la cantidad producida debe ser positiva")
	}
	if in.UnitCost.IsNegative() {
		return nil, domain.Invalid("el costo unitario no puede ser negativo")
	}
	if in.SuggestedPrice != nil && in.SuggestedPrice.IsNegative() {
		return nil, domain.Invalid("el precio sugerido no puede ser negativo")
	}
	if !inventory.FitsScale(in.Quantity, inventory.QuantityScale) {
		return nil, domain.Invalid("la cantidad admite máximo %d decimales", inventory.QuantityScale)
	}
	if !inventory.FitsScale(in.UnitCost, inventory.CostScale) {
		return nil, domain.Invalid("el costo unitario admite máximo %d decimales", inventory.CostScale)
	}
	if in.SuggestedPrice != nil && !inventory.FitsScale(*in.SuggestedPrice, inventory.MoneyScale) {
		return nil, domain.Invalid("el precio sugerido admite máximo %d decimales", inventory.MoneyScale)
	}

	now := r.now()
	batch := &entity.Batch{
		ID:               uuid.New().String(),
		Code:             strings.TrimSpace(in.Code),
		ProductID:        in.ProductID,
		CropID:           nonEmpty(in.CropID),
		PlotID:           nonEmpty(in.PlotID),
		ActivityID:       nonEmpty(in.ActivityID),
		HarvestDate:      in.HarvestDate,
		QuantityProduced: in.Quantity,
		Available:        in.Quantity,
		UnitCost:         in.UnitCost,
		TotalCost:        inventory.Valuation(in.Quantity, in.UnitCost),
		SuggestedPrice:   in.SuggestedPrice,
		QualityGrade:     strings.TrimSpace(in.QualityGrade),
		Notes:            in.Notes,
		CreatedBy:        in.ActorID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if batch.HarvestDate.IsZero() {
		batch.HarvestDate = now
	}
	if batch.Code == "" {
		batch.Code = "L-" + strings.ToUpper(batch.ID[:8])
	}

	err := r.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repositories) error {
		ok, err := repos.Catalog.ProductExists(ctx, batch.ProductID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Invalid("el producto %s no existe", batch.ProductID)
		}
		if batch.CropID != nil {
			crop, err := repos.Catalog.GetCrop(ctx, *batch.CropID)
			if err != nil {
				return err
			}
			if crop == nil {
				return domain.Invalid("el cultivo %s no existe", *batch.CropID)
			}
			if batch.PlotID == nil && crop.PlotID != "" {
				plot := crop.PlotID
				batch.PlotID = &plot
			}
		}
		if err := repos.Batches.Create(ctx, batch); err != nil {
			return err
		}
		_, err = r.ledger.Record(ctx, repos.Movements, Entry{
			BatchID:       batch.ID,
			Kind:          entity.MovementIntake,
			Quantity:      batch.QuantityProduced,
			UnitCost:      batch.UnitCost,
			Description:   "ingreso de cosecha " + batch.Code,
			ActorID:       in.ActorID,
			TransactionID: batch.ID,
			At:            now,
		})
		return err
	})
	if err != nil {
		r.log.Warn().Err(err).Str("product_id", in.ProductID).Msg("ingreso de lote rechazado")
		return nil, err
	}
	r.log.Info().
		Str("batch_id", batch.ID).
		Str("code", batch.Code).
		Str("quantity", batch.QuantityProduced.String()).
		Str("unit_cost", batch.UnitCost.String()).
		Str("actor_id", in.ActorID).
		Msg("lote creado")
	return batch, nil
}

// GetBatch devuelve el lote o ErrNotFound.
func (r *BatchRegistry) GetBatch(ctx context.Context, id string) (*entity.Batch, error) {
	b, err := r.batches.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.NotFound("lote", id)
	}
	return b, nil
}

// ListBatches lista lotes con filtros y paginación (limit por defecto 50, máximo 500).
func (r *BatchRegistry) ListBatches(ctx context.Context, filter repository.BatchFilter) ([]*entity.Batch, error) {
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)
	return r.batches.List(ctx, filter)
}

// BatchMetadataPatch campos descriptivos modificables. nil = no cambiar.
type BatchMetadataPatch struct {
	QualityGrade   *string
	SuggestedPrice *decimal.Decimal
	Notes          *string
}

// UpdateBatchMetadata modifica solo calidad, precio sugerido y notas; nunca saldo ni costos.
func (r *BatchRegistry) UpdateBatchMetadata(ctx context.Context, id string, patch BatchMetadataPatch) (*entity.Batch, error) {
	if patch.SuggestedPrice != nil && patch.SuggestedPrice.IsNegative() {
		return nil, domain.Invalid("el precio sugerido no puede ser negativo")
	}
	if patch.SuggestedPrice != nil && !inventory.FitsScale(*patch.SuggestedPrice, inventory.MoneyScale) {
		return nil, domain.Invalid("el precio sugerido admite máximo %d decimales", inventory.MoneyScale)
	}
	var out *entity.Batch
	err := r.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repositories) error {
		batch, err := lockBatch(ctx, repos.Batches, id)
		if err != nil {
			return err
		}
		if patch.QualityGrade != nil {
			batch.QualityGrade = strings.TrimSpace(*patch.QualityGrade)
		}
		if patch.SuggestedPrice != nil {
			p := *patch.SuggestedPrice
			batch.SuggestedPrice = &p
		}
		if patch.Notes != nil {
			batch.Notes = *patch.Notes
		}
		batch.UpdatedAt = r.now()
		if err := repos.Batches.UpdateMetadata(ctx, batch); err != nil {
			return err
		}
		out = batch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RetireBatch retira el lote (borrado lógico). Solo se permite con saldo cero;
// retirar un lote ya retirado no hace nada.
func (r *BatchRegistry) RetireBatch(ctx context.Context, id, actorID string) (*entity.Batch, error) {
	var out *entity.Batch
	err := r.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repositories) error {
		batch, err := lockBatch(ctx, repos.Batches, id)
		if err != nil {
			return err
		}
		out = batch
		if batch.IsRetired() {
			return nil
		}
		if !batch.Available.IsZero() {
			return domain.ErrBatchNotEmpty
		}
		now := r.now()
		batch.RetiredAt = &now
		batch.UpdatedAt = now
		return repos.Batches.SaveState(ctx, batch)
	})
	if err != nil {
		r.log.Warn().Err(err).Str("batch_id", id).Msg("retiro de lote rechazado")
		return nil, err
	}
	r.log.Info().Str("batch_id", id).Str("actor_id", actorID).Msg("lote retirado")
	return out, nil
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
