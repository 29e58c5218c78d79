package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateBatchRequest body para POST /api/batches (ingreso de cosecha).
type CreateBatchRequest struct {
	Code           string           `json:"code,omitempty"`
	ProductID      string           `json:"product_id" validate:"required"`
	CropID         *string          `json:"crop_id,omitempty"`
	PlotID         *string          `json:"plot_id,omitempty"`
	ActivityID     *string          `json:"activity_id,omitempty"`
	HarvestDate    *time.Time       `json:"harvest_date,omitempty"`
	Quantity       decimal.Decimal  `json:"quantity"`
	UnitCost       decimal.Decimal  `json:"unit_cost"`
	SuggestedPrice *decimal.Decimal `json:"suggested_price,omitempty"`
	QualityGrade   string           `json:"quality_grade,omitempty"`
	Notes          string           `json:"notes,omitempty"`
}

// UpdateBatchRequest body para PATCH /api/batches/:id. Solo campos descriptivos.
type UpdateBatchRequest struct {
	QualityGrade   *string          `json:"quality_grade,omitempty"`
	SuggestedPrice *decimal.Decimal `json:"suggested_price,omitempty"`
	Notes          *string          `json:"notes,omitempty"`
}

// BatchResponse lote de producción.
type BatchResponse struct {
	ID               string           `json:"id"`
	Code             string           `json:"code"`
	ProductID        string           `json:"product_id"`
	CropID           *string          `json:"crop_id,omitempty"`
	PlotID           *string          `json:"plot_id,omitempty"`
	ActivityID       *string          `json:"activity_id,omitempty"`
	HarvestDate      time.Time        `json:"harvest_date"`
	QuantityProduced decimal.Decimal  `json:"quantity_produced"`
	Available        decimal.Decimal  `json:"available"`
	UnitCost         decimal.Decimal  `json:"unit_cost"`
	TotalCost        decimal.Decimal  `json:"total_cost"`
	SuggestedPrice   *decimal.Decimal `json:"suggested_price,omitempty"`
	QualityGrade     string           `json:"quality_grade,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	CreatedBy        string           `json:"created_by"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	RetiredAt        *time.Time       `json:"retired_at,omitempty"`
}

// BatchListResponse listado paginado de lotes.
type BatchListResponse struct {
	Items []BatchResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// MovementResponse movimiento del libro.
type MovementResponse struct {
	ID            string          `json:"id"`
	Seq           int64           `json:"seq"`
	BatchID       string          `json:"batch_id"`
	Kind          string          `json:"kind"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	TotalValue    decimal.Decimal `json:"total_value"`
	Description   string          `json:"description,omitempty"`
	SaleID        *string         `json:"sale_id,omitempty"`
	TransactionID string          `json:"transaction_id"`
	ActorID       string          `json:"actor_id"`
	CreatedAt     time.Time       `json:"created_at"`
}

// MovementHistoryResponse historial de un lote (más reciente primero) fijado en as_of_seq.
type MovementHistoryResponse struct {
	BatchID string             `json:"batch_id"`
	AsOfSeq int64              `json:"as_of_seq"`
	Items   []MovementResponse `json:"items"`
}

// ReconciliationResponse resultado de reproducir el libro de un lote.
type ReconciliationResponse struct {
	BatchID    string          `json:"batch_id"`
	Available  decimal.Decimal `json:"available"`
	LedgerSum  decimal.Decimal `json:"ledger_sum"`
	LedgerCost decimal.Decimal `json:"ledger_value"`
	Drift      decimal.Decimal `json:"drift"`
	Movements  int             `json:"movements"`
	Consistent bool            `json:"consistent"`
}
