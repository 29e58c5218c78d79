package dto

import "github.com/shopspring/decimal"

// AdjustmentRequest body para POST /api/stock/adjustments. Quantity con signo.
type AdjustmentRequest struct {
	BatchID  string          `json:"batch_id" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
	Reason   string          `json:"reason" validate:"max=500"`
}

// TransferRequest body para POST /api/stock/transfers.
type TransferRequest struct {
	SourceBatchID string          `json:"source_batch_id" validate:"required"`
	DestBatchID   string          `json:"dest_batch_id" validate:"required,nefield=SourceBatchID"`
	Quantity      decimal.Decimal `json:"quantity"`
	Note          string          `json:"note,omitempty" validate:"max=500"`
}

// TransferResponse resultado del traslado.
type TransferResponse struct {
	TransactionID string             `json:"transaction_id"`
	Source        BatchResponse      `json:"source"`
	Dest          BatchResponse      `json:"dest"`
	Movements     []MovementResponse `json:"movements"`
}
