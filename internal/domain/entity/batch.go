package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Batch representa un lote de producción: una cantidad cosechada de un producto,
// con su costo unitario. Available es el saldo vivo; solo el motor de stock lo modifica.
type Batch struct {
	ID               string
	Code             string // código de lote visible (ej: "CAFE-2026-014")
	ProductID        string
	CropID           *string // cultivo de origen (opcional)
	PlotID           *string
	ActivityID       *string // actividad de cosecha que lo originó
	HarvestDate      time.Time
	QuantityProduced decimal.Decimal
	Available        decimal.Decimal
	UnitCost         decimal.Decimal // costo unitario vigente (promedio ponderado tras traslados)
	TotalCost        decimal.Decimal // valorización: Available * UnitCost
	SuggestedPrice   *decimal.Decimal
	QualityGrade     string
	Notes            string
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	RetiredAt        *time.Time // retiro lógico; nunca se borra físicamente
}

// IsRetired indica si el lote fue retirado.
func (b *Batch) IsRetired() bool {
	return b.RetiredAt != nil
}
