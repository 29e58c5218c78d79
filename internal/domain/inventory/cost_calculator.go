package inventory

import "github.com/shopspring/decimal"

// Decimales admitidos; coinciden con las columnas NUMERIC del esquema.
const (
	QuantityScale int32 = 4
	MoneyScale    int32 = 2
	CostScale     int32 = 6
)

// FitsScale indica si d no tiene más de places decimales significativos.
// Los ceros a la derecha no cuentan: 1.50000 cabe en escala 2.
func FitsScale(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// RecomputeAverageCost implementa el costo promedio ponderado del lote destino de un traslado.
// NuevoCosto = ((DisponibleDestino * CostoDestino) + (CantEntrada * CostoEntrada)) / (DisponibleDestino + CantEntrada)
// Si el destino estaba vacío (o la suma no es positiva) el nuevo costo es el costo de entrada.
// El resultado se redondea a CostScale.
func RecomputeAverageCost(destAvailable, destCost, incomingQty, incomingCost decimal.Decimal) decimal.Decimal {
	if !destAvailable.IsPositive() {
		return incomingCost
	}
	sum := destAvailable.Add(incomingQty)
	if !sum.IsPositive() {
		return incomingCost
	}
	num := destAvailable.Mul(destCost).Add(incomingQty.Mul(incomingCost))
	return num.Div(sum).Round(CostScale)
}

// Valuation devuelve cantidad * costo unitario, redondeado a CostScale.
func Valuation(qty, unitCost decimal.Decimal) decimal.Decimal {
	return qty.Mul(unitCost).Round(CostScale)
}

// RoundMoney redondea montos de venta a 2 decimales.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
