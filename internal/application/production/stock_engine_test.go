package production_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agrostock-api/internal/application/production"
	"github.com/jhoicas/agrostock-api/internal/domain"
	"github.com/jhoicas/agrostock-api/internal/domain/entity"
	"github.com/jhoicas/agrostock-api/internal/infrastructure/memory"
)

// X: 70 kg a 1000/kg, Y: 10 kg a 1200/kg. Traslado de 20 kg de X a Y.
func TestTransfer_WeightedAverageAndValueConservation(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	x := f.batch(t, productCoffee, "70", "1000")
	y := f.batch(t, productCoffee, "10", "1200")

	res, err := f.engine.Transfer(ctx, production.TransferInput{
		SourceBatchID: x.ID,
		DestBatchID:   y.ID,
		Quantity:      d("20"),
		ActorID:       actor,
	})
	require.NoError(t, err)

	requireDecimal(t, "50", res.Source.Available)
	requireDecimal(t, "30", res.Dest.Available)
	assert.Equal(t, "1066.67", res.Dest.UnitCost.Round(2).StringFixed(2))
	requireDecimal(t, "1000", res.Source.UnitCost)

	assert.Equal(t, entity.MovementTransferOut, res.Out.Kind)
	assert.Equal(t, entity.MovementTransferIn, res.In.Kind)
	requireDecimal(t, "-20000", res.Out.TotalValue)
	requireDecimal(t, "20000", res.In.TotalValue)
	assert.True(t, res.Out.TotalValue.Neg().Equal(res.In.TotalValue))
	assert.Equal(t, res.Out.TransactionID, res.In.TransactionID)

	requireDecimal(t, "50", f.available(t, x.ID))
	requireDecimal(t, "30", f.available(t, y.ID))
	stored, err := f.registry.GetBatch(ctx, y.ID)
	require.NoError(t, err)
	assert.Equal(t, "32000.00", stored.TotalCost.Round(2).StringFixed(2))
}

func TestTransfer_IntoEmptyBatchTakesSourceCost(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	x := f.batch(t, productCoffee, "10", "900")
	y := f.batch(t, productCoffee, "5", "1500")
	_, err := f.engine.Adjust(ctx, production.AdjustmentInput{BatchID: y.ID, Quantity: d("-5"), Reason: "merma", ActorID: actor})
	require.NoError(t, err)

	res, err := f.engine.Transfer(ctx, production.TransferInput{SourceBatchID: x.ID, DestBatchID: y.ID, Quantity: d("4"), ActorID: actor})
	require.NoError(t, err)
	requireDecimal(t, "900", res.Dest.UnitCost)
}

func TestTransfer_Rejections(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	x := f.batch(t, productCoffee, "10", "1000")
	y := f.batch(t, productCoffee, "10", "1000")
	banana := f.batch(t, productBanana, "10", "300")

	tests := []struct {
		name string
		in   production.TransferInput
		want error
	}{
		{"mismo lote", production.TransferInput{SourceBatchID: x.ID, DestBatchID: x.ID, Quantity: d("1"), ActorID: actor}, domain.ErrInvalidInput},
		{"cantidad negativa", production.TransferInput{SourceBatchID: x.ID, DestBatchID: y.ID, Quantity: d("-1"), ActorID: actor}, domain.ErrInvalidInput},
		{"otro producto", production.TransferInput{SourceBatchID: x.ID, DestBatchID: banana.ID, Quantity: d("1"), ActorID: actor}, domain.ErrInvalidInput},
		{"stock insuficiente", production.TransferInput{SourceBatchID: x.ID, DestBatchID: y.ID, Quantity: d("10.5"), ActorID: actor}, domain.ErrInsufficientStock},
		{"destino inexistente", production.TransferInput{SourceBatchID: x.ID, DestBatchID: "zzz", Quantity: d("1"), ActorID: actor}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.Transfer(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	requireDecimal(t, "10", f.available(t, x.ID))
	requireDecimal(t, "10", f.available(t, y.ID))
	assert.Len(t, f.history(t, x.ID), 1)
}

func TestTransfer_StoreFailureOnMovement_RollsBackBothBatches(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	x := f.batch(t, productCoffee, "10", "1000")
	y := f.batch(t, productCoffee, "10", "1200")
	f.store.FailOn(memory.OpMovementCreate, errors.New("falla de escritura"))

	_, err := f.engine.Transfer(ctx, production.TransferInput{SourceBatchID: x.ID, DestBatchID: y.ID, Quantity: d("5"), ActorID: actor})
	require.Error(t, err)
	f.store.ClearFaults()

	y2, err := f.registry.GetBatch(ctx, y.ID)
	require.NoError(t, err)
	requireDecimal(t, "10", y2.Available)
	requireDecimal(t, "1200", y2.UnitCost)
	requireDecimal(t, "10", f.available(t, x.ID))
}

func TestAdjust_NegativeBeyondAvailable_IsRejected(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	x := f.batch(t, productCoffee, "10", "1000")

	_, err := f.engine.Adjust(ctx, production.AdjustmentInput{BatchID: x.ID, Quantity: d("-10.01"), Reason: "merma", ActorID: actor})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var stockErr *domain.StockError
	require.True(t, errors.As(err, &stockErr))
	requireDecimal(t, "10.01", stockErr.Requested)
	requireDecimal(t, "10", stockErr.Available)
	requireDecimal(t, "10", f.available(t, x.ID))
	assert.Len(t, f.history(t, x.ID), 1)
}

func TestAdjust_KeepsUnitCostAndRecordsMovement(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	x := f.batch(t, productCoffee, "10", "1000")

	mov, err := f.engine.Adjust(ctx, production.AdjustmentInput{BatchID: x.ID, Quantity: d("-3"), Reason: "merma por humedad", ActorID: actor})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementAdjustNegative, mov.Kind)
	requireDecimal(t, "-3000", mov.TotalValue)
	assert.Equal(t, "merma por humedad", mov.Description)

	mov, err = f.engine.Adjust(ctx, production.AdjustmentInput{BatchID: x.ID, Quantity: d("5"), Reason: "reconteo", ActorID: actor})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementAdjustPositive, mov.Kind)

	b, err := f.registry.GetBatch(ctx, x.ID)
	require.NoError(t, err)
	requireDecimal(t, "12", b.Available)
	requireDecimal(t, "1000", b.UnitCost)
	requireDecimal(t, "12000", b.TotalCost)
}

func TestAdjust_Validation(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	x := f.batch(t, productCoffee, "10", "1000")

	_, err := f.engine.Adjust(ctx, production.AdjustmentInput{BatchID: x.ID, Quantity: d("0"), Reason: "x", ActorID: actor})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.engine.Adjust(ctx, production.AdjustmentInput{BatchID: x.ID, Quantity: d("1"), Reason: "  ", ActorID: actor})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.engine.Adjust(ctx, production.AdjustmentInput{BatchID: "nada", Quantity: d("1"), Reason: "x", ActorID: actor})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Cantidades con más de 4 decimales no caben en la columna y romperían el replay del libro.
func TestQuantityScale_RejectsExtraDecimals(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	x := f.batch(t, productCoffee, "10", "1000")
	y := f.batch(t, productCoffee, "5", "1000")

	_, err := f.engine.Adjust(ctx, production.AdjustmentInput{BatchID: x.ID, Quantity: d("-0.00005"), Reason: "merma", ActorID: actor})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.engine.Transfer(ctx, production.TransferInput{SourceBatchID: x.ID, DestBatchID: y.ID, Quantity: d("1.00001"), ActorID: actor})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.registry.CreateBatch(ctx, production.CreateBatchInput{ProductID: productCoffee, Quantity: d("1.12345"), UnitCost: d("1"), ActorID: actor})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// los ceros a la derecha no cuentan
	_, err = f.engine.Adjust(ctx, production.AdjustmentInput{BatchID: x.ID, Quantity: d("-0.500000"), Reason: "merma", ActorID: actor})
	require.NoError(t, err)

	requireDecimal(t, "9.5", f.available(t, x.ID))
	rep, err := f.ledger.Reconcile(ctx, x.ID)
	require.NoError(t, err)
	assert.True(t, rep.Consistent)
}

func TestPolicy_OverProductionDisallowed(t *testing.T) {
	f := newFixture(t, production.StockPolicy{AllowOverProduction: false})
	ctx := context.Background()
	x := f.batch(t, productCoffee, "10", "1000")
	y := f.batch(t, productCoffee, "10", "1000")

	_, err := f.engine.Adjust(ctx, production.AdjustmentInput{BatchID: x.ID, Quantity: d("1"), Reason: "reconteo", ActorID: actor})
	assert.ErrorIs(t, err, domain.ErrExceedsProduced)

	_, err = f.engine.Adjust(ctx, production.AdjustmentInput{BatchID: y.ID, Quantity: d("-4"), Reason: "merma", ActorID: actor})
	require.NoError(t, err)
	_, err = f.engine.Transfer(ctx, production.TransferInput{SourceBatchID: x.ID, DestBatchID: y.ID, Quantity: d("5"), ActorID: actor})
	assert.ErrorIs(t, err, domain.ErrExceedsProduced)
	_, err = f.engine.Transfer(ctx, production.TransferInput{SourceBatchID: x.ID, DestBatchID: y.ID, Quantity: d("4"), ActorID: actor})
	assert.NoError(t, err)
}

func TestPolicy_OverProductionAllowedByDefault(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	x := f.batch(t, productCoffee, "10", "1000")

	_, err := f.engine.Adjust(context.Background(), production.AdjustmentInput{BatchID: x.ID, Quantity: d("2"), Reason: "reconteo", ActorID: actor})
	require.NoError(t, err)
	requireDecimal(t, "12", f.available(t, x.ID))
}
