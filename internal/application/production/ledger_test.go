package production_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agrostock-api/internal/application/production"
	"github.com/jhoicas/agrostock-api/internal/domain"
	"github.com/jhoicas/agrostock-api/internal/domain/entity"
)

func TestHistory_IsASnapshotAndRestartable(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	x := f.batch(t, productCoffee, "10", "1000")
	for _, q := range []string{"-1", "-2", "3", "-4"} {
		_, err := f.engine.Adjust(ctx, production.AdjustmentInput{BatchID: x.ID, Quantity: d(q), Reason: "ajuste", ActorID: actor})
		require.NoError(t, err)
	}

	h, err := f.ledger.History(ctx, x.ID)
	require.NoError(t, err)

	_, err = f.engine.Adjust(ctx, production.AdjustmentInput{BatchID: x.ID, Quantity: d("1"), Reason: "posterior", ActorID: actor})
	require.NoError(t, err)

	first, err := h.Collect(ctx, 0)
	require.NoError(t, err)
	require.Len(t, first, 5, "el movimiento posterior no aparece en la foto")
	for i := 1; i < len(first); i++ {
		assert.Greater(t, first[i-1].Seq, first[i].Seq)
	}
	assert.Equal(t, entity.MovementIntake, first[4].Kind)

	second, err := h.Collect(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	top, err := h.Collect(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, top, 3)
}

func TestHistory_StopsEarly(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	x := f.batch(t, productCoffee, "10", "1000")
	for range 4 {
		_, err := f.engine.Adjust(ctx, production.AdjustmentInput{BatchID: x.ID, Quantity: d("1"), Reason: "ajuste", ActorID: actor})
		require.NoError(t, err)
	}
	h, err := f.ledger.History(ctx, x.ID)
	require.NoError(t, err)

	n := 0
	for m, err := range h.All(ctx) {
		require.NoError(t, err)
		require.NotNil(t, m)
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestHistory_UnknownBatch(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	_, err := f.ledger.History(context.Background(), "nada")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReconcile_LedgerReplayMatchesBalance(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	x := f.batch(t, productCoffee, "70", "1000")
	y := f.batch(t, productCoffee, "10", "1200")
	_, err := f.engine.Transfer(ctx, production.TransferInput{SourceBatchID: x.ID, DestBatchID: y.ID, Quantity: d("20"), ActorID: actor})
	require.NoError(t, err)
	_, err = f.engine.Adjust(ctx, production.AdjustmentInput{BatchID: y.ID, Quantity: d("-2.5"), Reason: "merma", ActorID: actor})
	require.NoError(t, err)

	for _, id := range []string{x.ID, y.ID} {
		report, err := f.ledger.Reconcile(ctx, id)
		require.NoError(t, err)
		assert.True(t, report.Consistent, "lote %s drift %s", id, report.Drift)
		assert.True(t, report.Drift.IsZero())
	}
	report, err := f.ledger.Reconcile(ctx, y.ID)
	require.NoError(t, err)
	requireDecimal(t, "27.5", report.LedgerSum)
	assert.Equal(t, 3, report.Movements)
}

func TestRecord_RejectsSignMismatch(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	repos := f.store.Repositories()

	_, err := f.ledger.Record(context.Background(), repos.Movements, production.Entry{
		BatchID:  "b",
		Kind:     entity.MovementSaleDebit,
		Quantity: d("5"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.ledger.Record(context.Background(), repos.Movements, production.Entry{
		BatchID:  "b",
		Kind:     entity.MovementKind("regalo"),
		Quantity: d("5"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
