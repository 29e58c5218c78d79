package production_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agrostock-api/internal/application/production"
	"github.com/jhoicas/agrostock-api/internal/domain"
	"github.com/jhoicas/agrostock-api/internal/domain/entity"
	"github.com/jhoicas/agrostock-api/internal/domain/repository"
	"github.com/jhoicas/agrostock-api/internal/infrastructure/memory"
	"github.com/jhoicas/agrostock-api/pkg/logger"
)

// Lote X: 100 kg a 1000/kg. Venta de 30 kg a 1500/kg y anulación.
func TestSale_CreateAndVoid_RestoresBatch(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	x := f.batch(t, productCoffee, "100", "1000")
	requireDecimal(t, "100000", x.TotalCost)

	sale, err := f.sales.CreateSale(ctx, production.CreateSaleInput{
		Lines:    []production.SaleLineInput{{BatchID: x.ID, Quantity: d("30"), UnitPrice: d("1500")}},
		Payments: cash("53550"),
		ActorID:  actor,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusCompleted, sale.Status)
	requireDecimal(t, "45000", sale.Subtotal)
	requireDecimal(t, "8550", sale.Tax)
	requireDecimal(t, "53550", sale.Total)
	require.Len(t, sale.Lines, 1)
	requireDecimal(t, "45000", sale.Lines[0].LineTotal)
	requireDecimal(t, "1000", sale.Lines[0].UnitCost)
	requireDecimal(t, "30000", sale.Lines[0].CostTotal)
	require.NotNil(t, sale.Lines[0].Batch)
	require.NotNil(t, sale.Lines[0].Product)
	assert.Equal(t, "kg", sale.Lines[0].Product.Unit)
	require.Len(t, sale.Payments, 1)
	requireDecimal(t, "70", f.available(t, x.ID))

	movs := f.history(t, x.ID)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementSaleDebit, movs[0].Kind)
	requireDecimal(t, "-30", movs[0].Quantity)
	requireDecimal(t, "1000", movs[0].UnitCost)
	require.NotNil(t, movs[0].SaleID)
	assert.Equal(t, sale.ID, *movs[0].SaleID)

	voided, err := f.sales.VoidSale(ctx, sale.ID, "admin-1", "cliente devolvió")
	require.NoError(t, err)
	assert.True(t, voided.IsVoid())
	require.NotNil(t, voided.VoidedBy)
	assert.Equal(t, "admin-1", *voided.VoidedBy)
	assert.NotNil(t, voided.VoidedAt)
	require.Len(t, voided.Lines, 1, "las líneas se conservan como registro histórico")
	requireDecimal(t, "100", f.available(t, x.ID))

	movs = f.history(t, x.ID)
	require.Len(t, movs, 3)
	assert.Equal(t, entity.MovementSaleVoidCredit, movs[0].Kind)
	assert.Equal(t, entity.MovementSaleDebit, movs[1].Kind)
	assert.Equal(t, entity.MovementIntake, movs[2].Kind)
	sum := movs[0].Quantity.Add(movs[1].Quantity).Add(movs[2].Quantity)
	requireDecimal(t, "100", sum)

	assert.Equal(t, []string{sale.ID}, f.notifier.created)
	assert.Equal(t, []string{sale.ID}, f.notifier.voided)
}

func TestSale_VoidTwice_IsRejected(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	a := f.batch(t, productCoffee, "20", "1000")
	b := f.batch(t, productCoffee, "20", "1000")

	sale, err := f.sales.CreateSale(ctx, production.CreateSaleInput{
		Lines: []production.SaleLineInput{
			{BatchID: a.ID, Quantity: d("5"), UnitPrice: d("100")},
			{BatchID: b.ID, Quantity: d("3"), UnitPrice: d("100")},
		},
		Payments: cash("1000"),
		ActorID:  actor,
	})
	require.NoError(t, err)
	requireDecimal(t, "15", f.available(t, a.ID))
	requireDecimal(t, "17", f.available(t, b.ID))

	_, err = f.sales.VoidSale(ctx, sale.ID, actor, "")
	require.NoError(t, err)
	requireDecimal(t, "20", f.available(t, a.ID))
	requireDecimal(t, "20", f.available(t, b.ID))

	_, err = f.sales.VoidSale(ctx, sale.ID, actor, "")
	assert.ErrorIs(t, err, domain.ErrAlreadyVoid)
	requireDecimal(t, "20", f.available(t, a.ID))
	requireDecimal(t, "20", f.available(t, b.ID))
}

func TestSale_InsufficientStockOnLastLine_LeavesNothing(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	a := f.batch(t, productCoffee, "10", "1000")
	b := f.batch(t, productCoffee, "10", "1000")
	c := f.batch(t, productBanana, "2", "500")

	_, err := f.sales.CreateSale(ctx, production.CreateSaleInput{
		Lines: []production.SaleLineInput{
			{BatchID: a.ID, Quantity: d("5"), UnitPrice: d("100")},
			{BatchID: b.ID, Quantity: d("3"), UnitPrice: d("100")},
			{BatchID: c.ID, Quantity: d("5"), UnitPrice: d("100")},
		},
		Payments: cash("2000"),
		ActorID:  actor,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var stockErr *domain.StockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, c.ID, stockErr.BatchID)
	assert.True(t, domain.IsRejection(err))

	requireDecimal(t, "10", f.available(t, a.ID))
	requireDecimal(t, "10", f.available(t, b.ID))
	requireDecimal(t, "2", f.available(t, c.ID))
	assert.Len(t, f.history(t, a.ID), 1)
	assert.Len(t, f.history(t, b.ID), 1)

	sales, err := f.sales.ListSales(ctx, repository.SaleFilter{})
	require.NoError(t, err)
	assert.Empty(t, sales)
	assert.Empty(t, f.notifier.created)
}

func TestSale_MissingBatch_IsNotFound(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	a := f.batch(t, productCoffee, "10", "1000")

	_, err := f.sales.CreateSale(ctx, production.CreateSaleInput{
		Lines: []production.SaleLineInput{
			{BatchID: a.ID, Quantity: d("5"), UnitPrice: d("100")},
			{BatchID: "no-existe", Quantity: d("1"), UnitPrice: d("100")},
		},
		Payments: cash("1000"),
		ActorID:  actor,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	requireDecimal(t, "10", f.available(t, a.ID))
}

func TestSale_StoreFailureOnPayments_RollsBackEverything(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	a := f.batch(t, productCoffee, "10", "1000")
	boom := errors.New("conexión perdida")
	f.store.FailOn(memory.OpPaymentCreate, boom)

	_, err := f.sales.CreateSale(ctx, production.CreateSaleInput{
		Lines:    []production.SaleLineInput{{BatchID: a.ID, Quantity: d("4"), UnitPrice: d("100")}},
		Payments: cash("476"),
		ActorID:  actor,
	})
	require.ErrorIs(t, err, boom)
	assert.False(t, domain.IsRejection(err))

	requireDecimal(t, "10", f.available(t, a.ID))
	assert.Len(t, f.history(t, a.ID), 1)
	sales, err := f.sales.ListSales(ctx, repository.SaleFilter{})
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestSale_StoreFailureOnVoid_KeepsSaleCompleted(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	a := f.batch(t, productCoffee, "10", "1000")
	sale, err := f.sales.CreateSale(ctx, production.CreateSaleInput{
		Lines:    []production.SaleLineInput{{BatchID: a.ID, Quantity: d("4"), UnitPrice: d("100")}},
		Payments: cash("476"),
		ActorID:  actor,
	})
	require.NoError(t, err)

	f.store.FailOn(memory.OpSaleVoid, errors.New("timeout"))
	_, err = f.sales.VoidSale(ctx, sale.ID, actor, "")
	require.Error(t, err)

	requireDecimal(t, "6", f.available(t, a.ID))
	assert.Len(t, f.history(t, a.ID), 2)
	got, err := f.sales.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusCompleted, got.Status)
}

func TestSale_CancelledContext_LeavesNoTrace(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	a := f.batch(t, productCoffee, "10", "1000")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.sales.CreateSale(ctx, production.CreateSaleInput{
		Lines:    []production.SaleLineInput{{BatchID: a.ID, Quantity: d("4"), UnitPrice: d("100")}},
		Payments: cash("476"),
		ActorID:  actor,
	})
	require.ErrorIs(t, err, context.Canceled)
	requireDecimal(t, "10", f.available(t, a.ID))
}

func TestSale_Validation(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	a := f.batch(t, productCoffee, "10", "1000")
	line := []production.SaleLineInput{{BatchID: a.ID, Quantity: d("1"), UnitPrice: d("100")}}

	tests := []struct {
		name string
		in   production.CreateSaleInput
		want error
	}{
		{"sin líneas", production.CreateSaleInput{Payments: cash("100"), ActorID: actor}, domain.ErrInvalidInput},
		{"pago insuficiente", production.CreateSaleInput{Lines: line, Payments: cash("118.99"), ActorID: actor}, domain.ErrInvalidInput},
		{"medio de pago desconocido", production.CreateSaleInput{
			Lines:    line,
			Payments: []production.PaymentInput{{Method: "bitcoin", Amount: d("200")}},
			ActorID:  actor,
		}, domain.ErrInvalidInput},
		{"cantidad cero", production.CreateSaleInput{
			Lines:    []production.SaleLineInput{{BatchID: a.ID, Quantity: d("0"), UnitPrice: d("100")}},
			Payments: cash("100"),
			ActorID:  actor,
		}, domain.ErrInvalidInput},
		{"sin actor", production.CreateSaleInput{Lines: line, Payments: cash("119")}, domain.ErrInvalidInput},
		{"cantidad con 5 decimales", production.CreateSaleInput{
			Lines:    []production.SaleLineInput{{BatchID: a.ID, Quantity: d("0.00005"), UnitPrice: d("100")}},
			Payments: cash("100"),
			ActorID:  actor,
		}, domain.ErrInvalidInput},
		{"precio con 3 decimales", production.CreateSaleInput{
			Lines:    []production.SaleLineInput{{BatchID: a.ID, Quantity: d("1"), UnitPrice: d("100.005")}},
			Payments: cash("200"),
			ActorID:  actor,
		}, domain.ErrInvalidInput},
		{"pago con 3 decimales", production.CreateSaleInput{Lines: line, Payments: cash("119.001"), ActorID: actor}, domain.ErrInvalidInput},
		{"cliente inexistente", production.CreateSaleInput{
			CustomerID: strPtr("nadie"),
			Lines:      line,
			Payments:   cash("119"),
			ActorID:    actor,
		}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.sales.CreateSale(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	requireDecimal(t, "10", f.available(t, a.ID))
}

func TestSale_DiscountAndSplitPayments(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	a := f.batch(t, productCoffee, "10", "1000")

	sale, err := f.sales.CreateSale(ctx, production.CreateSaleInput{
		CustomerID: strPtr(customerID),
		Lines:      []production.SaleLineInput{{BatchID: a.ID, Quantity: d("2"), UnitPrice: d("100")}},
		Payments: []production.PaymentInput{
			{Method: entity.PaymentCash, Amount: d("100")},
			{Method: entity.PaymentTransfer, Amount: d("128"), Reference: "TRX-991"},
		},
		Discount: d("10"),
		ActorID:  actor,
	})
	require.NoError(t, err)
	requireDecimal(t, "200", sale.Subtotal)
	requireDecimal(t, "38", sale.Tax)
	requireDecimal(t, "228", sale.Total)
	require.NotNil(t, sale.Customer)
	assert.Equal(t, "Cooperativa El Roble", sale.Customer.Name)
	assert.Len(t, sale.Payments, 2)

	list, err := f.sales.ListSales(ctx, repository.SaleFilter{CustomerID: customerID})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSale_VoidCreditsAtCurrentBatchCost(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	x := f.batch(t, productCoffee, "10", "1000")
	z := f.batch(t, productCoffee, "10", "2000")

	sale, err := f.sales.CreateSale(ctx, production.CreateSaleInput{
		Lines:    []production.SaleLineInput{{BatchID: x.ID, Quantity: d("5"), UnitPrice: d("1500")}},
		Payments: cash("8925"),
		ActorID:  actor,
	})
	require.NoError(t, err)

	// 5 kg @ 1000 + 5 kg @ 2000 -> 1500
	_, err = f.engine.Transfer(ctx, production.TransferInput{
		SourceBatchID: z.ID, DestBatchID: x.ID, Quantity: d("5"), ActorID: actor,
	})
	require.NoError(t, err)

	_, err = f.sales.VoidSale(ctx, sale.ID, actor, "")
	require.NoError(t, err)

	movs := f.history(t, x.ID)
	require.Equal(t, entity.MovementSaleVoidCredit, movs[0].Kind)
	requireDecimal(t, "1500", movs[0].UnitCost)
	requireDecimal(t, "15", f.available(t, x.ID))
}

func TestSale_VoidUnknown_IsNotFound(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	_, err := f.sales.VoidSale(context.Background(), "no-existe", actor, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSale_NotifierErrorDoesNotUndoSale(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	f.notifier.err = errors.New("servicio de facturas caído")
	a := f.batch(t, productCoffee, "10", "1000")

	sale, err := f.sales.CreateSale(context.Background(), production.CreateSaleInput{
		Lines:    []production.SaleLineInput{{BatchID: a.ID, Quantity: d("1"), UnitPrice: d("100")}},
		Payments: cash("119"),
		ActorID:  actor,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sale.ID)
	requireDecimal(t, "9", f.available(t, a.ID))
}

func TestSale_ConcurrentSalesNeverOversell(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	a := f.batch(t, productCoffee, "10", "1000")

	const workers = 25
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.sales.CreateSale(context.Background(), production.CreateSaleInput{
				Lines:    []production.SaleLineInput{{BatchID: a.ID, Quantity: d("1"), UnitPrice: d("100")}},
				Payments: cash("119"),
				ActorID:  actor,
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, domain.ErrInsufficientStock) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, workers-10, rejected)
	requireDecimal(t, "0", f.available(t, a.ID))

	report, err := f.ledger.Reconcile(context.Background(), a.ID)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, 11, report.Movements)
}

func strPtr(s string) *string { return &s }

// linesUnavailable simula una relectura fallida de las líneas después del commit.
type linesUnavailable struct {
	repository.SaleRepository
}

func (linesUnavailable) GetLines(context.Context, string) ([]*entity.SaleLine, error) {
	return nil, errors.New("réplica no disponible")
}

func TestSale_ReadBackFailureAfterCommit_ReturnsCommittedSale(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	a := f.batch(t, productCoffee, "100", "1000")

	repos := f.store.Repositories()
	repos.Sales = linesUnavailable{SaleRepository: repos.Sales}
	notifier := &recordingNotifier{}
	sales := production.NewSaleOrchestrator(f.store, f.engine, repos, notifier, d("0.19"), logger.Nop())

	sale, err := sales.CreateSale(ctx, production.CreateSaleInput{
		Lines:    []production.SaleLineInput{{BatchID: a.ID, Quantity: d("1"), UnitPrice: d("100")}},
		Payments: cash("119"),
		ActorID:  actor,
	})
	require.NoError(t, err, "la venta confirmada no se reporta como fallida")
	assert.Equal(t, entity.SaleStatusCompleted, sale.Status)
	require.Len(t, sale.Lines, 1)
	require.Len(t, sale.Payments, 1)
	requireDecimal(t, "99", f.available(t, a.ID))

	voided, err := sales.VoidSale(ctx, sale.ID, actor, "error de digitación")
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusVoid, voided.Status)
	require.Len(t, voided.Lines, 1)
	requireDecimal(t, "100", f.available(t, a.ID))

	assert.Equal(t, []string{sale.ID}, notifier.created)
	assert.Equal(t, []string{sale.ID}, notifier.voided)
}

func TestSaleMovements_DebitsThenVoidCredits(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	a := f.batch(t, productCoffee, "10", "1000")
	b := f.batch(t, productBanana, "10", "400")

	sale, err := f.sales.CreateSale(ctx, production.CreateSaleInput{
		Lines: []production.SaleLineInput{
			{BatchID: a.ID, Quantity: d("5"), UnitPrice: d("1500")},
			{BatchID: b.ID, Quantity: d("3"), UnitPrice: d("600")},
		},
		Payments: cash("11067"),
		ActorID:  actor,
	})
	require.NoError(t, err)

	movs, err := f.sales.SaleMovements(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, a.ID, movs[0].BatchID)
	assert.Equal(t, entity.MovementSaleDebit, movs[1].Kind)

	_, err = f.sales.VoidSale(ctx, sale.ID, "admin-1", "")
	require.NoError(t, err)
	movs, err = f.sales.SaleMovements(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, movs, 4)
	assert.Equal(t, entity.MovementSaleVoidCredit, movs[2].Kind)
	assert.Equal(t, entity.MovementSaleVoidCredit, movs[3].Kind)

	_, err = f.sales.SaleMovements(ctx, "nada")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
