package production_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agrostock-api/internal/application/production"
	"github.com/jhoicas/agrostock-api/internal/domain/entity"
	"github.com/jhoicas/agrostock-api/internal/infrastructure/memory"
	"github.com/jhoicas/agrostock-api/pkg/logger"
)

const (
	productCoffee = "prod-cafe"
	productBanana = "prod-platano"
	cropCoffee    = "crop-cafe-norte"
	plotNorth     = "plot-norte"
	customerID    = "cust-1"
	actor         = "user-bodega"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type recordingNotifier struct {
	mu      sync.Mutex
	created []string
	voided  []string
	err     error
}

func (n *recordingNotifier) SaleCreated(_ context.Context, s *entity.Sale) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, s.ID)
	return n.err
}

func (n *recordingNotifier) SaleVoided(_ context.Context, s *entity.Sale) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.voided = append(n.voided, s.ID)
	return n.err
}

type fixture struct {
	store    *memory.Store
	ledger   *production.Ledger
	registry *production.BatchRegistry
	engine   *production.StockEngine
	sales    *production.SaleOrchestrator
	notifier *recordingNotifier
}

func newFixture(t *testing.T, policy production.StockPolicy) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddProduct(entity.Product{ID: productCoffee, Name: "Café pergamino", Unit: "kg"})
	store.AddProduct(entity.Product{ID: productBanana, Name: "Plátano", Unit: "kg"})
	store.AddCrop(entity.Crop{ID: cropCoffee, Name: "Café lote norte", PlotID: plotNorth})
	store.AddCustomer(entity.Customer{ID: customerID, Name: "Cooperativa El Roble", TaxID: "900123456"})

	pool := store.Repositories()
	log := logger.Nop()
	ledger := production.NewLedger(pool.Batches, pool.Movements, 2)
	engine := production.NewStockEngine(store, ledger, policy, log)
	notifier := &recordingNotifier{}
	return &fixture{
		store:    store,
		ledger:   ledger,
		registry: production.NewBatchRegistry(store, pool.Batches, ledger, log),
		engine:   engine,
		sales:    production.NewSaleOrchestrator(store, engine, pool, notifier, d("0.19"), log),
		notifier: notifier,
	}
}

func defaultPolicy() production.StockPolicy {
	return production.StockPolicy{AllowOverProduction: true}
}

func (f *fixture) batch(t *testing.T, productID, qty, cost string) *entity.Batch {
	t.Helper()
	b, err := f.registry.CreateBatch(context.Background(), production.CreateBatchInput{
		ProductID: productID,
		Quantity:  d(qty),
		UnitCost:  d(cost),
		ActorID:   actor,
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) available(t *testing.T, batchID string) decimal.Decimal {
	t.Helper()
	b, err := f.registry.GetBatch(context.Background(), batchID)
	require.NoError(t, err)
	return b.Available
}

func (f *fixture) history(t *testing.T, batchID string) []*entity.Movement {
	t.Helper()
	h, err := f.ledger.History(context.Background(), batchID)
	require.NoError(t, err)
	movs, err := h.Collect(context.Background(), 0)
	require.NoError(t, err)
	return movs
}

func cash(amount string) []production.PaymentInput {
	return []production.PaymentInput{{Method: entity.PaymentCash, Amount: d(amount)}}
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, got.Equal(d(want)), "esperado %s, obtenido %s", want, got)
}
