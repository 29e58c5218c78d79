package notify

import (
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agrostock-api/internal/domain/entity"
	"github.com/jhoicas/agrostock-api/pkg/logger"
)

func TestLogNotifier_WritesStructuredEvents(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(logger.New(logger.Config{Env: "production", Level: "info", Output: &buf}))
	admin := "admin-1"

	sale := &entity.Sale{
		ID:       "sale-1",
		Total:    decimal.RequireFromString("53550"),
		Customer: &entity.Customer{TaxID: "900123456"},
		Lines:    []*entity.SaleLine{{ID: "l1"}},
	}
	require.NoError(t, n.SaleCreated(context.Background(), sale))

	sale.VoidedBy = &admin
	sale.VoidReason = "devolución"
	require.NoError(t, n.SaleVoided(context.Background(), sale))

	out := buf.String()
	assert.Contains(t, out, `"event":"sale.created"`)
	assert.Contains(t, out, `"total":"53550.00"`)
	assert.Contains(t, out, `"customer_tax_id":"900123456"`)
	assert.Contains(t, out, `"event":"sale.voided"`)
	assert.Contains(t, out, `"voided_by":"admin-1"`)
	assert.Contains(t, out, `"component":"sale_notifier"`)
}
