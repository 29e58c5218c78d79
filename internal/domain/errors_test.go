package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/agrostock-api/internal/domain"
)

func TestStockError_EsInsuficiente(t *testing.T) {
	err := domain.NewStockError("lote-1", decimal.NewFromInt(30), decimal.NewFromInt(10))

	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "lote-1")

	var se *domain.StockError
	wrapped := fmt.Errorf("venta: %w", err)
	assert.True(t, errors.As(wrapped, &se))
	assert.True(t, se.Available.Equal(decimal.NewFromInt(10)))
}

func TestIsRejection(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"validación", domain.Invalid("cantidad debe ser positiva"), true},
		{"no encontrado", domain.NotFound("lote", "x"), true},
		{"stock", domain.NewStockError("x", decimal.NewFromInt(1), decimal.Zero), true},
		{"anulada", domain.ErrAlreadyVoid, true},
		{"concurrencia", fmt.Errorf("commit: %w", domain.ErrConcurrencyConflict), true},
		{"código duplicado", fmt.Errorf("%w: lote L-1 ya existe", domain.ErrConflict), true},
		{"falla de almacenamiento", errors.New("connection reset by peer"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, domain.IsRejection(tc.err))
		})
	}
}
