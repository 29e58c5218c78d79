package memory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/agrostock-api/internal/domain/entity"
	"github.com/jhoicas/agrostock-api/internal/domain/repository"
)

type movementRepo struct {
	a access
}

// Create asigna el siguiente seq y agrega el movimiento. Nunca actualiza ni borra.
func (r *movementRepo) Create(_ context.Context, m *entity.Movement) error {
	return r.a.write(OpMovementCreate, func(st *state) error {
		if _, ok := st.batches[m.BatchID]; !ok {
			return fmt.Errorf("movimiento %s: lote %s inexistente", m.ID, m.BatchID)
		}
		st.seq++
		m.Seq = st.seq
		c := *m
		st.movements = append(st.movements, &c)
		return nil
	})
}

func (r *movementRepo) ListPage(_ context.Context, p repository.MovementPage) ([]*entity.Movement, error) {
	var out []*entity.Movement
	err := r.a.read(func(st *state) error {
		for i := len(st.movements) - 1; i >= 0; i-- {
			m := st.movements[i]
			if m.BatchID != p.BatchID || m.Seq > p.AsOfSeq {
				continue
			}
			if p.BeforeSeq > 0 && m.Seq >= p.BeforeSeq {
				continue
			}
			c := *m
			out = append(out, &c)
			if p.Limit > 0 && len(out) == p.Limit {
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *movementRepo) ListBySale(_ context.Context, saleID string) ([]*entity.Movement, error) {
	var out []*entity.Movement
	err := r.a.read(func(st *state) error {
		for _, m := range st.movements {
			if m.SaleID != nil && *m.SaleID == saleID {
				c := *m
				out = append(out, &c)
			}
		}
		return nil
	})
	return out, err
}

func (r *movementRepo) LatestSeq(_ context.Context, batchID string) (int64, error) {
	var latest int64
	err := r.a.read(func(st *state) error {
		for i := len(st.movements) - 1; i >= 0; i-- {
			if st.movements[i].BatchID == batchID {
				latest = st.movements[i].Seq
				return nil
			}
		}
		return nil
	})
	return latest, err
}

func (r *movementRepo) SumByBatch(_ context.Context, batchID string) (repository.MovementTotals, error) {
	totals := repository.MovementTotals{Quantity: decimal.Zero, Value: decimal.Zero}
	err := r.a.read(func(st *state) error {
		for _, m := range st.movements {
			if m.BatchID != batchID {
				continue
			}
			totals.Quantity = totals.Quantity.Add(m.Quantity)
			totals.Value = totals.Value.Add(m.TotalValue)
			totals.Count++
		}
		return nil
	})
	return totals, err
}
