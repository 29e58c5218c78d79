package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/agrostock-api/internal/domain"
	"github.com/jhoicas/agrostock-api/internal/domain/entity"
	"github.com/jhoicas/agrostock-api/internal/domain/repository"
)

type saleRepo struct {
	a access
}

func (r *saleRepo) Create(_ context.Context, s *entity.Sale) error {
	return r.a.write(OpSaleCreate, func(st *state) error {
		if _, ok := st.sales[s.ID]; ok {
			return fmt.Errorf("venta %s: %w", s.ID, domain.ErrConflict)
		}
		st.sales[s.ID] = copySale(s)
		return nil
	})
}

func (r *saleRepo) CreateLine(_ context.Context, l *entity.SaleLine) error {
	return r.a.write(OpSaleLineCreate, func(st *state) error {
		if _, ok := st.sales[l.SaleID]; !ok {
			return fmt.Errorf("línea %s: venta %s inexistente", l.ID, l.SaleID)
		}
		c := *l
		c.Batch, c.Product = nil, nil
		st.lines[l.SaleID] = append(st.lines[l.SaleID], &c)
		return nil
	})
}

func (r *saleRepo) CreatePayment(_ context.Context, p *entity.Payment) error {
	return r.a.write(OpPaymentCreate, func(st *state) error {
		if _, ok := st.sales[p.SaleID]; !ok {
			return fmt.Errorf("pago %s: venta %s inexistente", p.ID, p.SaleID)
		}
		c := *p
		st.payments[p.SaleID] = append(st.payments[p.SaleID], &c)
		return nil
	})
}

func (r *saleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.a.read(func(st *state) error {
		out = copySale(st.sales[id])
		return nil
	})
	return out, err
}

func (r *saleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.GetByID(ctx, id)
}

func (r *saleRepo) GetLines(_ context.Context, saleID string) ([]*entity.SaleLine, error) {
	var out []*entity.SaleLine
	err := r.a.read(func(st *state) error {
		for _, l := range st.lines[saleID] {
			c := *l
			out = append(out, &c)
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, err
}

func (r *saleRepo) GetPayments(_ context.Context, saleID string) ([]*entity.Payment, error) {
	var out []*entity.Payment
	err := r.a.read(func(st *state) error {
		for _, p := range st.payments[saleID] {
			c := *p
			out = append(out, &c)
		}
		return nil
	})
	return out, err
}

func (r *saleRepo) MarkVoid(_ context.Context, s *entity.Sale) error {
	return r.a.write(OpSaleVoid, func(st *state) error {
		cur, ok := st.sales[s.ID]
		if !ok {
			return domain.NotFound("venta", s.ID)
		}
		if cur.Status != entity.SaleStatusCompleted {
			return domain.ErrAlreadyVoid
		}
		cur.Status = entity.SaleStatusVoid
		cur.VoidedBy = s.VoidedBy
		cur.VoidedAt = s.VoidedAt
		cur.VoidReason = s.VoidReason
		return nil
	})
}

func (r *saleRepo) List(_ context.Context, f repository.SaleFilter) ([]*entity.Sale, error) {
	var out []*entity.Sale
	err := r.a.read(func(st *state) error {
		for _, s := range st.sales {
			if f.Status != "" && s.Status != f.Status {
				continue
			}
			if f.CustomerID != "" && (s.CustomerID == nil || *s.CustomerID != f.CustomerID) {
				continue
			}
			if f.From != nil && s.Date.Before(*f.From) {
				continue
			}
			if f.To != nil && s.Date.After(*f.To) {
				continue
			}
			out = append(out, copySale(s))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID < out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})
	return page(out, f.Limit, f.Offset), nil
}
