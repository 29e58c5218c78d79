package memory

import (
	"context"

	"github.com/jhoicas/agrostock-api/internal/domain/entity"
)

type catalogRepo struct {
	a access
}

func (r *catalogRepo) GetProduct(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.a.read(func(st *state) error {
		if p, ok := st.products[id]; ok {
			c := *p
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *catalogRepo) ProductExists(ctx context.Context, id string) (bool, error) {
	p, err := r.GetProduct(ctx, id)
	return p != nil, err
}

func (r *catalogRepo) GetCrop(_ context.Context, id string) (*entity.Crop, error) {
	var out *entity.Crop
	err := r.a.read(func(st *state) error {
		if c, ok := st.crops[id]; ok {
			cp := *c
			out = &cp
		}
		return nil
	})
	return out, err
}

func (r *catalogRepo) CropExists(ctx context.Context, id string) (bool, error) {
	c, err := r.GetCrop(ctx, id)
	return c != nil, err
}

type customerRepo struct {
	a access
}

func (r *customerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	var out *entity.Customer
	err := r.a.read(func(st *state) error {
		if c, ok := st.customers[id]; ok {
			cp := *c
			out = &cp
		}
		return nil
	})
	return out, err
}
