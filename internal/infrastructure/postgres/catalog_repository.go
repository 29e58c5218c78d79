package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/agrostock-api/internal/domain/entity"
	"github.com/jhoicas/agrostock-api/internal/domain/repository"
)

var _ repository.CatalogRepository = (*CatalogRepo)(nil)

// CatalogRepo lectura de productos y cultivos (el catálogo lo administra otro módulo).
type CatalogRepo struct {
	q Querier
}

// NewCatalogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCatalogRepository(q Querier) *CatalogRepo {
	return &CatalogRepo{q: q}
}

// GetProduct obtiene un producto por ID.
func (r *CatalogRepo) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	var p entity.Product
	err := r.q.QueryRow(ctx, `SELECT id, name, unit, created_at FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Unit, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// ProductExists indica si el producto existe.
func (r *CatalogRepo) ProductExists(ctx context.Context, id string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id)
}

// GetCrop obtiene un cultivo por ID.
func (r *CatalogRepo) GetCrop(ctx context.Context, id string) (*entity.Crop, error) {
	var c entity.Crop
	err := r.q.QueryRow(ctx, `SELECT id, name, plot_id, created_at FROM crops WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.PlotID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get crop: %w", err)
	}
	return &c, nil
}

// CropExists indica si el cultivo existe.
func (r *CatalogRepo) CropExists(ctx context.Context, id string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM crops WHERE id = $1)`, id)
}

func (r *CatalogRepo) exists(ctx context.Context, query, id string) (bool, error) {
	var ok bool
	if err := r.q.QueryRow(ctx, query, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return ok, nil
}
