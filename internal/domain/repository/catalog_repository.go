package repository

import (
	"context"

	"github.com/jhoicas/agrostock-api/internal/domain/entity"
)

// CatalogRepository puerto de solo lectura hacia el catálogo (productos y cultivos).
// Los Get devuelven (nil, nil) cuando el registro no existe.
type CatalogRepository interface {
	GetProduct(ctx context.Context, id string) (*entity.Product, error)
	ProductExists(ctx context.Context, id string) (bool, error)
	GetCrop(ctx context.Context, id string) (*entity.Crop, error)
	CropExists(ctx context.Context, id string) (bool, error)
}
