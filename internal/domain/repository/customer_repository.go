package repository

import (
	"context"

	"github.com/jhoicas/agrostock-api/internal/domain/entity"
)

// CustomerRepository puerto de lectura de clientes (la gestión de clientes es externa).
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
}
