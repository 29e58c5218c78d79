package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/agrostock-api/internal/domain/repository"
)

// Querier es lo común entre *pgxpool.Pool y pgx.Tx; los repositorios funcionan con cualquiera de los dos.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewRepositories arma el juego de repositorios sobre el pool o sobre una tx.
func NewRepositories(q Querier) repository.Repositories {
	return repository.Repositories{
		Batches:   NewBatchRepository(q),
		Movements: NewMovementRepository(q),
		Sales:     NewSaleRepository(q),
		Customers: NewCustomerRepository(q),
		Catalog:   NewCatalogRepository(q),
	}
}
