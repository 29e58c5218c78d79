package repository

// Repositories agrupa los repositorios atados a una misma conexión o transacción.
type Repositories struct {
	Batches   BatchRepository
	Movements MovementRepository
	Sales     SaleRepository
	Customers CustomerRepository
	Catalog   CatalogRepository
}
