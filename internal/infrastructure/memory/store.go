// Package memory implementa los repositorios del libro de producción en memoria,
// con el mismo contrato transaccional que PostgreSQL: un escritor a la vez y
// confirmación todo o nada. Se usa en tests y con STORAGE_DRIVER=memory.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/jhoicas/agrostock-api/internal/domain/entity"
	"github.com/jhoicas/agrostock-api/internal/domain/repository"
)

// Operaciones de escritura que aceptan fallas inyectadas con FailOn.
const (
	OpBatchCreate    = "batches.create"
	OpBatchSave      = "batches.save"
	OpMovementCreate = "movements.create"
	OpSaleCreate     = "sales.create"
	OpSaleLineCreate = "sales.lines.create"
	OpPaymentCreate  = "sales.payments.create"
	OpSaleVoid       = "sales.void"
)

type state struct {
	products  map[string]*entity.Product
	crops     map[string]*entity.Crop
	customers map[string]*entity.Customer
	batches   map[string]*entity.Batch
	movements []*entity.Movement // orden de seq ascendente
	sales     map[string]*entity.Sale
	lines     map[string][]*entity.SaleLine
	payments  map[string][]*entity.Payment
	seq       int64
}

func newState() *state {
	return &state{
		products:  map[string]*entity.Product{},
		crops:     map[string]*entity.Crop{},
		customers: map[string]*entity.Customer{},
		batches:   map[string]*entity.Batch{},
		sales:     map[string]*entity.Sale{},
		lines:     map[string][]*entity.SaleLine{},
		payments:  map[string][]*entity.Payment{},
	}
}

// clone copia lo mutable. Movimientos, líneas y pagos son inmutables: basta con recortar
// la capacidad para que un append en la copia no escriba sobre el original.
func (s *state) clone() *state {
	c := &state{
		products:  s.products,
		crops:     s.crops,
		customers: s.customers,
		batches:   make(map[string]*entity.Batch, len(s.batches)),
		movements: slices.Clip(s.movements),
		sales:     make(map[string]*entity.Sale, len(s.sales)),
		lines:     maps.Clone(s.lines),
		payments:  maps.Clone(s.payments),
		seq:       s.seq,
	}
	for id, b := range s.batches {
		c.batches[id] = copyBatch(b)
	}
	for id, sale := range s.sales {
		c.sales[id] = copySale(sale)
	}
	for id, l := range c.lines {
		c.lines[id] = slices.Clip(l)
	}
	for id, p := range c.payments {
		c.payments[id] = slices.Clip(p)
	}
	return c
}

// Store guarda el estado completo detrás de un RWMutex.
// Run toma el lock de escritura durante toda la transacción; las lecturas del pool toman el de lectura.
type Store struct {
	mu sync.RWMutex
	st *state

	faultMu sync.Mutex
	faults  map[string]error
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{st: newState(), faults: map[string]error{}}
}

// Run ejecuta fn sobre una copia del estado y la confirma solo si fn retorna nil
// y el contexto sigue vigente. No llamar repositorios de Repositories() dentro de fn.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(ctx, s.bind(txAccess{store: s, st: work})); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work
	return nil
}

// Repositories devuelve repositorios fuera de transacción (equivalente al pool).
func (s *Store) Repositories() repository.Repositories {
	return s.bind(poolAccess{store: s})
}

func (s *Store) bind(a access) repository.Repositories {
	return repository.Repositories{
		Batches:   &batchRepo{a: a},
		Movements: &movementRepo{a: a},
		Sales:     &saleRepo{a: a},
		Customers: &customerRepo{a: a},
		Catalog:   &catalogRepo{a: a},
	}
}

// FailOn hace que la operación op falle con err hasta ClearFaults.
func (s *Store) FailOn(op string, err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults[op] = err
}

// ClearFaults elimina las fallas inyectadas.
func (s *Store) ClearFaults() {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	clear(s.faults)
}

func (s *Store) fault(op string) error {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	return s.faults[op]
}

// AddProduct registra un producto del catálogo.
func (s *Store) AddProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.products[p.ID] = &p
}

// AddCrop registra un cultivo del catálogo.
func (s *Store) AddCrop(c entity.Crop) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.crops[c.ID] = &c
}

// AddCustomer registra un cliente.
func (s *Store) AddCustomer(c entity.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.customers[c.ID] = &c
}

// access abstrae si el repositorio opera sobre la transacción en curso o sobre el estado confirmado.
type access interface {
	read(fn func(st *state) error) error
	write(op string, fn func(st *state) error) error
}

type txAccess struct {
	store *Store
	st    *state
}

func (a txAccess) read(fn func(st *state) error) error { return fn(a.st) }

func (a txAccess) write(op string, fn func(st *state) error) error {
	if err := a.store.fault(op); err != nil {
		return err
	}
	return fn(a.st)
}

type poolAccess struct {
	store *Store
}

func (a poolAccess) read(fn func(st *state) error) error {
	a.store.mu.RLock()
	defer a.store.mu.RUnlock()
	return fn(a.store.st)
}

// write fuera de transacción: cada llamada es su propia transacción de una sola escritura.
func (a poolAccess) write(op string, fn func(st *state) error) error {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	if err := a.store.fault(op); err != nil {
		return err
	}
	work := a.store.st.clone()
	if err := fn(work); err != nil {
		return err
	}
	a.store.st = work
	return nil
}

func copyBatch(b *entity.Batch) *entity.Batch {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

func copySale(s *entity.Sale) *entity.Sale {
	if s == nil {
		return nil
	}
	c := *s
	c.Customer, c.Lines, c.Payments = nil, nil, nil
	return &c
}
