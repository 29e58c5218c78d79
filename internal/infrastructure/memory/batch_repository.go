package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/agrostock-api/internal/domain"
	"github.com/jhoicas/agrostock-api/internal/domain/entity"
	"github.com/jhoicas/agrostock-api/internal/domain/repository"
)

type batchRepo struct {
	a access
}

func (r *batchRepo) Create(_ context.Context, b *entity.Batch) error {
	return r.a.write(OpBatchCreate, func(st *state) error {
		if _, ok := st.batches[b.ID]; ok {
			return fmt.Errorf("lote %s: %w", b.ID, domain.ErrConflict)
		}
		// mismo contrato que el UNIQUE de batches.code
		for _, other := range st.batches {
			if other.Code == b.Code {
				return fmt.Errorf("%w: lote %s ya existe", domain.ErrConflict, b.Code)
			}
		}
		st.batches[b.ID] = copyBatch(b)
		return nil
	})
}

func (r *batchRepo) GetByID(_ context.Context, id string) (*entity.Batch, error) {
	var out *entity.Batch
	err := r.a.read(func(st *state) error {
		out = copyBatch(st.batches[id])
		return nil
	})
	return out, err
}

// GetForUpdate no necesita bloquear la fila: Run ya serializa a los escritores.
func (r *batchRepo) GetForUpdate(ctx context.Context, id string) (*entity.Batch, error) {
	return r.GetByID(ctx, id)
}

func (r *batchRepo) SaveState(_ context.Context, b *entity.Batch) error {
	return r.a.write(OpBatchSave, func(st *state) error {
		cur, ok := st.batches[b.ID]
		if !ok {
			return domain.NotFound("lote", b.ID)
		}
		if b.Available.IsNegative() {
			return fmt.Errorf("lote %s: saldo negativo %s", b.ID, b.Available)
		}
		cur.Available = b.Available
		cur.UnitCost = b.UnitCost
		cur.TotalCost = b.TotalCost
		cur.RetiredAt = b.RetiredAt
		cur.UpdatedAt = b.UpdatedAt
		return nil
	})
}

func (r *batchRepo) UpdateMetadata(_ context.Context, b *entity.Batch) error {
	return r.a.write(OpBatchSave, func(st *state) error {
		cur, ok := st.batches[b.ID]
		if !ok {
			return domain.NotFound("lote", b.ID)
		}
		cur.QualityGrade = b.QualityGrade
		cur.SuggestedPrice = b.SuggestedPrice
		cur.Notes = b.Notes
		cur.UpdatedAt = b.UpdatedAt
		return nil
	})
}

func (r *batchRepo) List(_ context.Context, f repository.BatchFilter) ([]*entity.Batch, error) {
	var out []*entity.Batch
	err := r.a.read(func(st *state) error {
		for _, b := range st.batches {
			if f.ProductID != "" && b.ProductID != f.ProductID {
				continue
			}
			if f.CropID != "" && (b.CropID == nil || *b.CropID != f.CropID) {
				continue
			}
			if !f.IncludeRetired && b.IsRetired() {
				continue
			}
			out = append(out, copyBatch(b))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, f.Limit, f.Offset), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
