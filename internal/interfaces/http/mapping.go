package http

import (
	"github.com/jhoicas/agrostock-api/internal/application/dto"
	"github.com/jhoicas/agrostock-api/internal/application/production"
	"github.com/jhoicas/agrostock-api/internal/domain/entity"
)

func toBatchResponse(b *entity.Batch) dto.BatchResponse {
	return dto.BatchResponse{
		ID:               b.ID,
		Code:             b.Code,
		ProductID:        b.ProductID,
		CropID:           b.CropID,
		PlotID:           b.PlotID,
		ActivityID:       b.ActivityID,
		HarvestDate:      b.HarvestDate,
		QuantityProduced: b.QuantityProduced,
		Available:        b.Available,
		UnitCost:         b.UnitCost,
		TotalCost:        b.TotalCost,
		SuggestedPrice:   b.SuggestedPrice,
		QualityGrade:     b.QualityGrade,
		Notes:            b.Notes,
		CreatedBy:        b.CreatedBy,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
		RetiredAt:        b.RetiredAt,
	}
}

func toMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:            m.ID,
		Seq:           m.Seq,
		BatchID:       m.BatchID,
		Kind:          string(m.Kind),
		Quantity:      m.Quantity,
		UnitCost:      m.UnitCost,
		TotalValue:    m.TotalValue,
		Description:   m.Description,
		SaleID:        m.SaleID,
		TransactionID: m.TransactionID,
		ActorID:       m.ActorID,
		CreatedAt:     m.CreatedAt,
	}
}

func toReconciliationResponse(r *production.ReconciliationReport) dto.ReconciliationResponse {
	return dto.ReconciliationResponse{
		BatchID:    r.BatchID,
		Available:  r.Available,
		LedgerSum:  r.LedgerSum,
		LedgerCost: r.LedgerCost,
		Drift:      r.Drift,
		Movements:  r.Movements,
		Consistent: r.Consistent,
	}
}

func toSaleResponse(s *entity.Sale) dto.SaleResponse {
	out := dto.SaleResponse{
		ID:         s.ID,
		CustomerID: s.CustomerID,
		Date:       s.Date,
		Subtotal:   s.Subtotal,
		Tax:        s.Tax,
		Discount:   s.Discount,
		Total:      s.Total,
		Status:     string(s.Status),
		CreatedBy:  s.CreatedBy,
		VoidedBy:   s.VoidedBy,
		VoidedAt:   s.VoidedAt,
		VoidReason: s.VoidReason,
	}
	if s.Customer != nil {
		out.Customer = &dto.CustomerResponse{
			ID:    s.Customer.ID,
			Name:  s.Customer.Name,
			TaxID: s.Customer.TaxID,
			Email: s.Customer.Email,
			Phone: s.Customer.Phone,
		}
	}
	for _, l := range s.Lines {
		line := dto.SaleLineResponse{
			ID:        l.ID,
			Position:  l.Position,
			BatchID:   l.BatchID,
			ProductID: l.ProductID,
			CropID:    l.CropID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			LineTotal: l.LineTotal,
			UnitCost:  l.UnitCost,
			CostTotal: l.CostTotal,
		}
		if l.Batch != nil {
			line.BatchCode = l.Batch.Code
		}
		if l.Product != nil {
			line.ProductName = l.Product.Name
			line.Unit = l.Product.Unit
		}
		out.Lines = append(out.Lines, line)
	}
	for _, p := range s.Payments {
		out.Payments = append(out.Payments, dto.PaymentResponse{
			ID:        p.ID,
			Method:    string(p.Method),
			Amount:    p.Amount,
			Reference: p.Reference,
		})
	}
	return out
}
