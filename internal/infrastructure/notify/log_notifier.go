// Package notify contiene los adaptadores de SaleNotifier.
package notify

import (
	"context"

	"github.com/jhoicas/agrostock-api/internal/application/production"
	"github.com/jhoicas/agrostock-api/internal/domain/entity"
	"github.com/jhoicas/agrostock-api/pkg/logger"
)

var _ production.SaleNotifier = (*LogNotifier)(nil)

// LogNotifier deja constancia de ventas confirmadas y anuladas en el log estructurado.
// Reemplazable por el generador de facturas cuando esté disponible.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier construye el notificador.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &LogNotifier{log: log.Named("sale_notifier")}
}

// SaleCreated registra la venta lista para facturar.
func (n *LogNotifier) SaleCreated(_ context.Context, s *entity.Sale) error {
	ev := n.log.Info().
		Str("event", "sale.created").
		Str("sale_id", s.ID).
		Str("total", s.Total.StringFixed(2)).
		Int("lines", len(s.Lines)).
		Int("payments", len(s.Payments))
	if s.Customer != nil {
		ev = ev.Str("customer_tax_id", s.Customer.TaxID)
	}
	ev.Msg("venta lista para facturar")
	return nil
}

// SaleVoided registra la anulación.
func (n *LogNotifier) SaleVoided(_ context.Context, s *entity.Sale) error {
	ev := n.log.Info().
		Str("event", "sale.voided").
		Str("sale_id", s.ID).
		Str("reason", s.VoidReason)
	if s.VoidedBy != nil {
		ev = ev.Str("voided_by", *s.VoidedBy)
	}
	ev.Msg("venta anulada, revisar factura asociada")
	return nil
}
