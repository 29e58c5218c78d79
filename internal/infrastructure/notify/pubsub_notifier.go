package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/agrostock-api/internal/application/production"
	"github.com/jhoicas/agrostock-api/internal/domain/entity"
	"github.com/jhoicas/agrostock-api/pkg/logger"
)

var _ production.SaleNotifier = (*PubSubNotifier)(nil)

// Tipos de evento publicados.
const (
	EventSaleCreated = "sale.created"
	EventSaleVoided  = "sale.voided"
)

// SaleEvent payload JSON publicado en el tópico de ventas. Lo consume el servicio de facturación.
type SaleEvent struct {
	Event         string          `json:"event"`
	SaleID        string          `json:"sale_id"`
	Status        string          `json:"status"`
	Date          time.Time       `json:"date"`
	CustomerID    *string         `json:"customer_id,omitempty"`
	CustomerTaxID string          `json:"customer_tax_id,omitempty"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	Lines         []SaleEventLine `json:"lines"`
	VoidedBy      *string         `json:"voided_by,omitempty"`
	VoidReason    string          `json:"void_reason,omitempty"`
}

// SaleEventLine línea de la venta en el evento.
type SaleEventLine struct {
	BatchID   string          `json:"batch_id"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// PubSubNotifier publica cada venta confirmada o anulada en un tópico de Pub/Sub.
// El sale_id va como ordering key para que facturación reciba creación y anulación en orden.
type PubSubNotifier struct {
	topic   *pubsub.Topic
	timeout time.Duration
	log     *logger.Logger
}

// NewPubSubNotifier construye el notificador sobre un tópico ya resuelto.
func NewPubSubNotifier(topic *pubsub.Topic, log *logger.Logger) *PubSubNotifier {
	if log == nil {
		log = logger.Nop()
	}
	topic.EnableMessageOrdering = true
	return &PubSubNotifier{topic: topic, timeout: 10 * time.Second, log: log.Named("sale_publisher")}
}

// SaleCreated publica sale.created.
func (n *PubSubNotifier) SaleCreated(ctx context.Context, s *entity.Sale) error {
	return n.publish(ctx, EventSaleCreated, s)
}

// SaleVoided publica sale.voided.
func (n *PubSubNotifier) SaleVoided(ctx context.Context, s *entity.Sale) error {
	return n.publish(ctx, EventSaleVoided, s)
}

func (n *PubSubNotifier) publish(ctx context.Context, event string, s *entity.Sale) error {
	data, err := json.Marshal(newSaleEvent(event, s))
	if err != nil {
		return fmt.Errorf("serializar evento %s: %w", event, err)
	}
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	res := n.topic.Publish(ctx, &pubsub.Message{
		Data:        data,
		Attributes:  map[string]string{"event": event},
		OrderingKey: s.ID,
	})
	id, err := res.Get(ctx)
	if err != nil {
		// tras un error la clave queda pausada; se reanuda para no bloquear la siguiente publicación
		n.topic.ResumePublish(s.ID)
		return fmt.Errorf("publicar %s: %w", event, err)
	}
	n.log.Info().Str("event", event).Str("sale_id", s.ID).Str("message_id", id).Msg("evento publicado")
	return nil
}

func newSaleEvent(event string, s *entity.Sale) SaleEvent {
	ev := SaleEvent{
		Event:      event,
		SaleID:     s.ID,
		Status:     string(s.Status),
		Date:       s.Date,
		CustomerID: s.CustomerID,
		Subtotal:   s.Subtotal,
		Tax:        s.Tax,
		Discount:   s.Discount,
		Total:      s.Total,
		Lines:      make([]SaleEventLine, 0, len(s.Lines)),
		VoidedBy:   s.VoidedBy,
		VoidReason: s.VoidReason,
	}
	if s.Customer != nil {
		ev.CustomerTaxID = s.Customer.TaxID
	}
	for _, l := range s.Lines {
		ev.Lines = append(ev.Lines, SaleEventLine{
			BatchID:   l.BatchID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			LineTotal: l.LineTotal,
		})
	}
	return ev
}
