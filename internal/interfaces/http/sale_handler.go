package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/agrostock-api/internal/application/dto"
	"github.com/jhoicas/agrostock-api/internal/application/production"
	"github.com/jhoicas/agrostock-api/internal/domain"
	"github.com/jhoicas/agrostock-api/internal/domain/entity"
	"github.com/jhoicas/agrostock-api/internal/domain/repository"
	"github.com/jhoicas/agrostock-api/pkg/logger"
)

// SaleHandler ventas de producción y su anulación (protegido).
type SaleHandler struct {
	orchestrator *production.SaleOrchestrator
	log          *logger.Logger
}

// NewSaleHandler construye el handler.
func NewSaleHandler(orchestrator *production.SaleOrchestrator, log *logger.Logger) *SaleHandler {
	return &SaleHandler{orchestrator: orchestrator, log: log}
}

// Create godoc
// @Summary      Registrar venta
// @Description  Descuenta cada lote en el orden de las líneas. Si una línea falla no se registra nada.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSaleRequest  true  "lines, payments, customer_id opcional"
// @Success      201   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	actorID := GetActorID(c)
	if actorID == "" {
		return unauthorized(c)
	}
	var in dto.CreateSaleRequest
	if err := parseBody(c, &in); err != nil {
		return bodyError(c, err)
	}
	input := production.CreateSaleInput{
		CustomerID: in.CustomerID,
		Discount:   decimal.Zero,
		ActorID:    actorID,
	}
	if in.Discount != nil {
		input.Discount = *in.Discount
	}
	for _, l := range in.Lines {
		input.Lines = append(input.Lines, production.SaleLineInput{
			BatchID:   l.BatchID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	for _, p := range in.Payments {
		input.Payments = append(input.Payments, production.PaymentInput{
			Method:    entity.PaymentMethod(p.Method),
			Amount:    p.Amount,
			Reference: p.Reference,
		})
	}
	sale, err := h.orchestrator.CreateSale(c.Context(), input)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toSaleResponse(sale))
}

// GetByID godoc
// @Summary      Obtener venta
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	sale, err := h.orchestrator.GetSale(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toSaleResponse(sale))
}

// Movements godoc
// @Summary      Movimientos de stock de la venta
// @Description  Débitos de la venta y, si fue anulada, sus reintegros.
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleMovementsResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/movements [get]
func (h *SaleHandler) Movements(c *fiber.Ctx) error {
	list, err := h.orchestrator.SaleMovements(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, toMovementResponse(m))
	}
	return c.JSON(dto.SaleMovementsResponse{SaleID: c.Params("id"), Items: items})
}

// List godoc
// @Summary      Listar ventas
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        status       query  string  false  "completed | void"
// @Param        customer_id  query  string  false  "Filtrar por cliente"
// @Param        from         query  string  false  "Desde (YYYY-MM-DD o RFC3339)"
// @Param        to           query  string  false  "Hasta (YYYY-MM-DD o RFC3339)"
// @Param        limit        query  int     false  "Límite"
// @Param        offset       query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.SaleListResponse
// @Router       /api/sales [get]
func (h *SaleHandler) List(c *fiber.Ctx) error {
	filter := repository.SaleFilter{
		Status:     entity.SaleStatus(c.Query("status")),
		CustomerID: c.Query("customer_id"),
		Limit:      c.QueryInt("limit", 0),
		Offset:     c.QueryInt("offset", 0),
	}
	var err error
	if filter.From, err = parseDateQuery(c.Query("from")); err != nil {
		return writeError(c, h.log, domain.Invalid("from: %v", err))
	}
	if filter.To, err = parseDateQuery(c.Query("to")); err != nil {
		return writeError(c, h.log, domain.Invalid("to: %v", err))
	}
	list, err := h.orchestrator.ListSales(c.Context(), filter)
	if err != nil {
		return writeError(c, h.log, err)
	}
	items := make([]dto.SaleResponse, 0, len(list))
	for _, s := range list {
		items = append(items, toSaleResponse(s))
	}
	return c.JSON(dto.SaleListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset},
	})
}

// Void godoc
// @Summary      Anular venta
// @Description  Reintegra cada línea a su lote al costo vigente. Solo una vez por venta.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true   "ID de la venta"
// @Param        body  body  dto.VoidSaleRequest  false  "motivo"
// @Success      200   {object}  dto.SaleResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/void [post]
func (h *SaleHandler) Void(c *fiber.Ctx) error {
	actorID := GetActorID(c)
	if actorID == "" {
		return unauthorized(c)
	}
	var in dto.VoidSaleRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &in); err != nil {
			return bodyError(c, err)
		}
	}
	sale, err := h.orchestrator.VoidSale(c.Context(), c.Params("id"), actorID, in.Reason)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toSaleResponse(sale))
}

func parseDateQuery(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
