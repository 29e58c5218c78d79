package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/agrostock-api/internal/application/dto"
	"github.com/jhoicas/agrostock-api/internal/application/production"
	"github.com/jhoicas/agrostock-api/pkg/logger"
)

// StockHandler ajustes y traslados entre lotes (protegido).
type StockHandler struct {
	engine *production.StockEngine
	log    *logger.Logger
}

// NewStockHandler construye el handler.
func NewStockHandler(engine *production.StockEngine, log *logger.Logger) *StockHandler {
	return &StockHandler{engine: engine, log: log}
}

// Adjust godoc
// @Summary      Ajuste de existencias
// @Description  Cantidad con signo: positiva suma, negativa resta. Conserva el costo unitario.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustmentRequest  true  "batch_id, quantity, reason"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/stock/adjustments [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	actorID := GetActorID(c)
	if actorID == "" {
		return unauthorized(c)
	}
	var in dto.AdjustmentRequest
	if err := parseBody(c, &in); err != nil {
		return bodyError(c, err)
	}
	mov, err := h.engine.Adjust(c.Context(), production.AdjustmentInput{
		BatchID:  in.BatchID,
		Quantity: in.Quantity,
		Reason:   in.Reason,
		ActorID:  actorID,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(mov))
}

// Transfer godoc
// @Summary      Traslado entre lotes
// @Description  Mueve cantidad de un lote a otro del mismo producto; el destino recalcula su costo promedio ponderado.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "source_batch_id, dest_batch_id, quantity"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/transfers [post]
func (h *StockHandler) Transfer(c *fiber.Ctx) error {
	actorID := GetActorID(c)
	if actorID == "" {
		return unauthorized(c)
	}
	var in dto.TransferRequest
	if err := parseBody(c, &in); err != nil {
		return bodyError(c, err)
	}
	res, err := h.engine.Transfer(c.Context(), production.TransferInput{
		SourceBatchID: in.SourceBatchID,
		DestBatchID:   in.DestBatchID,
		Quantity:      in.Quantity,
		ActorID:       actorID,
		Note:          in.Note,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.TransferResponse{
		TransactionID: res.TransactionID,
		Source:        toBatchResponse(res.Source),
		Dest:          toBatchResponse(res.Dest),
		Movements:     []dto.MovementResponse{toMovementResponse(res.Out), toMovementResponse(res.In)},
	})
}
