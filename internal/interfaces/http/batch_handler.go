package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/agrostock-api/internal/application/dto"
	"github.com/jhoicas/agrostock-api/internal/application/production"
	"github.com/jhoicas/agrostock-api/internal/domain/repository"
	"github.com/jhoicas/agrostock-api/pkg/logger"
)

// BatchHandler maneja lotes de producción y su historial (protegido).
type BatchHandler struct {
	registry *production.BatchRegistry
	ledger   *production.Ledger
	log      *logger.Logger
}

// NewBatchHandler construye el handler.
func NewBatchHandler(registry *production.BatchRegistry, ledger *production.Ledger, log *logger.Logger) *BatchHandler {
	return &BatchHandler{registry: registry, ledger: ledger, log: log}
}

// Create godoc
// @Summary      Registrar lote de cosecha
// @Description  Crea el lote con su saldo inicial y el movimiento de ingreso en una sola transacción.
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateBatchRequest  true  "product_id, quantity, unit_cost"
// @Success      201   {object}  dto.BatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/batches [post]
func (h *BatchHandler) Create(c *fiber.Ctx) error {
	actorID := GetActorID(c)
	if actorID == "" {
		return unauthorized(c)
	}
	var in dto.CreateBatchRequest
	if err := parseBody(c, &in); err != nil {
		return bodyError(c, err)
	}
	input := production.CreateBatchInput{
		Code:           in.Code,
		ProductID:      in.ProductID,
		CropID:         in.CropID,
		PlotID:         in.PlotID,
		ActivityID:     in.ActivityID,
		Quantity:       in.Quantity,
		UnitCost:       in.UnitCost,
		SuggestedPrice: in.SuggestedPrice,
		QualityGrade:   in.QualityGrade,
		Notes:          in.Notes,
		ActorID:        actorID,
	}
	if in.HarvestDate != nil {
		input.HarvestDate = *in.HarvestDate
	}
	batch, err := h.registry.CreateBatch(c.Context(), input)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toBatchResponse(batch))
}

// List godoc
// @Summary      Listar lotes
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        product_id       query  string  false  "Filtrar por producto"
// @Param        crop_id          query  string  false  "Filtrar por cultivo"
// @Param        include_retired  query  bool    false  "Incluir lotes retirados"
// @Param        limit            query  int     false  "Límite"
// @Param        offset           query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.BatchListResponse
// @Router       /api/batches [get]
func (h *BatchHandler) List(c *fiber.Ctx) error {
	filter := repository.BatchFilter{
		ProductID:      c.Query("product_id"),
		CropID:         c.Query("crop_id"),
		IncludeRetired: c.QueryBool("include_retired", false),
		Limit:          c.QueryInt("limit", 0),
		Offset:         c.QueryInt("offset", 0),
	}
	list, err := h.registry.ListBatches(c.Context(), filter)
	if err != nil {
		return writeError(c, h.log, err)
	}
	items := make([]dto.BatchResponse, 0, len(list))
	for _, b := range list {
		items = append(items, toBatchResponse(b))
	}
	return c.JSON(dto.BatchListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset},
	})
}

// GetByID godoc
// @Summary      Obtener lote
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.BatchResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/batches/{id} [get]
func (h *BatchHandler) GetByID(c *fiber.Ctx) error {
	batch, err := h.registry.GetBatch(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toBatchResponse(batch))
}

// Update godoc
// @Summary      Actualizar datos descriptivos del lote
// @Description  Solo calidad, precio sugerido y notas. Saldo y costos cambian únicamente por movimientos.
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del lote"
// @Param        body  body  dto.UpdateBatchRequest  true  "campos a modificar"
// @Success      200   {object}  dto.BatchResponse
// @Router       /api/batches/{id} [patch]
func (h *BatchHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateBatchRequest
	if err := parseBody(c, &in); err != nil {
		return bodyError(c, err)
	}
	batch, err := h.registry.UpdateBatchMetadata(c.Context(), c.Params("id"), production.BatchMetadataPatch{
		QualityGrade:   in.QualityGrade,
		SuggestedPrice: in.SuggestedPrice,
		Notes:          in.Notes,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toBatchResponse(batch))
}

// Retire godoc
// @Summary      Retirar lote
// @Description  Borrado lógico; exige saldo cero.
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.BatchResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/batches/{id} [delete]
func (h *BatchHandler) Retire(c *fiber.Ctx) error {
	actorID := GetActorID(c)
	if actorID == "" {
		return unauthorized(c)
	}
	batch, err := h.registry.RetireBatch(c.Context(), c.Params("id"), actorID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toBatchResponse(batch))
}

// Movements godoc
// @Summary      Historial de movimientos del lote
// @Description  Más reciente primero, fijado al momento de la consulta.
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        id     path   string  true   "ID del lote"
// @Param        limit  query  int     false  "Máximo de movimientos (0 = todos)"
// @Success      200  {object}  dto.MovementHistoryResponse
// @Router       /api/batches/{id}/movements [get]
func (h *BatchHandler) Movements(c *fiber.Ctx) error {
	history, err := h.ledger.History(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	list, err := history.Collect(c.Context(), c.QueryInt("limit", 0))
	if err != nil {
		return writeError(c, h.log, err)
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, toMovementResponse(m))
	}
	return c.JSON(dto.MovementHistoryResponse{BatchID: history.BatchID, AsOfSeq: history.AsOfSeq, Items: items})
}

// Reconcile godoc
// @Summary      Conciliar saldo contra el libro
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.ReconciliationResponse
// @Router       /api/batches/{id}/reconciliation [get]
func (h *BatchHandler) Reconcile(c *fiber.Ctx) error {
	report, err := h.ledger.Reconcile(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toReconciliationResponse(report))
}
