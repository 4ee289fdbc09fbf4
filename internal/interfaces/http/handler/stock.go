package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appinventory "github.com/hms/pharmacy/internal/application/inventory"
	"github.com/hms/pharmacy/internal/interfaces/http/dto"
)

// StockHandler serves the batch, stock level, ledger and alert
// endpoints.
type StockHandler struct {
	BaseHandler
	service *appinventory.StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(service *appinventory.StockService) *StockHandler {
	return &StockHandler{service: service}
}

// RegisterRoutes registers the inventory routes
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stock := rg.Group("/stock")
	{
		stock.POST("/batches", h.ReceiveBatch)
		stock.GET("/batches", h.ListBatches)
		stock.GET("/batches/expiring", h.ExpiringBatches)
		stock.GET("/batches/:id", h.GetBatch)
		stock.POST("/batches/:id/recall", h.RecallBatch)

		stock.POST("/consume", h.Consume)
		stock.POST("/write-off", h.WriteOff)
		stock.POST("/adjust", h.Adjust)
		stock.POST("/sweep-expired", h.SweepExpired)
		stock.POST("/evaluate-expiry", h.EvaluateExpiryWarnings)

		stock.GET("/levels", h.ListStock)
		stock.GET("/levels/:id", h.GetStock)
		stock.PUT("/levels/:id/thresholds", h.UpdateThresholds)
		stock.GET("/levels/:id/replay", h.Replay)

		stock.GET("/transactions", h.ListTransactions)

		stock.GET("/alerts", h.ListAlerts)
		stock.POST("/alerts/:id/resolve", h.ResolveAlert)
	}
}

// ReceiveBatch records a stock receipt
// POST /api/v1/stock/batches
func (h *StockHandler) ReceiveBatch(c *gin.Context) {
	var req dto.ReceiveBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}
	batch, err := h.service.ReceiveBatch(c.Request.Context(), req.ToApplication(h.getActor(c)))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, dto.FromBatch(batch))
}

// Consume dispenses stock from a batch
// POST /api/v1/stock/consume
func (h *StockHandler) Consume(c *gin.Context) {
	var req dto.ConsumeStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}
	tx, err := h.service.Consume(c.Request.Context(), req.ToApplication(h.getActor(c)))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, dto.FromTransaction(tx))
}

// WriteOff removes unsellable stock from a batch
// POST /api/v1/stock/write-off
func (h *StockHandler) WriteOff(c *gin.Context) {
	var req dto.WriteOffStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}
	tx, err := h.service.WriteOff(c.Request.Context(), req.ToApplication(h.getActor(c)))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, dto.FromTransaction(tx))
}

// Adjust corrects the stock level of a medicine
// POST /api/v1/stock/adjust
func (h *StockHandler) Adjust(c *gin.Context) {
	var req dto.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}
	tx, err := h.service.Adjust(c.Request.Context(), req.ToApplication(h.getActor(c)))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, dto.FromTransaction(tx))
}

// RecallBatch pulls a batch from circulation
// POST /api/v1/stock/batches/:id/recall
func (h *StockHandler) RecallBatch(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	batch, err := h.service.RecallBatch(c.Request.Context(), id, h.getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.FromBatch(batch))
}

// SweepExpired transitions past-expiry batches and removes their
// quantity from stock.
// POST /api/v1/stock/sweep-expired
func (h *StockHandler) SweepExpired(c *gin.Context) {
	affected, err := h.service.SweepExpired(c.Request.Context(), h.getActor(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.SweepResponse{Affected: affected})
}

// EvaluateExpiryWarnings raises warnings for batches expiring within
// the configured horizon.
// POST /api/v1/stock/evaluate-expiry
func (h *StockHandler) EvaluateExpiryWarnings(c *gin.Context) {
	affected, err := h.service.EvaluateExpiryWarnings(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.SweepResponse{Affected: affected})
}

// GetBatch returns one batch
// GET /api/v1/stock/batches/:id
func (h *StockHandler) GetBatch(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	batch, err := h.service.GetBatch(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.FromBatch(batch))
}

// ListBatches returns batches matching the filters
// GET /api/v1/stock/batches
func (h *StockHandler) ListBatches(c *gin.Context) {
	var req dto.ListBatchesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err)
		return
	}
	page := h.parsePage(req.ListRequest)
	batches, total, err := h.service.ListBatches(c.Request.Context(), req.ToFilter(), page)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, dto.FromBatches(batches), total, page.Page, page.PageSize)
}

// ExpiringBatches returns batches expiring within the given days
// GET /api/v1/stock/batches/expiring?days=30
func (h *StockHandler) ExpiringBatches(c *gin.Context) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.Error(c, dto.ErrCodeInvalidInput, "days must be a non-negative integer")
			return
		}
		days = parsed
	}
	batches, err := h.service.ExpiringBatches(c.Request.Context(), days)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.FromBatches(batches))
}

// GetStock returns the stock level of a medicine
// GET /api/v1/stock/levels/:id
func (h *StockHandler) GetStock(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	item, err := h.service.GetStock(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.FromStockItem(item))
}

// ListStock returns stock levels matching the filters
// GET /api/v1/stock/levels
func (h *StockHandler) ListStock(c *gin.Context) {
	var req dto.ListStockRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err)
		return
	}
	page := h.parsePage(req.ListRequest)
	items, total, err := h.service.ListStock(c.Request.Context(), req.ToFilter(), page)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, dto.FromStockItems(items), total, page.Page, page.PageSize)
}

// UpdateThresholds changes the reorder configuration of a medicine
// PUT /api/v1/stock/levels/:id/thresholds
func (h *StockHandler) UpdateThresholds(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req dto.UpdateThresholdsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}
	item, err := h.service.UpdateThresholds(c.Request.Context(), appinventory.UpdateThresholdsRequest{
		MedicineID:    id,
		MinStockLevel: req.MinStockLevel,
		MaxStockLevel: req.MaxStockLevel,
		ReorderLevel:  req.ReorderLevel,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.FromStockItem(item))
}

// ListTransactions returns ledger entries matching the filters
// GET /api/v1/stock/transactions
func (h *StockHandler) ListTransactions(c *gin.Context) {
	var req dto.ListTransactionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err)
		return
	}
	page := h.parsePage(req.ListRequest)
	txs, total, err := h.service.ListTransactions(c.Request.Context(), req.ToFilter(), page)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, dto.FromTransactions(txs), total, page.Page, page.PageSize)
}

// Replay recomputes a stock balance from the ledger and compares it
// against the stored aggregate.
// GET /api/v1/stock/levels/:id/replay
func (h *StockHandler) Replay(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	result, err := h.service.Replay(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// ListAlerts returns alerts matching the filters
// GET /api/v1/stock/alerts
func (h *StockHandler) ListAlerts(c *gin.Context) {
	var req dto.ListAlertsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err)
		return
	}
	page := h.parsePage(req.ListRequest)
	alerts, total, err := h.service.ListAlerts(c.Request.Context(), req.ToFilter(), page)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, dto.FromAlerts(alerts), total, page.Page, page.PageSize)
}

// ResolveAlert manually resolves an active alert
// POST /api/v1/stock/alerts/:id/resolve
func (h *StockHandler) ResolveAlert(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req dto.ResolveAlertRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err)
			return
		}
	}
	alert, err := h.service.ResolveAlert(c.Request.Context(), id, h.getActor(c), req.Notes)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.FromAlert(alert))
}
