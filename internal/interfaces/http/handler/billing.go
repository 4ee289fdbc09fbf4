package handler

import (
	"github.com/gin-gonic/gin"

	appbilling "github.com/hms/pharmacy/internal/application/billing"
	"github.com/hms/pharmacy/internal/interfaces/http/dto"
)

// BillingHandler serves the sale and payment endpoints
type BillingHandler struct {
	BaseHandler
	service *appbilling.BillingService
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(service *appbilling.BillingService) *BillingHandler {
	return &BillingHandler{service: service}
}

// RegisterRoutes registers the billing routes
func (h *BillingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sales := rg.Group("/sales")
	{
		sales.POST("", h.CreateSale)
		sales.GET("", h.ListSales)
		sales.GET("/by-number/:number", h.GetSaleByBillNumber)
		sales.GET("/:id", h.GetSale)
		sales.POST("/:id/payments", h.ApplyPayment)
	}
}

// CreateSale creates a bill and dispenses its stock in one atomic unit
// POST /api/v1/sales
func (h *BillingHandler) CreateSale(c *gin.Context) {
	var req dto.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}
	sale, err := h.service.CreateSale(c.Request.Context(), req.ToApplication(h.getActor(c)))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, dto.FromSale(sale))
}

// ApplyPayment settles part of a bill
// POST /api/v1/sales/:id/payments
func (h *BillingHandler) ApplyPayment(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req dto.ApplyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}
	sale, err := h.service.ApplyPayment(c.Request.Context(), req.ToApplication(id, h.getActor(c)))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.FromSale(sale))
}

// GetSale returns one bill with its items and payments
// GET /api/v1/sales/:id
func (h *BillingHandler) GetSale(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	sale, err := h.service.GetSale(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.FromSale(sale))
}

// GetSaleByBillNumber returns one bill looked up by bill number
// GET /api/v1/sales/by-number/:number
func (h *BillingHandler) GetSaleByBillNumber(c *gin.Context) {
	number := c.Param("number")
	if number == "" {
		h.Error(c, dto.ErrCodeInvalidInput, "bill number is required")
		return
	}
	sale, err := h.service.GetSaleByBillNumber(c.Request.Context(), number)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.FromSale(sale))
}

// ListSales returns bills matching the filters
// GET /api/v1/sales
func (h *BillingHandler) ListSales(c *gin.Context) {
	var req dto.ListSalesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err)
		return
	}
	page := h.parsePage(req.ListRequest)
	sales, total, err := h.service.ListSales(c.Request.Context(), req.ToFilter(), page)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, dto.FromSales(sales), total, page.Page, page.PageSize)
}
