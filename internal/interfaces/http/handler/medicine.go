package handler

import (
	"github.com/gin-gonic/gin"

	appcatalog "github.com/hms/pharmacy/internal/application/catalog"
	"github.com/hms/pharmacy/internal/interfaces/http/dto"
)

// MedicineHandler serves the medicine catalog endpoints
type MedicineHandler struct {
	BaseHandler
	service *appcatalog.MedicineService
}

// NewMedicineHandler creates a new MedicineHandler
func NewMedicineHandler(service *appcatalog.MedicineService) *MedicineHandler {
	return &MedicineHandler{service: service}
}

// RegisterRoutes registers the catalog routes
func (h *MedicineHandler) RegisterRoutes(rg *gin.RouterGroup) {
	medicines := rg.Group("/medicines")
	{
		medicines.POST("", h.Create)
		medicines.GET("", h.List)
		medicines.GET("/:id", h.Get)
		medicines.PUT("/:id", h.Update)
		medicines.POST("/:id/deactivate", h.Deactivate)
		medicines.POST("/:id/activate", h.Activate)
	}
}

// Create registers a new catalog entry
// POST /api/v1/medicines
func (h *MedicineHandler) Create(c *gin.Context) {
	var req dto.CreateMedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}
	medicine, err := h.service.CreateMedicine(c.Request.Context(), req.ToApplication())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, dto.FromMedicine(medicine))
}

// Update changes the descriptive fields of a catalog entry
// PUT /api/v1/medicines/:id
func (h *MedicineHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req dto.UpdateMedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}
	medicine, err := h.service.UpdateMedicine(c.Request.Context(), id, req.ToApplication())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.FromMedicine(medicine))
}

// Get returns one catalog entry
// GET /api/v1/medicines/:id
func (h *MedicineHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	medicine, err := h.service.GetMedicine(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.FromMedicine(medicine))
}

// List returns catalog entries matching the filters
// GET /api/v1/medicines
func (h *MedicineHandler) List(c *gin.Context) {
	var req dto.ListMedicinesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err)
		return
	}
	page := h.parsePage(req.ListRequest)
	medicines, total, err := h.service.ListMedicines(c.Request.Context(), req.ToFilter(), page)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, dto.FromMedicines(medicines), total, page.Page, page.PageSize)
}

// Deactivate retires a catalog entry. The row stays for historical
// references; only new activity is blocked.
// POST /api/v1/medicines/:id/deactivate
func (h *MedicineHandler) Deactivate(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	medicine, err := h.service.DeactivateMedicine(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.FromMedicine(medicine))
}

// Activate restores a retired catalog entry
// POST /api/v1/medicines/:id/activate
func (h *MedicineHandler) Activate(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	medicine, err := h.service.ActivateMedicine(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.FromMedicine(medicine))
}
