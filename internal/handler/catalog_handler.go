package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/martinsuhendra/manta/internal/application"
	"github.com/martinsuhendra/manta/pkg/auth"
	"github.com/martinsuhendra/manta/pkg/middleware"
	"github.com/martinsuhendra/manta/pkg/response"
)

// CatalogHandler handles HTTP requests for items, quota pools and products.
type CatalogHandler struct {
	service catalogUseCases
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(service catalogUseCases) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// RegisterRoutes registers the public product listing and the admin catalog routes.
func (h *CatalogHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	r.GET("/products", h.ListProducts)
	r.GET("/products/:id", h.GetProduct)

	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAdmin))
	{
		admin.POST("/items", h.CreateItem)
		admin.GET("/items", h.ListItems)
		admin.POST("/quota-pools", h.CreateQuotaPool)
		admin.GET("/quota-pools", h.ListQuotaPools)
		admin.DELETE("/quota-pools/:id", h.DeleteQuotaPool)
		admin.POST("/products", h.CreateProduct)
		admin.GET("/products", h.ListAllProducts)
	}
}

// ListProducts handles GET /api/v1/products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	list, err := h.service.ListProducts(c.Request.Context(), true)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// ListAllProducts handles GET /api/v1/admin/products
func (h *CatalogHandler) ListAllProducts(c *gin.Context) {
	list, err := h.service.ListProducts(c.Request.Context(), false)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// GetProduct handles GET /api/v1/products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := uuidParam(c, "id", "product")
	if !ok {
		return
	}
	dto, err := h.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// CreateItem handles POST /api/v1/admin/items
func (h *CatalogHandler) CreateItem(c *gin.Context) {
	var req application.CreateItemRequest
	if !bindJSON(c, &req) {
		return
	}
	dto, err := h.service.CreateItem(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto)
}

// ListItems handles GET /api/v1/admin/items
func (h *CatalogHandler) ListItems(c *gin.Context) {
	list, err := h.service.ListItems(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// CreateQuotaPool handles POST /api/v1/admin/quota-pools
func (h *CatalogHandler) CreateQuotaPool(c *gin.Context) {
	var req application.CreateQuotaPoolRequest
	if !bindJSON(c, &req) {
		return
	}
	dto, err := h.service.CreateQuotaPool(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto)
}

// ListQuotaPools handles GET /api/v1/admin/quota-pools
func (h *CatalogHandler) ListQuotaPools(c *gin.Context) {
	list, err := h.service.ListQuotaPools(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// DeleteQuotaPool handles DELETE /api/v1/admin/quota-pools/:id
func (h *CatalogHandler) DeleteQuotaPool(c *gin.Context) {
	id, ok := uuidParam(c, "id", "quota pool")
	if !ok {
		return
	}
	if err := h.service.DeleteQuotaPool(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// CreateProduct handles POST /api/v1/admin/products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req application.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}
	dto, err := h.service.CreateProduct(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto)
}
