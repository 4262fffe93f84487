package catalog

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storefront/server/internal/module/catalog/domain"
	"github.com/storefront/server/internal/shared/response"
	apperrors "github.com/storefront/server/internal/utils/errors"
	"github.com/storefront/server/internal/utils/pagination"
)

// Handler handles HTTP requests for stores, categories and items.
type Handler struct {
	service *Service
}

// NewHandler creates a new catalog handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers catalog routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	stores := r.Group("/stores")
	{
		stores.POST("", h.CreateStore)
		stores.GET("", h.ListStores)
		stores.GET("/:id", h.GetStore)
		stores.PATCH("/:id", h.UpdateStore)
		stores.DELETE("/:id", h.storeAction(h.service.DeleteStore))
		stores.POST("/:id/restore", h.storeAction(h.service.RestoreStore))
		stores.POST("/:id/categories", h.CreateCategory)
		stores.GET("/:id/categories", h.ListCategories)
		stores.GET("/:id/items", h.ListItems)
	}

	items := r.Group("/items")
	{
		items.POST("", h.CreateItem)
		items.GET("/:id", h.GetItem)
		items.PATCH("/:id", h.UpdateItem)
		items.DELETE("/:id", h.itemAction(h.service.DeleteItem))
		items.POST("/:id/restore", h.itemAction(h.service.RestoreItem))
		items.POST("/:id/deactivate", h.itemAction(h.service.DeactivateItem))
		items.POST("/:id/reactivate", h.itemAction(h.service.ReactivateItem))
	}
}

// --- Stores ---

// CreateStore handles POST /stores.
func (h *Handler) CreateStore(c *gin.Context) {
	var req CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.BadRequest(err.Error()))
		return
	}

	isOpen := true
	if req.IsOpen != nil {
		isOpen = *req.IsOpen
	}

	store, err := h.service.CreateStore(c.Request.Context(), CreateStoreInput{
		Name:      req.Name,
		Code:      req.Code,
		Address:   req.Address,
		Phone:     req.Phone,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		IsOpen:    isOpen,
	})
	if err != nil {
		handleCatalogError(c, err)
		return
	}

	c.JSON(http.StatusCreated, StoreToResponse(store))
}

// ListStores handles GET /stores.
func (h *Handler) ListStores(c *gin.Context) {
	var q ListStoresQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperrors.BadRequest(err.Error()))
		return
	}

	stores, err := h.service.ListStores(c.Request.Context(), StoreQuery{
		Status:     StoreStatus(q.Status),
		Descending: q.Sort == "desc",
	})
	if err != nil {
		handleCatalogError(c, err)
		return
	}

	resp := make([]*StoreResponse, len(stores))
	for i, s := range stores {
		resp[i] = StoreToResponse(s)
	}
	c.JSON(http.StatusOK, gin.H{"stores": resp})
}

// GetStore handles GET /stores/:id.
func (h *Handler) GetStore(c *gin.Context) {
	h.storeAction(h.service.GetStore)(c)
}

// UpdateStore handles PATCH /stores/:id.
func (h *Handler) UpdateStore(c *gin.Context) {
	id, ok := parseID(c, "store")
	if !ok {
		return
	}

	var req UpdateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.BadRequest(err.Error()))
		return
	}

	store, err := h.service.UpdateStore(c.Request.Context(), id, domain.StorePatch{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
		IsOpen:  req.IsOpen,
	})
	if err != nil {
		handleCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, StoreToResponse(store))
}

func (h *Handler) storeAction(apply func(context.Context, uuid.UUID) (*domain.Store, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "store")
		if !ok {
			return
		}

		store, err := apply(c.Request.Context(), id)
		if err != nil {
			handleCatalogError(c, err)
			return
		}

		c.JSON(http.StatusOK, StoreToResponse(store))
	}
}

// --- Categories ---

// CreateCategory handles POST /stores/:id/categories.
func (h *Handler) CreateCategory(c *gin.Context) {
	storeID, ok := parseID(c, "store")
	if !ok {
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.BadRequest(err.Error()))
		return
	}

	category, err := h.service.CreateCategory(c.Request.Context(), storeID, req.Name)
	if err != nil {
		handleCatalogError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CategoryToResponse(category))
}

// ListCategories handles GET /stores/:id/categories.
func (h *Handler) ListCategories(c *gin.Context) {
	storeID, ok := parseID(c, "store")
	if !ok {
		return
	}

	categories, err := h.service.ListCategories(c.Request.Context(), storeID)
	if err != nil {
		handleCatalogError(c, err)
		return
	}

	resp := make([]*CategoryResponse, len(categories))
	for i, cat := range categories {
		resp[i] = CategoryToResponse(cat)
	}
	c.JSON(http.StatusOK, gin.H{"categories": resp})
}

// --- Items ---

// CreateItem handles POST /items.
func (h *Handler) CreateItem(c *gin.Context) {
	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.BadRequest(err.Error()))
		return
	}

	item, err := h.service.CreateItem(c.Request.Context(), CreateItemInput{
		StoreID:     req.StoreID,
		CategoryID:  req.CategoryID,
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		handleCatalogError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ItemToResponse(item))
}

// GetItem handles GET /items/:id.
func (h *Handler) GetItem(c *gin.Context) {
	h.itemAction(h.service.GetItem)(c)
}

// ListItems handles GET /stores/:id/items.
func (h *Handler) ListItems(c *gin.Context) {
	storeID, ok := parseID(c, "store")
	if !ok {
		return
	}

	var filter ListItemsQuery
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, apperrors.BadRequest(err.Error()))
		return
	}

	page := pagination.New()
	if err := c.ShouldBindQuery(page); err != nil {
		response.Error(c, apperrors.BadRequest(err.Error()))
		return
	}

	q := ItemQuery{
		StoreID:        storeID,
		Search:         filter.Search,
		IncludeDeleted: filter.IncludeDeleted,
		Page:           page,
	}
	if filter.CategoryID != "" {
		categoryID := uuid.MustParse(filter.CategoryID)
		q.CategoryID = &categoryID
	}

	result, err := h.service.ListItems(c.Request.Context(), q)
	if err != nil {
		handleCatalogError(c, err)
		return
	}

	resp := ItemListResponse{
		Items:    make([]*ItemResponse, len(result.Items)),
		PageInfo: page.Info(result.Total),
	}
	for i, item := range result.Items {
		resp.Items[i] = ItemToResponse(item)
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateItem handles PATCH /items/:id.
func (h *Handler) UpdateItem(c *gin.Context) {
	id, ok := parseID(c, "item")
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.BadRequest(err.Error()))
		return
	}

	item, err := h.service.UpdateItem(c.Request.Context(), id, UpdateItemInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		handleCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, ItemToResponse(item))
}

func (h *Handler) itemAction(apply func(context.Context, uuid.UUID) (*domain.Item, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "item")
		if !ok {
			return
		}

		item, err := apply(c.Request.Context(), id)
		if err != nil {
			handleCatalogError(c, err)
			return
		}

		c.JSON(http.StatusOK, ItemToResponse(item))
	}
}

// --- Helpers ---

func parseID(c *gin.Context, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperrors.BadRequest("invalid "+resource+" ID"))
		return uuid.Nil, false
	}
	return id, true
}

var catalogErrorMappings = []response.ErrorMapping{
	{Err: ErrStoreNotFound, New: apperrors.NotFound, Arg: "store"},
	{Err: ErrCategoryNotFound, New: apperrors.NotFound, Arg: "category"},
	{Err: ErrItemNotFound, New: apperrors.NotFound, Arg: "item"},
	{Err: ErrStoreCodeTaken, New: apperrors.Conflict},
	{Err: ErrCategoryTaken, New: apperrors.Conflict},
	{Err: ErrItemCodeTaken, New: apperrors.Conflict},
	{Err: ErrCategoryWrongStore, New: apperrors.ValidationError},
	{Err: domain.ErrStoreDeleted, New: apperrors.Conflict},
	{Err: domain.ErrStoreNotDeleted, New: apperrors.Conflict},
	{Err: domain.ErrItemDeleted, New: apperrors.Conflict},
	{Err: domain.ErrItemNotDeleted, New: apperrors.Conflict},
	{Err: domain.ErrItemActive, New: apperrors.Conflict},
	{Err: domain.ErrItemInactive, New: apperrors.Conflict},
	{Err: domain.ErrInvalidStoreName, New: apperrors.ValidationError},
	{Err: domain.ErrInvalidStoreCode, New: apperrors.ValidationError},
	{Err: domain.ErrInvalidLocation, New: apperrors.ValidationError},
	{Err: domain.ErrInvalidCategory, New: apperrors.ValidationError},
	{Err: domain.ErrMissingStore, New: apperrors.ValidationError},
	{Err: domain.ErrMissingCategory, New: apperrors.ValidationError},
	{Err: domain.ErrInvalidItemCode, New: apperrors.ValidationError},
	{Err: domain.ErrInvalidItemName, New: apperrors.ValidationError},
	{Err: domain.ErrInvalidDescription, New: apperrors.ValidationError},
	{Err: domain.ErrInvalidPrice, New: apperrors.ValidationError},
}

func handleCatalogError(c *gin.Context, err error) {
	response.HandleError(c, err, catalogErrorMappings)
}
