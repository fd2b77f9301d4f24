package admin

import (
	"errors"
	"strconv"

	"github.com/lumen-store/internal/http/response"
	"github.com/lumen-store/internal/models"
	"github.com/lumen-store/internal/repository"
	"github.com/lumen-store/internal/service"

	"github.com/gin-gonic/gin"
)

// ProductRequest 商品创建/更新请求
type ProductRequest struct {
	Slug        string       `json:"slug" binding:"required"`
	Name        string       `json:"name" binding:"required"`
	Description string       `json:"description"`
	PriceAmount models.Money `json:"price_amount"`
	Currency    string       `json:"currency"`
	Images      []string     `json:"images"`
	Tags        []string     `json:"tags"`
	Variants    []string     `json:"variants"`
	InStock     bool         `json:"in_stock"`
	IsActive    bool         `json:"is_active"`
	SortOrder   int          `json:"sort_order"`
}

func (r ProductRequest) toInput() service.SaveProductInput {
	return service.SaveProductInput{
		Slug:        r.Slug,
		Name:        r.Name,
		Description: r.Description,
		PriceAmount: r.PriceAmount,
		Currency:    r.Currency,
		Images:      r.Images,
		Tags:        r.Tags,
		Variants:    r.Variants,
		InStock:     r.InStock,
		IsActive:    r.IsActive,
		SortOrder:   r.SortOrder,
	}
}

func respondProductError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		respondError(c, response.CodeNotFound, "product not found", nil)
	case errors.Is(err, service.ErrProductSlugTaken):
		respondError(c, response.CodeConflict, "product slug already taken", nil)
	case errors.Is(err, service.ErrProductInvalid):
		respondError(c, response.CodeBadRequest, "product payload invalid", nil)
	default:
		respondError(c, response.CodeInternal, "product save failed", err)
	}
}

// AdminListProducts 管理端商品列表（含下架商品）
func (h *Handler) AdminListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	products, total, err := h.ProductService.ListAdmin(repository.ProductListFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   c.Query("search"),
		Tag:      c.Query("tag"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "product list failed", err)
		return
	}

	response.SuccessWithPage(c, gin.H{"products": products}, response.NewPagination(page, pageSize, total))
}

// AdminGetProduct 管理端商品详情
func (h *Handler) AdminGetProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := h.ProductService.GetByID(productID)
	if err != nil {
		respondProductError(c, err)
		return
	}

	response.Success(c, gin.H{"product": product})
}

// AdminCreateProduct 管理端创建商品
func (h *Handler) AdminCreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	product, err := h.ProductService.Create(req.toInput())
	if err != nil {
		respondProductError(c, err)
		return
	}

	requestLog(c).Infow("product_created",
		"product_id", product.ID,
		"slug", product.Slug,
		"actor", actorName(c),
	)

	response.Success(c, gin.H{"product": product})
}

// AdminUpdateProduct 管理端更新商品
func (h *Handler) AdminUpdateProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	product, err := h.ProductService.Update(productID, req.toInput())
	if err != nil {
		respondProductError(c, err)
		return
	}

	response.Success(c, gin.H{"product": product})
}

// ProductActiveRequest 上下架请求
type ProductActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// AdminSetProductActive 管理端上下架
func (h *Handler) AdminSetProductActive(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ProductActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.ProductService.SetActive(productID, req.IsActive); err != nil {
		respondProductError(c, err)
		return
	}

	response.Success(c, gin.H{"updated": true})
}

// AdminDeleteProduct 管理端删除商品（软删除）
func (h *Handler) AdminDeleteProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.ProductService.Delete(productID); err != nil {
		respondProductError(c, err)
		return
	}

	requestLog(c).Infow("product_deleted",
		"product_id", productID,
		"actor", actorName(c),
	)

	response.Success(c, gin.H{"deleted": true})
}
