package service

import (
	"regexp"
	"strings"
	"time"

	"github.com/lumen-store/internal/constants"
	"github.com/lumen-store/internal/logger"
	"github.com/lumen-store/internal/models"
	"github.com/lumen-store/internal/repository"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ProductService 商品服务
type ProductService struct {
	productRepo repository.ProductRepository
}

// NewProductService 创建商品服务
func NewProductService(productRepo repository.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// ListPublic 店面商品列表（仅上架）
func (s *ProductService) ListPublic(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	filter.OnlyActive = true
	return s.productRepo.List(filter)
}

// GetPublicBySlug 店面商品详情
func (s *ProductService) GetPublicBySlug(slug string) (*models.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrProductNotFound
	}
	product, err := s.productRepo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// ListAdmin 运营侧商品列表（含下架）
func (s *ProductService) ListAdmin(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	return s.productRepo.List(filter)
}

// GetByID 按 ID 获取商品
func (s *ProductService) GetByID(id uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// SaveProductInput 创建/更新商品输入
type SaveProductInput struct {
	Slug        string
	Name        string
	Description string
	PriceAmount models.Money
	Currency    string
	Images      []string
	Tags        []string
	Variants    []string
	InStock     bool
	IsActive    bool
	SortOrder   int
}

func (s *ProductService) validateSaveInput(input SaveProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return ErrProductInvalid
	}
	slug := strings.TrimSpace(input.Slug)
	if slug == "" || !slugPattern.MatchString(slug) {
		return ErrProductInvalid
	}
	if input.PriceAmount.IsNegative() {
		return ErrProductInvalid
	}
	return nil
}

// Create 创建商品
func (s *ProductService) Create(input SaveProductInput) (*models.Product, error) {
	if err := s.validateSaveInput(input); err != nil {
		return nil, err
	}
	slug := strings.TrimSpace(input.Slug)
	existing, err := s.productRepo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrProductSlugTaken
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = constants.SiteCurrencyDefault
	}
	product := &models.Product{
		Slug:        slug,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		PriceAmount: input.PriceAmount,
		Currency:    currency,
		Images:      models.StringArray(input.Images),
		Tags:        models.StringArray(input.Tags),
		Variants:    models.StringArray(input.Variants),
		InStock:     input.InStock,
		IsActive:    input.IsActive,
		SortOrder:   input.SortOrder,
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}
	logger.Infow("product_created", "product_id", product.ID, "slug", product.Slug)
	return product, nil
}

// Update 更新商品
func (s *ProductService) Update(id uint, input SaveProductInput) (*models.Product, error) {
	if err := s.validateSaveInput(input); err != nil {
		return nil, err
	}
	product, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	slug := strings.TrimSpace(input.Slug)
	if slug != product.Slug {
		existing, err := s.productRepo.GetBySlug(slug)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != product.ID {
			return nil, ErrProductSlugTaken
		}
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = product.Currency
	}
	product.Slug = slug
	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.PriceAmount = input.PriceAmount
	product.Currency = currency
	product.Images = models.StringArray(input.Images)
	product.Tags = models.StringArray(input.Tags)
	product.Variants = models.StringArray(input.Variants)
	product.InStock = input.InStock
	product.IsActive = input.IsActive
	product.SortOrder = input.SortOrder
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

// SetActive 上下架
func (s *ProductService) SetActive(id uint, active bool) error {
	product, err := s.GetByID(id)
	if err != nil {
		return err
	}
	return s.productRepo.UpdateFields(product.ID, map[string]interface{}{
		"is_active":  active,
		"updated_at": time.Now(),
	})
}

// Delete 删除商品（软删除，不影响既有订单快照）
func (s *ProductService) Delete(id uint) error {
	product, err := s.GetByID(id)
	if err != nil {
		return err
	}
	return s.productRepo.Delete(product.ID)
}
