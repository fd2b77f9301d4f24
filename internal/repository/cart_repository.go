package repository

import (
	"errors"

	"github.com/lumen-store/internal/models"

	"gorm.io/gorm"
)

// CartRepository 用户购物车数据访问接口
type CartRepository interface {
	ListByUser(userID uint) ([]models.CartItem, error)
	GetByKey(userID, productID uint, variant string) (*models.CartItem, error)
	AddQuantity(item *models.CartItem) error
	SetQuantity(userID, productID uint, variant string, quantity int) error
	DeleteByKey(userID, productID uint, variant string) error
	ClearByUser(userID uint) error
	WithTx(tx *gorm.DB) *GormCartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) *GormCartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// ListByUser 获取用户购物车项（插入顺序稳定）
func (r *GormCartRepository) ListByUser(userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Preload("Product").Where("user_id = ?", userID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetByKey 按 (user_id, product_id, variant) 获取购物车项
func (r *GormCartRepository) GetByKey(userID, productID uint, variant string) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.Where("user_id = ? AND product_id = ? AND variant = ?", userID, productID, variant).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// AddQuantity 添加购物车项：同键已存在则数量累加，否则新建
func (r *GormCartRepository) AddQuantity(item *models.CartItem) error {
	if item == nil {
		return nil
	}
	existing, err := r.GetByKey(item.UserID, item.ProductID, item.Variant)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.Create(item).Error
	}
	updates := map[string]interface{}{
		"quantity":   existing.Quantity + item.Quantity,
		"updated_at": item.UpdatedAt,
	}
	return r.db.Model(existing).Updates(updates).Error
}

// SetQuantity 设置购物车项数量（不存在则为 no-op）
func (r *GormCartRepository) SetQuantity(userID, productID uint, variant string, quantity int) error {
	return r.db.Model(&models.CartItem{}).
		Where("user_id = ? AND product_id = ? AND variant = ?", userID, productID, variant).
		Update("quantity", quantity).Error
}

// DeleteByKey 删除购物车项
func (r *GormCartRepository) DeleteByKey(userID, productID uint, variant string) error {
	return r.db.Where("user_id = ? AND product_id = ? AND variant = ?", userID, productID, variant).
		Delete(&models.CartItem{}).Error
}

// ClearByUser 清空用户购物车
func (r *GormCartRepository) ClearByUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}
