package repository

import (
	"errors"
	"time"

	"github.com/lumen-store/internal/models"

	"gorm.io/gorm"
)

// GuestCartRepository 游客购物车数据访问接口
type GuestCartRepository interface {
	ListByToken(token string) ([]models.GuestCartItem, error)
	ListUnmergedByToken(token string) ([]models.GuestCartItem, error)
	GetByKey(token string, productID uint, variant string) (*models.GuestCartItem, error)
	AddQuantity(item *models.GuestCartItem) error
	SetQuantity(token string, productID uint, variant string, quantity int) error
	DeleteByKey(token string, productID uint, variant string) error
	ClearByToken(token string) error
	MarkMerged(ids []uint, mergedAt time.Time) (int64, error)
	WithTx(tx *gorm.DB) *GormGuestCartRepository
}

// GormGuestCartRepository GORM 实现
type GormGuestCartRepository struct {
	db *gorm.DB
}

// NewGuestCartRepository 创建游客购物车仓库
func NewGuestCartRepository(db *gorm.DB) *GormGuestCartRepository {
	return &GormGuestCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormGuestCartRepository) WithTx(tx *gorm.DB) *GormGuestCartRepository {
	if tx == nil {
		return r
	}
	return &GormGuestCartRepository{db: tx}
}

// ListByToken 获取设备购物车全部项
func (r *GormGuestCartRepository) ListByToken(token string) ([]models.GuestCartItem, error) {
	var items []models.GuestCartItem
	if err := r.db.Where("guest_token = ?", token).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListUnmergedByToken 获取尚未并入用户购物车的项（合并例程的输入）
func (r *GormGuestCartRepository) ListUnmergedByToken(token string) ([]models.GuestCartItem, error) {
	var items []models.GuestCartItem
	if err := r.db.Where("guest_token = ? AND merged_at IS NULL", token).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetByKey 按 (guest_token, product_id, variant) 获取购物车项
func (r *GormGuestCartRepository) GetByKey(token string, productID uint, variant string) (*models.GuestCartItem, error) {
	var item models.GuestCartItem
	err := r.db.Where("guest_token = ? AND product_id = ? AND variant = ?", token, productID, variant).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// AddQuantity 添加购物车项：同键已存在则数量累加，否则新建
// 已合并的行视同不存在：数量从本次加购重新起算，否则旧数量会被二次并入
func (r *GormGuestCartRepository) AddQuantity(item *models.GuestCartItem) error {
	if item == nil {
		return nil
	}
	existing, err := r.GetByKey(item.GuestToken, item.ProductID, item.Variant)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.Create(item).Error
	}
	quantity := existing.Quantity + item.Quantity
	if existing.MergedAt != nil {
		quantity = item.Quantity
	}
	updates := map[string]interface{}{
		"quantity":   quantity,
		"updated_at": item.UpdatedAt,
		"merged_at":  nil,
	}
	return r.db.Model(existing).Updates(updates).Error
}

// SetQuantity 设置购物车项数量（不存在则为 no-op）
func (r *GormGuestCartRepository) SetQuantity(token string, productID uint, variant string, quantity int) error {
	return r.db.Model(&models.GuestCartItem{}).
		Where("guest_token = ? AND product_id = ? AND variant = ?", token, productID, variant).
		Update("quantity", quantity).Error
}

// DeleteByKey 删除购物车项
func (r *GormGuestCartRepository) DeleteByKey(token string, productID uint, variant string) error {
	return r.db.Where("guest_token = ? AND product_id = ? AND variant = ?", token, productID, variant).
		Delete(&models.GuestCartItem{}).Error
}

// ClearByToken 清空设备购物车
func (r *GormGuestCartRepository) ClearByToken(token string) error {
	return r.db.Where("guest_token = ?", token).Delete(&models.GuestCartItem{}).Error
}

// MarkMerged 标记已并入用户购物车（防止重复合并导致数量翻倍）
func (r *GormGuestCartRepository) MarkMerged(ids []uint, mergedAt time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.GuestCartItem{}).
		Where("id IN ? AND merged_at IS NULL", ids).
		Update("merged_at", mergedAt)
	return result.RowsAffected, result.Error
}
