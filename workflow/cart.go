package workflow

import (
	"errors"

	"restaurant-orders-api/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaxLineQuantity caps a single cart line.
const MaxLineQuantity = 100

// CartService owns the per-user cart lines: upsert-or-increment, quantity
// rewrites against the snapshotted unit price, and idempotent clearing.
type CartService struct {
	DB *gorm.DB
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{DB: db}
}

// AddOrIncrement adds quantity to an existing (user, menu item) line or
// creates a new line snapshotting the menu item's current price. The
// snapshot is taken once: increments reuse the line's stored unit price.
func (s *CartService) AddOrIncrement(userID, menuItemID uint, quantity int) (*models.CartLine, error) {
	if quantity <= 0 {
		return nil, validationf("quantity must be positive")
	}
	if quantity > MaxLineQuantity {
		return nil, validationf("quantity cannot exceed %d", MaxLineQuantity)
	}

	var item models.MenuItem
	if err := s.DB.Where("id = ? AND available = ?", menuItemID, true).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("menu item does not exist or is not available")
		}
		return nil, err
	}

	var line models.CartLine
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND menu_item_id = ?", userID, menuItemID).First(&line).Error
		if err == nil {
			line.Quantity += quantity
			if line.Quantity > MaxLineQuantity {
				return validationf("quantity cannot exceed %d", MaxLineQuantity)
			}
			line.Price = line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
			return tx.Save(&line).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		line = models.CartLine{
			UserID:     userID,
			MenuItemID: item.ID,
			Quantity:   quantity,
			UnitPrice:  item.Price,
			Price:      item.Price.Mul(decimal.NewFromInt(int64(quantity))),
		}
		return tx.Create(&line).Error
	})
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// SetQuantity overwrites the quantity on an owned line. The price is
// recomputed from the line's stored unit price, not the current menu price.
func (s *CartService) SetQuantity(userID, lineID uint, quantity int) (*models.CartLine, error) {
	if quantity <= 0 {
		return nil, validationf("quantity must be positive")
	}
	if quantity > MaxLineQuantity {
		return nil, validationf("quantity cannot exceed %d", MaxLineQuantity)
	}

	var line models.CartLine
	if err := s.DB.Where("id = ? AND user_id = ?", lineID, userID).First(&line).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("cart line not found")
		}
		return nil, err
	}

	line.Quantity = quantity
	line.Price = line.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	if err := s.DB.Save(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

// Get returns a single owned line.
func (s *CartService) Get(userID, lineID uint) (*models.CartLine, error) {
	var line models.CartLine
	err := s.DB.Preload("MenuItem").Where("id = ? AND user_id = ?", lineID, userID).First(&line).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("cart line not found")
		}
		return nil, err
	}
	return &line, nil
}

// Remove deletes a single owned line.
func (s *CartService) Remove(userID, lineID uint) error {
	res := s.DB.Where("id = ? AND user_id = ?", lineID, userID).Delete(&models.CartLine{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("cart line not found")
	}
	return nil
}

// Clear deletes all lines for the user. Clearing an empty cart succeeds.
func (s *CartService) Clear(userID uint) error {
	return s.DB.Where("user_id = ?", userID).Delete(&models.CartLine{}).Error
}

// List returns the user's cart lines in insertion order.
func (s *CartService) List(userID uint) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := s.DB.Preload("MenuItem").
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&lines).Error
	return lines, err
}
