package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one (user, menu item) entry pending order creation. UnitPrice
// is snapshotted from the menu item when the line is first created; a later
// menu price change does not touch existing lines.
type CartLine struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	UserID     uint            `json:"user_id" gorm:"not null;uniqueIndex:idx_cart_user_item"`
	MenuItemID uint            `json:"menu_item_id" gorm:"not null;uniqueIndex:idx_cart_user_item"`
	MenuItem   MenuItem        `json:"menu_item,omitempty" gorm:"foreignKey:MenuItemID"`
	Quantity   int             `json:"quantity" gorm:"not null"`
	UnitPrice  decimal.Decimal `json:"unit_price" gorm:"type:decimal(6,2);not null"`
	Price      decimal.Decimal `json:"price" gorm:"type:decimal(6,2);not null"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
