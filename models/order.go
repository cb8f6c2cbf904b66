package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents all possible states of an order
type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusPreparing  OrderStatus = "PREPARING"
	StatusReady      OrderStatus = "READY"
	StatusInDelivery OrderStatus = "IN_DELIVERY"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

// ValidStatus reports whether s is a member of the status enum.
func ValidStatus(s OrderStatus) bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady,
		StatusInDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID             uint                 `json:"id" gorm:"primaryKey"`
	UserID         uint                 `json:"user_id" gorm:"not null;index"`
	User           User                 `json:"user,omitempty" gorm:"foreignKey:UserID"`
	DeliveryCrewID *uint                `json:"delivery_crew_id"`
	DeliveryCrew   *User                `json:"delivery_crew,omitempty" gorm:"foreignKey:DeliveryCrewID"`
	Status         OrderStatus          `json:"status" gorm:"not null;default:'PENDING';index"`
	Total          decimal.Decimal      `json:"total" gorm:"type:decimal(6,2);not null"`
	Date           time.Time            `json:"date" gorm:"index"`
	Items          []OrderItem          `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	StatusHistory  []OrderStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// OrderItem is an immutable, price-snapshotted copy of a cart line.
type OrderItem struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	OrderID    uint            `json:"order_id" gorm:"not null;uniqueIndex:idx_order_item"`
	MenuItemID uint            `json:"menu_item_id" gorm:"not null;uniqueIndex:idx_order_item"`
	MenuItem   MenuItem        `json:"menu_item,omitempty" gorm:"foreignKey:MenuItemID"`
	Quantity   int             `json:"quantity" gorm:"not null"`
	UnitPrice  decimal.Decimal `json:"unit_price" gorm:"type:decimal(6,2);not null"`
	Price      decimal.Decimal `json:"price" gorm:"type:decimal(6,2);not null"`
}

// OrderStatusHistory tracks every status change as an append-only audit trail
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"order_id" gorm:"not null;index"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status" gorm:"not null"`
	ChangedBy  uint        `json:"changed_by"`
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"created_at"`
}
