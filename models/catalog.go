package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Slug      string    `json:"slug" gorm:"index;not null"`
	Title     string    `json:"title" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MenuItem struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	Title      string          `json:"title" gorm:"uniqueIndex;not null"`
	Price      decimal.Decimal `json:"price" gorm:"type:decimal(6,2);not null"`
	CategoryID uint            `json:"category_id" gorm:"not null"`
	Category   Category        `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Available  bool            `json:"available" gorm:"default:true"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
