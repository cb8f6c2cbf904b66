package models

import (
	"time"
)

// Group names used for role derivation. Seeded at migration time.
const (
	GroupManager      = "Manager"
	GroupDeliveryCrew = "Delivery Crew"
)

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	IsStaff      bool      `json:"is_staff" gorm:"default:false"`
	Groups       []Group   `json:"groups,omitempty" gorm:"many2many:user_groups;"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Group struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;not null"`
}
