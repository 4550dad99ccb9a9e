package domain

import "time"

// Product prices are stored in minor currency units.
type Product struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Title     string    `json:"title" gorm:"size:255;not null"`
	Price     int64     `json:"price" gorm:"not null"`
	Stock     int64     `json:"stock" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}
