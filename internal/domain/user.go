package domain

import "time"

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	Email     string    `json:"email" gorm:"size:255;not null;uniqueIndex"`
	Role      string    `json:"role" gorm:"size:32;not null;default:'customer'"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uint64
	Role   string
}

func (a Actor) Admin() bool {
	return a.Role == RoleAdmin
}
