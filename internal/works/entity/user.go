package entity

import "time"

// User mirrors the identity provider's directory for display joins. The
// workflow never authenticates; it trusts the {user_id, role} the JWT
// middleware extracts.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	Email     string    `json:"email" gorm:"size:200"`
	Role      string    `json:"role" gorm:"size:20;not null;index"`
	Status    string    `json:"status" gorm:"size:20;not null;default:'active'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
