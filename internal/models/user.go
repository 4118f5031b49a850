package models

import "time"

type Role string

const (
	RoleUser    Role = "user"
	RoleSupport Role = "support"
	RoleAdmin   Role = "admin"
	RoleOwner   Role = "owner"
)

type Plan string

const (
	PlanFree   Plan = "free"
	PlanArtist Plan = "artist"
	PlanPro    Plan = "pro"
)

type User struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(100);not null" json:"-"`
	Role         Role      `gorm:"type:varchar(16);index;not null;default:user" json:"role"`
	Plan         Plan      `gorm:"type:varchar(16);not null;default:free" json:"plan"`
	AvatarURL    string    `gorm:"type:varchar(512)" json:"avatar_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`
}

func (User) TableName() string { return "users" }

// Privileged reports whether r may use the admin back-office. Privilege is
// an explicit role, never inferred from names or email addresses.
func (r Role) Privileged() bool { return r == RoleAdmin || r == RoleOwner }
