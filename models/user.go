package models

import (
	"strings"
	"time"
)

// Role IDs as seeded in the roles table.
const (
	RoleAuthor   = 1
	RoleReviewer = 2
	RoleEditor   = 3
	RoleAdmin    = 4
)

type User struct {
	UserID      int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	UserFname   string     `gorm:"column:user_fname" json:"user_fname"`
	UserLname   string     `gorm:"column:user_lname" json:"user_lname"`
	Email       string     `gorm:"column:email;unique" json:"email"`
	Password    string     `gorm:"column:password" json:"-"`
	RoleID      int        `gorm:"column:role_id" json:"role_id"`
	ORCID       *string    `gorm:"column:orcid" json:"orcid,omitempty"`
	Affiliation *string    `gorm:"column:affiliation" json:"affiliation,omitempty"`
	CreateAt    *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt    *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt    *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Role Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

type Role struct {
	RoleID   int        `gorm:"primaryKey;column:role_id" json:"role_id"`
	Role     string     `gorm:"column:role" json:"role"`
	CreateAt *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// TableName overrides
func (User) TableName() string {
	return "users"
}

func (Role) TableName() string {
	return "roles"
}

// FullName returns the display name used in notifications and letters.
func (u *User) FullName() string {
	return strings.TrimSpace(u.UserFname + " " + u.UserLname)
}
