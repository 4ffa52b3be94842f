package models

import (
	"time"

	"github.com/storefront/backend/internal/domain/identity"
)

// AdminUserModel is the persistence model for admin accounts
type AdminUserModel struct {
	AggregateModel
	Email          string `gorm:"type:varchar(254);not null;uniqueIndex"`
	Name           string `gorm:"type:varchar(200);not null"`
	PasswordHash   string `gorm:"type:varchar(255);not null"`
	Active         bool   `gorm:"not null;default:true"`
	FailedAttempts int    `gorm:"not null;default:0"`
	LockedUntil    *time.Time
	LastLoginAt    *time.Time
	LastLoginIP    string `gorm:"type:varchar(45)"`
}

// TableName returns the table name for GORM
func (AdminUserModel) TableName() string {
	return "admin_users"
}

// ToDomain converts the persistence model to a domain AdminUser
func (m *AdminUserModel) ToDomain() *identity.AdminUser {
	return &identity.AdminUser{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Email:             m.Email,
		Name:              m.Name,
		PasswordHash:      m.PasswordHash,
		Active:            m.Active,
		FailedAttempts:    m.FailedAttempts,
		LockedUntil:       m.LockedUntil,
		LastLoginAt:       m.LastLoginAt,
		LastLoginIP:       m.LastLoginIP,
	}
}

// AdminUserModelFromDomain creates a persistence model from a domain AdminUser
func AdminUserModelFromDomain(u *identity.AdminUser) *AdminUserModel {
	m := &AdminUserModel{
		Email:          u.Email,
		Name:           u.Name,
		PasswordHash:   u.PasswordHash,
		Active:         u.Active,
		FailedAttempts: u.FailedAttempts,
		LockedUntil:    u.LockedUntil,
		LastLoginAt:    u.LastLoginAt,
		LastLoginIP:    u.LastLoginIP,
	}
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	return m
}
