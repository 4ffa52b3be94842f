package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 12

var (
	hasLetter = regexp.MustCompile(`[a-zA-Z]`)
	hasNumber = regexp.MustCompile(`[0-9]`)
)

// AdminUser is a staff account allowed into the admin dashboard
type AdminUser struct {
	shared.BaseAggregateRoot
	Email          string
	Name           string
	PasswordHash   string
	Active         bool
	FailedAttempts int
	LockedUntil    *time.Time
	LastLoginAt    *time.Time
	LastLoginIP    string
}

// NewAdminUser creates an active admin with a hashed password
func NewAdminUser(email, name, password string) (*AdminUser, error) {
	normalized, err := valueobject.NormalizeEmail(email)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_EMAIL", err.Error())
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	return &AdminUser{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             normalized,
		Name:              name,
		PasswordHash:      hash,
		Active:            true,
	}, nil
}

// VerifyPassword checks a plaintext password against the stored hash
func (u *AdminUser) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// SetPassword replaces the password hash
func (u *AdminUser) SetPassword(password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = hash
	u.touch()
	return nil
}

// RecordLoginSuccess resets the failure counter
func (u *AdminUser) RecordLoginSuccess(ip string) {
	now := time.Now()
	u.LastLoginAt = &now
	u.LastLoginIP = ip
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.touch()
}

// RecordLoginFailure records a failed login attempt
// Returns true if account should be locked
func (u *AdminUser) RecordLoginFailure(maxAttempts int, lockDuration time.Duration) bool {
	u.FailedAttempts++
	u.touch()

	if u.FailedAttempts >= maxAttempts {
		until := time.Now().Add(lockDuration)
		u.LockedUntil = &until
		return true
	}
	return false
}

// IsLocked returns true while a lockout is in effect
func (u *AdminUser) IsLocked() bool {
	return u.LockedUntil != nil && time.Now().Before(*u.LockedUntil)
}

// CanLogin returns true if the account may authenticate
func (u *AdminUser) CanLogin() bool {
	return u.Active && !u.IsLocked()
}

// Deactivate disables the account
func (u *AdminUser) Deactivate() {
	u.Active = false
	u.touch()
}

func (u *AdminUser) touch() {
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
}

func validatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	}
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	if !hasLetter.MatchString(password) || !hasNumber.MatchString(password) {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
