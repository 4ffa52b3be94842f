package identity

import (
	"context"
	"errors"
	"time"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	ErrAccountLocked      = shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts. Try again later")
	ErrTokenExpired       = shared.NewDomainError("TOKEN_EXPIRED", "Token has expired")
	ErrTokenInvalid       = shared.NewDomainError("TOKEN_INVALID", "Invalid token")
	ErrTokenRevoked       = shared.NewDomainError("TOKEN_REVOKED", "Token has been revoked")
	ErrTokenMaxRefresh    = shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	Admins           identity.AdminUserRepository
	Tokens           *auth.JWTService
	Blacklist        auth.TokenBlacklist
	MaxLoginAttempts int
	LockDuration     time.Duration
	Logger           *zap.Logger
}

// AuthService handles admin authentication
type AuthService struct {
	admins           identity.AdminUserRepository
	tokens           *auth.JWTService
	blacklist        auth.TokenBlacklist
	maxLoginAttempts int
	lockDuration     time.Duration
	logger           *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Blacklist == nil {
		cfg.Blacklist = auth.NewInMemoryTokenBlacklist()
	}
	if cfg.MaxLoginAttempts <= 0 {
		cfg.MaxLoginAttempts = 5
	}
	if cfg.LockDuration <= 0 {
		cfg.LockDuration = 15 * time.Minute
	}
	return &AuthService{
		admins:           cfg.Admins,
		tokens:           cfg.Tokens,
		blacklist:        cfg.Blacklist,
		maxLoginAttempts: cfg.MaxLoginAttempts,
		lockDuration:     cfg.LockDuration,
		logger:           cfg.Logger,
	}
}

// Login authenticates an admin and issues a token pair.
// Unknown and inactive accounts get the same error as a wrong password.
func (s *AuthService) Login(ctx context.Context, req LoginRequest, ip string) (*LoginResponse, error) {
	admin, err := s.admins.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login attempt for unknown admin", zap.String("ip", ip))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !admin.Active {
		s.logger.Warn("Login attempt for inactive admin", zap.String("admin_id", admin.ID.String()))
		return nil, ErrInvalidCredentials
	}
	if admin.IsLocked() {
		s.logger.Warn("Login attempt for locked admin", zap.String("admin_id", admin.ID.String()))
		return nil, ErrAccountLocked
	}

	if !admin.VerifyPassword(req.Password) {
		locked := admin.RecordLoginFailure(s.maxLoginAttempts, s.lockDuration)
		if err := s.admins.Save(ctx, admin); err != nil {
			s.logger.Error("Failed to record login failure", zap.Error(err))
		}
		if locked {
			s.logger.Warn("Admin locked after failed attempts",
				zap.String("admin_id", admin.ID.String()),
				zap.Int("attempts", admin.FailedAttempts))
			return nil, ErrAccountLocked
		}
		return nil, ErrInvalidCredentials
	}

	pair, err := s.tokens.GenerateTokenPair(subjectOf(admin))
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}

	admin.RecordLoginSuccess(ip)
	if err := s.admins.Save(ctx, admin); err != nil {
		s.logger.Error("Failed to record login success", zap.Error(err))
	}

	s.logger.Info("Admin logged in", zap.String("admin_id", admin.ID.String()))
	return &LoginResponse{Token: toTokenResponse(pair), Admin: ToAdminResponse(admin)}, nil
}

// Refresh rotates a refresh token. The presented token is revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, mapTokenError(err)
	}
	if err := s.ensureNotRevoked(ctx, claims.ID); err != nil {
		return nil, err
	}

	adminID, err := claims.AdminUUID()
	if err != nil {
		return nil, ErrTokenInvalid
	}
	admin, err := s.admins.FindByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !admin.Active {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.tokens.RefreshTokenPair(claims, subjectOf(admin))
	if err != nil {
		return nil, mapTokenError(err)
	}
	if err := s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL(time.Now())); err != nil {
		s.logger.Error("Failed to revoke rotated refresh token", zap.Error(err))
	}

	resp := toTokenResponse(pair)
	return &resp, nil
}

// Authenticate validates an access token for a protected request
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*Principal, error) {
	claims, err := s.tokens.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, mapTokenError(err)
	}
	if err := s.ensureNotRevoked(ctx, claims.ID); err != nil {
		return nil, err
	}
	adminID, err := claims.AdminUUID()
	if err != nil {
		return nil, ErrTokenInvalid
	}
	return &Principal{
		AdminID: adminID,
		Email:   claims.Email,
		Name:    claims.Name,
		TokenID: claims.ID,
		Claims:  claims,
	}, nil
}

// Logout revokes the caller's access token and, when given, its refresh token
func (s *AuthService) Logout(ctx context.Context, principal *Principal, refreshToken string) error {
	now := time.Now()
	if err := s.blacklist.Revoke(ctx, principal.TokenID, principal.Claims.RemainingTTL(now)); err != nil {
		return err
	}
	if refreshToken == "" {
		return nil
	}
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		// An unusable refresh token needs no revocation.
		return nil
	}
	if claims.AdminID != principal.AdminID.String() {
		return ErrTokenInvalid
	}
	return s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL(now))
}

// Me returns the profile of the authenticated admin
func (s *AuthService) Me(ctx context.Context, principal *Principal) (*AdminResponse, error) {
	admin, err := s.admins.FindByID(ctx, principal.AdminID)
	if err != nil {
		return nil, err
	}
	resp := ToAdminResponse(admin)
	return &resp, nil
}

// CreateAdmin provisions a new admin account
func (s *AuthService) CreateAdmin(ctx context.Context, req CreateAdminRequest) (*AdminResponse, error) {
	admin, err := identity.NewAdminUser(req.Email, req.Name, req.Password)
	if err != nil {
		return nil, err
	}
	exists, err := s.admins.ExistsByEmail(ctx, admin.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "An admin with this email already exists")
	}
	if err := s.admins.Save(ctx, admin); err != nil {
		return nil, err
	}

	s.logger.Info("Admin created", zap.String("admin_id", admin.ID.String()))
	resp := ToAdminResponse(admin)
	return &resp, nil
}

func (s *AuthService) ensureNotRevoked(ctx context.Context, jti string) error {
	revoked, err := s.blacklist.IsRevoked(ctx, jti)
	if err != nil {
		return err
	}
	if revoked {
		return ErrTokenRevoked
	}
	return nil
}

func subjectOf(admin *identity.AdminUser) auth.Subject {
	return auth.Subject{AdminID: admin.ID, Email: admin.Email, Name: admin.Name}
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return ErrTokenExpired
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return ErrTokenMaxRefresh
	default:
		return ErrTokenInvalid
	}
}
