package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "storefront-test",
	})
}

func newTestSubject() Subject {
	return Subject{AdminID: uuid.New(), Email: "owner@shop.test", Name: "Owner"}
}

func TestNewJWTService_UsesSecretForRefreshIfNotProvided(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "only-secret"})

	assert.Equal(t, []byte("only-secret"), svc.refreshSecret)
	assert.Equal(t, DefaultMaxRefreshCount, svc.maxRefreshCount)
}

func TestGenerateTokenPair(t *testing.T) {
	svc := newTestJWTService()
	subject := newTestSubject()

	pair, err := svc.GenerateTokenPair(subject)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.True(t, pair.RefreshTokenExpiresAt.After(pair.AccessTokenExpiresAt))

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, subject.AdminID.String(), claims.AdminID)
	assert.Equal(t, subject.AdminID.String(), claims.Subject)
	assert.Equal(t, "owner@shop.test", claims.Email)
	assert.Equal(t, "Owner", claims.Name)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.Equal(t, "storefront-test", claims.Issuer)
	assert.NotEmpty(t, claims.ID)

	id, err := claims.AdminUUID()
	require.NoError(t, err)
	assert.Equal(t, subject.AdminID, id)

	refresh, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
	assert.Empty(t, refresh.Email)
	assert.Zero(t, refresh.RefreshCount)
}

func TestValidate_RejectsWrongTokenType(t *testing.T) {
	svc := newTestJWTService()
	svc.refreshSecret = svc.accessSecret

	pair, err := svc.GenerateTokenPair(newTestSubject())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidTokenType)

	_, err = svc.ValidateRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestValidate_RejectsTamperedAndForeignTokens(t *testing.T) {
	svc := newTestJWTService()
	pair, err := svc.GenerateTokenPair(newTestSubject())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.AccessToken + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateAccessToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Signed with the refresh secret, so the access check fails on signature.
	_, err = svc.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: time.Minute,
		Issuer:                "someone-else",
	})
	foreign, err := other.GenerateTokenPair(newTestSubject())
	require.NoError(t, err)
	_, err = svc.ValidateAccessToken(foreign.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_RejectsNoneAlgorithm(t *testing.T) {
	svc := newTestJWTService()
	claims := &Claims{
		RegisteredClaims: svc.registered(uuid.NewString(), time.Now(), time.Minute),
		AdminID:          uuid.NewString(),
		TokenType:        TokenTypeAccess,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_MissingAdminID(t *testing.T) {
	svc := newTestJWTService()
	claims := &Claims{
		RegisteredClaims: svc.registered("x", time.Now(), time.Minute),
		TokenType:        TokenTypeAccess,
	}
	signed, err := svc.sign(claims, svc.accessSecret)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(signed)
	assert.ErrorIs(t, err, ErrMissingAdminID)
}

func TestValidate_Expired(t *testing.T) {
	svc := newTestJWTService()
	issued := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	pair, err := svc.GenerateTokenPair(newTestSubject())
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(14 * time.Minute) }
	_, err = svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(16 * time.Minute) }
	_, err = svc.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = svc.ValidateRefreshToken(pair.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshTokenPair(t *testing.T) {
	svc := newTestJWTService()
	subject := newTestSubject()

	pair, err := svc.GenerateTokenPair(subject)
	require.NoError(t, err)
	claims, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)

	subject.Name = "Renamed"
	next, err := svc.RefreshTokenPair(claims, subject)
	require.NoError(t, err)

	access, err := svc.ValidateAccessToken(next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", access.Name)

	rotated, err := svc.ValidateRefreshToken(next.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, 1, rotated.RefreshCount)
	assert.NotEqual(t, claims.ID, rotated.ID)
}

func TestRefreshTokenPair_Limits(t *testing.T) {
	svc := newTestJWTService()
	subject := newTestSubject()

	_, err := svc.RefreshTokenPair(&Claims{AdminID: subject.AdminID.String(), RefreshCount: DefaultMaxRefreshCount}, subject)
	assert.ErrorIs(t, err, ErrMaxRefreshExceeded)

	_, err = svc.RefreshTokenPair(&Claims{AdminID: uuid.NewString()}, subject)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestClaims_RemainingTTL(t *testing.T) {
	now := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	c := &Claims{}
	assert.Zero(t, c.RemainingTTL(now))

	c.ExpiresAt = jwt.NewNumericDate(now.Add(5 * time.Minute))
	assert.Equal(t, 5*time.Minute, c.RemainingTTL(now))
	assert.Zero(t, c.RemainingTTL(now.Add(time.Hour)))
}
