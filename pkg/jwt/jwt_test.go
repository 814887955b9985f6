package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-access-secret-key-for-testing-purposes"

func TestNewService(t *testing.T) {
	service := NewService(testSecret, time.Hour)

	assert.NotNil(t, service)
	assert.Equal(t, testSecret, service.secret)
	assert.Equal(t, time.Hour, service.accessTokenExpiry)
}

func TestGenerateAccessToken(t *testing.T) {
	service := NewService(testSecret, time.Hour)
	userID := uuid.New().String()
	roles := []string{"travel_agent"}

	token, err := service.GenerateAccessToken(userID, "Nimal Perera", "nimal@example.com", roles)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := service.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "Nimal Perera", claims.Name)
	assert.Equal(t, "nimal@example.com", claims.Email)
	assert.Equal(t, roles, claims.Roles)
	assert.Equal(t, AccessToken, claims.TokenType)
}

func TestValidateAccessToken(t *testing.T) {
	service := NewService(testSecret, time.Hour)
	token, err := service.GenerateAccessToken("agent-1", "Agent", "", []string{"travel_agent"})
	require.NoError(t, err)

	t.Run("Malformed token", func(t *testing.T) {
		_, err := service.ValidateAccessToken("invalid.token.here")
		assert.Error(t, err)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		wrongService := NewService("wrong-secret", time.Hour)
		_, err := wrongService.ValidateAccessToken(token)
		assert.Error(t, err)
		assert.False(t, errors.Is(err, ErrTokenExpired))
	})

	t.Run("Expired token", func(t *testing.T) {
		expired := NewService(testSecret, -time.Hour)
		expiredToken, err := expired.GenerateAccessToken("agent-1", "Agent", "", nil)
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(expiredToken)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrTokenExpired))
	})

	t.Run("Foreign issuer", func(t *testing.T) {
		claims := Claims{
			UserID:    "agent-1",
			TokenType: AccessToken,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				Issuer:    "someone-else",
			},
		}
		foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(foreign)
		assert.Error(t, err)
	})

	t.Run("Missing user id", func(t *testing.T) {
		noUser, err := service.GenerateAccessToken("", "Agent", "", nil)
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(noUser)
		assert.Error(t, err)
	})
}

func TestGetTokenExpiry(t *testing.T) {
	service := NewService(testSecret, time.Hour)

	token, err := service.GenerateAccessToken("agent-1", "Agent", "", []string{"travel_agent"})
	require.NoError(t, err)

	expiry, err := service.GetTokenExpiry(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, 5*time.Second)

	_, err = service.GetTokenExpiry("invalid.token.here")
	assert.Error(t, err)
}

func TestTokenSigningMethod(t *testing.T) {
	service := NewService(testSecret, time.Hour)

	token, err := service.GenerateAccessToken("agent-1", "Agent", "", []string{"travel_agent"})
	require.NoError(t, err)

	parsedToken, err := jwt.ParseWithClaims(token, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)

	_, ok := parsedToken.Method.(*jwt.SigningMethodHMAC)
	assert.True(t, ok, "Token should use HMAC signing method")
}

func TestMultipleRoles(t *testing.T) {
	service := NewService(testSecret, time.Hour)
	roles := []string{"travel_agent", "basic_admin", "super_admin"}

	token, err := service.GenerateAccessToken("admin-1", "Admin", "", roles)
	require.NoError(t, err)

	claims, err := service.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, roles, claims.Roles)
}

func TestTokenIssuerAndSubject(t *testing.T) {
	service := NewService(testSecret, time.Hour)
	userID := uuid.New().String()

	token, err := service.GenerateAccessToken(userID, "Agent", "", []string{"travel_agent"})
	require.NoError(t, err)

	claims, err := service.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "voyagecrm-booking-core", claims.Issuer)
	assert.Equal(t, userID, claims.Subject)
}

func TestConcurrentTokenGeneration(t *testing.T) {
	service := NewService(testSecret, time.Hour)

	done := make(chan bool)
	errs := make(chan error, 100)

	for i := 0; i < 100; i++ {
		go func() {
			token, err := service.GenerateAccessToken(uuid.New().String(), "Agent", "", []string{"travel_agent"})
			if err != nil {
				errs <- err
				done <- true
				return
			}

			if _, err := service.ValidateAccessToken(token); err != nil {
				errs <- err
			}
			done <- true
		}()
	}

	for i := 0; i < 100; i++ {
		<-done
	}

	close(errs)
	assert.Empty(t, errs)
}
