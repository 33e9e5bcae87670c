package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	})
}

func newTestToken(t *testing.T, jwtService *auth.JWTService) (*auth.AccessToken, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	token, err := jwtService.GenerateAccessToken(userID, "shopper@example.com")
	require.NoError(t, err)
	return token, userID
}

func newJWTRouter(mw gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(mw)
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetJWTUserID(c)})
	})
	return router
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	jwtService := newTestJWTService()
	token, userID := newTestToken(t, jwtService)

	router := gin.New()
	router.Use(JWTAuthMiddleware(jwtService))
	router.GET("/test", func(c *gin.Context) {
		claims := GetJWTClaims(c)
		require.NotNil(t, claims)
		assert.Equal(t, userID.String(), claims.UserID)
		assert.Equal(t, "shopper@example.com", claims.Email)
		assert.Equal(t, userID.String(), c.GetString("user_id"))

		id, ok := GetUserUUID(c)
		assert.True(t, ok)
		assert.Equal(t, userID, id)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token.Value)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTAuthMiddleware_CookieToken(t *testing.T) {
	jwtService := newTestJWTService()
	token, userID := newTestToken(t, jwtService)
	router := newJWTRouter(JWTAuthMiddleware(jwtService))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: DefaultTokenCookie, Value: token.Value})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), userID.String())
}

func TestJWTAuthMiddleware_CustomCookieName(t *testing.T) {
	jwtService := newTestJWTService()
	token, _ := newTestToken(t, jwtService)

	cfg := DefaultJWTConfig(jwtService)
	cfg.CookieName = "sf_session"
	router := newJWTRouter(JWTAuthMiddlewareWithConfig(cfg))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: "sf_session", Value: token.Value})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: DefaultTokenCookie, Value: token.Value})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthMiddleware_HeaderTakesPrecedenceOverCookie(t *testing.T) {
	jwtService := newTestJWTService()
	token, _ := newTestToken(t, jwtService)
	router := newJWTRouter(JWTAuthMiddleware(jwtService))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+"garbage")
	req.AddCookie(&http.Cookie{Name: DefaultTokenCookie, Value: token.Value})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.ErrCodeTokenInvalid, decodeError(t, rec).Code)
}

func TestJWTAuthMiddleware_Failures(t *testing.T) {
	jwtService := newTestJWTService()

	expiredService := auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: -time.Minute,
		Issuer:                "test-issuer",
	})
	expired, _ := newTestToken(t, expiredService)

	otherSecret := auth.NewJWTService(config.JWTConfig{
		Secret:                "another-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	})
	forged, _ := newTestToken(t, otherSecret)

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{"missing header", "", dto.ErrCodeTokenMissing},
		{"empty bearer", "Bearer ", dto.ErrCodeTokenMissing},
		{"wrong scheme", "Basic dXNlcjpwYXNz", dto.ErrCodeTokenInvalid},
		{"malformed token", "Bearer not.a.jwt", dto.ErrCodeTokenInvalid},
		{"wrong signature", "Bearer " + forged.Value, dto.ErrCodeTokenInvalid},
		{"expired token", "Bearer " + expired.Value, dto.ErrCodeTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(RequestID(), JWTAuthMiddleware(jwtService))
			router.GET("/test", func(c *gin.Context) {
				t.Fatal("handler must not run")
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			req.Header.Set(RequestIDHeader, "req-auth")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			errInfo := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, errInfo.Code)
			assert.Equal(t, "req-auth", errInfo.RequestID)
		})
	}
}

func TestJWTAuthMiddleware_BlacklistedToken(t *testing.T) {
	jwtService := newTestJWTService()
	token, _ := newTestToken(t, jwtService)

	blacklist := auth.NewInMemoryTokenBlacklist()
	require.NoError(t, blacklist.AddToBlacklist(t.Context(), token.ID, time.Minute))

	cfg := DefaultJWTConfig(jwtService)
	cfg.TokenBlacklist = blacklist
	router := newJWTRouter(JWTAuthMiddlewareWithConfig(cfg))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token.Value)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.ErrCodeTokenRevoked, decodeError(t, rec).Code)
}

func TestJWTAuthMiddleware_OtherTokenNotAffectedByBlacklist(t *testing.T) {
	jwtService := newTestJWTService()
	revoked, _ := newTestToken(t, jwtService)
	active, _ := newTestToken(t, jwtService)

	blacklist := auth.NewInMemoryTokenBlacklist()
	require.NoError(t, blacklist.AddToBlacklist(t.Context(), revoked.ID, time.Minute))

	cfg := DefaultJWTConfig(jwtService)
	cfg.TokenBlacklist = blacklist
	router := newJWTRouter(JWTAuthMiddlewareWithConfig(cfg))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+active.Value)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTAuthMiddleware_OnError(t *testing.T) {
	jwtService := newTestJWTService()

	var gotErr error
	cfg := DefaultJWTConfig(jwtService)
	cfg.OnError = func(c *gin.Context, err error) {
		gotErr = err
		c.AbortWithStatus(http.StatusTeapot)
	}
	router := newJWTRouter(JWTAuthMiddlewareWithConfig(cfg))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.ErrorIs(t, gotErr, errMissingToken)
}

func TestJWTAuthMiddleware_LogsFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	cfg := DefaultJWTConfig(newTestJWTService())
	cfg.Logger = zap.New(core)
	router := newJWTRouter(JWTAuthMiddlewareWithConfig(cfg))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(AuthHeaderKey, "Bearer bad")
	router.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("JWT authentication failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "/test", entries[0].ContextMap()["path"])
}

func TestGetJWTHelpers_NoClaims(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, GetJWTClaims(c))
	assert.Empty(t, GetJWTUserID(c))
	_, ok := GetUserUUID(c)
	assert.False(t, ok)
}
