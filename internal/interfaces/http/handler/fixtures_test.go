package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	basketapp "github.com/storefront/backend/internal/application/basket"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
	appidentity "github.com/storefront/backend/internal/application/identity"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/storage"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// testServer wires the handlers to real services over a private SQLite
// database, mirroring the production route table.
type testServer struct {
	engine    *gin.Engine
	db        *persistence.Database
	jwt       *auth.JWTService
	blacklist *auth.InMemoryTokenBlacklist
	images    *storage.StubObjectStorage
}

func testCookieConfig() config.CookieConfig {
	return config.CookieConfig{
		Name:     "token",
		Path:     "/",
		SameSite: "lax",
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver:          persistence.DriverSQLite,
		Path:            filepath.Join(t.TempDir(), "handler.db"),
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5,
		ConnMaxIdleTime: 5,
		TxTimeout:       5 * time.Second,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "handler-test-secret-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "storefront-test",
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	images := storage.NewStubObjectStorage("http://cdn.test")

	scope := persistence.NewGormTransactionScope(db)
	authService := appidentity.NewAuthService(persistence.NewGormUserRepository(db.DB), jwtService, blacklist, zap.NewNop())
	productService := catalogapp.NewProductService(persistence.NewGormProductRepository(db.DB), scope.CatalogScope(), images)
	basketService := basketapp.NewBasketService(scope, persistence.NewGormBasketRepository(db.DB), config.BasketConfig{
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
	})

	authHandler := NewAuthHandler(authService, testCookieConfig())
	productHandler := NewProductHandler(productService)
	basketHandler := NewBasketHandler(basketService)
	systemHandler := NewSystemHandler(db, "storefront", "test")

	jwtCfg := middleware.DefaultJWTConfig(jwtService)
	jwtCfg.TokenBlacklist = blacklist
	requireAuth := middleware.JWTAuthMiddlewareWithConfig(jwtCfg)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.GET("/health", systemHandler.Health)

	v1 := engine.Group("/api/v1")
	v1.POST("/auth/register", authHandler.Register)
	v1.POST("/auth/login", authHandler.Login)
	v1.GET("/catalog/products", productHandler.List)
	v1.GET("/catalog/products/:id", productHandler.GetByID)

	secured := v1.Group("", requireAuth)
	secured.POST("/auth/logout", authHandler.Logout)
	secured.GET("/auth/current-user", authHandler.GetCurrentUser)
	secured.PUT("/auth/profile", authHandler.UpdateProfile)
	secured.POST("/catalog/products", productHandler.Create)
	secured.PUT("/catalog/products/:id", productHandler.Update)
	secured.DELETE("/catalog/products/:id", productHandler.Delete)
	secured.POST("/catalog/products/:id/stock", productHandler.AdjustStock)
	secured.POST("/catalog/products/:id/image/upload-url", productHandler.GenerateImageUploadURL)
	secured.POST("/catalog/products/:id/image/confirm", productHandler.ConfirmImage)
	secured.GET("/basket", basketHandler.GetActive)
	secured.POST("/basket/items", basketHandler.AddItem)
	secured.PUT("/basket/items/:item_id", basketHandler.UpdateItem)
	secured.DELETE("/basket/items/:item_id", basketHandler.RemoveItem)
	secured.POST("/basket/checkout", basketHandler.Checkout)
	secured.GET("/baskets", basketHandler.List)
	secured.GET("/baskets/:id", basketHandler.GetByID)

	return &testServer{
		engine:    engine,
		db:        db,
		jwt:       jwtService,
		blacklist: blacklist,
		images:    images,
	}
}

// do sends a JSON request. A non-empty token is sent as a bearer token.
func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		if raw, ok := body.(string); ok {
			reader = bytes.NewBufferString(raw)
		} else {
			payload, err := json.Marshal(body)
			require.NoError(t, err)
			reader = bytes.NewReader(payload)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(middleware.AuthHeaderKey, middleware.BearerPrefix+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

// seedUser stores a user directly and returns it with a valid token
func (s *testServer) seedUser(t *testing.T) (*identity.User, string) {
	t.Helper()
	user, err := identity.NewUser("Shopper", uuid.NewString()[:8]+"@example.com", "password123")
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormUserRepository(s.db.DB).Create(context.Background(), user))

	token, err := s.jwt.GenerateAccessToken(user.ID, user.Email)
	require.NoError(t, err)
	return user, token.Value
}

func (s *testServer) seedProduct(t *testing.T, name, price string, stock int) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(name, decimal.RequireFromString(price), "", stock)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormProductRepository(s.db.DB).Save(context.Background(), product))
	return product
}

func (s *testServer) reloadProduct(t *testing.T, id uuid.UUID) *catalog.Product {
	t.Helper()
	product, err := persistence.NewGormProductRepository(s.db.DB).FindByID(context.Background(), id)
	require.NoError(t, err)
	return product
}

// decodeData unmarshals the envelope's data field into T
func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	require.True(t, envelope.Success, w.Body.String())

	var data T
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	return data
}

// decodeError returns the envelope's error after checking the status
func decodeError(t *testing.T, w *httptest.ResponseRecorder, status int) *dto.ErrorInfo {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	resp := decodeResponse(t, w)
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return resp.Error
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}
