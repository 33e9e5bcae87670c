package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/storefront/backend/docs"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

func getPath(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRegisterSwagger_ServesDocument(t *testing.T) {
	engine := gin.New()
	RegisterSwagger(engine, middleware.SwaggerConfig{Enabled: true}, nil)

	w := getPath(engine, "/swagger/doc.json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var doc struct {
		Swagger  string                    `json:"swagger"`
		BasePath string                    `json:"basePath"`
		Info     struct{ Title string }    `json:"info"`
		Paths    map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "2.0", doc.Swagger)
	assert.Equal(t, "/api/v1", doc.BasePath)
	assert.Equal(t, "Storefront API", doc.Info.Title)

	for path, method := range map[string]string{
		"/basket":                      "get",
		"/basket/items":                "post",
		"/basket/items/{item_id}":      "delete",
		"/basket/checkout":             "post",
		"/baskets/{id}":                "get",
		"/catalog/products":            "get",
		"/catalog/products/{id}/stock": "post",
		"/auth/login":                  "post",
		"/auth/current-user":           "get",
	} {
		require.Containsf(t, doc.Paths, path, "missing path %s", path)
		assert.Containsf(t, doc.Paths[path], method, "missing %s %s", method, path)
	}

	w = getPath(engine, "/swagger/index.html")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "'unsafe-inline'")
}

func TestRegisterSwagger_Disabled(t *testing.T) {
	engine := gin.New()
	RegisterSwagger(engine, middleware.SwaggerConfig{}, nil)

	assert.Equal(t, http.StatusNotFound, getPath(engine, "/swagger/doc.json").Code)
}
