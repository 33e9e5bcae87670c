package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// swaggerCSP relaxes the API-wide policy enough for the bundled UI, which
// runs inline scripts and styles.
const swaggerCSP = "default-src 'self'; script-src 'self' 'unsafe-inline'; " +
	"style-src 'self' 'unsafe-inline'; img-src 'self' data:; frame-ancestors 'none'"

// RegisterSwagger serves the generated API documentation under /swagger.
// The docs package must be imported for doc.json to resolve.
func RegisterSwagger(engine *gin.Engine, cfg middleware.SwaggerConfig, requireAuth gin.HandlerFunc) {
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg, requireAuth),
		func(c *gin.Context) {
			c.Header("Content-Security-Policy", swaggerCSP)
			c.Next()
		},
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)
}
