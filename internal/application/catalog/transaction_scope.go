package catalog

import (
	"context"
	"time"

	"github.com/storefront/backend/internal/domain/catalog"
)

// TransactionScope runs catalog writes that must read and modify a product
// row atomically, such as partial updates and stock adjustments.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(ctx context.Context, products catalog.ProductRepository) error) error
}

// ImageStorage is the object storage used for product images
type ImageStorage interface {
	// GenerateUploadURL returns a presigned PUT URL for key and its expiry
	GenerateUploadURL(ctx context.Context, key, contentType string, expiresIn time.Duration) (string, time.Time, error)

	// ObjectExists reports whether key has been uploaded
	ObjectExists(ctx context.Context, key string) (bool, error)

	// DeleteObject removes key. Missing objects are not an error.
	DeleteObject(ctx context.Context, key string) error

	// ObjectURL returns the public URL clients use to fetch key
	ObjectURL(key string) string
}
