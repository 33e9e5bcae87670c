package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/logger"
)

// imageExtensions maps the accepted upload content types to key extensions.
// SVG is excluded because it can carry scripts.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ProductServiceConfig holds configuration for the product service
type ProductServiceConfig struct {
	// UploadURLExpiry is how long presigned image upload URLs stay valid
	UploadURLExpiry time.Duration
}

// DefaultProductServiceConfig returns the default configuration
func DefaultProductServiceConfig() ProductServiceConfig {
	return ProductServiceConfig{UploadURLExpiry: 15 * time.Minute}
}

// ProductService handles product catalog operations
type ProductService struct {
	productRepo    catalog.ProductRepository
	scope          TransactionScope
	images         ImageStorage
	eventPublisher shared.EventPublisher
	config         ProductServiceConfig
}

// NewProductService creates a new ProductService. images may be nil, which
// disables the image upload endpoints.
func NewProductService(productRepo catalog.ProductRepository, scope TransactionScope, images ImageStorage) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		scope:       scope,
		images:      images,
		config:      DefaultProductServiceConfig(),
	}
}

// SetConfig sets the service configuration
func (s *ProductService) SetConfig(config ProductServiceConfig) {
	s.config = config
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	product, err := catalog.NewProduct(req.Name, req.Price, req.Description, req.Stock)
	if err != nil {
		return nil, err
	}
	if req.Image != "" {
		if err := product.SetImage(req.Image); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, product)
	return s.toResponse(product), nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(product), nil
}

// List retrieves a page of products with the total match count
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) ([]ProductResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]any),
	}
	if filter.InStock {
		domainFilter.Filters["in_stock"] = true
	}

	products, err := s.productRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.productRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := ToProductResponses(products)
	for i := range responses {
		responses[i].ImageURL = s.imageURL(responses[i].Image)
	}
	return responses, total, nil
}

// Update applies a partial update. The row is locked so a concurrent
// checkout cannot have its stock decrement overwritten.
func (s *ProductService) Update(ctx context.Context, productID uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	var (
		product  *catalog.Product
		oldImage string
	)
	err := s.scope.Execute(ctx, func(ctx context.Context, products catalog.ProductRepository) error {
		var err error
		product, err = products.FindByIDForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		oldImage = product.Image

		if req.Name != nil || req.Description != nil {
			name, description := product.Name, product.Description
			if req.Name != nil {
				name = *req.Name
			}
			if req.Description != nil {
				description = *req.Description
			}
			if err := product.Update(name, description); err != nil {
				return err
			}
		}
		if req.Price != nil {
			if err := product.SetPrice(*req.Price); err != nil {
				return err
			}
		}
		if req.Stock != nil {
			if err := product.SetStock(*req.Stock); err != nil {
				return err
			}
		}
		if req.Image != nil {
			if err := product.SetImage(*req.Image); err != nil {
				return err
			}
		}

		return products.Save(ctx, product)
	})
	if err != nil {
		return nil, err
	}

	if oldImage != product.Image {
		s.removeImage(ctx, productID, oldImage)
	}
	s.publishDomainEvents(ctx, product)
	return s.toResponse(product), nil
}

// Delete removes a product. Basket lines keep their snapshot price but lose
// the product link, which blocks checkout until the line is removed.
func (s *ProductService) Delete(ctx context.Context, productID uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, productID); err != nil {
		return err
	}

	logger.L(ctx).Info("product deleted", zap.String("product_id", productID.String()))
	s.removeImage(ctx, productID, product.Image)
	return nil
}

// AdjustStock applies a relative stock change. The result never drops below zero.
func (s *ProductService) AdjustStock(ctx context.Context, productID uuid.UUID, req AdjustStockRequest) (*ProductResponse, error) {
	var product *catalog.Product
	err := s.scope.Execute(ctx, func(ctx context.Context, products catalog.ProductRepository) error {
		var err error
		product, err = products.FindByIDForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if err := product.AdjustStock(req.Delta); err != nil {
			return err
		}
		return products.Save(ctx, product)
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("product stock adjusted",
		zap.String("product_id", productID.String()),
		zap.Int("delta", req.Delta),
		zap.Int("stock", product.Stock),
		zap.String("reason", req.Reason),
	)
	return s.toResponse(product), nil
}

// GenerateImageUploadURL returns a presigned URL the client PUTs the image
// to. The image is attached only after ConfirmImage.
func (s *ProductService) GenerateImageUploadURL(ctx context.Context, productID uuid.UUID, req ImageUploadRequest) (*ImageUploadResponse, error) {
	if s.images == nil {
		return nil, shared.ErrInvalidState.WithMessage("Image storage is not configured")
	}
	ext, ok := imageExtensions[req.ContentType]
	if !ok {
		return nil, shared.ErrValidation.
			WithMessage(fmt.Sprintf("Content type '%s' is not allowed. Allowed types: image/jpeg, image/png, image/webp", req.ContentType)).
			WithDetails(map[string]any{"content_type": req.ContentType})
	}

	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	key := imageKeyPrefix(productID) + uuid.NewString() + ext
	uploadURL, expiresAt, err := s.images.GenerateUploadURL(ctx, key, req.ContentType, s.config.UploadURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("generate upload url: %w", err)
	}

	return &ImageUploadResponse{
		Key:       key,
		UploadURL: uploadURL,
		ExpiresAt: expiresAt,
	}, nil
}

// ConfirmImage stores an uploaded object key as the product image after
// verifying the object exists.
func (s *ProductService) ConfirmImage(ctx context.Context, productID uuid.UUID, req ConfirmImageRequest) (*ProductResponse, error) {
	if s.images == nil {
		return nil, shared.ErrInvalidState.WithMessage("Image storage is not configured")
	}
	if !strings.HasPrefix(req.Key, imageKeyPrefix(productID)) {
		return nil, shared.ErrValidation.WithMessage("Image key does not belong to this product").
			WithDetails(map[string]any{"key": req.Key, "product_id": productID})
	}

	exists, err := s.images.ObjectExists(ctx, req.Key)
	if err != nil {
		return nil, fmt.Errorf("check uploaded image: %w", err)
	}
	if !exists {
		return nil, shared.ErrNotFound.WithMessage("Image not found in storage. Upload the file first").
			WithDetails(map[string]any{"key": req.Key})
	}

	var (
		product  *catalog.Product
		oldImage string
	)
	err = s.scope.Execute(ctx, func(ctx context.Context, products catalog.ProductRepository) error {
		var err error
		product, err = products.FindByIDForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		oldImage = product.Image
		if err := product.SetImage(req.Key); err != nil {
			return err
		}
		return products.Save(ctx, product)
	})
	if err != nil {
		return nil, err
	}

	if oldImage != req.Key {
		s.removeImage(ctx, productID, oldImage)
	}
	return s.toResponse(product), nil
}

func imageKeyPrefix(productID uuid.UUID) string {
	return "products/" + productID.String() + "/"
}

// removeImage deletes a stored object the product owned. External URLs and
// foreign keys are left alone. Failures only leave an orphaned object.
func (s *ProductService) removeImage(ctx context.Context, productID uuid.UUID, image string) {
	if s.images == nil || !strings.HasPrefix(image, imageKeyPrefix(productID)) {
		return
	}
	if err := s.images.DeleteObject(ctx, image); err != nil {
		logger.L(ctx).Warn("failed to delete product image",
			zap.String("product_id", productID.String()),
			zap.String("key", image),
			zap.Error(err),
		)
	}
}

// imageURL resolves an image reference: stored keys become public URLs and
// anything else is returned unchanged.
func (s *ProductService) imageURL(image string) string {
	if image == "" || s.images == nil || !strings.HasPrefix(image, "products/") {
		return image
	}
	return s.images.ObjectURL(image)
}

func (s *ProductService) toResponse(product *catalog.Product) *ProductResponse {
	response := ToProductResponse(product)
	response.ImageURL = s.imageURL(product.Image)
	return &response
}

func (s *ProductService) publishDomainEvents(ctx context.Context, product *catalog.Product) {
	if s.eventPublisher == nil {
		return
	}
	events := product.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		logger.L(ctx).Error("failed to publish product events", zap.Error(err))
	}
	product.ClearDomainEvents()
}
