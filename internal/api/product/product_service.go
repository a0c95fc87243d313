package product

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"

	"github.com/mlopezr/catalog-api/internal/api"
)

var _ ProductService = (*ProductServiceImpl)(nil)

type ProductService interface {
	List(ctx context.Context, filters ListFilters) (*ListResult, error)
	Get(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, req CreateProductRequest) (*Product, error)
	Update(ctx context.Context, id string, req UpdateProductRequest) (*Product, error)
	Delete(ctx context.Context, id string) (*DeleteResult, error)
}

type ProductServiceImpl struct {
	logger *slog.Logger
	repo   ProductRepository
	cache  *cache.Cache
	now    func() time.Time
}

func NewProductService(repo ProductRepository, productTTL, cleanupInterval time.Duration, logger *slog.Logger) *ProductServiceImpl {
	if productTTL <= 0 {
		productTTL = time.Minute
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}
	return &ProductServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  cache.New(productTTL, cleanupInterval),
		now:    time.Now,
	}
}

// List runs the planner-built queries through the repository and assembles
// the page with its pagination metadata. An empty page is a successful
// outcome carrying an informational message, never an error.
func (s *ProductServiceImpl) List(ctx context.Context, filters ListFilters) (*ListResult, error) {
	ctx, span := otel.Tracer("ProductService").Start(ctx, "List")
	defer span.End()

	products, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	totalPages := int((total + int64(filters.Limit) - 1) / int64(filters.Limit))

	result := &ListResult{
		Items: products,
		Pagination: Pagination{
			TotalItems:  total,
			TotalPages:  totalPages,
			CurrentPage: filters.Page,
			PageSize:    filters.Limit,
		},
	}
	if len(products) == 0 {
		result.Message = "No products matched the given criteria"
	}
	return result, nil
}

func (s *ProductServiceImpl) Get(ctx context.Context, id string) (*Product, error) {
	ctx, span := otel.Tracer("ProductService").Start(ctx, "Get")
	defer span.End()

	if cached, ok := s.cache.Get(id); ok {
		p := cached.(Product)
		return &p, nil
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, api.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}

	s.cache.SetDefault(id, *p)
	return p, nil
}

// Create injects defaults (active true unless explicitly false, stock 0)
// and stamps createdAt = updatedAt = now before persisting.
func (s *ProductServiceImpl) Create(ctx context.Context, req CreateProductRequest) (*Product, error) {
	ctx, span := otel.Tracer("ProductService").Start(ctx, "Create")
	defer span.End()

	now := s.now().UTC().Format(time.RFC3339)

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	stock := 0
	if req.Stock != nil {
		stock = *req.Stock
	}

	p := Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Stock:       stock,
		ImageURL:    req.ImageURL,
		Active:      active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.InfoContext(ctx, "Product created", slog.String("product_id", created.ID), slog.String("category", created.Category))
	return created, nil
}

// Update merges a partial payload over the existing record. A new imageUrl
// replacing an old one triggers a best-effort deletion of the old blob:
// the failure is logged and swallowed, never propagated. updatedAt is
// forced to now and createdAt can never be overwritten by the caller.
func (s *ProductServiceImpl) Update(ctx context.Context, id string, req UpdateProductRequest) (*Product, error) {
	ctx, span := otel.Tracer("ProductService").Start(ctx, "Update")
	defer span.End()

	l := s.logger.With(slog.String("method", "Update"), slog.String("product_id", id))

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, api.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch product for update: %w", err)
	}

	if req.ImageURL != nil && *req.ImageURL != "" && existing.ImageURL != "" && *req.ImageURL != existing.ImageURL {
		if err := s.repo.DeleteImage(ctx, existing.ImageURL); err != nil {
			l.WarnContext(ctx, "Failed to delete previous image, continuing", slog.Any("error", err))
		}
	}

	fields := map[string]any{}
	merged := *existing
	if req.Name != nil {
		fields["name"] = *req.Name
		merged.Name = *req.Name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
		merged.Description = *req.Description
	}
	if req.Price != nil {
		fields["price"] = *req.Price
		merged.Price = *req.Price
	}
	if req.Category != nil {
		fields["category"] = *req.Category
		merged.Category = *req.Category
	}
	if req.Stock != nil {
		fields["stock"] = *req.Stock
		merged.Stock = *req.Stock
	}
	if req.ImageURL != nil {
		fields["imageUrl"] = *req.ImageURL
		merged.ImageURL = *req.ImageURL
	}
	if req.Active != nil {
		fields["active"] = *req.Active
		merged.Active = *req.Active
	}

	now := s.now().UTC().Format(time.RFC3339)
	fields["updatedAt"] = now
	merged.UpdatedAt = now

	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.cache.Delete(id)
	l.InfoContext(ctx, "Product updated")
	return &merged, nil
}

// Delete removes the record after a best-effort deletion of its image blob.
// The second delete of the same id reports Not-Found.
func (s *ProductServiceImpl) Delete(ctx context.Context, id string) (*DeleteResult, error) {
	ctx, span := otel.Tracer("ProductService").Start(ctx, "Delete")
	defer span.End()

	l := s.logger.With(slog.String("method", "Delete"), slog.String("product_id", id))

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, api.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch product for deletion: %w", err)
	}

	if existing.ImageURL != "" {
		if err := s.repo.DeleteImage(ctx, existing.ImageURL); err != nil {
			l.WarnContext(ctx, "Failed to delete product image, continuing", slog.Any("error", err))
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}

	s.cache.Delete(id)
	l.InfoContext(ctx, "Product deleted")
	return &DeleteResult{ID: id}, nil
}
