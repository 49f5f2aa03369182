package service

import (
	"context"
	"errors"
	"mime/multipart"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"smartsales/internal/models"
	"smartsales/internal/repository"
	"smartsales/pkg/cloudinary"
)

var skuPattern = regexp.MustCompile(`^[A-Z0-9-]{4,64}$`)

type CategoryInput struct {
	Name        string `json:"name" binding:"required,max=120"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

type ProductInput struct {
	CategoryID       uint            `json:"category_id" binding:"required"`
	Name             string          `json:"name" binding:"required,max=160"`
	SKU              string          `json:"sku" binding:"required"`
	ShortDescription string          `json:"short_description"`
	LongDescription  string          `json:"long_description"`
	Price            decimal.Decimal `json:"price" binding:"required"`
	Stock            int             `json:"stock"`
	IsActive         *bool           `json:"is_active"`
}

// CatalogService manages categories and products. Products referenced by
// orders are deactivated, never deleted; order items keep their own
// snapshots regardless.
type CatalogService struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	uploader   *cloudinary.Client
	logger     *zap.Logger
}

func NewCatalogService(categories repository.CategoryRepository, products repository.ProductRepository, uploader *cloudinary.Client, logger *zap.Logger) *CatalogService {
	return &CatalogService{categories: categories, products: products, uploader: uploader, logger: logger}
}

func (s *CatalogService) CreateCategory(ctx context.Context, in *CategoryInput) (*models.Category, error) {
	c := &models.Category{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		ImageURL:    in.ImageURL,
	}
	if c.Name == "" {
		return nil, validationErr("category name is required")
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, in *CategoryInput) (*models.Category, error) {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("category not found")
		}
		return nil, err
	}
	c.Name = strings.TrimSpace(in.Name)
	c.Description = in.Description
	if in.ImageURL != "" {
		c.ImageURL = in.ImageURL
	}
	if err := s.categories.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.categories.List(ctx)
}

func (s *CatalogService) validateProduct(in *ProductInput) error {
	in.SKU = strings.ToUpper(strings.TrimSpace(in.SKU))
	if !skuPattern.MatchString(in.SKU) {
		return validationErr("sku must be 4-64 characters of A-Z, 0-9 and dashes")
	}
	if in.Price.Sign() <= 0 {
		return validationErr("price must be greater than zero")
	}
	if in.Stock < 0 {
		return validationErr("stock cannot be negative")
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in *ProductInput) (*models.Product, error) {
	if err := s.validateProduct(in); err != nil {
		return nil, err
	}
	if _, err := s.categories.GetByID(ctx, in.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationErr("category does not exist")
		}
		return nil, err
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	p := &models.Product{
		CategoryID:       in.CategoryID,
		Name:             strings.TrimSpace(in.Name),
		SKU:              in.SKU,
		ShortDescription: in.ShortDescription,
		LongDescription:  in.LongDescription,
		Price:            in.Price.Round(2),
		Stock:            in.Stock,
		IsActive:         active,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, in *ProductInput) (*models.Product, error) {
	if err := s.validateProduct(in); err != nil {
		return nil, err
	}
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("product not found")
		}
		return nil, err
	}
	if in.CategoryID != p.CategoryID {
		if _, err := s.categories.GetByID(ctx, in.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, validationErr("category does not exist")
			}
			return nil, err
		}
	}
	p.CategoryID = in.CategoryID
	p.Name = strings.TrimSpace(in.Name)
	p.SKU = in.SKU
	p.ShortDescription = in.ShortDescription
	p.LongDescription = in.LongDescription
	p.Price = in.Price.Round(2)
	p.Stock = in.Stock
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("product not found")
		}
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	return s.products.List(ctx, filter)
}

// UploadProductImage stores the image with Cloudinary and saves the
// resulting URL as the product cover.
func (s *CatalogService) UploadProductImage(ctx context.Context, id uint, file *multipart.FileHeader) (*models.Product, error) {
	if s.uploader == nil {
		return nil, unavailableErr("image uploads are not configured", nil)
	}
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("product not found")
		}
		return nil, err
	}
	url, err := s.uploader.UploadImage(ctx, file, "products")
	if err != nil {
		s.logger.Warn("product image upload failed", zap.Uint("product_id", id), zap.Error(err))
		return nil, unavailableErr("image upload failed", err)
	}
	p.CoverImageURL = url
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
