package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/assets"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	productCacheTTL = 10 * time.Minute
	listCacheTTL    = 2 * time.Minute
	listGenKey      = "products:gen"

	defaultPerPage = 20
	maxPerPage     = 100
)

var sortFields = map[string]bool{"createdAt": true, "price": true, "name": true}

// ProductInput carries the fields of a create or update. Nil fields are left
// untouched on update; create requires all of them except Brand and Type.
type ProductInput struct {
	Name        *string
	Description *string
	Price       *float64
	Category    *string
	SubCategory *string
	Brand       *string
	Type        *string
	BestSeller  *bool
	Images      [4]*assets.Image
}

type CatalogService struct {
	products ProductStore
	uploader AssetUploader
	cache    Cache
	logger   *zap.Logger
}

// NewCatalogService builds the catalog. cache may be nil.
func NewCatalogService(products ProductStore, uploader AssetUploader, cache Cache, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		products: products,
		uploader: uploader,
		cache:    cache,
		logger:   logger.Named("catalog"),
	}
}

// Search matches every whitespace-separated keyword against the text fields.
// An empty query returns no products and no error.
func (s *CatalogService) Search(ctx context.Context, query string) ([]models.Product, error) {
	keywords := strings.Fields(query)
	if len(keywords) == 0 {
		return []models.Product{}, nil
	}

	products, _, err := s.products.ListProducts(ctx, models.ProductFilter{
		Keywords:  keywords,
		SortField: "createdAt",
		SortDesc:  true,
	})
	if err != nil {
		return nil, apperr.Internal("Search failed", err)
	}
	if len(products) == 0 {
		return nil, apperr.NotFound("No products found")
	}
	return products, nil
}

// NormalizeFilter applies paging and sort defaults and rejects unknown sort
// fields.
func NormalizeFilter(f models.ProductFilter) (models.ProductFilter, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = defaultPerPage
	}
	if f.PerPage > maxPerPage {
		f.PerPage = maxPerPage
	}
	if f.SortField == "" {
		f.SortField = "createdAt"
		f.SortDesc = true
	}
	if !sortFields[f.SortField] {
		return f, apperr.BadRequest("sort must be one of createdAt, price, name")
	}
	f.Keywords = nil
	return f, nil
}

// List returns one page of products. Cached pages are keyed by the list
// generation so that any catalog write retires them.
func (s *CatalogService) List(ctx context.Context, filter models.ProductFilter, cached bool) (*models.ProductPage, error) {
	filter, err := NormalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	var key string
	if cached && s.cache != nil {
		key = s.listKey(ctx, filter)
		var page models.ProductPage
		if s.cacheGet(ctx, key, &page) {
			return &page, nil
		}
	}

	products, total, err := s.products.ListProducts(ctx, filter)
	if err != nil {
		return nil, apperr.Internal("Failed to list products", err)
	}
	page := &models.ProductPage{
		Products: products,
		Total:    total,
		Page:     filter.Page,
		PerPage:  filter.PerPage,
	}

	if key != "" {
		s.cacheSet(ctx, key, page, listCacheTTL)
	}
	return page, nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*models.Product, error) {
	oid, err := parseID(id, "Invalid product ID")
	if err != nil {
		return nil, err
	}

	key := productKey(oid)
	if s.cache != nil {
		var product models.Product
		if s.cacheGet(ctx, key, &product) {
			return &product, nil
		}
	}

	product, err := s.products.GetProduct(ctx, oid)
	if err != nil {
		return nil, storeErr(err, "Product not found", "Failed to load product")
	}

	if s.cache != nil {
		s.cacheSet(ctx, key, product, productCacheTTL)
	}
	return product, nil
}

func (s *CatalogService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	if in.Name == nil || in.Description == nil || in.Price == nil || in.Category == nil || in.SubCategory == nil ||
		strings.TrimSpace(*in.Name) == "" || strings.TrimSpace(*in.Description) == "" ||
		strings.TrimSpace(*in.Category) == "" || strings.TrimSpace(*in.SubCategory) == "" {
		return nil, apperr.BadRequest("All required fields must be filled")
	}
	if *in.Price <= 0 {
		return nil, apperr.BadRequest("Price must be greater than zero")
	}
	for _, img := range in.Images {
		if img == nil {
			return nil, apperr.BadRequest("All four images are required")
		}
	}

	product := &models.Product{}
	applyInput(product, in)

	if err := s.uploadImages(ctx, product, in.Images); err != nil {
		return nil, err
	}
	if err := s.products.CreateProduct(ctx, product); err != nil {
		return nil, apperr.Internal("Failed to save product", err)
	}

	s.invalidate(ctx, product.ID)
	s.logger.Info("product created", zap.String("product_id", product.ID.Hex()))
	return product, nil
}

func (s *CatalogService) Update(ctx context.Context, id string, in ProductInput) (*models.Product, error) {
	oid, err := parseID(id, "Invalid product ID")
	if err != nil {
		return nil, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, apperr.BadRequest("Name cannot be empty")
	}
	if in.Price != nil && *in.Price <= 0 {
		return nil, apperr.BadRequest("Price must be greater than zero")
	}

	product, err := s.products.GetProduct(ctx, oid)
	if err != nil {
		return nil, storeErr(err, "Product not found", "Failed to load product")
	}

	applyInput(product, in)
	if err := s.uploadImages(ctx, product, in.Images); err != nil {
		return nil, err
	}
	if err := s.products.UpdateProduct(ctx, product); err != nil {
		return nil, storeErr(err, "Product not found", "Error updating product")
	}

	s.invalidate(ctx, oid)
	s.logger.Info("product updated", zap.String("product_id", id))
	return product, nil
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id, "Invalid product ID")
	if err != nil {
		return err
	}
	if err := s.products.DeleteProduct(ctx, oid); err != nil {
		return storeErr(err, "Product not found", "Failed to delete product")
	}

	s.invalidate(ctx, oid)
	s.logger.Info("product deleted", zap.String("product_id", id))
	return nil
}

func applyInput(p *models.Product, in ProductInput) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&p.Name, in.Name)
	set(&p.Description, in.Description)
	set(&p.Category, in.Category)
	set(&p.SubCategory, in.SubCategory)
	set(&p.Brand, in.Brand)
	set(&p.Type, in.Type)
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.BestSeller != nil {
		p.BestSeller = *in.BestSeller
	}
}

// uploadImages uploads every provided image concurrently and sets the URLs on
// p only when all of them succeeded.
func (s *CatalogService) uploadImages(ctx context.Context, p *models.Product, images [4]*assets.Image) error {
	var urls [4]string
	g, gctx := errgroup.WithContext(ctx)
	for i, img := range images {
		if img == nil {
			continue
		}
		g.Go(func() error {
			url, err := s.uploader.Upload(gctx, *img)
			if err != nil {
				return fmt.Errorf("image%d: %w", i+1, err)
			}
			urls[i] = url
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, assets.ErrTooLarge) || errors.Is(err, assets.ErrNotImage) {
			return apperr.Wrap(http.StatusBadRequest, "Invalid image: "+err.Error(), err)
		}
		s.logger.Error("image upload failed", zap.Error(err))
		return apperr.BadGateway("Image upload failed", err)
	}

	for i, url := range urls {
		if url != "" {
			p.SetImage(i+1, url)
		}
	}
	return nil
}

// productKey uses the canonical lower-case hex so every spelling of an id
// shares one entry.
func productKey(id primitive.ObjectID) string {
	return "product:" + id.Hex()
}

func (s *CatalogService) listKey(ctx context.Context, f models.ProductFilter) string {
	var gen int64
	if err := s.cache.GetJSON(ctx, listGenKey, &gen); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("cache read failed", zap.String("key", listGenKey), zap.Error(err))
	}

	raw, _ := json.Marshal(f)
	sum := sha1.Sum(raw)
	return fmt.Sprintf("products:list:%d:%s", gen, hex.EncodeToString(sum[:]))
}

func (s *CatalogService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	err := s.cache.GetJSON(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (s *CatalogService) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if err := s.cache.SetJSON(ctx, key, value, ttl); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *CatalogService) invalidate(ctx context.Context, id primitive.ObjectID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, productKey(id)); err != nil {
		s.logger.Warn("cache delete failed", zap.String("product_id", id.Hex()), zap.Error(err))
	}
	if _, err := s.cache.Incr(ctx, listGenKey); err != nil {
		s.logger.Warn("cache generation bump failed", zap.Error(err))
	}
}
