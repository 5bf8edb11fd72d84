package service

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/assets"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository/memstore"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type CatalogServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *memstore.Store
	uploader *fakeUploader
	cache    *mapCache
	catalog  *CatalogService
}

func TestCatalogServiceSuite(t *testing.T) {
	suite.Run(t, new(CatalogServiceTestSuite))
}

func (s *CatalogServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memstore.New()
	s.uploader = &fakeUploader{}
	s.cache = newMapCache()
	s.catalog = NewCatalogService(s.store, s.uploader, s.cache, zap.NewNop())
}

func strp(v string) *string { return &v }
func floatp(v float64) *float64 { return &v }
func boolp(v bool) *bool { return &v }

func images(prefix string) [4]*assets.Image {
	var out [4]*assets.Image
	for i := range out {
		out[i] = &assets.Image{Name: prefix + string(rune('1'+i)) + ".png", ContentType: "image/png", Data: []byte("png")}
	}
	return out
}

func (s *CatalogServiceTestSuite) create(name, category, description string, price float64) *models.Product {
	p, err := s.catalog.Create(s.ctx, ProductInput{
		Name:        strp(name),
		Description: strp(description),
		Price:       floatp(price),
		Category:    strp(category),
		SubCategory: strp("Topwear"),
		Brand:       strp("  Acme "),
		BestSeller:  boolp(false),
		Images:      images(name),
	})
	require.NoError(s.T(), err)
	return p
}

func (s *CatalogServiceTestSuite) TestCreate() {
	p := s.create("Shirt", "Men", "Cotton shirt", 499)

	s.Equal(4, s.uploader.calls)
	s.Equal("https://cdn.example.com/Shirt1.png", p.Image1)
	s.Equal("https://cdn.example.com/Shirt4.png", p.Image4)
	s.Equal("Acme", p.Brand)

	stored, err := s.store.GetProduct(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Shirt", stored.Name)
}

func (s *CatalogServiceTestSuite) TestCreateValidation() {
	_, err := s.catalog.Create(s.ctx, ProductInput{Name: strp("Shirt")})
	s.Equal(http.StatusBadRequest, apperr.StatusOf(err))

	in := ProductInput{
		Name: strp("Shirt"), Description: strp("d"), Price: floatp(10),
		Category: strp("Men"), SubCategory: strp("Topwear"), Images: images("x"),
	}
	in.Images[2] = nil
	_, err = s.catalog.Create(s.ctx, in)
	s.Equal(http.StatusBadRequest, apperr.StatusOf(err))
	s.Equal(0, s.uploader.calls)

	in.Images = images("x")
	in.Price = floatp(0)
	_, err = s.catalog.Create(s.ctx, in)
	s.Equal(http.StatusBadRequest, apperr.StatusOf(err))
}

func (s *CatalogServiceTestSuite) TestCreateUploadFailurePersistsNothing() {
	s.uploader.fail = "Shirt3.png"
	_, err := s.catalog.Create(s.ctx, ProductInput{
		Name: strp("Shirt"), Description: strp("d"), Price: floatp(10),
		Category: strp("Men"), SubCategory: strp("Topwear"), Images: images("Shirt"),
	})
	s.Equal(http.StatusBadGateway, apperr.StatusOf(err))

	_, total, err := s.store.ListProducts(s.ctx, models.ProductFilter{})
	s.Require().NoError(err)
	s.Zero(total)
}

func (s *CatalogServiceTestSuite) TestSearch() {
	s.create("Blue Shirt", "Men", "Cotton", 499)
	s.create("Red Dress", "Women", "Silk (party)", 999)
	s.create("Blue Jeans", "Men", "Denim", 1299)

	found, err := s.catalog.Search(s.ctx, "blue")
	s.Require().NoError(err)
	s.Len(found, 2)

	found, err = s.catalog.Search(s.ctx, "  BLUE   denim ")
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal("Blue Jeans", found[0].Name)

	// Regex metacharacters match literally.
	found, err = s.catalog.Search(s.ctx, "(party)")
	s.Require().NoError(err)
	s.Len(found, 1)

	found, err = s.catalog.Search(s.ctx, "   ")
	s.Require().NoError(err)
	s.Empty(found)

	_, err = s.catalog.Search(s.ctx, "laptop")
	s.Equal(http.StatusNotFound, apperr.StatusOf(err))
}

func (s *CatalogServiceTestSuite) TestListPagingAndSort() {
	s.create("A", "Men", "d", 300)
	s.create("B", "Men", "d", 100)
	s.create("C", "Women", "d", 200)

	page, err := s.catalog.List(s.ctx, models.ProductFilter{SortField: "price", PerPage: 2}, false)
	s.Require().NoError(err)
	s.EqualValues(3, page.Total)
	s.Require().Len(page.Products, 2)
	s.Equal("B", page.Products[0].Name)
	s.Equal("C", page.Products[1].Name)

	page, err = s.catalog.List(s.ctx, models.ProductFilter{Category: "Men"}, false)
	s.Require().NoError(err)
	s.EqualValues(2, page.Total)
	s.Equal(1, page.Page)
	s.Equal(20, page.PerPage)

	_, err = s.catalog.List(s.ctx, models.ProductFilter{SortField: "password"}, false)
	s.Equal(http.StatusBadRequest, apperr.StatusOf(err))
}

func (s *CatalogServiceTestSuite) TestListCacheInvalidatedByWrites() {
	s.create("A", "Men", "d", 300)

	page, err := s.catalog.List(s.ctx, models.ProductFilter{}, true)
	s.Require().NoError(err)
	s.Len(page.Products, 1)

	page, err = s.catalog.List(s.ctx, models.ProductFilter{}, true)
	s.Require().NoError(err)
	s.Len(page.Products, 1)
	s.Equal(1, s.cache.hits)

	s.create("B", "Men", "d", 100)

	page, err = s.catalog.List(s.ctx, models.ProductFilter{}, true)
	s.Require().NoError(err)
	s.Len(page.Products, 2)
}

func (s *CatalogServiceTestSuite) TestProductCacheIgnoresIDCase() {
	p := s.create("Shirt", "Men", "d", 499)
	upper := strings.ToUpper(p.ID.Hex())

	got, err := s.catalog.Get(s.ctx, upper)
	s.Require().NoError(err)
	s.Equal(499.0, got.Price)

	_, err = s.catalog.Update(s.ctx, p.ID.Hex(), ProductInput{Price: floatp(599)})
	s.Require().NoError(err)

	got, err = s.catalog.Get(s.ctx, upper)
	s.Require().NoError(err)
	s.Equal(599.0, got.Price)

	s.Require().NoError(s.catalog.Delete(s.ctx, p.ID.Hex()))
	_, err = s.catalog.Get(s.ctx, upper)
	s.Equal(http.StatusNotFound, apperr.StatusOf(err))
}

func (s *CatalogServiceTestSuite) TestGetUpdateDelete() {
	p := s.create("Shirt", "Men", "d", 499)
	id := p.ID.Hex()

	_, err := s.catalog.Get(s.ctx, "not-an-id")
	s.Equal(http.StatusBadRequest, apperr.StatusOf(err))
	_, err = s.catalog.Get(s.ctx, primitive.NewObjectID().Hex())
	s.Equal(http.StatusNotFound, apperr.StatusOf(err))

	got, err := s.catalog.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("Shirt", got.Name)

	newImages := [4]*assets.Image{nil, {Name: "new2.png", ContentType: "image/png", Data: []byte("png")}}
	updated, err := s.catalog.Update(s.ctx, id, ProductInput{Price: floatp(599), Images: newImages})
	s.Require().NoError(err)
	s.Equal(599.0, updated.Price)
	s.Equal("Shirt", updated.Name)
	s.Equal("https://cdn.example.com/Shirt1.png", updated.Image1)
	s.Equal("https://cdn.example.com/new2.png", updated.Image2)

	// The cached copy was dropped by the update.
	got, err = s.catalog.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(599.0, got.Price)

	_, err = s.catalog.Update(s.ctx, primitive.NewObjectID().Hex(), ProductInput{Price: floatp(1)})
	s.Equal(http.StatusNotFound, apperr.StatusOf(err))

	s.Require().NoError(s.catalog.Delete(s.ctx, id))
	_, err = s.catalog.Get(s.ctx, id)
	s.Equal(http.StatusNotFound, apperr.StatusOf(err))
	s.Equal(http.StatusNotFound, apperr.StatusOf(s.catalog.Delete(s.ctx, id)))
}
