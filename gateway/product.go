package gateway

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/assets"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/service"
	"github.com/gin-gonic/gin"
)

// @Summary Search products by keywords
// @Tags product
// @Param query query string true "whitespace separated keywords"
// @Router /api/product/search [get]
func (g *Gateway) searchProducts(c *gin.Context) {
	query := c.Query("query")
	if strings.TrimSpace(query) == "" {
		ok(c, http.StatusOK, "Please enter a search term", []models.Product{})
		return
	}

	products, err := g.catalog.Search(c.Request.Context(), query)
	if err != nil {
		if apperr.StatusOf(err) == http.StatusNotFound {
			failWithData(c, err, []models.Product{})
			return
		}
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Products found", products)
}

// @Summary List products
// @Tags product
// @Router /api/product/list [get]
func (g *Gateway) listProducts(c *gin.Context) {
	g.renderProductList(c, true)
}

func (g *Gateway) adminListProducts(c *gin.Context) {
	g.renderProductList(c, false)
}

func (g *Gateway) renderProductList(c *gin.Context, cached bool) {
	filter, err := productFilter(c)
	if err != nil {
		fail(c, err)
		return
	}

	page, err := g.catalog.List(c.Request.Context(), filter, cached)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Products fetched successfully", page)
}

func productFilter(c *gin.Context) (models.ProductFilter, error) {
	f := models.ProductFilter{
		Category:    strings.TrimSpace(c.Query("category")),
		SubCategory: strings.TrimSpace(c.Query("subCategory")),
		SortField:   c.Query("sort"),
	}

	if v := c.Query("bestSeller"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, apperr.BadRequest("bestSeller must be true or false")
		}
		f.BestSeller = &b
	}

	for name, dst := range map[string]*int{"page": &f.Page, "perPage": &f.PerPage} {
		if v := c.Query(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return f, apperr.BadRequest(name + " must be a positive integer")
			}
			*dst = n
		}
	}

	switch c.DefaultQuery("order", "desc") {
	case "desc":
		f.SortDesc = true
	case "asc":
		f.SortDesc = false
	default:
		return f, apperr.BadRequest("order must be asc or desc")
	}
	return f, nil
}

func (g *Gateway) getProduct(c *gin.Context) {
	product, err := g.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Product fetched successfully", product)
}

// @Summary Add a product
// @Tags product
// @Accept multipart/form-data
// @Router /api/product/addproduct [post]
func (g *Gateway) addProduct(c *gin.Context) {
	in, err := productInput(c)
	if err != nil {
		fail(c, err)
		return
	}

	product, err := g.catalog.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "Product added successfully", product)
}

func (g *Gateway) updateProduct(c *gin.Context) {
	in, err := productInput(c)
	if err != nil {
		fail(c, err)
		return
	}

	product, err := g.catalog.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Product Updated successfully", product)
}

func (g *Gateway) deleteProduct(c *gin.Context) {
	if err := g.catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Product deleted successfully", nil)
}

// productInput reads the multipart product form. Absent fields stay nil.
func productInput(c *gin.Context) (service.ProductInput, error) {
	var in service.ProductInput
	form, err := c.MultipartForm()
	if err != nil {
		return in, apperr.Wrap(http.StatusBadRequest, "Request must be multipart/form-data", err)
	}

	text := func(name string) *string {
		if vs, found := form.Value[name]; found && len(vs) > 0 {
			v := vs[0]
			return &v
		}
		return nil
	}
	in.Name = text("name")
	in.Description = text("description")
	in.Category = text("category")
	in.SubCategory = text("subCategory")
	in.Brand = text("brand")
	in.Type = text("type")

	if v := text("price"); v != nil {
		price, err := strconv.ParseFloat(strings.TrimSpace(*v), 64)
		if err != nil {
			return in, apperr.BadRequest("Price must be a number")
		}
		in.Price = &price
	}
	if v := text("bestSeller"); v != nil {
		best := strings.EqualFold(strings.TrimSpace(*v), "true")
		in.BestSeller = &best
	}

	for i := range in.Images {
		files := form.File[fmt.Sprintf("image%d", i+1)]
		if len(files) == 0 {
			continue
		}
		img, err := readImage(files[0])
		if err != nil {
			return in, err
		}
		in.Images[i] = img
	}
	return in, nil
}

// readImage loads an uploaded file, reading at most one byte past the size
// limit so oversized files are still rejected by validation.
func readImage(fh *multipart.FileHeader) (*assets.Image, error) {
	if fh.Size > assets.MaxImageSize {
		return nil, apperr.Wrap(http.StatusBadRequest, "Invalid image: "+fh.Filename, assets.ErrTooLarge)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, apperr.Wrap(http.StatusBadRequest, "Failed to read "+fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, assets.MaxImageSize+1))
	if err != nil {
		return nil, apperr.Wrap(http.StatusBadRequest, "Failed to read "+fh.Filename, err)
	}
	return &assets.Image{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
