package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/stackfinder/stackfinder/internal/i18n"
	"github.com/stackfinder/stackfinder/internal/models"
	"github.com/stackfinder/stackfinder/internal/seo"
	"github.com/stackfinder/stackfinder/internal/textutil"
)

// summaryLimit bounds listing previews.
const summaryLimit = 200

// CategoryView is a category in the requested locale.
type CategoryView struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// ProductView is a published listing in the requested locale. Summary is the
// markdown description reduced to plain text.
type ProductView struct {
	ID         string        `json:"id"`
	Slug       string        `json:"slug"`
	Name       string        `json:"name"`
	Summary    string        `json:"summary"`
	WebsiteURL string        `json:"website_url,omitempty"`
	ImageURL   string        `json:"image_url,omitempty"`
	Category   *CategoryView `json:"category,omitempty"`
}

// ProductDetail adds the full markdown description and page metadata.
type ProductDetail struct {
	ProductView
	Description string       `json:"description"`
	Meta        seo.PageMeta `json:"meta"`
}

// requestLocale resolves the locale from the query param, falling back to
// Accept-Language.
func requestLocale(c *gin.Context) language.Tag {
	if locale, matched := i18n.Parse(c.Query("locale")); matched {
		return locale
	}
	return i18n.Match(c.GetHeader("Accept-Language"))
}

func (s *Server) productView(p *models.Product, locale language.Tag) ProductView {
	view := ProductView{
		ID:         p.ID,
		Slug:       p.Slug,
		Name:       p.Name(locale),
		Summary:    textutil.Truncate(textutil.MarkdownToPlainText(p.Description(locale)), summaryLimit),
		WebsiteURL: p.WebsiteURL,
	}

	// Images that failed the host audit are withheld, not served
	if p.ImageURL != "" && !p.ImageRejected {
		view.ImageURL = p.ImageURL
	}

	if p.Category.ID != "" {
		view.Category = &CategoryView{
			ID:   p.Category.ID,
			Slug: p.Category.Slug,
			Name: p.Category.Name(locale),
		}
	}

	return view
}

// @Summary List published products
// @Tags products
// @Produce json
// @Param locale query string false "Locale code"
// @Param category query string false "Category slug filter"
// @Success 200 {array} ProductView
// @Router /api/products [get]
func (s *Server) listProducts(c *gin.Context) {
	locale := requestLocale(c)

	query := s.db.Preload("Category").Where("published = ?", true)

	if categorySlug := c.Query("category"); categorySlug != "" {
		query = query.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", categorySlug)
	}

	var products []models.Product
	if err := query.Order("products.created_at DESC").Find(&products).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list products")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	views := make([]ProductView, len(products))
	for i := range products {
		views[i] = s.productView(&products[i], locale)
	}

	c.JSON(http.StatusOK, views)
}

// @Summary Get a product by slug
// @Tags products
// @Produce json
// @Param slug path string true "Product slug"
// @Param locale query string false "Locale code"
// @Success 200 {object} ProductDetail
// @Failure 404 {object} map[string]interface{}
// @Router /api/products/{slug} [get]
func (s *Server) getProduct(c *gin.Context) {
	locale := requestLocale(c)

	var product models.Product
	err := s.db.Preload("Category").
		Where("slug = ? AND published = ?", c.Param("slug"), true).
		First(&product).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find product")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	detail := ProductDetail{
		ProductView: s.productView(&product, locale),
		Description: product.Description(locale),
		Meta: s.metaBuilder.Page(locale,
			"/products/"+product.Slug,
			product.Name(locale),
			product.Description(locale)),
	}

	c.JSON(http.StatusOK, detail)
}

// @Summary List categories
// @Tags products
// @Produce json
// @Param locale query string false "Locale code"
// @Success 200 {array} CategoryView
// @Router /api/categories [get]
func (s *Server) listCategories(c *gin.Context) {
	locale := requestLocale(c)

	var categories []models.Category
	if err := s.db.Order("slug ASC").Find(&categories).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list categories")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	views := make([]CategoryView, len(categories))
	for i, cat := range categories {
		views[i] = CategoryView{ID: cat.ID, Slug: cat.Slug, Name: cat.Name(locale)}
	}

	c.JSON(http.StatusOK, views)
}
