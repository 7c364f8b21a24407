package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stackfinder/stackfinder/internal/models"
	"github.com/stackfinder/stackfinder/internal/seo"
)

// @Summary robots.txt
// @Tags seo
// @Produce plain
// @Success 200 {string} string
// @Router /robots.txt [get]
func (s *Server) robotsTxt(c *gin.Context) {
	c.String(http.StatusOK, seo.RobotsTxt(s.config.Site.BaseURL))
}

// @Summary sitemap.xml
// @Description Serves the worker-built cached sitemap, rendering on the fly
// on a cache miss
// @Tags seo
// @Produce xml
// @Success 200 {string} string
// @Router /sitemap.xml [get]
func (s *Server) sitemapXML(c *gin.Context) {
	if cached, ok, err := s.sitemapCache.Get(c.Request.Context()); err == nil && ok {
		c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(cached))
		return
	} else if err != nil {
		s.logger.Warn().Err(err).Msg("Sitemap cache unavailable, rendering directly")
	}

	xml, err := seo.Sitemap(s.config.Site.BaseURL, s.routes, s.lastContentChange())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to render sitemap")
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(xml))
}

// lastContentChange returns the most recent product update, or now for an
// empty catalog.
func (s *Server) lastContentChange() time.Time {
	var product models.Product
	err := s.db.Order("updated_at DESC").First(&product).Error
	if err != nil || product.UpdatedAt.IsZero() {
		return time.Now().UTC()
	}
	return product.UpdatedAt
}

// @Summary Page metadata
// @Description Resolves locale-aware metadata for a static registry page
// @Tags seo
// @Produce json
// @Param path query string true "Registry path"
// @Param locale query string false "Locale code"
// @Success 200 {object} seo.PageMeta
// @Failure 404 {object} map[string]interface{}
// @Router /api/meta [get]
func (s *Server) pageMeta(c *gin.Context) {
	path := c.Query("path")
	locale := requestLocale(c)

	for _, route := range s.routes {
		if route.Path == path {
			title := seo.PageTitle(locale, path)
			c.JSON(http.StatusOK, s.metaBuilder.Page(locale, path, title, ""))
			return
		}
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "Unknown page"})
}
