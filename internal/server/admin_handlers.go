package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stackfinder/stackfinder/internal/models"
	"github.com/stackfinder/stackfinder/internal/tasks"
)

// CreateProductRequest creates a new directory listing
type CreateProductRequest struct {
	Slug          string `json:"slug" binding:"required"`
	NameEN        string `json:"name_en" binding:"required"`
	NameES        string `json:"name_es"`
	DescriptionEN string `json:"description_en"`
	DescriptionES string `json:"description_es"`
	WebsiteURL    string `json:"website_url" binding:"omitempty,url"`
	ImageURL      string `json:"image_url"`
	CategoryID    string `json:"category_id" binding:"required"`
	Published     bool   `json:"published"`
}

// UpdateProductRequest updates an existing listing; nil fields are untouched
type UpdateProductRequest struct {
	NameEN        *string `json:"name_en"`
	NameES        *string `json:"name_es"`
	DescriptionEN *string `json:"description_en"`
	DescriptionES *string `json:"description_es"`
	WebsiteURL    *string `json:"website_url"`
	ImageURL      *string `json:"image_url"`
	CategoryID    *string `json:"category_id"`
	Published     *bool   `json:"published"`
}

// CreateCategoryRequest creates a category
type CreateCategoryRequest struct {
	Slug   string `json:"slug" binding:"required"`
	NameEN string `json:"name_en" binding:"required"`
	NameES string `json:"name_es" binding:"required"`
}

// GrantAdminRequest adds an email to the admin allow-list
type GrantAdminRequest struct {
	Email       string `json:"email" binding:"required,email"`
	DisplayName string `json:"display_name"`
}

// @Summary List all products including unpublished
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Product
// @Router /api/admin/products [get]
func (s *Server) adminListProducts(c *gin.Context) {
	var products []models.Product
	if err := s.db.Preload("Category").Order("created_at DESC").Find(&products).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list products")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, products)
}

// @Summary Create product
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateProductRequest true "Product"
// @Success 201 {object} models.Product
// @Failure 400 {object} map[string]interface{}
// @Router /api/admin/products [post]
func (s *Server) createProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.validator.Var(req.Slug, "slug"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Slug must be lowercase alphanumeric with hyphens"})
		return
	}

	if req.ImageURL != "" && !s.imageHosts.Allow(req.ImageURL) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image URL host is not on the allow-list"})
		return
	}

	var category models.Category
	if err := models.FindByID(s.db, req.CategoryID, &category); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown category"})
		return
	}

	product := &models.Product{
		Slug:          req.Slug,
		NameEN:        req.NameEN,
		NameES:        req.NameES,
		DescriptionEN: req.DescriptionEN,
		DescriptionES: req.DescriptionES,
		WebsiteURL:    req.WebsiteURL,
		ImageURL:      req.ImageURL,
		CategoryID:    req.CategoryID,
		Published:     req.Published,
	}

	if err := s.db.Create(product).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create product")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().
		Str("product_id", product.ID).
		Str("slug", product.Slug).
		Str("created_by", sessionData.Email).
		Msg("Product created")

	c.JSON(http.StatusCreated, product)
}

// @Summary Update product
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param request body UpdateProductRequest true "Fields to update"
// @Success 200 {object} models.Product
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/products/{id} [put]
func (s *Server) updateProduct(c *gin.Context) {
	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var product models.Product
	if err := models.FindByID(s.db, c.Param("id"), &product); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find product")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if req.ImageURL != nil && *req.ImageURL != "" && !s.imageHosts.Allow(*req.ImageURL) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image URL host is not on the allow-list"})
		return
	}

	updates := map[string]interface{}{}
	if req.NameEN != nil {
		updates["name_en"] = *req.NameEN
	}
	if req.NameES != nil {
		updates["name_es"] = *req.NameES
	}
	if req.DescriptionEN != nil {
		updates["description_en"] = *req.DescriptionEN
	}
	if req.DescriptionES != nil {
		updates["description_es"] = *req.DescriptionES
	}
	if req.WebsiteURL != nil {
		updates["website_url"] = *req.WebsiteURL
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
		updates["image_rejected"] = false // re-audited by the worker
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}
	if req.Published != nil {
		updates["published"] = *req.Published
	}

	if len(updates) > 0 {
		if err := s.db.Model(&product).Updates(updates).Error; err != nil {
			s.logger.Error().Err(err).Msg("Failed to update product")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
			return
		}
	}

	c.JSON(http.StatusOK, product)
}

// @Summary Delete product
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/products/{id} [delete]
func (s *Server) deleteProduct(c *gin.Context) {
	var product models.Product
	if err := models.FindByID(s.db, c.Param("id"), &product); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find product")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := s.db.Delete(&product).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete product")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().
		Str("product_id", product.ID).
		Str("deleted_by", sessionData.Email).
		Msg("Product deleted")

	c.Status(http.StatusNoContent)
}

// @Summary Create category
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCategoryRequest true "Category"
// @Success 201 {object} models.Category
// @Router /api/admin/categories [post]
func (s *Server) createCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.validator.Var(req.Slug, "slug"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Slug must be lowercase alphanumeric with hyphens"})
		return
	}

	category := &models.Category{Slug: req.Slug, NameEN: req.NameEN, NameES: req.NameES}
	if err := s.db.Create(category).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create category")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}

	c.JSON(http.StatusCreated, category)
}

// @Summary List allow-listed admins
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.AdminUser
// @Router /api/admin/admins [get]
func (s *Server) listAdmins(c *gin.Context) {
	admins, err := s.adminService.List(c.Request.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list admins")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, admins)
}

// @Summary Grant admin access
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body GrantAdminRequest true "Admin"
// @Success 201 {object} models.AdminUser
// @Router /api/admin/admins [post]
func (s *Server) grantAdmin(c *gin.Context) {
	var req GrantAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	adminUser, err := s.adminService.Grant(c.Request.Context(), req.Email, req.DisplayName)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to grant admin access")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to grant admin access"})
		return
	}

	c.JSON(http.StatusCreated, adminUser)
}

// @Summary Revoke admin access
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param email path string true "Admin email"
// @Success 204
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/admins/{email} [delete]
func (s *Server) revokeAdmin(c *gin.Context) {
	email := c.Param("email")

	sessionData, _ := GetSessionData(c)
	// Prevent revoking yourself
	if email == sessionData.Email {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot revoke yourself"})
		return
	}

	if err := s.adminService.Revoke(c.Request.Context(), email); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Admin not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to revoke admin access")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke admin access"})
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Trigger sitemap rebuild
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 202 {object} map[string]interface{}
// @Router /api/admin/sitemap/rebuild [post]
func (s *Server) rebuildSitemap(c *gin.Context) {
	task, err := tasks.NewSitemapRebuildTask("manual")
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build sitemap task")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if _, err := s.asynqClient.EnqueueContext(c.Request.Context(), task); err != nil {
		s.logger.Error().Err(err).Msg("Failed to enqueue sitemap rebuild")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue task"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "enqueued"})
}

// @Summary Trigger product image audit
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 202 {object} map[string]interface{}
// @Router /api/admin/images/audit [post]
func (s *Server) auditImages(c *gin.Context) {
	task, err := tasks.NewImageAuditTask("")
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build image audit task")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if _, err := s.asynqClient.EnqueueContext(c.Request.Context(), task); err != nil {
		s.logger.Error().Err(err).Msg("Failed to enqueue image audit")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue task"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "enqueued"})
}
