package workers

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/stackfinder/stackfinder/internal/models"
	"github.com/stackfinder/stackfinder/internal/seo"
	"github.com/stackfinder/stackfinder/internal/tasks"
)

// HandleSitemapRebuild renders the sitemap from the route registry and stores
// it in the cache the server reads from.
func HandleSitemapRebuild(ctx context.Context, task *asynq.Task, db *gorm.DB, cache *seo.Cache, baseURL string, logger zerolog.Logger) error {
	payload, err := tasks.ParseSitemapRebuildPayload(task)
	if err != nil {
		return err
	}

	routes, err := seo.LoadRegistry()
	if err != nil {
		return err
	}

	xml, err := seo.Sitemap(baseURL, routes, lastContentChange(db))
	if err != nil {
		return err
	}

	if err := cache.Set(ctx, xml); err != nil {
		return err
	}

	logger.Info().
		Str("reason", payload.Reason).
		Int("routes", len(routes)).
		Msg("Sitemap rebuilt")

	return nil
}

// lastContentChange returns the most recent product update, or now for an
// empty catalog.
func lastContentChange(db *gorm.DB) time.Time {
	var product models.Product
	err := db.Order("updated_at DESC").First(&product).Error
	if err != nil || product.UpdatedAt.IsZero() {
		return time.Now().UTC()
	}
	return product.UpdatedAt
}
