package workers

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/stackfinder/stackfinder/internal/models"
	"github.com/stackfinder/stackfinder/internal/tasks"
	"github.com/stackfinder/stackfinder/internal/textutil"
)

// HandleImageAudit re-checks stored product image URLs against the host
// allow-list and flags listings whose image must be withheld.
func HandleImageAudit(ctx context.Context, task *asynq.Task, db *gorm.DB, hosts *textutil.HostAllowList, logger zerolog.Logger) error {
	payload, err := tasks.ParseImageAuditPayload(task)
	if err != nil {
		return err
	}

	query := db.WithContext(ctx).Where("image_url <> ''")
	if payload.ProductID != "" {
		query = query.Where("id = ?", payload.ProductID)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return err
	}

	var flagged, cleared int
	for i := range products {
		product := &products[i]
		rejected := !hosts.Allow(product.ImageURL)
		if rejected == product.ImageRejected {
			continue
		}

		if err := db.WithContext(ctx).Model(product).Update("image_rejected", rejected).Error; err != nil {
			return err
		}

		if rejected {
			flagged++
			logger.Warn().
				Str("product_id", product.ID).
				Str("image_url", product.ImageURL).
				Msg("Product image host not allow-listed")
		} else {
			cleared++
		}
	}

	logger.Info().
		Int("checked", len(products)).
		Int("flagged", flagged).
		Int("cleared", cleared).
		Msg("Image audit complete")

	return nil
}
