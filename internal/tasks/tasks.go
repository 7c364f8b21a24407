package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	// Rebuild the cached sitemap from the route registry
	TypeSitemapRebuild = "sitemap:rebuild"

	// Audit stored product image URLs against the host allow-list
	TypeImageAudit = "images:audit"
)

// SitemapRebuildPayload carries the reason for the rebuild, for logging.
type SitemapRebuildPayload struct {
	Reason string `json:"reason,omitempty"`
}

// ImageAuditPayload optionally restricts the audit to one product.
type ImageAuditPayload struct {
	ProductID string `json:"product_id,omitempty"`
}

// NewSitemapRebuildTask creates a task to rebuild the cached sitemap
func NewSitemapRebuildTask(reason string) (*asynq.Task, error) {
	payload, err := json.Marshal(SitemapRebuildPayload{Reason: reason})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeSitemapRebuild, payload), nil
}

// NewImageAuditTask creates a task to audit product image URLs. An empty
// productID audits the whole catalog.
func NewImageAuditTask(productID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ImageAuditPayload{ProductID: productID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeImageAudit, payload), nil
}

// ParseSitemapRebuildPayload parses the payload from an Asynq task
func ParseSitemapRebuildPayload(task *asynq.Task) (SitemapRebuildPayload, error) {
	var payload SitemapRebuildPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}

// ParseImageAuditPayload parses the payload from an Asynq task
func ParseImageAuditPayload(task *asynq.Task) (ImageAuditPayload, error) {
	var payload ImageAuditPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}
