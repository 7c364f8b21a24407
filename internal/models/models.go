package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/stackfinder/stackfinder/internal/i18n"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Category groups products in the directory. Names are stored per locale.
type Category struct {
	BaseModel
	Slug   string `json:"slug" gorm:"unique;not null"`
	NameEN string `json:"name_en" gorm:"not null"`
	NameES string `json:"name_es" gorm:"not null"`

	Products []Product `json:"products,omitempty" gorm:"foreignKey:CategoryID"`
}

// Name returns the category name for the given locale.
func (c *Category) Name(locale language.Tag) string {
	if locale == i18n.Spanish && c.NameES != "" {
		return c.NameES
	}
	return c.NameEN
}

// Product is a directory listing. Text fields are bilingual; descriptions are
// stored as markdown and reduced to plain text for previews.
type Product struct {
	BaseModel
	Slug          string `json:"slug" gorm:"unique;not null"`
	NameEN        string `json:"name_en" gorm:"not null"`
	NameES        string `json:"name_es"`
	DescriptionEN string `json:"description_en" gorm:"type:text"`
	DescriptionES string `json:"description_es" gorm:"type:text"`
	WebsiteURL    string `json:"website_url"`
	ImageURL      string `json:"image_url"`
	CategoryID    string `json:"category_id" gorm:"not null"`
	Published     bool   `json:"published" gorm:"not null;default:false"`

	// Set by the image audit worker when ImageURL fails the host allow-list
	ImageRejected bool      `json:"image_rejected" gorm:"not null;default:false"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Category Category `json:"category,omitzero" gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
}

// Name returns the product name for the given locale, falling back to English
// when the translation is missing.
func (p *Product) Name(locale language.Tag) string {
	if locale == i18n.Spanish && p.NameES != "" {
		return p.NameES
	}
	return p.NameEN
}

// Description returns the markdown description for the given locale.
func (p *Product) Description(locale language.Tag) string {
	if locale == i18n.Spanish && p.DescriptionES != "" {
		return p.DescriptionES
	}
	return p.DescriptionEN
}

// AdminUser is the allow-list entry gating admin-console access. Identity
// itself lives with the external auth provider; only the email is matched here.
type AdminUser struct {
	BaseModel
	Email       string     `json:"email" gorm:"unique;not null"`
	DisplayName string     `json:"display_name"`
	LastSeenAt  *time.Time `json:"last_seen_at"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Category{}, &Product{}, &AdminUser{})
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
