package workers

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stackfinder/stackfinder/internal/models"
	"github.com/stackfinder/stackfinder/internal/tasks"
	"github.com/stackfinder/stackfinder/internal/textutil"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A pooled second connection would see its own empty memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.AutoMigrate(db))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, slug, imageURL string, rejected bool) *models.Product {
	t.Helper()
	category := models.Category{Slug: "tools-" + slug, NameEN: "Tools", NameES: "Herramientas"}
	require.NoError(t, db.Create(&category).Error)

	product := models.Product{
		Slug:          slug,
		NameEN:        slug,
		CategoryID:    category.ID,
		ImageURL:      imageURL,
		ImageRejected: rejected,
		Published:     true,
	}
	require.NoError(t, db.Create(&product).Error)
	return &product
}

func TestHandleImageAudit(t *testing.T) {
	db := testDB(t)

	good := seedProduct(t, db, "good", "https://cdn.stackfinder.io/good.png", false)
	bad := seedProduct(t, db, "bad", "https://evil.example.com/bad.png", false)
	recovered := seedProduct(t, db, "recovered", "https://images.unsplash.com/ok.png", true)

	task, err := tasks.NewImageAuditTask("")
	require.NoError(t, err)

	err = HandleImageAudit(context.Background(), task, db, textutil.DefaultImageHosts(), zerolog.Nop())
	require.NoError(t, err)

	var stored models.Product
	require.NoError(t, db.First(&stored, "id = ?", good.ID).Error)
	assert.False(t, stored.ImageRejected)

	stored = models.Product{}
	require.NoError(t, db.First(&stored, "id = ?", bad.ID).Error)
	assert.True(t, stored.ImageRejected, "disallowed host flagged")

	stored = models.Product{}
	require.NoError(t, db.First(&stored, "id = ?", recovered.ID).Error)
	assert.False(t, stored.ImageRejected, "allow-listed host cleared")
}

func TestHandleImageAudit_SingleProduct(t *testing.T) {
	db := testDB(t)

	target := seedProduct(t, db, "target", "https://evil.example.com/x.png", false)
	other := seedProduct(t, db, "other", "https://evil.example.com/y.png", false)

	task, err := tasks.NewImageAuditTask(target.ID)
	require.NoError(t, err)

	err = HandleImageAudit(context.Background(), task, db, textutil.DefaultImageHosts(), zerolog.Nop())
	require.NoError(t, err)

	var stored models.Product
	require.NoError(t, db.First(&stored, "id = ?", target.ID).Error)
	assert.True(t, stored.ImageRejected)

	stored = models.Product{}
	require.NoError(t, db.First(&stored, "id = ?", other.ID).Error)
	assert.False(t, stored.ImageRejected, "untargeted product untouched")
}
