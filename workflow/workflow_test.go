package workflow

import (
	"path/filepath"
	"testing"

	"restaurant-orders-api/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	migrateAndSeed(t, db)
	return db
}

// newFileTestDB backs the database with a file so multiple connections can
// contend for it, which the in-memory single-connection setup cannot.
func newFileTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "workflow.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	migrateAndSeed(t, db)
	return db
}

func migrateAndSeed(t *testing.T, db *gorm.DB) {
	t.Helper()

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Category{},
		&models.MenuItem{},
		&models.CartLine{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
	))

	for _, name := range []string{models.GroupManager, models.GroupDeliveryCrew} {
		require.NoError(t, db.Create(&models.Group{Name: name}).Error)
	}
}

func seedUser(t *testing.T, db *gorm.DB, username string, groups ...string) *models.User {
	t.Helper()

	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(&user).Error)

	for _, name := range groups {
		var g models.Group
		require.NoError(t, db.Where("name = ?", name).First(&g).Error)
		require.NoError(t, db.Model(&user).Association("Groups").Append(&g))
	}

	require.NoError(t, db.Preload("Groups").First(&user, user.ID).Error)
	return &user
}

func seedMenuItem(t *testing.T, db *gorm.DB, title, price string) *models.MenuItem {
	t.Helper()

	var category models.Category
	if err := db.Where("title = ?", "Mains").First(&category).Error; err != nil {
		category = models.Category{Slug: "mains", Title: "Mains"}
		require.NoError(t, db.Create(&category).Error)
	}

	p, err := decimal.NewFromString(price)
	require.NoError(t, err)

	item := models.MenuItem{
		Title:      title,
		Price:      p,
		CategoryID: category.ID,
		Available:  true,
	}
	require.NoError(t, db.Create(&item).Error)
	return &item
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
