package config

import (
	"log"
	"os"

	"restaurant-orders-api/models"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// JWTSecret used to sign tokens, read from env or fallback
var JWTSecret []byte

type Config struct {
	Port    string
	GinMode string
	DBPath  string
	AMQPURL string
}

// Load reads .env (if present) and environment variables.
func Load() *Config {
	godotenv.Load()

	JWTSecret = []byte(getEnv("JWT_SECRET", "restaurant_orders_super_secret_2025"))

	return &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", ""),
		DBPath:  getEnv("DB_PATH", "restaurant_orders.db"),
		AMQPURL: getEnv("AMQP_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func InitDB(path string) {
	var err error
	DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate all models
	err = DB.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Category{},
		&models.MenuItem{},
		&models.CartLine{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	seedGroups(DB)

	log.Println("Database connected and migrated")
}

// seedGroups makes sure the role groups exist before any membership call.
func seedGroups(db *gorm.DB) {
	for _, name := range []string{models.GroupManager, models.GroupDeliveryCrew} {
		var g models.Group
		if err := db.Where("name = ?", name).First(&g).Error; err != nil {
			db.Create(&models.Group{Name: name})
		}
	}
}
