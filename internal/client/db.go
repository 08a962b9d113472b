package client

import (
	"log"
	"time"

	"checkout-service/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// InitDB opens MySQL when a DSN is configured, otherwise falls back to a
// local SQLite file for development.
func InitDB(databaseURL string) *gorm.DB {
	var dialector gorm.Dialector
	if databaseURL != "" {
		dialector = mysql.Open(databaseURL)
	} else {
		dialector = sqlite.Open("checkout.db")
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal(err)
	}

	// Connection pool (important for webhooks)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.Discount{},
		&model.WebhookEvent{},
	); err != nil {
		log.Fatal(err)
	}

	return db
}
