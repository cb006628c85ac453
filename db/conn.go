// Package db opens the configured database and runs migrations
package db

import (
	"fmt"
	"instabytes/moments-api/internal/model"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// New opens the database selected by database.driver. The handle is
// created once at startup and passed down through internal.Deps,
// never stored in a package-level variable.
func New() (*gorm.DB, error) {
	dsn := viper.GetString("database.dsn")

	var dial gorm.Dialector

	switch viper.GetString("database.driver") {
	case "postgres":
		dial = postgres.Open(dsn)
	default:
		dial = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dial)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	err = db.AutoMigrate(model.User{}, model.Media{}, model.Post{})
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return db, nil
}
