package database

import (
	"fmt"
	"log"
	"strings"

	config "github.com/anjiri1684/tutor_live/configs"
	"github.com/anjiri1684/tutor_live/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite:"

var DB *gorm.DB

func ConnectDB() {
	var err error
	dsn := config.Config("DATABASE_URL")
	level := LogLevel(config.String("DB_LOG_LEVEL", "warn"))

	DB, err = Open(dsn, level)
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
}

// Open connects to postgres, or to sqlite when dsn is "sqlite:<path>".
// sqlite is limited to one open connection so writes are serialized.
func Open(dsn string, level logger.LogLevel) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database: DATABASE_URL is not set")
	}

	cfg := &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   logger.Default.LogMode(level),
	}

	if strings.HasPrefix(dsn, sqlitePrefix) {
		path := strings.TrimPrefix(dsn, sqlitePrefix)
		if path == "" {
			path = ":memory:"
		}
		db, err := gorm.Open(sqlite.Open(path), cfg)
		if err != nil {
			return nil, fmt.Errorf("database: open sqlite %s: %w", path, err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("database: sqlite pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}

	db, err := gorm.Open(postgres.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("database: open postgres: %w", err)
	}
	return db, nil
}

func Migrate() {
	if err := AutoMigrate(DB); err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	fmt.Println("✅ Database migration successful")
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.AvailabilitySlot{},
		&models.CallInvitation{},
		&models.Conversation{},
		&models.Message{},
	)
}

func LogLevel(name string) logger.LogLevel {
	switch strings.ToLower(name) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
