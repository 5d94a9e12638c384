package database

import (
	"fmt"
	"time"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/config"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/store/gormstore"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.Config("POSTGRES_HOST"),
		config.Default("POSTGRES_PORT", "5432"),
		config.Config("POSTGRES_USER"),
		config.Config("POSTGRES_PASSWORD"),
		config.Config("POSTGRES_DB"),
		config.Default("POSTGRES_SSLMODE", "disable"),
	)
}

// PostgresConnect opens the pool and migrates the messaging tables.
func PostgresConnect() (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(PostgresDSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(config.Int("POSTGRES_MAX_OPEN_CONNS", 20))
	sqlDB.SetMaxIdleConns(config.Int("POSTGRES_MAX_IDLE_CONNS", 5))
	sqlDB.SetConnMaxLifetime(time.Hour)
	log.Info().Msg("connection opened to Postgres")

	if err := gormstore.Migrate(db); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	log.Info().Msg("Postgres database migrated")
	return db, nil
}
