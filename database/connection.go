// database/connection.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/gewnthar/logbook/config"
	_ "github.com/go-sql-driver/mysql" // MariaDB driver
)

var DB *sql.DB

var schema = []string{
	`CREATE TABLE IF NOT EXISTS flights (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		flight_date DATE NOT NULL,
		duration INT NOT NULL,
		score DOUBLE NOT NULL,
		code VARCHAR(16) NOT NULL,
		hash VARCHAR(128) NOT NULL,
		track MEDIUMBLOB NOT NULL,
		profile MEDIUMBLOB NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_flights_hash (hash),
		KEY idx_flights_date (flight_date)
	)`,
	`CREATE TABLE IF NOT EXISTS import_batches (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		source VARCHAR(1024) NOT NULL,
		rows_read INT NOT NULL DEFAULT 0,
		rows_saved INT NOT NULL DEFAULT 0,
		started_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		finished_at TIMESTAMP NULL,
		error_message TEXT NULL
	)`,
}

// InitDB initializes the database connection pool.
func InitDB(cfg config.DatabaseConfig) error {
	var err error
	// DSN: username:password@protocol(address)/dbname?param=value
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
	)

	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database!")
	return nil
}

// EnsureSchema creates the logbook tables when they are missing.
func EnsureSchema(ctx context.Context) error {
	if DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}
	for _, stmt := range schema {
		if _, err := DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		DB.Close()
		log.Println("Database connection closed.")
	}
}
