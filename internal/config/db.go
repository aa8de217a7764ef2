package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DBConfig holds database connection parameters
type DBConfig struct {
	DSN string
}

// LoadDBConfig loads database configuration from environment variables
func LoadDBConfig() (*DBConfig, error) {
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")

	if dbHost == "" || dbPort == "" || dbUser == "" || dbName == "" {
		return nil, fmt.Errorf("database environment variables not set (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPassword, dbName)

	return &DBConfig{DSN: dsn}, nil
}

// ConnectDB establishes a connection to the PostgreSQL database
func ConnectDB(cfg *DBConfig) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var err error

	// Retry connecting to the database a few times
	maxRetries := 5
	retryInterval := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		pool, err = pgxpool.New(context.Background(), cfg.DSN)
		if err == nil {
			err = pool.Ping(context.Background())
			if err == nil {
				log.Println("Successfully connected to PostgreSQL!")
				return pool, nil
			}
		}
		log.Printf("Failed to connect to database (attempt %d/%d): %v. Retrying in %v...", i+1, maxRetries, err, retryInterval)
		time.Sleep(retryInterval)
	}
	return nil, fmt.Errorf("unable to connect to database after %d attempts: %w", maxRetries, err)
}

// AutoMigrate creates tables if they don't exist
func AutoMigrate(db *pgxpool.Pool) error {
	sql := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		photo TEXT,
		role TEXT NOT NULL CHECK (role IN ('user', 'guide', 'lead-guide', 'admin')) DEFAULT 'user',
		password_hash TEXT NOT NULL,
		password_changed_at TIMESTAMP WITH TIME ZONE,
		password_reset_token TEXT,
		password_reset_expires TIMESTAMP WITH TIME ZONE,
		refresh_token_hash TEXT,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS tours (
		id BIGSERIAL PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		duration INT NOT NULL,
		max_group_size INT NOT NULL,
		difficulty TEXT NOT NULL CHECK (difficulty IN ('easy', 'medium', 'difficult')),
		ratings_average DOUBLE PRECISION NOT NULL DEFAULT 4.5,
		ratings_quantity INT NOT NULL DEFAULT 0,
		price DOUBLE PRECISION NOT NULL,
		price_discount DOUBLE PRECISION,
		summary TEXT NOT NULL,
		description TEXT,
		image_cover TEXT,
		images TEXT[] NOT NULL DEFAULT '{}',
		start_lat DOUBLE PRECISION,
		start_lng DOUBLE PRECISION,
		start_address TEXT,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS reviews (
		id BIGSERIAL PRIMARY KEY,
		review TEXT NOT NULL,
		rating INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
		tour_id BIGINT NOT NULL REFERENCES tours(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (tour_id, user_id)
	);

	-- Indexes for performance
	CREATE INDEX IF NOT EXISTS idx_users_reset_token ON users(password_reset_token);
	CREATE INDEX IF NOT EXISTS idx_users_refresh_token ON users(refresh_token_hash);
	CREATE INDEX IF NOT EXISTS idx_tours_price ON tours(price);
	CREATE INDEX IF NOT EXISTS idx_tours_ratings_average ON tours(ratings_average);
	CREATE INDEX IF NOT EXISTS idx_reviews_tour_id ON reviews(tour_id);
	`
	_, err := db.Exec(context.Background(), sql)
	if err != nil {
		return fmt.Errorf("unable to apply migrations: %w", err)
	}

	log.Println("AutoMigrate applied successfully")
	return nil
}
