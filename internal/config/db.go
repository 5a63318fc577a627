package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/avast/retry-go"
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

	err := retry.Do(
		func() error {
			p, err := pgxpool.New(context.Background(), cfg.DSN)
			if err != nil {
				return err
			}
			if err := p.Ping(context.Background()); err != nil {
				p.Close()
				return err
			}
			pool = p
			return nil
		},
		retry.Attempts(5),
		retry.Delay(5*time.Second),
		retry.DelayType(retry.FixedDelay),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("Failed to connect to database (attempt %d/5): %v. Retrying...", n+1, err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	log.Println("Successfully connected to PostgreSQL!")
	return pool, nil
}

// AutoMigrate creates tables if they don't exist
func AutoMigrate(db *pgxpool.Pool) error {
	sql := `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL, -- stored lowercased
		phone TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('volunteer', 'admin')) DEFAULT 'volunteer',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS hospitals (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		state VARCHAR(2) NOT NULL CHECK (state IN ('RJ', 'SP')),
		address TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS hospital_photographers (
		hospital_id UUID NOT NULL REFERENCES hospitals(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		PRIMARY KEY (hospital_id, user_id)
	);

	-- hospital_id is a weak reference on purpose: deleting a hospital must not
	-- cascade to its visits, the denormalized hospital_name keeps them readable.
	CREATE TABLE IF NOT EXISTS visits (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		hospital_id UUID NOT NULL,
		hospital_name TEXT NOT NULL,
		description TEXT,
		visit_date DATE NOT NULL,
		visit_time TEXT NOT NULL,
		capacity INT NOT NULL CHECK (capacity > 0),
		photographer_id UUID,
		status TEXT NOT NULL CHECK (status IN ('active', 'cancelled')) DEFAULT 'active',
		recur_occurrences INT,
		recur_interval_days INT,
		recur_weekday INT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS visit_enrollments (
		id BIGSERIAL PRIMARY KEY, -- preserves enrollment order
		visit_id UUID NOT NULL REFERENCES visits(id) ON DELETE CASCADE,
		user_id UUID NOT NULL,
		UNIQUE (visit_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS visit_cancellations (
		id BIGSERIAL PRIMARY KEY,
		visit_id UUID NOT NULL REFERENCES visits(id) ON DELETE CASCADE,
		user_id UUID NOT NULL,
		reason TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reset_tokens (
		email TEXT NOT NULL,
		token VARCHAR(6) NOT NULL,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL
	);

	CREATE TABLE IF NOT EXISTS login_attempts (
		email TEXT PRIMARY KEY,
		count INT NOT NULL DEFAULT 0,
		first_at TIMESTAMP WITH TIME ZONE NOT NULL,
		locked_until TIMESTAMP WITH TIME ZONE
	);

	-- Indexes for performance
	CREATE INDEX IF NOT EXISTS idx_visits_hospital_id ON visits(hospital_id);
	CREATE INDEX IF NOT EXISTS idx_visits_status ON visits(status);
	CREATE INDEX IF NOT EXISTS idx_visit_enrollments_visit_id ON visit_enrollments(visit_id);
	CREATE INDEX IF NOT EXISTS idx_visit_enrollments_user_id ON visit_enrollments(user_id);
	CREATE INDEX IF NOT EXISTS idx_visit_cancellations_visit_id ON visit_cancellations(visit_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
	CREATE INDEX IF NOT EXISTS idx_reset_tokens_email ON reset_tokens(email);
	`
	_, err := db.Exec(context.Background(), sql)
	if err != nil {
		return fmt.Errorf("unable to apply migrations: %w", err)
	}

	log.Println("AutoMigrate applied successfully")
	return nil
}
