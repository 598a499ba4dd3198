package database

import (
	"fmt"
	"log"
	"os"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Connect opens the PostgreSQL connection and stores it in DB
func Connect() {
	var err error

	// Managed platforms hand us a single DATABASE_URL; some of them still
	// emit the legacy postgres:// scheme
	dsn := os.Getenv("DATABASE_URL")
	if dsn != "" {
		if strings.HasPrefix(dsn, "postgres://") {
			dsn = strings.Replace(dsn, "postgres://", "postgresql://", 1)
		}
		log.Println("Connecting via DATABASE_URL")
	} else {
		dbUser := os.Getenv("DB_USER")
		if dbUser == "" {
			dbUser = "postgres"
		}
		dbPass := os.Getenv("DB_PASS")
		dbName := os.Getenv("DB_NAME")
		if dbName == "" {
			dbName = "inawo"
		}
		dbHost := os.Getenv("DB_HOST")
		if dbHost == "" {
			dbHost = "localhost"
		}

		dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=5432 sslmode=disable",
			dbHost, dbUser, dbPass, dbName)
		log.Println("Connecting to local PostgreSQL")
	}

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		panic(err)
	}

	log.Println("✅ Database connected successfully!")
}
