// Command migrate applies the database schema. Production deployments
// run it explicitly; development servers migrate on startup.
package main

import (
	"log"

	"murmur/internal/config"
	"murmur/internal/database"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Schema migrated")
}
