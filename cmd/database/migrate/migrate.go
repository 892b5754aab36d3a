package migration

import (
	entities2 "Rongsokin-Backend/entities"
	"fmt"
	"log"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	// Setup PostgreSQL extensions for geographical calculations
	db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";")
	db.Exec("CREATE EXTENSION IF NOT EXISTS \"earthdistance\" CASCADE;")
	db.Exec("CREATE EXTENSION IF NOT EXISTS \"cube\";")

	if err := db.AutoMigrate(&entities2.User{}); err != nil {
		log.Fatalf("Error migrating user database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities2.PickupRequest{}); err != nil {
		log.Fatalf("Error migrating pickup request database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities2.WasteItem{}); err != nil {
		log.Fatalf("Error migrating waste item database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities2.Transaction{}); err != nil {
		log.Fatalf("Error migrating transaction database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities2.TransactionItem{}); err != nil {
		log.Fatalf("Error migrating transaction item database: %v", err)
		return err
	}

	fmt.Println("Database migration complete")
	return nil
}
