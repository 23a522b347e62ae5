package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"dapurmamma_app_echo/internal/models"
	"dapurmamma_app_echo/internal/services"
)

// Dev utility: the checkout flow that normally creates orders lives in the
// client app, so local testing of payment initiation and the notification
// endpoint needs a way to plant a pending order.
func main() {
	businessOrderID := flag.String("order_id", "", "Business order id (mandatory, e.g. ORD-1)")
	customerName := flag.String("name", "Test Customer", "Customer name")
	customerEmail := flag.String("email", "customer@example.com", "Customer email")
	amount := flag.Int64("amount", 50000, "Total amount in IDR")

	flag.Parse()

	if *businessOrderID == "" {
		fmt.Println("Usage: seed_order -order_id <id> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := services.InitDB(dsn)
	if err != nil {
		log.Fatalf("Failed to connect DB: %v", err)
	}

	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	order := models.Order{
		UUID:            uuid.New().String(),
		BusinessOrderID: *businessOrderID,
		CustomerName:    *customerName,
		CustomerEmail:   *customerEmail,
		TotalAmount:     *amount,
		Status:          models.OrderStatusPending,
		LineItems: []models.OrderLineItem{
			{
				ProductID: "sample-1",
				Name:      "Nasi Box Komplit",
				UnitPrice: *amount,
				Quantity:  1,
			},
		},
	}

	if err := db.Create(&order).Error; err != nil {
		log.Fatalf("Failed to create order: %v", err)
	}

	fmt.Printf("Created order ID %d (business id %s)\n", order.ID, order.BusinessOrderID)
	fmt.Printf("Public status URL: /p/orders/%s/status\n", order.UUID)
}
