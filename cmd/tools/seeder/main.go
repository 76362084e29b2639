package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/alexedwards/argon2id"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedUsers(db)
	seedCatalog(db)
	seedVouchers(db)

	log.Println("Seeding completed successfully!")
}

func seedUsers(db *sql.DB) {
	users := []struct {
		Name  string
		Email string
		Role  string
	}{
		{"Admin User", "admin@subshop.dev", "admin"},
		{"Ayu Customer", "ayu@example.com", "customer"},
		{"Bima Customer", "bima@example.com", "customer"},
	}

	log.Println("Seeding Users...")
	hash, err := argon2id.CreateHash("password123", argon2id.DefaultParams)
	if err != nil {
		log.Fatalf("Failed to hash seed password: %v", err)
	}
	for _, u := range users {
		_, err := db.Exec(`
			INSERT INTO users (name, email, password_hash, role)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (email) DO NOTHING;
		`, u.Name, u.Email, hash, u.Role)
		if err != nil {
			log.Printf("Failed to seed user %s: %v", u.Email, err)
		}
	}
}

func seedCatalog(db *sql.DB) {
	products := []struct {
		Name        string
		Description string
		Category    string
		Tiers       []struct {
			Months   int
			Base     string
			Discount string
		}
	}{
		{
			Name:        "Linear Basic",
			Description: "Entry plan for individuals",
			Category:    "subscription",
			Tiers: []struct {
				Months   int
				Base     string
				Discount string
			}{
				{1, "999.00", "0"},
				{12, "999.00", "20"},
			},
		},
		{
			Name:        "Linear Pro",
			Description: "Full feature set for small teams",
			Category:    "subscription",
			Tiers: []struct {
				Months   int
				Base     string
				Discount string
			}{
				{1, "2499.00", "0"},
				{12, "2499.00", "25"},
			},
		},
		{
			Name:        "Linear Enterprise",
			Description: "Advanced controls and priority support",
			Category:    "subscription",
			Tiers: []struct {
				Months   int
				Base     string
				Discount string
			}{
				{1, "7999.00", "0"},
				{12, "7999.00", "30"},
			},
		},
	}

	log.Println("Seeding Catalog...")
	for _, p := range products {
		var productID string
		err := db.QueryRow(`
			INSERT INTO products (name, description, category, active)
			VALUES ($1, $2, $3, TRUE)
			RETURNING id;
		`, p.Name, p.Description, p.Category).Scan(&productID)
		if err != nil {
			log.Printf("Failed to seed product %s: %v", p.Name, err)
			continue
		}
		for _, t := range p.Tiers {
			_, err := db.Exec(`
				INSERT INTO subscription_tiers (product_id, duration_months, base_price, discount_percent, active)
				VALUES ($1, $2, $3, $4, TRUE)
				ON CONFLICT (product_id, duration_months)
				DO UPDATE SET base_price = EXCLUDED.base_price, discount_percent = EXCLUDED.discount_percent, active = TRUE;
			`, productID, t.Months, t.Base, t.Discount)
			if err != nil {
				log.Printf("Failed to seed tier %s/%d: %v", p.Name, t.Months, err)
			}
		}
	}
}

func seedVouchers(db *sql.DB) {
	log.Println("Seeding Vouchers...")
	_, err := db.Exec(`
		INSERT INTO vouchers (code, discount_percent, max_discount_amount, minimum_order_amount, expiry_date, max_uses, used_count, active)
		VALUES ('SAVE10', 10, 500.00, 0, now() + interval '90 days', 100, 0, TRUE)
		ON CONFLICT DO NOTHING;
	`)
	if err != nil {
		log.Printf("Failed to seed voucher SAVE10: %v", err)
	}
}
