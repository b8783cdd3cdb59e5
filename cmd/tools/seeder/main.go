package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/alexedwards/argon2id"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Development seeder. Populates a local database with an admin account,
// a handful of customers, the core candle catalog, costing reference data
// and a welcome promotion. Safe to run repeatedly.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	seedUsers(db)
	seedCatalog(db)
	seedCosting(db)
	seedPromotions(db)

	log.Println("seeding completed")
}

func seedUsers(db *sql.DB) {
	users := []struct {
		Name     string
		Email    string
		Role     string
		Password string
	}{
		{"Shop Admin", "admin@desertcandleworks.com", "admin", "admin-dev-password"},
		{"Maya Torres", "maya@example.com", "customer", "password123"},
		{"Jordan Lee", "jordan@example.com", "customer", "password123"},
		{"Sam Rivera", "sam@example.com", "customer", "password123"},
	}

	log.Println("seeding users...")
	for _, u := range users {
		hash, err := argon2id.CreateHash(u.Password, argon2id.DefaultParams)
		if err != nil {
			log.Fatalf("hash password for %s: %v", u.Email, err)
		}
		_, err = db.Exec(`
			INSERT INTO users (email, password_hash, name, role)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (lower(email)) DO NOTHING;
		`, u.Email, hash, u.Name, u.Role)
		if err != nil {
			log.Printf("seed user %s: %v", u.Email, err)
		}
	}
}

func seedCatalog(db *sql.DB) {
	products := []struct {
		Slug        string
		Name        string
		Description string
		Story       string
		Featured    bool
		Variants    []struct {
			SKU        string
			Scent      string
			SizeOz     int
			PriceCents int64
			Stock      int
		}
	}{
		{
			Slug:        "saguaro-sunset",
			Name:        "Saguaro Sunset",
			Description: "Warm amber and desert sage in a hand-poured soy blend.",
			Story:       "Inspired by dusk over the Sonoran desert.",
			Featured:    true,
			Variants: []struct {
				SKU        string
				Scent      string
				SizeOz     int
				PriceCents int64
				Stock      int
			}{
				{"SAG-AMB-08", "Amber Sage", 8, 2400, 40},
				{"SAG-AMB-12", "Amber Sage", 12, 3200, 25},
			},
		},
		{
			Slug:        "monsoon-rain",
			Name:        "Monsoon Rain",
			Description: "Creosote and petrichor, the smell of a desert storm.",
			Story:       "Poured in small batches after the first summer rains.",
			Featured:    true,
			Variants: []struct {
				SKU        string
				Scent      string
				SizeOz     int
				PriceCents int64
				Stock      int
			}{
				{"MON-CRE-08", "Creosote", 8, 2400, 30},
				{"MON-CRE-12", "Creosote", 12, 3200, 18},
			},
		},
		{
			Slug:        "pinon-campfire",
			Name:        "Piñon Campfire",
			Description: "Smoky piñon pine with a touch of vanilla.",
			Variants: []struct {
				SKU        string
				Scent      string
				SizeOz     int
				PriceCents int64
				Stock      int
			}{
				{"PIN-SMK-08", "Piñon Smoke", 8, 2600, 22},
			},
		},
	}

	log.Println("seeding catalog...")
	for _, p := range products {
		var productID string
		err := db.QueryRow(`
			INSERT INTO products (slug, name, description, story, featured)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5)
			ON CONFLICT (slug) DO UPDATE SET
				name = EXCLUDED.name,
				description = EXCLUDED.description,
				featured = EXCLUDED.featured,
				updated_at = now()
			RETURNING id;
		`, p.Slug, p.Name, p.Description, p.Story, p.Featured).Scan(&productID)
		if err != nil {
			log.Printf("seed product %s: %v", p.Slug, err)
			continue
		}

		for _, v := range p.Variants {
			_, err := db.Exec(`
				INSERT INTO product_variants (product_id, sku, scent, size_oz, price_cents, stock)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (sku) DO UPDATE SET
					price_cents = EXCLUDED.price_cents,
					updated_at = now();
			`, productID, v.SKU, v.Scent, v.SizeOz, v.PriceCents, v.Stock)
			if err != nil {
				log.Printf("seed variant %s: %v", v.SKU, err)
			}
		}
	}
}

func seedCosting(db *sql.DB) {
	log.Println("seeding costing reference data...")

	scents := []struct {
		Name          string
		CostPerOzCents int64
	}{
		{"Amber Sage", 210},
		{"Creosote", 185},
		{"Piñon Smoke", 240},
		{"Vanilla", 150},
	}
	for _, s := range scents {
		_, err := db.Exec(`
			INSERT INTO scents (name, cost_per_oz_cents)
			VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET cost_per_oz_cents = EXCLUDED.cost_per_oz_cents;
		`, s.Name, s.CostPerOzCents)
		if err != nil {
			log.Printf("seed scent %s: %v", s.Name, err)
		}
	}

	containers := []struct {
		Name      string
		CostCents int64
		WaterOz   float64
	}{
		{"8oz Amber Jar", 145, 8.5},
		{"12oz Amber Jar", 190, 12.8},
	}
	for _, c := range containers {
		_, err := db.Exec(`
			INSERT INTO containers (name, cost_cents, water_oz)
			VALUES ($1, $2, $3)
			ON CONFLICT (name) DO UPDATE SET
				cost_cents = EXCLUDED.cost_cents,
				water_oz = EXCLUDED.water_oz;
		`, c.Name, c.CostCents, c.WaterOz)
		if err != nil {
			log.Printf("seed container %s: %v", c.Name, err)
		}
	}
}

func seedPromotions(db *sql.DB) {
	log.Println("seeding promotions...")
	_, err := db.Exec(`
		INSERT INTO promotions (code, name, kind, discount_percent, min_order_cents)
		VALUES ('WELCOME10', 'Welcome 10% Off', 'percent', 10, 2000)
		ON CONFLICT (code) DO NOTHING;
	`)
	if err != nil {
		log.Printf("seed promotion WELCOME10: %v", err)
	}
}
