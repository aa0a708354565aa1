package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/netsentinel/console/backend/internal/models"
)

// Seeds the local database with demo users and a spread of traffic samples so
// the dashboard has something to show on first boot.
func main() {
	dbPath := os.Getenv("NSC_DB_PATH")
	if dbPath == "" {
		dbPath = "./data/netsentinel.db"
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.TrafficSample{},
		&models.Alert{},
		&models.BlockedIP{},
		&models.User{},
		&models.AuditLog{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	fmt.Println("✓ Database migrated successfully")

	seedUsers(db)
	seedTraffic(db)

	fmt.Println("\n✓ Database seeding completed successfully!")
}

func seedUsers(db *gorm.DB) {
	adminPassword := os.Getenv("NSC_DEFAULT_ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "changeme"
	}

	users := []struct {
		email    string
		name     string
		role     models.Role
		password string
	}{
		{"admin@localhost", "Administrator", models.RoleAdmin, adminPassword},
		{"analyst@localhost", "SOC Analyst", models.RoleAnalyst, "analyst"},
		{"viewer@localhost", "Read Only", models.RoleViewer, "viewer"},
	}

	for _, u := range users {
		user := models.User{Email: u.email, Name: u.name, Role: u.role, Enabled: true}
		if err := user.SetPassword(u.password); err != nil {
			log.Printf("Failed to hash password for %s: %v", u.email, err)
			continue
		}
		result := db.Where("email = ?", u.email).FirstOrCreate(&user)
		if result.Error != nil {
			log.Printf("Failed to seed user %s: %v", u.email, result.Error)
		} else if result.RowsAffected > 0 {
			fmt.Printf("✓ Created user: %s (%s)\n", u.email, u.role)
		} else {
			fmt.Printf("  User already exists: %s\n", u.email)
		}
	}
}

func seedTraffic(db *gorm.DB) {
	var count int64
	db.Model(&models.TrafficSample{}).Count(&count)
	if count > 0 {
		fmt.Printf("  Traffic samples already present (%d), skipping\n", count)
		return
	}

	attacks := []string{"DDoS", "PortScan", "BruteForce", "Botnet"}
	now := time.Now().UTC()

	for i := 0; i < 200; i++ {
		isAttack := rand.Intn(5) == 0
		conf := 0.55 + rand.Float64()*0.44
		state := models.TrafficStateNormal
		attackType := ""
		if isAttack {
			state = models.TrafficStateAttack
			attackType = attacks[rand.Intn(len(attacks))]
		}

		sample := models.TrafficSample{
			Timestamp:       now.Add(-time.Duration(rand.Intn(24*60)) * time.Minute),
			SourceIP:        fmt.Sprintf("10.%d.%d.%d", rand.Intn(255), rand.Intn(255), rand.Intn(254)+1),
			DestIP:          fmt.Sprintf("192.168.1.%d", rand.Intn(254)+1),
			SourcePort:      1024 + rand.Intn(64000),
			DestPort:        []int{22, 80, 443, 3306, 8080}[rand.Intn(5)],
			Protocol:        []string{"TCP", "UDP"}[rand.Intn(2)],
			PacketSize:      64 + rand.Intn(1400),
			FlowDuration:    rand.Float64() * 120,
			TotalFwdPackets: int64(rand.Intn(5000)),
			TotalBwdPackets: int64(rand.Intn(5000)),
			TotalFwdBytes:   int64(rand.Intn(1 << 20)),
			TotalBwdBytes:   int64(rand.Intn(1 << 20)),
			IsAttack:        &isAttack,
			AttackType:      attackType,
			Confidence:      &conf,
			TrafficState:    state,
		}
		if err := db.Create(&sample).Error; err != nil {
			log.Printf("Failed to seed traffic sample: %v", err)
			return
		}
	}
	fmt.Println("✓ Created 200 demo traffic samples")
}
