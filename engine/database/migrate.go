package database

import (
	"database/sql"
	"embed"
	"errors"
	"log"
	"strings"

	"intent-engine/engine/internal/models"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

var DB *gorm.DB

// MigrateDatabase applies the embedded versioned SQL migrations, then runs
// GORM AutoMigrate as a safety net for columns added to the models but not
// yet captured in a migration file.
func MigrateDatabase(dsn string) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		runVersionedMigrations(dsn)
	} else {
		log.Println("WARN: DSN is not URL-shaped; skipping versioned migrations, relying on AutoMigrate only.")
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to the database with GORM: %v", err)
	}

	log.Println("Running GORM migrations...")
	err = DB.AutoMigrate(
		&models.Badge{},
		&models.UserProgress{},
		&models.BadgeUnlock{},
		&models.Campaign{},
		&models.QueuedEvent{},
	)
	if err != nil {
		log.Fatalf("Failed to perform GORM migrations: %v", err)
	}
	log.Println("GORM migrations executed successfully.")

	ensureUnlockConstraint(dsn)
}

func runVersionedMigrations(dsn string) {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		log.Fatalf("Failed to load embedded migrations: %v", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		log.Fatalf("Failed to initialize migrate instance: %v", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("Failed to apply versioned migrations: %v", err)
	}
	log.Println("Versioned SQL migrations applied.")
}

// ensureUnlockConstraint re-asserts the (user_id, badge_slug) uniqueness the
// engine's duplicate-unlock protection depends on. Raw SQL as a fallback in
// case the index was dropped out-of-band.
func ensureUnlockConstraint(dsn string) {
	dbSQL, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to connect to the database with SQL: %v", err)
	}
	defer dbSQL.Close()

	query := `CREATE UNIQUE INDEX IF NOT EXISTS idx_unlock_user_badge
        ON badge_unlocks (user_id, badge_slug);`
	if _, err := dbSQL.Exec(query); err != nil {
		log.Fatalf("Failed to ensure unlock uniqueness index: %v", err)
	}
	log.Println("Unlock uniqueness index verified.")
}
