/*
 * @module service/init
 * @description Service initialization: database connection, migrations and global service singletons
 * @architecture layered architecture - service layer
 * @documentReference dev_docs/qs_score_requirements.md
 * @stateFlow executed once from main before the HTTP router is mounted
 * @rules all dependencies must be up before the API starts serving
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres
 * @refs dev_docs/qs_score_model.md
 */

package service

import (
	"fmt"
	"log"
	"os"

	"qs-service/service/database"
	"qs-service/service/distributed_lock"
	"qs-service/service/qsscore"
	"qs-service/service/scheduler"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	DB                    *gorm.DB
	GlobalQSScoreService  *qsscore.Service
	GlobalRecalcScheduler *scheduler.RecalculationScheduler
)

// Init connects the database, runs migrations and wires the global
// services. Called explicitly from main so tests can install their own DB.
func Init() {
	initDatabase()
	runMigrations()
	initServices()
}

// initDatabase opens the database connection
func initDatabase() {
	var dsn string

	// DATABASE_URL wins when present
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		dsn = databaseURL
	} else {
		host := getEnvWithDefault("DB_HOST", "localhost")
		port := getEnvWithDefault("DB_PORT", "5432")
		user := getEnvWithDefault("DB_USER", "postgres")
		password := getEnvWithDefault("DB_PASSWORD", "postgres")
		dbname := getEnvWithDefault("DB_NAME", "postgres")
		sslmode := getEnvWithDefault("DB_SSLMODE", "disable")
		schema := getEnvWithDefault("DB_SCHEMA", "public")

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s TimeZone=America/Sao_Paulo",
			host, port, user, password, dbname, sslmode, schema)
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	log.Println("database connected")
}

// getEnvWithDefault returns an environment variable or a fallback value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// runMigrations runs database migrations
func runMigrations() {
	if err := database.AutoMigrate(DB); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	if err := database.InitializeData(DB); err != nil {
		log.Fatalf("base data initialization failed: %v", err)
	}
}

// initServices wires the global services
func initServices() {
	GlobalQSScoreService = qsscore.NewService(DB)

	// distributed lock is optional, replicas without redis just run the
	// scheduled sweep unguarded
	var executor *distributed_lock.LockExecutor
	if lock, err := distributed_lock.NewRedisLock(); err != nil {
		log.Printf("redis lock unavailable, scheduled sweeps run unguarded: %v", err)
	} else {
		executor = distributed_lock.NewLockExecutor(lock)
	}

	GlobalRecalcScheduler = scheduler.NewRecalculationScheduler(DB, GlobalQSScoreService, executor)
	if err := GlobalRecalcScheduler.Start(); err != nil {
		log.Printf("starting recalculation scheduler failed: %v", err)
	}

	log.Println("service initialization finished")
}
