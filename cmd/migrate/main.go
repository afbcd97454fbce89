package main

import (
	"flag"
	"log"
	"os"

	"flightbroker/cfg"
	"flightbroker/pkg/db"
	"flightbroker/pkg/logger"
)

func main() {
	source := flag.String("source", "file://db/migrations", "migration source URL")
	flag.Parse()

	// ============
	// Load config
	// ============
	postgres, errCfg := cfg.LoadPostgres()
	if errCfg != nil {
		log.Fatal(errCfg)
	}
	zlogger := logger.NewZeroLog(os.Getenv("APP_ENV"))

	pg := db.PostgresConfig{
		Host:     postgres.Host,
		Port:     postgres.Port,
		User:     postgres.User,
		Password: postgres.Password,
		DBName:   postgres.DBName,
		SSLMode:  postgres.SSLMode,
	}

	// =========
	// Migrate
	// =========
	if err := db.Migrate(*source, pg.DSN()); err != nil {
		log.Fatal(err)
	}
	zlogger.Info("migrations applied", logger.Field{Key: "source", Value: *source})
}
