package main

import (
	"fmt"
	"log"

	"github.com/mattzapanta/squares/internal/audit"
	"github.com/mattzapanta/squares/internal/config"
	"github.com/mattzapanta/squares/internal/database"
	"github.com/mattzapanta/squares/internal/router"
	"github.com/mattzapanta/squares/internal/squares"
)

func main() {
	// load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// init database
	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	// run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	// core engine plus audit trail
	engine := squares.NewEngine(db, audit.New(db))

	// setup router
	r := router.Setup(cfg, db, engine)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	log.Printf("server listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("run server: %v", err)
	}
}
