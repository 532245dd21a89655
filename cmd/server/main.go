package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/erp-microservices/people-and-organizations/internal/adapters/http/handler"
	"github.com/erp-microservices/people-and-organizations/internal/adapters/repository/postgres"
	"github.com/erp-microservices/people-and-organizations/internal/core/contact"
	"github.com/erp-microservices/people-and-organizations/internal/core/party"
	"github.com/erp-microservices/people-and-organizations/internal/core/relationship"
	"github.com/erp-microservices/people-and-organizations/internal/platform/config"
	pg "github.com/erp-microservices/people-and-organizations/internal/platform/db/postgres"
	"github.com/erp-microservices/people-and-organizations/internal/platform/metrics"
	"github.com/erp-microservices/people-and-organizations/internal/platform/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to initialize database pool: %v", err)
	}
	defer dbPool.Close()

	txManager := pg.NewTransactionManager(dbPool)

	taxonomyRepo := postgres.NewTaxonomyRepository(dbPool)
	partyRepo := postgres.NewPartyRepository(dbPool)
	relationshipRepo := postgres.NewRelationshipRepository(dbPool)
	contactRepo := postgres.NewContactRepository(dbPool)

	partySvc := party.NewService(partyRepo, taxonomyRepo, nil, txManager)
	relationshipSvc := relationship.NewService(relationshipRepo, taxonomyRepo, partyRepo, nil, txManager)
	contactSvc := contact.NewService(contactRepo, nil, txManager)

	m := metrics.New()
	api := handler.NewRouter(partySvc, relationshipSvc, contactSvc, m)
	httpServer := server.New(cfg.Server.ListenAddr, dbPool, api)

	log.Printf("HTTP server listening on %s", cfg.Server.ListenAddr)

	if err := httpServer.Run(ctx); err != nil {
		log.Fatalf("server stopped with error: %v", err)
	}
}
