package main

import (
	"context"
	"flag"
	"time"

	"lead_quality_backend/internal/events"
	"lead_quality_backend/internal/leads"
	"lead_quality_backend/platform/config"
	"lead_quality_backend/platform/kvstore"
	"lead_quality_backend/platform/logger"
	"lead_quality_backend/platform/validator"
)

func main() {
	concurrency := flag.Int("concurrency", 8, "number of leads scored in parallel")
	scan := flag.Bool("scan", false, "run a duplicate scan after rescoring")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting lead rescore backfill", "store", cfg.StoreBackend, "concurrency", *concurrency)

	ctx := context.Background()
	backend, err := kvstore.Open(ctx, cfg)
	if err != nil {
		log.Error("failed to open store", "error", err)
		panic("failed to open store: " + err.Error())
	}
	defer backend.Close()

	leadsModule, err := leads.NewModule(backend.Store, events.NewInMemoryBus(log), validator.New(), cfg, log, nil)
	if err != nil {
		log.Error("failed to initialize leads module", "error", err)
		panic("failed to initialize leads module: " + err.Error())
	}
	svc := leadsModule.Service()

	start := time.Now()
	scored, failed, err := svc.RescoreAll(ctx, *concurrency)
	if err != nil {
		log.Error("lead rescore backfill aborted", "error", err, "scored", scored, "failed", failed)
		return
	}
	log.Info("lead rescore backfill completed", "scored", scored, "failed", failed, "took", time.Since(start).String())

	if !*scan {
		return
	}

	result, err := svc.ScanDuplicates(ctx)
	if err != nil {
		log.Error("duplicate scan failed", "error", err)
		return
	}
	log.Info("duplicate scan completed", "scanned", result.Scanned, "groups", len(result.Groups), "suppressed", result.Suppressed)
}
